package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Task statuses used across the system.
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"
	TaskStatusCancelled  = "cancelled"

	// Generation task types handled by the processor.
	TaskTypeStory     = "generate_story"
	TaskTypeAd        = "generate_ad"
	TaskTypeCharacter = "generate_character"
	TaskTypePageVideo = "generate_page_video"
	TaskTypeLabVideo  = "generate_lab_video"
)

type Task struct {
	ID         string         `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId  string         `gorm:"index" json:"projectId,omitempty"`
	PageId     string         `json:"pageId,omitempty"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Progress   int            `json:"progress"`
	Message    string         `json:"message"`
	Parameters TaskParameters `gorm:"type:json" json:"parameters"`
	Result     TaskResult     `gorm:"type:json" json:"result"`
	Error      string         `json:"error"`
	StartedAt  *time.Time     `json:"startedAt,omitempty"`
	FinishedAt *time.Time     `json:"finishedAt,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

type TaskParameters struct {
	Story *StoryParams `json:"story,omitempty"`
	Brief *BriefParams `json:"brief,omitempty"`
	Video *VideoParams `json:"video,omitempty"`
}

// StoryParams drives a full story pipeline run.
type StoryParams struct {
	Theme     string `json:"theme"`
	Genre     string `json:"genre"`
	Style     string `json:"style"`
	PageCount int    `json:"page_count"`
}

// BriefParams drives the flat-cost ad / character flows.
type BriefParams struct {
	Prompt   string `json:"prompt"`
	Audience string `json:"audience,omitempty"`
	Style    string `json:"style,omitempty"`
}

type VideoParams struct {
	Prompt      string `json:"prompt"`
	SourceImage string `json:"source_image,omitempty"`
}

// TaskResult keeps minimal resource location info.
type TaskResult struct {
	ResourceType string `json:"resource_type,omitempty"` // "project", "asset", "video"
	ResourceId   string `json:"resource_id,omitempty"`
	ResourceUrl  string `json:"resource_url,omitempty"`
}

func (p TaskParameters) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *TaskParameters) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, p)
}

func (r TaskResult) Value() (driver.Value, error) {
	return json.Marshal(r)
}

func (r *TaskResult) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, r)
}

func (Task) TableName() string {
	return "task"
}

func CreateTask(db *gorm.DB, t *Task) error {
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now
	return db.Create(t).Error
}

func GetTaskByID(db *gorm.DB, taskID string) (*Task, error) {
	var task Task
	if err := db.First(&task, "id = ?", taskID).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (t *Task) UpdateStatus(db *gorm.DB, status string, result *TaskResult, errMsg string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if result != nil {
		b, err := json.Marshal(result)
		if err == nil {
			updates["result"] = b
		}
	}
	if errMsg != "" {
		updates["error"] = errMsg
	}
	switch status {
	case TaskStatusProcessing:
		updates["started_at"] = time.Now()
	case TaskStatusSuccess, TaskStatusFailed, TaskStatusCancelled:
		updates["finished_at"] = time.Now()
	}
	return db.Model(t).Updates(updates).Error
}

func (t *Task) UpdateProgress(db *gorm.DB, progress int, message string) error {
	return db.Model(t).Updates(map[string]interface{}{
		"progress":   progress,
		"message":    message,
		"updated_at": time.Now(),
	}).Error
}
