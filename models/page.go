package models

import (
	"time"

	"gorm.io/gorm"
)

// StoryPage is one page of a project. Index is 0-based and order-preserving;
// ImageURL is never empty after creation (failed generation gets a placeholder).
type StoryPage struct {
	ID          string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectId   string    `gorm:"index" json:"projectId"`
	Idx         int       `gorm:"column:idx" json:"index"`
	ImagePrompt string    `json:"imagePrompt"`
	ImageURL    string    `json:"imageUrl"`
	Caption     string    `json:"caption"`
	AudioURL    string    `json:"audioUrl,omitempty"`
	VideoURL    string    `json:"videoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (StoryPage) TableName() string {
	return "story_page"
}

func BatchCreatePages(db *gorm.DB, pages []StoryPage) error {
	if len(pages) == 0 {
		return nil
	}
	return db.Create(&pages).Error
}

func GetPagesByProjectID(db *gorm.DB, projectID string) ([]StoryPage, error) {
	var res []StoryPage
	if err := db.Where("project_id = ?", projectID).Order("idx ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func GetPageByID(db *gorm.DB, projectID, pageID string) (*StoryPage, error) {
	var p StoryPage
	if err := db.First(&p, "id = ? AND project_id = ?", pageID, projectID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePageFields applies a partial update and bumps the owning project's
// updated_at in the same transaction. Page order is never touched here.
func UpdatePageFields(db *gorm.DB, projectID, pageID string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()
	return db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&StoryPage{}).
			Where("id = ? AND project_id = ?", pageID, projectID).
			Updates(updates)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return TouchProject(tx, projectID)
	})
}
