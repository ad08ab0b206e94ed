package models

import (
	"time"

	"gorm.io/gorm"
)

// Project types mirror what the studio can produce.
const (
	ProjectTypeStory = "story"
	ProjectTypeVideo = "video"
	ProjectTypeAudio = "audio"
	ProjectTypeEbook = "ebook"
	ProjectTypeAd    = "ad"
)

// Supported genres for outline generation.
var ProjectGenres = []string{
	"Kids", "Horror", "Sci-Fi", "Education", "Fantasy", "Cinematic", "Marketing",
}

// Supported art styles for image generation.
var ArtStyles = []string{
	"Anime", "Comic Book", "Cinematic Realistic", "Watercolor Painting",
	"8-bit Pixel Art", "Veo Cinematic", "Authentic UGC",
}

type Project struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Title     string    `json:"title"`
	Genre     string    `json:"genre"`
	Style     string    `json:"style"`
	Type      string    `json:"type"`
	PageCount int       `json:"pageCount"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Pages []StoryPage `gorm:"-" json:"pages,omitempty"`
}

func (Project) TableName() string {
	return "project"
}

func ValidGenre(g string) bool {
	for _, v := range ProjectGenres {
		if v == g {
			return true
		}
	}
	return false
}

func ValidStyle(s string) bool {
	for _, v := range ArtStyles {
		if v == s {
			return true
		}
	}
	return false
}

func CreateProject(db *gorm.DB, p *Project) error {
	return db.Create(p).Error
}

func GetProjectByID(db *gorm.DB, id string) (*Project, error) {
	var p Project
	if err := db.First(&p, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func ListProjects(db *gorm.DB) ([]Project, error) {
	var res []Project
	if err := db.Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func UpdateProjectByID(db *gorm.DB, id string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	return db.Model(&Project{}).Where("id = ?", id).Updates(updates).Error
}

// TouchProject bumps updated_at only, used after page-level mutations.
func TouchProject(db *gorm.DB, id string) error {
	return db.Model(&Project{}).Where("id = ?", id).
		Update("updated_at", time.Now()).Error
}

// DeleteProjectByID removes the project together with its pages and tasks.
func DeleteProjectByID(db *gorm.DB, id string) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("project_id = ?", id).Delete(&StoryPage{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&Project{}, "id = ?", id).Error
	})
}
