package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	AssetTypeImage = "image"
	AssetTypeVideo = "video"
)

// Asset is an append-only log entry for side productions from the ad-hoc
// generation tools (lab, ads, character forge). Not tied to a project.
type Asset struct {
	ID        string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

func (Asset) TableName() string {
	return "asset"
}

func CreateAsset(db *gorm.DB, a *Asset) error {
	a.CreatedAt = time.Now()
	return db.Create(a).Error
}

func ListAssets(db *gorm.DB) ([]Asset, error) {
	var res []Asset
	if err := db.Order("created_at DESC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}
