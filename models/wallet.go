package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription tiers. Elite is treated as an infinite balance.
const (
	TierFree  = "free"
	TierPro   = "pro"
	TierElite = "elite"
)

// DefaultWalletID keys the single wallet row of this deployment.
const DefaultWalletID = "default"

type Wallet struct {
	ID           string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Balance      int64      `json:"balance"`
	Tier         string     `json:"tier"`
	ProGrantedAt *time.Time `json:"proGrantedAt,omitempty"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

func (Wallet) TableName() string {
	return "wallet"
}

func ValidTier(t string) bool {
	return t == TierFree || t == TierPro || t == TierElite
}

// GetOrCreateWallet loads the wallet row, seeding a fresh one with the
// starting grant when none exists yet.
func GetOrCreateWallet(db *gorm.DB, id string, startingBalance int64) (*Wallet, error) {
	var w Wallet
	err := db.First(&w, "id = ?", id).Error
	if err == nil {
		return &w, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}
	w = Wallet{ID: id, Balance: startingBalance, Tier: TierFree, UpdatedAt: time.Now()}
	if err := db.Create(&w).Error; err != nil {
		return nil, err
	}
	return &w, nil
}

func SaveWalletBalance(db *gorm.DB, id string, balance int64) error {
	return db.Model(&Wallet{}).Where("id = ?", id).Updates(map[string]interface{}{
		"balance":    balance,
		"updated_at": time.Now(),
	}).Error
}

// ProGrantPeriod is the minimum time between pro subscription credit grants.
const ProGrantPeriod = 30 * 24 * time.Hour

// ClaimProGrant records the monthly pro grant as taken if one is due and
// reports whether the caller should credit it. Tier round-trips inside the
// period claim nothing.
func ClaimProGrant(db *gorm.DB, id string) (bool, error) {
	var w Wallet
	if err := db.First(&w, "id = ?", id).Error; err != nil {
		return false, err
	}
	if w.ProGrantedAt != nil && time.Since(*w.ProGrantedAt) < ProGrantPeriod {
		return false, nil
	}
	now := time.Now()
	if err := db.Model(&Wallet{}).Where("id = ?", id).Updates(map[string]interface{}{
		"pro_granted_at": now,
		"updated_at":     now,
	}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func SaveWalletTier(db *gorm.DB, id string, tier string) error {
	return db.Model(&Wallet{}).Where("id = ?", id).Updates(map[string]interface{}{
		"tier":       tier,
		"updated_at": time.Now(),
	}).Error
}
