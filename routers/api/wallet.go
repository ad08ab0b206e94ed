package api

import (
	"net/http"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
)

func GetWallet(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"balance": service.DefaultLedger.Balance(),
		"tier":    service.DefaultLedger.Tier(),
		"packs":   service.CreditPacks,
	})
}

// PurchaseCredits applies a credit pack. Payment processing itself lives
// outside this server; this endpoint records the grant.
func PurchaseCredits(c *gin.Context) {
	var req struct {
		PackID string `json:"pack_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var pack *service.CreditPack
	for i := range service.CreditPacks {
		if service.CreditPacks[i].ID == req.PackID {
			pack = &service.CreditPacks[i]
			break
		}
	}
	if pack == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown pack: " + req.PackID})
		return
	}
	if err := service.DefaultLedger.Credit(pack.Amount); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to credit wallet: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"balance": service.DefaultLedger.Balance(),
		"granted": pack.Amount,
	})
}

func Subscribe(c *gin.Context) {
	var req struct {
		Tier string `json:"tier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidTier(req.Tier) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown tier: " + req.Tier})
		return
	}

	previous := service.DefaultLedger.Tier()
	if err := service.DefaultLedger.SetTier(req.Tier); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set tier: " + err.Error()})
		return
	}
	// switching up to pro comes with its monthly credit grant, at most once
	// per grant period so tier round-trips cannot farm credits
	if req.Tier == models.TierPro && previous != models.TierPro {
		granted, err := models.ClaimProGrant(models.GormDB, models.DefaultWalletID)
		if err != nil {
			service.Log.Errorf("pro grant check failed: %v", err)
		} else if granted {
			if err := service.DefaultLedger.Credit(service.ProMonthlyGrant); err != nil {
				service.Log.Errorf("pro grant failed: %v", err)
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"tier":    service.DefaultLedger.Tier(),
		"balance": service.DefaultLedger.Balance(),
	})
}
