package api

import (
	"errors"
	"net/http"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func briefError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "insufficient credits",
			"balance": service.DefaultLedger.Balance(),
		})
	default:
		var ge *service.GenerationError
		if errors.As(err, &ge) {
			c.JSON(http.StatusBadGateway, gin.H{"error": ge.Error(), "kind": ge.Kind})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// GenerateAdCampaign produces a flat-cost ad visual and logs it as an asset.
func GenerateAdCampaign(c *gin.Context) {
	var req struct {
		Product  string `json:"product" binding:"required"`
		Audience string `json:"audience"`
		Style    string `json:"style"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := service.DefaultPipeline.RunBrief(c.Request.Context(), service.BriefRequest{
		Kind:     service.BriefAd,
		Prompt:   req.Product,
		Audience: req.Audience,
		Style:    req.Style,
	})
	if err != nil && !errors.Is(err, service.ErrSaveFailure) {
		briefError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset":   asset,
		"balance": service.DefaultLedger.Balance(),
	})
}

func GenerateCharacter(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
		Style       string `json:"style"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	asset, err := service.DefaultPipeline.RunBrief(c.Request.Context(), service.BriefRequest{
		Kind:   service.BriefCharacter,
		Prompt: req.Description,
		Style:  req.Style,
	})
	if err != nil && !errors.Is(err, service.ErrSaveFailure) {
		briefError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset":   asset,
		"balance": service.DefaultLedger.Balance(),
	})
}

// LabGenerate is the ad-hoc creative lab: images run inline, video goes
// through the task queue because of the provider's long-poll contract.
func LabGenerate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt" binding:"required"`
		Type   string `json:"type"` // "image" (default) or "video"
		Style  string `json:"style"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Type == "video" {
		if !service.DefaultLedger.CanAfford(service.CostVideo) {
			c.JSON(http.StatusPaymentRequired, gin.H{
				"error":   "insufficient credits",
				"cost":    service.CostVideo,
				"balance": service.DefaultLedger.Balance(),
			})
			return
		}
		labTask := models.Task{
			ID:      uuid.NewString(),
			Type:    models.TaskTypeLabVideo,
			Status:  models.TaskStatusPending,
			Message: "lab video queued",
			Parameters: models.TaskParameters{
				Brief: &models.BriefParams{Prompt: req.Prompt, Style: req.Style},
			},
		}
		if err := models.CreateTask(models.GormDB, &labTask); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task: " + err.Error()})
			return
		}
		if err := service.EnqueueTask(labTask.ID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"task_id": labTask.ID, "cost": service.CostVideo})
		return
	}

	asset, err := service.DefaultPipeline.RunBrief(c.Request.Context(), service.BriefRequest{
		Kind:   service.BriefLabImage,
		Prompt: req.Prompt,
		Style:  req.Style,
	})
	if err != nil && !errors.Is(err, service.ErrSaveFailure) {
		briefError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset":   asset,
		"balance": service.DefaultLedger.Balance(),
	})
}

func ListAssets(c *gin.Context) {
	assets, err := models.ListAssets(models.GormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list assets: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assets": assets, "total": len(assets)})
}
