package api

import (
	"errors"
	"net/http"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func GetPages(c *gin.Context) {
	projectID := c.Param("project_id")

	pages, err := models.GetPagesByProjectID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pages: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"pages":       pages,
		"project_id":  projectID,
		"total_pages": len(pages),
	})
}

func GetPageDetail(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")

	page, err := models.GetPageByID(models.GormDB, projectID, pageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

// UpdatePage edits caption and/or image prompt in place. Only the given
// fields change; page order and other pages are untouched.
func UpdatePage(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")

	var req struct {
		Caption     string `json:"caption"`
		ImagePrompt string `json:"image_prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updates := map[string]interface{}{}
	if req.Caption != "" {
		updates["caption"] = req.Caption
	}
	if req.ImagePrompt != "" {
		updates["image_prompt"] = req.ImagePrompt
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if err := models.UpdatePageFields(models.GormDB, projectID, pageID, updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update page: " + err.Error()})
		return
	}
	page, err := models.GetPageByID(models.GormDB, projectID, pageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"page": page})
}

func projectStyle(c *gin.Context, projectID string) (string, bool) {
	project, err := models.GetProjectByID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found: " + err.Error()})
		return "", false
	}
	return project.Style, true
}

// enrichmentError maps service errors to API responses. Generation failures
// are dismissible; the page was left untouched and the debit refunded.
func enrichmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientCredits):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "insufficient credits",
			"balance": service.DefaultLedger.Balance(),
		})
	case errors.Is(err, service.ErrSaveFailure):
		c.JSON(http.StatusOK, gin.H{"warning": err.Error()})
	default:
		var ge *service.GenerationError
		if errors.As(err, &ge) {
			c.JSON(http.StatusBadGateway, gin.H{"error": ge.Error(), "kind": ge.Kind})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func RegeneratePageImage(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")
	style, ok := projectStyle(c, projectID)
	if !ok {
		return
	}

	imageURL, err := service.DefaultEnricher.Regenerate(c.Request.Context(), projectID, pageID, style)
	if err != nil {
		enrichmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page_id":   pageID,
		"image_url": imageURL,
		"balance":   service.DefaultLedger.Balance(),
	})
}

func UpscalePage(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")
	style, ok := projectStyle(c, projectID)
	if !ok {
		return
	}

	page, err := service.DefaultEnricher.Upscale(c.Request.Context(), projectID, pageID, style)
	if err != nil {
		enrichmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page":    page,
		"balance": service.DefaultLedger.Balance(),
	})
}

// GeneratePageVideo is long-running: it queues a task, the processor owns
// the poll loop, and progress streams over the task websocket.
func GeneratePageVideo(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")

	page, err := models.GetPageByID(models.GormDB, projectID, pageID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found: " + err.Error()})
		return
	}
	if !service.DefaultLedger.CanAfford(service.CostVideo) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "insufficient credits",
			"cost":    service.CostVideo,
			"balance": service.DefaultLedger.Balance(),
		})
		return
	}

	task := models.Task{
		ID:        uuid.NewString(),
		ProjectId: projectID,
		PageId:    page.ID,
		Type:      models.TaskTypePageVideo,
		Status:    models.TaskStatusPending,
		Message:   "video synthesis queued",
		Parameters: models.TaskParameters{
			Video: &models.VideoParams{
				Prompt:      page.ImagePrompt,
				SourceImage: page.ImageURL,
			},
		},
	}
	if err := models.CreateTask(models.GormDB, &task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task: " + err.Error()})
		return
	}
	if err := service.EnqueueTask(task.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"cost":    service.CostVideo,
		"message": "video synthesis started",
	})
}

func NarratePage(c *gin.Context) {
	projectID := c.Param("project_id")
	pageID := c.Param("page_id")

	audioURL, err := service.DefaultEnricher.Narrate(c.Request.Context(), projectID, pageID)
	if err != nil {
		enrichmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"page_id":   pageID,
		"audio_url": audioURL,
		"balance":   service.DefaultLedger.Balance(),
	})
}
