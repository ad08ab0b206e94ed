package api

import (
	"net/http"
	"time"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateProject accepts a story brief, reserves nothing yet (the pipeline
// debits atomically as its first step) and enqueues a generation task.
// Obviously underfunded requests are rejected up front.
func CreateProject(c *gin.Context) {
	var req struct {
		Theme     string `json:"theme" binding:"required"`
		Genre     string `json:"genre"`
		Style     string `json:"style"`
		PageCount int    `json:"page_count"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PageCount <= 0 {
		req.PageCount = 5
	}
	if req.Genre == "" {
		req.Genre = models.ProjectGenres[0]
	}
	if req.Style == "" {
		req.Style = models.ArtStyles[1]
	}
	if !models.ValidGenre(req.Genre) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown genre: " + req.Genre})
		return
	}
	if !models.ValidStyle(req.Style) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown style: " + req.Style})
		return
	}

	storyReq := service.StoryRequest{
		Theme:     req.Theme,
		Genre:     req.Genre,
		Style:     req.Style,
		PageCount: req.PageCount,
	}
	if !service.DefaultLedger.CanAfford(storyReq.Cost()) {
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error":   "insufficient credits",
			"cost":    storyReq.Cost(),
			"balance": service.DefaultLedger.Balance(),
		})
		return
	}

	task := models.Task{
		ID:       uuid.NewString(),
		Type:     models.TaskTypeStory,
		Status:   models.TaskStatusPending,
		Progress: 0,
		Message:  "story generation queued",
		Parameters: models.TaskParameters{
			Story: &models.StoryParams{
				Theme:     req.Theme,
				Genre:     req.Genre,
				Style:     req.Style,
				PageCount: req.PageCount,
			},
		},
	}
	if err := models.CreateTask(models.GormDB, &task); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create task: " + err.Error()})
		return
	}
	if err := service.EnqueueTask(task.ID); err != nil {
		service.Log.Errorf("story task enqueue failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"task_id": task.ID,
		"cost":    storyReq.Cost(),
		"message": "story generation started",
	})
}

func ListProjects(c *gin.Context) {
	projects, err := models.ListProjects(models.GormDB)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list projects: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects, "total": len(projects)})
}

func GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := models.GetProjectByID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found: " + err.Error()})
		return
	}
	pages, err := models.GetPagesByProjectID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pages: " + err.Error()})
		return
	}
	project.Pages = pages

	c.JSON(http.StatusOK, gin.H{"project": project})
}

// UpdateProject edits project metadata. Regeneration goes through the page
// endpoints, not here.
func UpdateProject(c *gin.Context) {
	projectID := c.Param("project_id")
	var req struct {
		Title string `json:"title"`
		Genre string `json:"genre"`
		Style string `json:"style"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Genre != "" {
		if !models.ValidGenre(req.Genre) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown genre: " + req.Genre})
			return
		}
		updates["genre"] = req.Genre
	}
	if req.Style != "" {
		if !models.ValidStyle(req.Style) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown style: " + req.Style})
			return
		}
		updates["style"] = req.Style
	}
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}
	if err := models.UpdateProjectByID(models.GormDB, projectID, updates); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update project: " + err.Error()})
		return
	}

	project, err := models.GetProjectByID(models.GormDB, projectID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// DeleteProject cancels any running generation for the project, then removes
// it with its pages and tasks. Stored page media is left behind on purpose;
// presigned URLs expire on their own.
func DeleteProject(c *gin.Context) {
	projectID := c.Param("project_id")

	var running []models.Task
	if err := models.GormDB.
		Where("project_id = ? AND status = ?", projectID, models.TaskStatusProcessing).
		Find(&running).Error; err == nil {
		for i := range running {
			if service.CancelRunningTask(running[i].ID) {
				service.Log.Infow("cancelled task before project delete", "task", running[i].ID)
			}
			_ = running[i].UpdateStatus(models.GormDB, models.TaskStatusCancelled, nil, "cancelled due to project delete")
		}
	}

	if err := models.DeleteProjectByID(models.GormDB, projectID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete project: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"deletedAt": time.Now(),
	})
}
