package api

import (
	"net/http"
	"time"

	"lumina-server/models"
	"lumina-server/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func GetTaskStatus(c *gin.Context) {
	taskID := c.Param("task_id")
	t, err := models.GetTaskByID(models.GormDB, taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": t})
}

// CancelTask aborts a running generation. The pipeline refunds the reserved
// credits on abort the same way it does on failure.
func CancelTask(c *gin.Context) {
	taskID := c.Param("task_id")
	t, err := models.GetTaskByID(models.GormDB, taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "task not found: " + err.Error()})
		return
	}

	cancelled := service.CancelRunningTask(taskID)
	if !cancelled && t.Status == models.TaskStatusPending {
		// never started; just mark it so the processor skips it
		_ = t.UpdateStatus(models.GormDB, models.TaskStatusCancelled, nil, "cancelled before start")
		cancelled = true
	}
	c.JSON(http.StatusOK, gin.H{"task_id": taskID, "cancelled": cancelled})
}

// TaskProgressWebSocket pushes task status from the DB: send the current row,
// then poll and push on every status/progress change until the task settles.
func TaskProgressWebSocket(c *gin.Context) {
	taskID := c.Param("task_id")
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "websocket upgrade failed"})
		return
	}
	defer conn.Close()

	t, err := models.GetTaskByID(models.GormDB, taskID)
	if err != nil {
		_ = conn.WriteJSON(map[string]interface{}{"error": "task not found: " + err.Error()})
		return
	}
	_ = conn.WriteJSON(t)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	prevStatus := t.Status
	prevProgress := t.Progress

	for range ticker.C {
		cur, err := models.GetTaskByID(models.GormDB, taskID)
		if err != nil {
			continue
		}

		if cur.Status != prevStatus || cur.Progress != prevProgress {
			if err := conn.WriteJSON(cur); err != nil {
				break
			}
			prevStatus = cur.Status
			prevProgress = cur.Progress
		}

		switch cur.Status {
		case models.TaskStatusSuccess, models.TaskStatusFailed, models.TaskStatusCancelled:
			_ = conn.WriteJSON(cur)
			return
		}
	}
}
