package service

import (
	"encoding/json"
	"fmt"
	"time"

	"lumina-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeGenerateTask = "lumina:generate"
)

type TaskPayload struct {
	TaskID string `json:"task_id"`
}

var QueueClient *asynq.Client

func InitQueue() {
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueTask submits a generation task by DB id.
func EnqueueTask(taskID string) error {
	payload, err := json.Marshal(TaskPayload{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGenerateTask, payload,
		asynq.MaxRetry(0), // retries would double-debit; failures refund instead
		asynq.Timeout(30*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	Log.Infow("task enqueued", "task", taskID, "queue_id", info.ID)
	return nil
}
