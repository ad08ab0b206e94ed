package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"lumina-server/config"
	"lumina-server/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// runCancelRegistry maps a running task id to its cancel func so API calls
// (task cancel, project delete) can abort pipelines and poll loops. Aborts
// take the same refund path as failures.
var runCancelRegistry = struct {
	sync.Mutex
	m map[string]context.CancelFunc
}{
	m: make(map[string]context.CancelFunc),
}

func registerRunCancel(taskID string, cancel context.CancelFunc) {
	runCancelRegistry.Lock()
	defer runCancelRegistry.Unlock()
	runCancelRegistry.m[taskID] = cancel
}

func unregisterRunCancel(taskID string) {
	runCancelRegistry.Lock()
	defer runCancelRegistry.Unlock()
	delete(runCancelRegistry.m, taskID)
}

// CancelRunningTask aborts a running generation task. Returns whether a
// running task was actually found.
func CancelRunningTask(taskID string) bool {
	runCancelRegistry.Lock()
	defer runCancelRegistry.Unlock()
	if cancel, ok := runCancelRegistry.m[taskID]; ok {
		cancel()
		delete(runCancelRegistry.m, taskID)
		return true
	}
	return false
}

// Processor consumes queued generation tasks and drives the pipeline.
type Processor struct {
	DB       *gorm.DB
	Pipeline *Pipeline
	Enricher *Enricher
}

func NewProcessor(db *gorm.DB, pipeline *Pipeline, enricher *Enricher) *Processor {
	return &Processor{DB: db, Pipeline: pipeline, Enricher: enricher}
}

func (p *Processor) StartProcessor(concurrency int) {
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGenerateTask, p.HandleGenerateTask)

	Log.Infof("starting task processor, concurrency=%d", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			Log.Fatalf("could not run task processor: %v", err)
		}
	}()
}

func (p *Processor) HandleGenerateTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	task, err := models.GetTaskByID(p.DB, payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v", err)
	}
	return p.runTask(ctx, task)
}

// runTask drives one fetched task through the pipeline. A task cancelled
// between enqueue and delivery is dropped before any state change or debit.
func (p *Processor) runTask(ctx context.Context, task *models.Task) error {
	if task.Status == models.TaskStatusCancelled {
		Log.Infow("skipping cancelled task", "task", task.ID)
		return nil
	}

	Log.Infow("processing task", "task", task.ID, "type", task.Type)
	if err := task.UpdateStatus(p.DB, models.TaskStatusProcessing, nil, ""); err != nil {
		Log.Warnf("mark processing failed: %v", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	registerRunCancel(task.ID, cancel)
	defer unregisterRunCancel(task.ID)

	var result *models.TaskResult
	var runErr error

	switch task.Type {
	case models.TaskTypeStory:
		result, runErr = p.runStoryTask(runCtx, task)
	case models.TaskTypeAd, models.TaskTypeCharacter, models.TaskTypeLabVideo:
		result, runErr = p.runBriefTask(runCtx, task)
	case models.TaskTypePageVideo:
		result, runErr = p.runPageVideoTask(runCtx, task)
	default:
		runErr = fmt.Errorf("unknown task type: %s", task.Type)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) || runCtx.Err() != nil {
			Log.Infow("task cancelled", "task", task.ID)
			_ = task.UpdateStatus(p.DB, models.TaskStatusCancelled, result, runErr.Error())
			return nil
		}
		// save failures are soft: content exists, surface a warning only
		if errors.Is(runErr, ErrSaveFailure) {
			Log.Warnw("task finished with save failure", "task", task.ID, "err", runErr)
			_ = task.UpdateStatus(p.DB, models.TaskStatusSuccess, result, runErr.Error())
			return nil
		}
		Log.Errorw("task failed", "task", task.ID, "err", runErr)
		_ = task.UpdateStatus(p.DB, models.TaskStatusFailed, nil, runErr.Error())
		return nil // business failure, do not retry
	}

	_ = task.UpdateStatus(p.DB, models.TaskStatusSuccess, result, "")
	Log.Infow("task completed", "task", task.ID)
	return nil
}

func (p *Processor) runStoryTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	params := task.Parameters.Story
	if params == nil {
		return nil, fmt.Errorf("missing story parameters")
	}
	req := StoryRequest{
		Theme:     params.Theme,
		Genre:     params.Genre,
		Style:     params.Style,
		PageCount: params.PageCount,
	}

	progress := func(message string, current, total int) {
		pct := 0
		if total > 0 {
			pct = current * 100 / total
		}
		if err := task.UpdateProgress(p.DB, pct, message); err != nil {
			Log.Warnf("progress update failed: %v", err)
		}
	}

	project, err := p.Pipeline.RunStory(ctx, req, progress)
	if project != nil {
		result := &models.TaskResult{
			ResourceType: "project",
			ResourceId:   project.ID,
		}
		return result, err
	}
	return nil, err
}

func (p *Processor) runBriefTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	params := task.Parameters.Brief
	if params == nil {
		return nil, fmt.Errorf("missing brief parameters")
	}
	var kind string
	switch task.Type {
	case models.TaskTypeCharacter:
		kind = BriefCharacter
	case models.TaskTypeLabVideo:
		kind = BriefLabVideo
	default:
		kind = BriefAd
	}
	asset, err := p.Pipeline.RunBrief(ctx, BriefRequest{
		Kind:     kind,
		Prompt:   params.Prompt,
		Audience: params.Audience,
		Style:    params.Style,
	})
	if asset != nil {
		return &models.TaskResult{
			ResourceType: "asset",
			ResourceId:   asset.ID,
			ResourceUrl:  asset.URL,
		}, err
	}
	return nil, err
}

func (p *Processor) runPageVideoTask(ctx context.Context, task *models.Task) (*models.TaskResult, error) {
	if task.ProjectId == "" || task.PageId == "" {
		return nil, fmt.Errorf("video task missing project/page reference")
	}
	videoURL, err := p.Enricher.PageVideo(ctx, task.ProjectId, task.PageId)
	if err != nil {
		return nil, err
	}
	return &models.TaskResult{
		ResourceType: "video",
		ResourceId:   task.PageId,
		ResourceUrl:  videoURL,
	}, nil
}
