package service

import (
	"context"
	"fmt"
	"time"

	"lumina-server/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PlaceholderImageURL is the deterministic fallback reference substituted
// when image generation fails, so a page always renders.
func PlaceholderImageURL(index int) string {
	return fmt.Sprintf("https://picsum.photos/seed/lumina-fallback-%d/1024", index)
}

// ProjectStore persists an assembled project. Saving is a distinct,
// separately-failable step of the pipeline.
type ProjectStore interface {
	SaveProject(p *models.Project) error
}

// AssetStore appends to the side-production asset log.
type AssetStore interface {
	SaveAsset(a *models.Asset) error
}

// ProgressFunc receives advisory progress notifications ("page i of n").
// It carries no correctness obligation and may be nil.
type ProgressFunc func(message string, current, total int)

// Pipeline turns a user brief into a priced chain of generation calls.
//
// The run order is: atomic credit debit, outline, per-page images
// (sequential), assembly, persist. Credits are reserved up front for the
// whole run, never per page; any total failure refunds the full reservation.
// Per-page image failures degrade to a placeholder and never abort the run.
type Pipeline struct {
	Gateway Gateway
	Ledger  *Ledger
	Store   ProjectStore
	Assets  AssetStore
	Media   MediaStore
}

// RunStory executes the full story pipeline for req.
//
// On a save failure the generated project is still returned alongside
// ErrSaveFailure: the content exists and was paid for, durability is soft.
func (pl *Pipeline) RunStory(ctx context.Context, req StoryRequest, progress ProgressFunc) (*models.Project, error) {
	if req.PageCount <= 0 {
		return nil, fmt.Errorf("page count must be positive, got %d", req.PageCount)
	}
	cost := req.Cost()

	// 1. Cost check. Reserve the full cost before any remote call.
	ok, err := pl.Ledger.TryDebit(cost)
	if err != nil {
		return nil, fmt.Errorf("debit %d credits: %w", cost, err)
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	// 2. Outline. Total failure here produced nothing: refund the reservation.
	report(progress, "Weaving your story...", 0, req.PageCount)
	outline, err := pl.Gateway.GenerateOutline(ctx, req.Theme, req.Genre, req.PageCount)
	if err != nil {
		pl.refund(cost)
		return nil, err
	}

	// The outline may come back with the wrong number of pages; trim or pad
	// so the project always has exactly req.PageCount pages.
	descriptors := normalizeOutline(outline, req.PageCount, req.Theme)

	// 3. Per-page images, strictly sequential to keep progress ordering and
	// bound concurrent load on the provider.
	projectID := uuid.NewString()
	now := time.Now()
	pages := make([]models.StoryPage, 0, req.PageCount)
	for i, d := range descriptors {
		select {
		case <-ctx.Done():
			pl.refund(cost)
			return nil, fmt.Errorf("story run cancelled: %w", ctx.Err())
		default:
		}

		report(progress, fmt.Sprintf("Painting page %d of %d...", i+1, req.PageCount), i, req.PageCount)
		imageURL, err := pl.Gateway.GenerateImage(ctx, d.ImagePrompt, req.Style)
		if err != nil {
			// degraded success: keep the prompt and caption, render a
			// placeholder, move on
			Log.Warnw("image generation failed, using placeholder",
				"project", projectID, "page", i, "err", err)
			imageURL = PlaceholderImageURL(i)
		}
		pages = append(pages, models.StoryPage{
			ID:          uuid.NewString(),
			ProjectId:   projectID,
			Idx:         i,
			ImagePrompt: d.ImagePrompt,
			ImageURL:    imageURL,
			Caption:     d.Caption,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	// 4. Assembly.
	title := outline.Title
	if title == "" {
		title = req.Theme
	}
	project := &models.Project{
		ID:        projectID,
		Title:     title,
		Genre:     req.Genre,
		Style:     req.Style,
		Type:      models.ProjectTypeStory,
		PageCount: req.PageCount,
		CreatedAt: now,
		UpdatedAt: now,
		Pages:     pages,
	}

	// 5. Persist.
	report(progress, "Saving project...", req.PageCount, req.PageCount)
	if err := pl.Store.SaveProject(project); err != nil {
		Log.Errorw("project save failed, returning in-memory copy",
			"project", projectID, "err", err)
		return project, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	return project, nil
}

// RunBrief executes a flat-cost single-asset generation (ad campaign,
// character forge, creative lab). Same skeleton as RunStory: debit, generate,
// refund on total failure.
func (pl *Pipeline) RunBrief(ctx context.Context, req BriefRequest) (*models.Asset, error) {
	cost := req.Cost()
	ok, err := pl.Ledger.TryDebit(cost)
	if err != nil {
		return nil, fmt.Errorf("debit %d credits: %w", cost, err)
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	assetID := uuid.NewString()
	var url string
	switch req.Kind {
	case BriefLabVideo:
		providerURL, err := pl.Gateway.GenerateVideo(ctx, req.RenderPrompt(), "")
		if err != nil {
			pl.refund(cost)
			return nil, err
		}
		url, err = pl.Media.SaveRemote(ctx, providerURL, fmt.Sprintf("assets/%s/video.mp4", assetID))
		if err != nil {
			pl.refund(cost)
			return nil, genErr(KindVideo, "fetch finished video: %v", err)
		}
	default:
		url, err = pl.Gateway.GenerateImage(ctx, req.RenderPrompt(), req.Style)
		if err != nil {
			pl.refund(cost)
			return nil, err
		}
	}

	asset := &models.Asset{
		ID:     assetID,
		Type:   req.AssetType(),
		URL:    url,
		Prompt: req.Prompt,
	}
	if err := pl.Assets.SaveAsset(asset); err != nil {
		// content was produced; soft durability like the story path
		Log.Errorw("asset save failed, returning in-memory copy", "asset", assetID, "err", err)
		return asset, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	return asset, nil
}

func (pl *Pipeline) refund(amount int64) {
	if err := pl.Ledger.Refund(amount); err != nil {
		// the debit is durable but the compensation is not; this needs an
		// operator to reconcile, so make it loud
		Log.Errorw("refund failed", "amount", amount, "err", err)
	}
}

func report(progress ProgressFunc, message string, current, total int) {
	if progress != nil {
		progress(message, current, total)
	}
}

// normalizeOutline forces the descriptor list to exactly pageCount entries.
func normalizeOutline(outline *Outline, pageCount int, theme string) []OutlinePage {
	descriptors := outline.Pages
	if len(descriptors) > pageCount {
		descriptors = descriptors[:pageCount]
	}
	for len(descriptors) < pageCount {
		i := len(descriptors)
		descriptors = append(descriptors, OutlinePage{
			ImagePrompt: fmt.Sprintf("Scene %d of a story about %s", i+1, theme),
			Caption:     fmt.Sprintf("Scene %d", i+1),
		})
	}
	return descriptors
}

// gorm-backed stores used in production wiring.

type gormProjectStore struct {
	db *gorm.DB
}

func NewGormProjectStore(db *gorm.DB) ProjectStore {
	return &gormProjectStore{db: db}
}

func (s *gormProjectStore) SaveProject(p *models.Project) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := models.CreateProject(tx, p); err != nil {
			return err
		}
		return models.BatchCreatePages(tx, p.Pages)
	})
}

type gormAssetStore struct {
	db *gorm.DB
}

func NewGormAssetStore(db *gorm.DB) AssetStore {
	return &gormAssetStore{db: db}
}

func (s *gormAssetStore) SaveAsset(a *models.Asset) error {
	return models.CreateAsset(s.db, a)
}
