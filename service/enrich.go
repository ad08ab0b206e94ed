package service

import (
	"context"
	"fmt"

	"lumina-server/models"

	"gorm.io/gorm"
)

// PageStore reads and mutates persisted story pages.
type PageStore interface {
	GetPage(projectID, pageID string) (*models.StoryPage, error)
	UpdatePage(projectID, pageID string, updates map[string]interface{}) error
}

// Enricher runs the per-page, individually costed add-on operations against
// an existing project: regenerate, upscale, narrate, video.
//
// Every operation follows the same contract: atomic debit first, then the
// remote call, then the page mutation. A failure after the debit leaves the
// page untouched and refunds the full cost, so no operation can end charged
// with nothing produced.
type Enricher struct {
	Gateway Gateway
	Ledger  *Ledger
	Pages   PageStore
	Media   MediaStore
}

// Regenerate replaces the page image in place using the stored prompt.
func (e *Enricher) Regenerate(ctx context.Context, projectID, pageID, style string) (string, error) {
	page, err := e.Pages.GetPage(projectID, pageID)
	if err != nil {
		return "", err
	}
	ok, err := e.Ledger.TryDebit(CostRegenerate)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInsufficientCredits
	}

	imageURL, err := e.Gateway.GenerateImage(ctx, page.ImagePrompt, style)
	if err != nil {
		e.refund(CostRegenerate)
		return "", err
	}
	if err := e.Pages.UpdatePage(projectID, pageID, map[string]interface{}{
		"image_url": imageURL,
	}); err != nil {
		return imageURL, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	return imageURL, nil
}

// Upscale refines the stored prompt, regenerates the image from it and
// replaces both fields. Order and numbering of pages never change.
func (e *Enricher) Upscale(ctx context.Context, projectID, pageID, style string) (*models.StoryPage, error) {
	page, err := e.Pages.GetPage(projectID, pageID)
	if err != nil {
		return nil, err
	}
	ok, err := e.Ledger.TryDebit(CostUpscale)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInsufficientCredits
	}

	refined, err := e.Gateway.RefinePrompt(ctx, page.ImagePrompt)
	if err != nil || refined == "" {
		// a failed refinement is not fatal; regenerate from the original
		refined = page.ImagePrompt
	}
	imageURL, err := e.Gateway.GenerateImage(ctx, refined, style)
	if err != nil {
		e.refund(CostUpscale)
		return nil, err
	}
	if err := e.Pages.UpdatePage(projectID, pageID, map[string]interface{}{
		"image_url":    imageURL,
		"image_prompt": refined,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	page.ImageURL = imageURL
	page.ImagePrompt = refined
	return page, nil
}

// Narrate synthesizes speech for the page caption, wraps the raw PCM into a
// WAV and stores it; audio_url points to the stored file.
func (e *Enricher) Narrate(ctx context.Context, projectID, pageID string) (string, error) {
	page, err := e.Pages.GetPage(projectID, pageID)
	if err != nil {
		return "", err
	}
	if page.Caption == "" {
		return "", genErr(KindAudio, "page has no caption to narrate")
	}
	ok, err := e.Ledger.TryDebit(CostAudio)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInsufficientCredits
	}

	pcm, err := e.Gateway.GenerateSpeech(ctx, page.Caption)
	if err != nil {
		e.refund(CostAudio)
		return "", err
	}
	audioURL, err := e.Media.SaveBytes(EncodeSpeechWAV(pcm), fmt.Sprintf("pages/%s/narration.wav", pageID))
	if err != nil {
		e.refund(CostAudio)
		return "", genErr(KindAudio, "store narration: %v", err)
	}
	if err := e.Pages.UpdatePage(projectID, pageID, map[string]interface{}{
		"audio_url": audioURL,
	}); err != nil {
		return audioURL, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	return audioURL, nil
}

// PageVideo runs the long-poll video synthesis for a page, seeded by its
// image. Called from the task processor, never inline in a handler.
func (e *Enricher) PageVideo(ctx context.Context, projectID, pageID string) (string, error) {
	page, err := e.Pages.GetPage(projectID, pageID)
	if err != nil {
		return "", err
	}
	if page.ImageURL == "" {
		return "", genErr(KindVideo, "page has no image to animate")
	}
	ok, err := e.Ledger.TryDebit(CostVideo)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrInsufficientCredits
	}

	providerURL, err := e.Gateway.GenerateVideo(ctx, page.ImagePrompt, page.ImageURL)
	if err != nil {
		e.refund(CostVideo)
		return "", err
	}
	videoURL, err := e.Media.SaveRemote(ctx, providerURL, fmt.Sprintf("pages/%s/video.mp4", pageID))
	if err != nil {
		e.refund(CostVideo)
		return "", genErr(KindVideo, "fetch finished video: %v", err)
	}
	if err := e.Pages.UpdatePage(projectID, pageID, map[string]interface{}{
		"video_url": videoURL,
	}); err != nil {
		return videoURL, fmt.Errorf("%w: %v", ErrSaveFailure, err)
	}
	return videoURL, nil
}

func (e *Enricher) refund(amount int64) {
	if err := e.Ledger.Refund(amount); err != nil {
		Log.Errorw("refund failed", "amount", amount, "err", err)
	}
}

type gormPageStore struct {
	db *gorm.DB
}

func NewGormPageStore(db *gorm.DB) PageStore {
	return &gormPageStore{db: db}
}

func (s *gormPageStore) GetPage(projectID, pageID string) (*models.StoryPage, error) {
	return models.GetPageByID(s.db, projectID, pageID)
}

func (s *gormPageStore) UpdatePage(projectID, pageID string, updates map[string]interface{}) error {
	return models.UpdatePageFields(s.db, projectID, pageID, updates)
}
