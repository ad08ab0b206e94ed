package service

import (
	"context"
	"errors"
	"testing"

	"lumina-server/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memPageStore struct {
	page      *models.StoryPage
	getErr    error
	updateErr error
	updates   []map[string]interface{}
}

func (s *memPageStore) GetPage(projectID, pageID string) (*models.StoryPage, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	cp := *s.page
	return &cp, nil
}

func (s *memPageStore) UpdatePage(projectID, pageID string, updates map[string]interface{}) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, updates)
	return nil
}

func newTestEnricher(t *testing.T, balance int64) (*Enricher, *fakeGateway, *memPageStore) {
	t.Helper()
	ledger, _ := newTestLedger(t, balance, models.TierFree)
	gw := &fakeGateway{speech: []byte{1, 2, 3, 4}}
	pages := &memPageStore{page: &models.StoryPage{
		ID:          "page-1",
		ProjectId:   "proj-1",
		Idx:         0,
		ImagePrompt: "a fox in the snow",
		ImageURL:    "https://cdn.test/original.png",
		Caption:     "The fox waited.",
	}}
	return &Enricher{
		Gateway: gw,
		Ledger:  ledger,
		Pages:   pages,
		Media:   &memMediaStore{},
	}, gw, pages
}

func TestRegenerateReplacesImage(t *testing.T) {
	e, _, pages := newTestEnricher(t, 1000)

	url, err := e.Regenerate(context.Background(), "proj-1", "page-1", "Anime")
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.EqualValues(t, 700, e.Ledger.Balance())

	require.Len(t, pages.updates, 1)
	assert.Equal(t, url, pages.updates[0]["image_url"])
	_, touchedPrompt := pages.updates[0]["image_prompt"]
	assert.False(t, touchedPrompt, "regenerate keeps the stored prompt")
}

func TestRegenerateFailureRefundsAndLeavesPage(t *testing.T) {
	e, gw, pages := newTestEnricher(t, 1000)
	gw.imageErr = genErr(KindImage, "provider down")

	_, err := e.Regenerate(context.Background(), "proj-1", "page-1", "Anime")
	assert.Error(t, err)
	assert.EqualValues(t, 1000, e.Ledger.Balance())
	assert.Empty(t, pages.updates)
}

func TestRegenerateInsufficientCredits(t *testing.T) {
	e, gw, _ := newTestEnricher(t, 100)

	_, err := e.Regenerate(context.Background(), "proj-1", "page-1", "Anime")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
	assert.Zero(t, gw.imageCalls)
}

func TestUpscaleRewritesPromptAndImage(t *testing.T) {
	e, gw, pages := newTestEnricher(t, 1000)
	gw.refined = "a fox in the snow, golden hour backlight, 85mm"

	page, err := e.Upscale(context.Background(), "proj-1", "page-1", "Cinematic Realistic")
	require.NoError(t, err)
	assert.Equal(t, gw.refined, page.ImagePrompt)
	assert.NotEqual(t, "https://cdn.test/original.png", page.ImageURL)
	assert.EqualValues(t, 500, e.Ledger.Balance())

	require.Len(t, pages.updates, 1)
	assert.Equal(t, gw.refined, pages.updates[0]["image_prompt"])
}

func TestUpscaleRefineFailureFallsBack(t *testing.T) {
	e, gw, _ := newTestEnricher(t, 1000)
	gw.refineErr = genErr(KindRefine, "provider down")

	page, err := e.Upscale(context.Background(), "proj-1", "page-1", "Anime")
	require.NoError(t, err, "a failed refinement regenerates from the original prompt")
	assert.Equal(t, "a fox in the snow", page.ImagePrompt)
	assert.EqualValues(t, 500, e.Ledger.Balance())
}

func TestUpscaleImageFailureRefunds(t *testing.T) {
	e, gw, pages := newTestEnricher(t, 1000)
	gw.imageErr = genErr(KindImage, "provider down")

	_, err := e.Upscale(context.Background(), "proj-1", "page-1", "Anime")
	assert.Error(t, err)
	assert.EqualValues(t, 1000, e.Ledger.Balance())
	assert.Empty(t, pages.updates)
}

func TestNarrateStoresWAV(t *testing.T) {
	e, _, pages := newTestEnricher(t, 1000)
	media := e.Media.(*memMediaStore)

	url, err := e.Narrate(context.Background(), "proj-1", "page-1")
	require.NoError(t, err)
	assert.Contains(t, url, "pages/page-1/narration.wav")
	assert.EqualValues(t, 800, e.Ledger.Balance())

	stored := media.objects["pages/page-1/narration.wav"]
	require.NotEmpty(t, stored)
	assert.Equal(t, "RIFF", string(stored[:4]), "raw PCM is wrapped before storage")

	require.Len(t, pages.updates, 1)
	assert.Equal(t, url, pages.updates[0]["audio_url"])
}

func TestNarrateRequiresCaption(t *testing.T) {
	e, _, pages := newTestEnricher(t, 1000)
	pages.page.Caption = ""

	_, err := e.Narrate(context.Background(), "proj-1", "page-1")
	assert.True(t, IsGenerationKind(err, KindAudio))
	assert.EqualValues(t, 1000, e.Ledger.Balance(), "rejected before any debit")
}

func TestNarrateSpeechFailureRefunds(t *testing.T) {
	e, gw, _ := newTestEnricher(t, 1000)
	gw.speechErr = genErr(KindAudio, "provider down")

	_, err := e.Narrate(context.Background(), "proj-1", "page-1")
	assert.Error(t, err)
	assert.EqualValues(t, 1000, e.Ledger.Balance())
}

func TestPageVideoStoresClip(t *testing.T) {
	e, gw, pages := newTestEnricher(t, 2000)
	gw.videoURL = "https://provider.test/raw.mp4"

	url, err := e.PageVideo(context.Background(), "proj-1", "page-1")
	require.NoError(t, err)
	assert.Contains(t, url, "pages/page-1/video.mp4")
	assert.EqualValues(t, 800, e.Ledger.Balance())

	require.Len(t, pages.updates, 1)
	assert.Equal(t, url, pages.updates[0]["video_url"])
}

func TestPageVideoRequiresImage(t *testing.T) {
	e, _, pages := newTestEnricher(t, 2000)
	pages.page.ImageURL = ""

	_, err := e.PageVideo(context.Background(), "proj-1", "page-1")
	assert.True(t, IsGenerationKind(err, KindVideo))
	assert.EqualValues(t, 2000, e.Ledger.Balance())
}

func TestPageVideoFetchFailureRefunds(t *testing.T) {
	e, _, pages := newTestEnricher(t, 2000)
	e.Media = &memMediaStore{remoteErr: errors.New("object store down")}

	_, err := e.PageVideo(context.Background(), "proj-1", "page-1")
	assert.True(t, IsGenerationKind(err, KindVideo))
	assert.EqualValues(t, 2000, e.Ledger.Balance())
	assert.Empty(t, pages.updates)
}

func TestEnrichSaveFailureIsSoft(t *testing.T) {
	e, _, pages := newTestEnricher(t, 1000)
	pages.updateErr = errors.New("mysql gone away")

	url, err := e.Regenerate(context.Background(), "proj-1", "page-1", "Anime")
	assert.ErrorIs(t, err, ErrSaveFailure)
	assert.NotEmpty(t, url, "the generated image is still handed back")
	assert.EqualValues(t, 700, e.Ledger.Balance(), "content produced, no refund")
}
