package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lumina-server/config"
)

// Outline is the validated result of an outline generation call.
type Outline struct {
	Title string        `json:"title"`
	Pages []OutlinePage `json:"pages"`
}

type OutlinePage struct {
	ImagePrompt string `json:"imagePrompt"`
	Caption     string `json:"caption"`
}

// Gateway abstracts the remote generation provider. All operations are
// stateless between calls; GenerateVideo owns its own job handle internally.
type Gateway interface {
	GenerateOutline(ctx context.Context, theme, genre string, pageCount int) (*Outline, error)
	GenerateImage(ctx context.Context, prompt, style string) (string, error)
	// GenerateVideo submits a job and polls until completion, returning the
	// provider-side URL of the finished clip.
	GenerateVideo(ctx context.Context, prompt, sourceImage string) (string, error)
	// GenerateSpeech returns raw PCM audio (mono, 24kHz, 16-bit signed LE).
	GenerateSpeech(ctx context.Context, text string) ([]byte, error)
	RefinePrompt(ctx context.Context, prompt string) (string, error)
}

// HTTPGateway talks to the provider's HTTP endpoints.
type HTTPGateway struct {
	Endpoint     string
	APIKey       string
	Client       *http.Client
	PollInterval time.Duration
	PollTimeout  time.Duration
}

func NewHTTPGateway() *HTTPGateway {
	cfg := config.AppConfig.AI
	return &HTTPGateway{
		Endpoint:     strings.TrimRight(cfg.Endpoint, "/"),
		APIKey:       cfg.APIKey,
		Client:       &http.Client{Timeout: 2 * time.Minute},
		PollInterval: time.Duration(cfg.VideoPollInterval) * time.Second,
		PollTimeout:  time.Duration(cfg.VideoPollTimeout) * time.Second,
	}
}

func (g *HTTPGateway) postJSON(ctx context.Context, path string, body interface{}, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.Endpoint+path, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+g.APIKey)
	}
	resp, err := g.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusAccepted {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("provider status %d: %s", resp.StatusCode, string(raw))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *HTTPGateway) GenerateOutline(ctx context.Context, theme, genre string, pageCount int) (*Outline, error) {
	reqBody := map[string]interface{}{
		"theme":      theme,
		"genre":      genre,
		"page_count": pageCount,
		"prompt": fmt.Sprintf(
			"Create a %s story with %d distinct scenes based on: %q. For each scene, provide a descriptive visual prompt for an image generator and a short caption (max 50 words).",
			genre, pageCount, theme),
	}
	var out Outline
	if err := g.postJSON(ctx, "/v1/outline", reqBody, &out); err != nil {
		return nil, genErr(KindOutline, "outline request: %v", err)
	}
	// The provider output is untrusted; validate before use.
	if len(out.Pages) == 0 {
		return nil, genErr(KindOutline, "outline has no pages")
	}
	for i, p := range out.Pages {
		if p.ImagePrompt == "" || p.Caption == "" {
			return nil, genErr(KindOutline, "outline page %d missing fields", i)
		}
	}
	return &out, nil
}

func (g *HTTPGateway) GenerateImage(ctx context.Context, prompt, style string) (string, error) {
	reqBody := map[string]string{
		"prompt": fmt.Sprintf("Art style: %s. %s. High quality, detailed, vibrant colors.", style, prompt),
		"style":  style,
	}
	var out struct {
		URL         string `json:"url"`
		ImageBase64 string `json:"image_base64"`
	}
	if err := g.postJSON(ctx, "/v1/images", reqBody, &out); err != nil {
		return "", genErr(KindImage, "image request: %v", err)
	}
	if out.URL != "" {
		return out.URL, nil
	}
	if out.ImageBase64 != "" {
		return "data:image/png;base64," + out.ImageBase64, nil
	}
	return "", genErr(KindImage, "response has no image payload")
}

func (g *HTTPGateway) GenerateVideo(ctx context.Context, prompt, sourceImage string) (string, error) {
	reqBody := map[string]string{
		"prompt":       prompt,
		"source_image": sourceImage,
	}
	var submitted struct {
		JobID string `json:"job_id"`
	}
	if err := g.postJSON(ctx, "/v1/videos", reqBody, &submitted); err != nil {
		return "", genErr(KindVideo, "video submit: %v", err)
	}
	if submitted.JobID == "" {
		return "", genErr(KindVideo, "video submit returned no job id")
	}
	return g.pollVideoJob(ctx, submitted.JobID)
}

// pollVideoJob polls the job until it completes, the deadline passes, or ctx
// is cancelled. The interval is deliberately coarse; the provider forbids
// tight polling.
func (g *HTTPGateway) pollVideoJob(ctx context.Context, jobID string) (string, error) {
	jobURL := fmt.Sprintf("%s/v1/jobs/%s", g.Endpoint, jobID)

	timeout := time.After(g.PollTimeout)
	ticker := time.NewTicker(g.PollInterval)
	defer ticker.Stop()

	// a single bad status may be a proxy hiccup; a run of them means the job
	// endpoint itself is broken (auth, unknown job) and waiting is pointless
	const maxBadPolls = 3
	badPolls := 0

	for {
		select {
		case <-timeout:
			return "", genErr(KindTimeout, "video job %s timed out after %s", jobID, g.PollTimeout)
		case <-ctx.Done():
			return "", genErr(KindVideo, "video job %s cancelled: %v", jobID, ctx.Err())
		case <-ticker.C:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, jobURL, nil)
			if err != nil {
				continue
			}
			if g.APIKey != "" {
				req.Header.Set("Authorization", "Bearer "+g.APIKey)
			}
			resp, err := g.Client.Do(req)
			if err != nil {
				// transient network error, keep polling; ctx cancellation is
				// caught above on the next iteration
				Log.Warnf("video poll error (retrying): %v", err)
				continue
			}
			if resp.StatusCode != http.StatusOK {
				_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
				resp.Body.Close()
				badPolls++
				if badPolls >= maxBadPolls {
					return "", genErr(KindVideo, "job %s poll status %d", jobID, resp.StatusCode)
				}
				Log.Warnf("video poll status %d (retrying)", resp.StatusCode)
				continue
			}
			badPolls = 0
			var job struct {
				Status   string `json:"status"`
				VideoURL string `json:"video_url"`
				Error    string `json:"error"`
			}
			err = json.NewDecoder(resp.Body).Decode(&job)
			resp.Body.Close()
			if err != nil {
				Log.Warnf("video poll decode error (retrying): %v", err)
				continue
			}

			switch job.Status {
			case "finished", "completed", "succeeded", "success":
				if job.VideoURL == "" {
					return "", genErr(KindVideo, "job %s completed with no output reference", jobID)
				}
				return job.VideoURL, nil
			case "failed", "error":
				return "", genErr(KindVideo, "provider reported failure: %s", job.Error)
			}
			// still running, keep polling
		}
	}
}

func (g *HTTPGateway) GenerateSpeech(ctx context.Context, text string) ([]byte, error) {
	reqBody := map[string]interface{}{
		"text":        text,
		"sample_rate": SpeechSampleRate,
		"channels":    SpeechChannels,
	}
	var out struct {
		AudioBase64 string `json:"audio_base64"`
	}
	if err := g.postJSON(ctx, "/v1/speech", reqBody, &out); err != nil {
		return nil, genErr(KindAudio, "speech request: %v", err)
	}
	if out.AudioBase64 == "" {
		return nil, genErr(KindAudio, "response has no audio payload")
	}
	pcm, err := base64.StdEncoding.DecodeString(out.AudioBase64)
	if err != nil {
		return nil, genErr(KindAudio, "decode audio payload: %v", err)
	}
	return pcm, nil
}

func (g *HTTPGateway) RefinePrompt(ctx context.Context, prompt string) (string, error) {
	reqBody := map[string]string{
		"prompt": prompt,
		"instruction": "Rewrite this image prompt with richer detail, lighting and composition cues. " +
			"Return only the rewritten prompt.",
	}
	var out struct {
		Prompt string `json:"prompt"`
	}
	if err := g.postJSON(ctx, "/v1/refine", reqBody, &out); err != nil {
		return "", genErr(KindRefine, "refine request: %v", err)
	}
	if out.Prompt == "" {
		return "", genErr(KindRefine, "response has no refined prompt")
	}
	return out.Prompt, nil
}
