package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGateway(srv *httptest.Server) *HTTPGateway {
	return &HTTPGateway{
		Endpoint:     srv.URL,
		APIKey:       "test-key",
		Client:       srv.Client(),
		PollInterval: 5 * time.Millisecond,
		PollTimeout:  500 * time.Millisecond,
	}
}

func TestGenerateOutline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/outline", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "dragons", req["theme"])
		assert.EqualValues(t, 2, req["page_count"])

		json.NewEncoder(w).Encode(Outline{
			Title: "Dragon Tale",
			Pages: []OutlinePage{
				{ImagePrompt: "a dragon egg", Caption: "It began with an egg."},
				{ImagePrompt: "a hatchling", Caption: "Then it hatched."},
			},
		})
	}))
	defer srv.Close()

	out, err := testGateway(srv).GenerateOutline(context.Background(), "dragons", "Fantasy", 2)
	require.NoError(t, err)
	assert.Equal(t, "Dragon Tale", out.Title)
	assert.Len(t, out.Pages, 2)
}

func TestGenerateOutlineRejectsMalformedResponse(t *testing.T) {
	cases := map[string]string{
		"no pages":       `{"title":"T","pages":[]}`,
		"missing fields": `{"title":"T","pages":[{"imagePrompt":"","caption":"c"}]}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(body))
			}))
			defer srv.Close()

			_, err := testGateway(srv).GenerateOutline(context.Background(), "x", "Fantasy", 1)
			assert.True(t, IsGenerationKind(err, KindOutline))
		})
	}
}

func TestGenerateImageURLAndBase64(t *testing.T) {
	var payload atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/images", r.URL.Path)
		w.Write([]byte(payload.Load().(string)))
	}))
	defer srv.Close()
	g := testGateway(srv)

	payload.Store(`{"url":"https://cdn.test/a.png"}`)
	url, err := g.GenerateImage(context.Background(), "a fox", "Anime")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.test/a.png", url)

	payload.Store(`{"image_base64":"aGVsbG8="}`)
	url, err = g.GenerateImage(context.Background(), "a fox", "Anime")
	require.NoError(t, err)
	assert.Equal(t, "data:image/png;base64,aGVsbG8=", url)

	payload.Store(`{}`)
	_, err = g.GenerateImage(context.Background(), "a fox", "Anime")
	assert.True(t, IsGenerationKind(err, KindImage))
}

func TestGenerateImageProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testGateway(srv).GenerateImage(context.Background(), "a fox", "Anime")
	require.Error(t, err)
	assert.True(t, IsGenerationKind(err, KindImage))
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateVideoPollsUntilFinished(t *testing.T) {
	var polls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-7"})
		case "/v1/jobs/job-7":
			if atomic.AddInt32(&polls, 1) < 3 {
				json.NewEncoder(w).Encode(map[string]string{"status": "running"})
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"status":    "finished",
				"video_url": "https://provider.test/out.mp4",
			})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	url, err := testGateway(srv).GenerateVideo(context.Background(), "waves", "https://cdn.test/a.png")
	require.NoError(t, err)
	assert.Equal(t, "https://provider.test/out.mp4", url)
	assert.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))
}

func TestGenerateVideoProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-8"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "nsfw filter"})
		}
	}))
	defer srv.Close()

	_, err := testGateway(srv).GenerateVideo(context.Background(), "waves", "")
	require.Error(t, err)
	assert.True(t, IsGenerationKind(err, KindVideo))
	assert.Contains(t, err.Error(), "nsfw filter")
}

func TestGenerateVideoTimeoutKind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-9"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		}
	}))
	defer srv.Close()

	g := testGateway(srv)
	g.PollTimeout = 30 * time.Millisecond

	_, err := g.GenerateVideo(context.Background(), "waves", "")
	require.Error(t, err)
	assert.True(t, IsGenerationKind(err, KindTimeout), "a stuck job surfaces as a timeout, not a generic failure")
}

func TestGenerateVideoBrokenJobEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-11"})
		default:
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	start := time.Now()
	_, err := testGateway(srv).GenerateVideo(context.Background(), "waves", "")
	require.Error(t, err)
	assert.True(t, IsGenerationKind(err, KindVideo), "a dead job endpoint is a video failure, not a timeout")
	assert.Contains(t, err.Error(), "401")
	assert.Less(t, time.Since(start), testGateway(srv).PollTimeout, "must give up well before the deadline")
}

func TestGenerateVideoCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/videos":
			json.NewEncoder(w).Encode(map[string]string{"job_id": "job-10"})
		default:
			json.NewEncoder(w).Encode(map[string]string{"status": "running"})
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := testGateway(srv).GenerateVideo(ctx, "waves", "")
	require.Error(t, err)
	assert.True(t, IsGenerationKind(err, KindVideo))
}

func TestGenerateSpeechDecodesPCM(t *testing.T) {
	pcm := []byte{0x01, 0x02, 0x03, 0x04}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/speech", r.URL.Path)
		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.EqualValues(t, SpeechSampleRate, req["sample_rate"])

		json.NewEncoder(w).Encode(map[string]string{
			"audio_base64": base64.StdEncoding.EncodeToString(pcm),
		})
	}))
	defer srv.Close()

	got, err := testGateway(srv).GenerateSpeech(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestGenerateSpeechMissingPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := testGateway(srv).GenerateSpeech(context.Background(), "hello")
	assert.True(t, IsGenerationKind(err, KindAudio))
}

func TestRefinePrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/refine", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]string{"prompt": "a fox, volumetric light"})
	}))
	defer srv.Close()

	got, err := testGateway(srv).RefinePrompt(context.Background(), "a fox")
	require.NoError(t, err)
	assert.Equal(t, "a fox, volumetric light", got)
}
