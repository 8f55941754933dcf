package player

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/httputil"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testYouTubeURL    = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	testSoundCloudURL = "https://soundcloud.com/miami-nights-1984/accelerated"
	testVimeoURL      = "https://vimeo.com/90509568"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// newBackendServer serves stand-ins for the YouTube oEmbed, SoundCloud resolve and Vimeo oEmbed APIs
func newBackendServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("format") != "json" {
			http.Error(w, "Bad Request", http.StatusBadRequest)
			return
		}
		if q.Get("url") != testYouTubeURL {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"title": "Never Gonna Give You Up", "type": "video"})
	})
	mux.HandleFunc("/resolve", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("client_id") == "" {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		switch q.Get("url") {
		case testSoundCloudURL:
			writeJSON(w, map[string]any{
				"kind":       "track",
				"title":      "Accelerated",
				"duration":   215000,
				"streamable": true,
				"stream_url": "https://api.soundcloud.com/tracks/1/stream",
			})
		case "https://soundcloud.com/miami-nights-1984/private":
			writeJSON(w, map[string]any{"kind": "track", "streamable": false})
		case "https://soundcloud.com/miami-nights-1984/sets":
			writeJSON(w, map[string]any{"kind": "playlist"})
		default:
			http.Error(w, "Not Found", http.StatusNotFound)
		}
	})
	mux.HandleFunc("/api/oembed.json", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("url") != testVimeoURL {
			http.Error(w, "Not Found", http.StatusNotFound)
			return
		}
		writeJSON(w, map[string]any{"title": "Lavender", "duration": 62})
	})
	srv := httptest.NewTLSServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func backendDeps(srv *httptest.Server, newEngine func(config.Options) Engine) Deps {
	return Deps{
		NewEngine:  newEngine,
		HTTPClient: srv.Client(),
		Endpoints: Endpoints{
			YouTubeOEmbed:     srv.URL + "/oembed",
			SoundCloudResolve: srv.URL + "/resolve",
			VimeoOEmbed:       srv.URL + "/api/oembed.json",
		},
	}
}

func TestYouTubeResolve(t *testing.T) {
	srv := newBackendServer(t)
	r := &youtubeResolver{client: srv.Client(), endpoint: srv.URL + "/oembed"}
	opts := testOptions(t, config.Options{YouTube: config.YouTubeConfig{
		PlayerVars: map[string]string{"start": "10", "end": "40", "loop": "1", "mute": "1"},
	}})

	media, err := r.resolve(t.Context(), testYouTubeURL, opts)
	require.NoError(t, err)
	assert.Equal(t, testYouTubeURL, media.Target)
	assert.Equal(t, "Never Gonna Give You Up", media.Load.Title)
	assert.Equal(t, 10.0, media.Load.Start)
	assert.Equal(t, 40.0, media.Load.End)
	assert.True(t, media.Load.Loop)
	assert.True(t, media.Load.Mute)

	t.Run("URL offset wins over player vars", func(t *testing.T) {
		media, err := r.resolve(t.Context(), "https://youtu.be/dQw4w9WgXcQ?t=1m", opts)
		require.NoError(t, err)
		assert.Equal(t, 60.0, media.Load.Start)
	})

	t.Run("unknown video", func(t *testing.T) {
		_, err := r.resolve(t.Context(), "https://www.youtube.com/watch?v=xxxxxxxxxxx", opts)
		var statusErr *httputil.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.True(t, statusErr.NotFound())
		assert.Contains(t, err.Error(), "video xxxxxxxxxxx does not exist")
	})

	t.Run("playlists skip the existence check", func(t *testing.T) {
		media, err := r.resolve(t.Context(), "https://www.youtube.com/playlist?list=PLabc123", opts)
		require.NoError(t, err)
		assert.Equal(t, "https://www.youtube.com/playlist?list=PLabc123", media.Target)
	})
}

func TestSoundCloudResolve(t *testing.T) {
	srv := newBackendServer(t)
	r := &soundcloudResolver{client: srv.Client(), endpoint: srv.URL + "/resolve"}
	opts := testOptions(t, config.Options{})

	media, err := r.resolve(t.Context(), testSoundCloudURL+"#t=1m30s", opts)
	require.NoError(t, err)
	assert.Equal(t, "https://api.soundcloud.com/tracks/1/stream?client_id="+config.DefaultSoundCloudClientID, media.Target)
	assert.Equal(t, 215.0, media.Duration)
	assert.Equal(t, 90.0, media.Load.Start)
	assert.Equal(t, "Accelerated", media.Load.Title)

	tests := []struct {
		name string
		url  string
	}{
		{"missing track", "https://soundcloud.com/miami-nights-1984/deleted"},
		{"not streamable", "https://soundcloud.com/miami-nights-1984/private"},
		{"not a track", "https://soundcloud.com/miami-nights-1984/sets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.resolve(t.Context(), tt.url, opts)
			assert.Error(t, err)
		})
	}
}

func TestVimeoResolve(t *testing.T) {
	srv := newBackendServer(t)
	r := &vimeoResolver{client: srv.Client(), endpoint: srv.URL + "/api/oembed.json"}
	opts := testOptions(t, config.Options{Vimeo: config.VimeoConfig{
		IframeParams: map[string]string{"loop": "1", "muted": "true", "autoplay": "1"},
	}})

	media, err := r.resolve(t.Context(), testVimeoURL+"#t=30s", opts)
	require.NoError(t, err)
	assert.Equal(t, testVimeoURL, media.Target)
	assert.Equal(t, 62.0, media.Duration)
	assert.Equal(t, 30.0, media.Load.Start)
	assert.True(t, media.Load.Loop)
	assert.True(t, media.Load.Mute)
	assert.True(t, media.Autoplay)

	_, err = r.resolve(t.Context(), "https://vimeo.com/1", opts)
	assert.Error(t, err)
}

func TestFileResolveLocal(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("not really a video"), 0644))
	r := &fileResolver{client: http.DefaultClient}
	opts := testOptions(t, config.Options{})

	media, err := r.resolve(t.Context(), path, opts)
	require.NoError(t, err)
	assert.Equal(t, path, media.Target)
	assert.True(t, media.Local)

	media, err = r.resolve(t.Context(), "file://"+filepath.ToSlash(path), opts)
	require.NoError(t, err)
	assert.Equal(t, path, media.Target)

	_, err = r.resolve(t.Context(), filepath.Join(dir, "missing.mp4"), opts)
	assert.Error(t, err)

	_, err = r.resolve(t.Context(), dir, opts)
	assert.Error(t, err)
}

func TestFileResolveRemote(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/clip.mp4", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Token") != "secret" {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
	})
	mux.HandleFunc("/watch", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(`<html><head><meta property="og:video" content="/media/clip.webm"></head><body></body></html>`))
	})
	mux.HandleFunc("/player", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body><video><source src="https://cdn.example.com/a.mp4"></video></body></html>`))
	})
	mux.HandleFunc("/empty.mp4", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><body>nothing here</body></html>`))
	})
	mux.HandleFunc("/notes", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	opts := testOptions(t, config.Options{File: config.FileConfig{Headers: map[string]string{"X-Token": "secret"}}})
	r := &fileResolver{client: srv.Client()}
	fallback := &fileResolver{client: srv.Client(), fallback: true}

	t.Run("direct media", func(t *testing.T) {
		media, err := r.resolve(t.Context(), srv.URL+"/clip.mp4#t=5", opts)
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/clip.mp4", media.Target)
		assert.Equal(t, 5.0, media.Load.Start)
		assert.Equal(t, "secret", media.Load.Headers["X-Token"])
		assert.False(t, media.Local)
	})

	t.Run("unreachable", func(t *testing.T) {
		_, err := r.resolve(t.Context(), srv.URL+"/missing.mp4", opts)
		var statusErr *httputil.StatusError
		require.ErrorAs(t, err, &statusErr)
		assert.Equal(t, http.StatusNotFound, statusErr.Code)
	})

	t.Run("page with og:video", func(t *testing.T) {
		media, err := fallback.resolve(t.Context(), srv.URL+"/watch", opts)
		require.NoError(t, err)
		assert.Equal(t, srv.URL+"/media/clip.webm", media.Target)
	})

	t.Run("page with video source", func(t *testing.T) {
		media, err := fallback.resolve(t.Context(), srv.URL+"/player", opts)
		require.NoError(t, err)
		assert.Equal(t, "https://cdn.example.com/a.mp4", media.Target)
	})

	t.Run("page without media", func(t *testing.T) {
		_, err := r.resolve(t.Context(), srv.URL+"/empty.mp4", opts)
		require.Error(t, err)
		assert.NotEqual(t, ErrorUnsupportedSource, ErrorKindOf(err))
	})

	t.Run("fallback rejects non media", func(t *testing.T) {
		_, err := fallback.resolve(t.Context(), srv.URL+"/notes", opts)
		assert.Equal(t, ErrorUnsupportedSource, ErrorKindOf(err))
		assert.ErrorIs(t, err, ErrUnsupportedSource)
	})
}

// Every backend reports a positive duration for a good source, and an error with nothing after it for a bad one
func TestBackendLifecycle(t *testing.T) {
	srv := newBackendServer(t)
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/error.ogv") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/ogg")
	}))
	t.Cleanup(media.Close)

	tests := []struct {
		kind source.Kind
		good string
		bad  string
	}{
		{source.KindYouTube, testYouTubeURL, "https://www.youtube.com/watch?v=xxxxxxxxxxx"},
		{source.KindSoundCloud, testSoundCloudURL, "https://soundcloud.com/miami-nights-1984/deleted"},
		{source.KindVimeo, testVimeoURL, "https://vimeo.com/1"},
		{source.KindFile, media.URL + "/clip.ogv", media.URL + "/error.ogv"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.kind, source.Match(tt.good))
			assert.Equal(t, tt.kind, source.Match(tt.bad))

			engine := newFakeEngine()
			engine.duration = 120
			deps := backendDeps(srv, func(config.Options) Engine { return engine })
			if tt.kind == source.KindFile {
				deps.HTTPClient = media.Client()
			}

			good, err := NewAdapter(tt.kind, deps)
			require.NoError(t, err)
			t.Cleanup(func() { good.Close() })
			require.NoError(t, good.Load(t.Context(), tt.good, testOptions(t, config.Options{})))
			ev := waitFor(t, good.Events(), EventDuration)
			assert.Positive(t, ev.Duration)
			assert.Equal(t, tt.kind, ev.Backend)

			badEngine := newFakeEngine()
			badEngine.duration = 120
			deps.NewEngine = func(config.Options) Engine { return badEngine }
			bad, err := NewAdapter(tt.kind, deps)
			require.NoError(t, err)
			t.Cleanup(func() { bad.Close() })
			err = bad.Load(t.Context(), tt.bad, testOptions(t, config.Options{Playing: config.Bool(true)}))
			require.Error(t, err)
			assert.Equal(t, ErrorBackendLoad, ErrorKindOf(err))

			waitFor(t, bad.Events(), EventError)
			events := drain(bad.Events(), 100*time.Millisecond)
			assert.Zero(t, countType(events, EventPlay))
			assert.Zero(t, countType(events, EventDuration))
		})
	}
}

func TestNewAdapterRejectsUnsupported(t *testing.T) {
	_, err := NewAdapter(source.KindUnsupported, Deps{})
	assert.True(t, errors.Is(err, ErrUnsupportedSource))
}

func TestLookupError(t *testing.T) {
	missing := lookupError("track a/b", &httputil.StatusError{URL: "https://api.example", Code: http.StatusNotFound})
	assert.Contains(t, missing.Error(), "track a/b does not exist")

	down := lookupError("track a/b", &httputil.StatusError{URL: "https://api.example", Code: http.StatusServiceUnavailable})
	assert.NotContains(t, down.Error(), "does not exist")
	var statusErr *httputil.StatusError
	assert.ErrorAs(t, down, &statusErr)
}
