package player

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// engineRecorder hands out fake engines and keeps them for inspection
type engineRecorder struct {
	mu       sync.Mutex
	engines  []*fakeEngine
	duration float64
	gate     chan struct{}
}

func (r *engineRecorder) newEngine(config.Options) Engine {
	r.mu.Lock()
	defer r.mu.Unlock()
	e := newFakeEngine()
	e.duration = r.duration
	e.startGate = r.gate
	r.engines = append(r.engines, e)
	return e
}

func (r *engineRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.engines)
}

func (r *engineRecorder) get(i int) *fakeEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.engines[i]
}

func tempMedia(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("media"), 0644))
	return path
}

func newTestPlayer(t *testing.T, opts config.Options, deps Deps) *Player {
	t.Helper()
	if opts.ProgressInterval == 0 {
		opts.ProgressInterval = 10 * time.Millisecond
	}
	p, err := New(opts, deps)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

func TestPlayerInitialState(t *testing.T) {
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: (&engineRecorder{}).newEngine})
	assert.Equal(t, source.KindNone, p.ActiveBackend())
	assert.Equal(t, 0.8, p.Options().VolumeLevel())
	assert.False(t, p.Options().IsPlaying())
	assert.ErrorIs(t, p.SeekTo(1, SeekSeconds), ErrNotReady)
	assert.Zero(t, p.Duration())
	assert.Equal(t, uuid.Nil, p.Instance())
}

func TestPlayerRejectsInvalidOptions(t *testing.T) {
	_, err := New(config.Options{Volume: config.Float(2)}, Deps{})
	assert.ErrorIs(t, err, config.ErrInvalidOptions)

	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: (&engineRecorder{}).newEngine})
	assert.ErrorIs(t, p.Update(t.Context(), config.Options{Volume: config.Float(-1)}), config.ErrInvalidOptions)
	assert.Equal(t, 0.8, p.Options().VolumeLevel())
	assert.ErrorIs(t, p.SetVolume(3), config.ErrInvalidOptions)
}

func TestPlayerUnsupportedSource(t *testing.T) {
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: rec.newEngine})

	require.NoError(t, p.Load(t.Context(), "not a url"))
	ev := waitFor(t, p.Events(), EventError)
	assert.ErrorIs(t, ev.Err, ErrUnsupportedSource)
	assert.Equal(t, ErrorUnsupportedSource, ErrorKindOf(ev.Err))
	assert.Equal(t, source.KindUnsupported, ev.Backend)
	assert.Equal(t, source.KindNone, p.ActiveBackend())
	assert.Zero(t, rec.count())
}

func TestPlayerUsesFirstPlayableSource(t *testing.T) {
	srv := newBackendServer(t)
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{}, backendDeps(srv, rec.newEngine))

	require.NoError(t, p.Load(t.Context(), "not a url", testVimeoURL))
	ev := waitFor(t, p.Events(), EventDuration)
	assert.Equal(t, 62.0, ev.Duration)
	assert.Equal(t, source.KindVimeo, p.ActiveBackend())
	assert.Equal(t, testVimeoURL, p.Options().Sources[0])
}

func TestPlayerSwitchTearsDownPrevious(t *testing.T) {
	srv := newBackendServer(t)
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{Playing: config.Bool(true)}, backendDeps(srv, rec.newEngine))

	require.NoError(t, p.Load(t.Context(), tempMedia(t, "a.mp4")))
	first := waitFor(t, p.Events(), EventPlay)
	assert.Equal(t, source.KindFile, p.ActiveBackend())

	require.NoError(t, p.Load(t.Context(), testVimeoURL))
	assert.Equal(t, source.KindVimeo, p.ActiveBackend())

	old := rec.get(0)
	assert.Eventually(t, old.isClosed, time.Second, 10*time.Millisecond)
	old.emit(EngineEvent{Type: EnginePause, Flag: true})

	events := drain(p.Events(), 150*time.Millisecond)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.NotEqual(t, first.Instance, ev.Instance, "event %s from the replaced adapter", ev.Type)
		assert.Equal(t, source.KindVimeo, ev.Backend)
	}
	assert.Equal(t, 1, countType(events, EventDuration))
	assert.Equal(t, 1, countType(events, EventPlay))
}

func TestPlayerLastLoadWins(t *testing.T) {
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{Playing: config.Bool(true)}, Deps{NewEngine: rec.newEngine})

	require.NoError(t, p.Load(t.Context(), tempMedia(t, "a.mp4")))
	require.NoError(t, p.Load(t.Context(), tempMedia(t, "b.mp4")))
	require.NoError(t, p.Load(t.Context(), tempMedia(t, "c.mp4")))

	events := drain(p.Events(), 150*time.Millisecond)
	require.NotEmpty(t, events)
	instance := events[0].Instance
	for _, ev := range events {
		assert.Equal(t, instance, ev.Instance)
	}
	assert.Equal(t, 1, countType(events, EventPlay))
}

func TestPlayerUpdateForwardsControls(t *testing.T) {
	rec := &engineRecorder{duration: 30}
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: rec.newEngine})
	path := tempMedia(t, "a.mp4")
	opts := config.Options{URL: path, ProgressInterval: 10 * time.Millisecond}

	require.NoError(t, p.Update(t.Context(), opts))
	waitFor(t, p.Events(), EventDuration)

	opts.Playing = config.Bool(true)
	require.NoError(t, p.Update(t.Context(), opts))
	waitFor(t, p.Events(), EventPlay)

	opts.Volume = config.Float(0.4)
	require.NoError(t, p.Update(t.Context(), opts))

	assert.Equal(t, 1, rec.count(), "same sources must not remount")
	_, pauses, _, volumes := rec.get(0).snapshot()
	assert.Equal(t, []bool{false}, pauses)
	assert.Equal(t, []float64{0.4}, volumes)

	require.NoError(t, p.SetPlaying(false))
	waitFor(t, p.Events(), EventPause)
	require.NoError(t, p.SeekTo(0.5, SeekFraction))
	_, _, seeks, _ := rec.get(0).snapshot()
	assert.Equal(t, []float64{15}, seeks)
}

func TestPlayerControlCallsDuringLoadAreApplied(t *testing.T) {
	rec := &engineRecorder{gate: make(chan struct{})}
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: rec.newEngine})

	require.NoError(t, p.Load(t.Context(), tempMedia(t, "a.mp4")))
	require.NoError(t, p.SetPlaying(true))
	require.NoError(t, p.SetVolume(0.2))
	require.NoError(t, p.SeekTo(7, SeekSeconds))
	close(rec.gate)

	waitFor(t, p.Events(), EventPlay)
	opts, _, _, _ := rec.get(0).snapshot()
	assert.False(t, opts.Paused)
	assert.Equal(t, 0.2, opts.Volume)
	assert.Equal(t, 7.0, opts.Start)
}

func TestPlayerFallsBackToProbingUnknownURLs(t *testing.T) {
	media := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "video/mp4")
	}))
	t.Cleanup(media.Close)
	rec := &engineRecorder{duration: 12}
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: rec.newEngine, HTTPClient: media.Client()})

	require.NoError(t, p.Load(t.Context(), media.URL+"/stream"))
	assert.Equal(t, source.KindFile, p.ActiveBackend())
	ev := waitFor(t, p.Events(), EventDuration)
	assert.Equal(t, 12.0, ev.Duration)
}

func TestPlayerPreloadAdoptsEngine(t *testing.T) {
	srv := newBackendServer(t)
	rec := &engineRecorder{duration: 212}
	opts := config.Options{YouTube: config.YouTubeConfig{Preload: true}}
	p := newTestPlayer(t, opts, backendDeps(srv, rec.newEngine))

	require.NoError(t, p.Preload(t.Context()))
	require.NoError(t, p.Preload(t.Context()))
	require.Equal(t, 1, rec.count())

	require.NoError(t, p.Load(t.Context(), testYouTubeURL))
	waitFor(t, p.Events(), EventDuration)
	assert.Equal(t, 1, rec.count())
	assert.Equal(t, testYouTubeURL, rec.get(0).loadedTarget())
}

func TestPlayerPreloadIsOptIn(t *testing.T) {
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{}, Deps{NewEngine: rec.newEngine})
	require.NoError(t, p.Preload(t.Context()))
	assert.Zero(t, rec.count())
}

func TestPlayerCloseIsTerminal(t *testing.T) {
	rec := &engineRecorder{}
	p, err := New(config.Options{Playing: config.Bool(true)}, Deps{NewEngine: rec.newEngine})
	require.NoError(t, err)

	require.NoError(t, p.Load(t.Context(), tempMedia(t, "a.mp4")))
	waitFor(t, p.Events(), EventPlay)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, rec.get(0).isClosed())
	assert.Equal(t, source.KindNone, p.ActiveBackend())

	for range p.Events() {
	}
	assert.ErrorIs(t, p.Load(t.Context(), tempMedia(t, "b.mp4")), ErrClosed)
	assert.ErrorIs(t, p.SetPlaying(true), ErrClosed)
	assert.ErrorIs(t, p.Update(t.Context(), config.Options{}), ErrClosed)
}

func TestEventsCarryMountInstance(t *testing.T) {
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{Playing: config.Bool(true)}, Deps{NewEngine: rec.newEngine})
	require.NoError(t, p.Load(t.Context(), tempMedia(t, "a.mp4")))
	ev := waitFor(t, p.Events(), EventPlay)
	assert.NotEqual(t, uuid.Nil, ev.Instance)
	assert.Equal(t, p.Instance(), ev.Instance)
}

func TestPlayerMountOutlivesLoadContext(t *testing.T) {
	rec := &engineRecorder{}
	p := newTestPlayer(t, config.Options{Playing: config.Bool(true)}, Deps{NewEngine: rec.newEngine})

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, p.Load(ctx, tempMedia(t, "a.mp4")))
	play := waitFor(t, p.Events(), EventPlay)
	cancel()

	rec.get(0).emit(EngineEvent{Type: EnginePause, Flag: true})
	pause := waitFor(t, p.Events(), EventPause)
	assert.Equal(t, play.Instance, pause.Instance)
	assert.Equal(t, play.Instance, p.Instance())
	assert.False(t, rec.get(0).isClosed())
}

func TestPlayerLoadContextAbortsLoading(t *testing.T) {
	rec := &engineRecorder{gate: make(chan struct{})}
	p := newTestPlayer(t, config.Options{Playing: config.Bool(true)}, Deps{NewEngine: rec.newEngine})

	ctx, cancel := context.WithCancel(t.Context())
	require.NoError(t, p.Load(ctx, tempMedia(t, "a.mp4")))
	require.Eventually(t, func() bool { return rec.count() == 1 }, time.Second, 10*time.Millisecond)
	cancel()

	events := drain(p.Events(), 150*time.Millisecond)
	assert.Zero(t, countType(events, EventPlay))
	assert.Zero(t, countType(events, EventError), "an aborted load is not a failure")
	assert.Empty(t, rec.get(0).loadedTarget())
}
