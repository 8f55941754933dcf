package player

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/stretchr/testify/require"
)

// fakeEngine stands in for mpv.  Like mpv it reports property changes caused by its own setters.
type fakeEngine struct {
	mu       sync.Mutex
	events   chan EngineEvent
	started  bool
	closed   bool
	startErr error
	loadErr  error
	// startGate, when set, blocks Start until closed
	startGate chan struct{}
	// duration is reported right after the file loads when positive
	duration float64

	target   string
	loadOpts LoadOptions
	loads    int
	pauses   []bool
	seeks    []float64
	volumes  []float64
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{events: make(chan EngineEvent, 256)}
}

func (f *fakeEngine) Start(ctx context.Context) error {
	if f.startGate != nil {
		select {
		case <-f.startGate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeEngine) Load(_ context.Context, target string, opts LoadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loads++
	f.target = target
	f.loadOpts = opts
	f.push(EngineEvent{Type: EnginePause, Flag: opts.Paused})
	f.push(EngineEvent{Type: EngineFileLoaded})
	f.push(EngineEvent{Type: EngineTimePos, Value: opts.Start})
	if f.duration > 0 {
		f.push(EngineEvent{Type: EngineDuration, Value: f.duration})
	}
	return nil
}

func (f *fakeEngine) SetPause(paused bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses = append(f.pauses, paused)
	f.push(EngineEvent{Type: EnginePause, Flag: paused})
	return nil
}

func (f *fakeEngine) Seek(seconds float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, seconds)
	f.push(EngineEvent{Type: EngineTimePos, Value: seconds})
	return nil
}

func (f *fakeEngine) SetVolume(level float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, level)
	return nil
}

func (f *fakeEngine) Events() <-chan EngineEvent {
	return f.events
}

func (f *fakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.events)
	}
	return nil
}

// emit injects a native event, as if mpv had reported it
func (f *fakeEngine) emit(events ...EngineEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ev := range events {
		f.push(ev)
	}
}

func (f *fakeEngine) push(ev EngineEvent) {
	if f.closed {
		return
	}
	f.events <- ev
}

func (f *fakeEngine) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *fakeEngine) loadedTarget() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.target
}

func (f *fakeEngine) snapshot() (LoadOptions, []bool, []float64, []float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loadOpts, append([]bool(nil), f.pauses...), append([]float64(nil), f.seeks...),
		append([]float64(nil), f.volumes...)
}

// staticResolver resolves every URL to the same media
type staticResolver struct {
	k     source.Kind
	media resolvedMedia
	err   error
}

func (r *staticResolver) kind() source.Kind { return r.k }

func (r *staticResolver) resolve(context.Context, string, config.Options) (resolvedMedia, error) {
	return r.media, r.err
}

func testOptions(t *testing.T, overrides config.Options) config.Options {
	t.Helper()
	if overrides.ProgressInterval == 0 {
		overrides.ProgressInterval = 10 * time.Millisecond
	}
	opts, err := config.MergeOptions(overrides)
	require.NoError(t, err)
	return opts
}

func newTestAdapter(t *testing.T, r resolver, engine *fakeEngine) *engineAdapter {
	t.Helper()
	a := newEngineAdapter(r, func(config.Options) Engine { return engine })
	t.Cleanup(func() { a.Close() })
	return a
}

// waitFor reads events until one of type want arrives
func waitFor(t *testing.T, events <-chan Event, want EventType) Event {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("event channel closed while waiting for %s", want)
			}
			if ev.Type == want {
				return ev
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

// drain collects events until none has arrived for quiet
func drain(events <-chan Event, quiet time.Duration) []Event {
	var out []Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-time.After(quiet):
			return out
		}
	}
}

// transitions keeps only the play state events, in order
func transitions(events []Event) []EventType {
	var out []EventType
	for _, ev := range events {
		switch ev.Type {
		case EventPlay, EventPause, EventBuffer, EventEnded:
			out = append(out, ev.Type)
		}
	}
	return out
}

func countType(events []Event, t EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
