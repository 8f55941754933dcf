package player

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/metrics"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/google/uuid"
)

// SeekUnit selects how SeekTo interprets its amount
type SeekUnit int

const (
	// SeekSeconds seeks to an absolute position in seconds
	SeekSeconds SeekUnit = iota
	// SeekFraction seeks to a fraction of the duration, in [0,1]
	SeekFraction
)

// Adapter wraps one backend behind the canonical control and event surface.  An adapter plays exactly one URL; a new
// source means a new adapter.
//
// Control calls made before the media has loaded are recorded rather than dropped: the last requested play state,
// volume and seek are applied as soon as the engine can take them.
type Adapter interface {
	ID() uuid.UUID
	Kind() source.Kind
	// Load resolves rawURL and starts the engine on it.  A failure is both returned and emitted as an error event.
	Load(ctx context.Context, rawURL string, opts config.Options) error
	Play() error
	Pause() error
	SeekTo(amount float64, unit SeekUnit) error
	SetVolume(level float64) error
	// Duration returns the duration in seconds, or 0 while unknown
	Duration() float64
	// CurrentTime returns the playback position in seconds
	CurrentTime() float64
	// Events delivers canonical events.  It is closed by Close.
	Events() <-chan Event
	Close() error
}

// resolvedMedia is what a backend works out about a URL before anything is handed to the engine
type resolvedMedia struct {
	Target   string
	Load     LoadOptions
	Duration float64 // Seconds, from backend metadata.  0 when the metadata has none.
	Autoplay bool
	Local    bool // Local files are fully "loaded" from the start
}

// resolver is the backend specific part of an adapter
type resolver interface {
	kind() source.Kind
	resolve(ctx context.Context, rawURL string, opts config.Options) (resolvedMedia, error)
}

type pendingSeek struct {
	amount float64
	unit   SeekUnit
}

// playbackState is the adapter's view of the engine, from which the canonical events are derived
type playbackState struct {
	loaded    bool
	paused    bool
	buffering bool
	ended     bool
	failed    bool

	// playing is the derived state last reported: loaded, not paused and not stalled
	playing bool
	// stalled is set when playback stopped for buffering and no pause has been reported since
	stalled bool

	duration     float64
	durationSent bool
	timePos      float64
	cacheTime    float64

	lastProgress Progress
	progressSent bool
}

// engineAdapter implements Adapter for every backend on top of an Engine
type engineAdapter struct {
	id        uuid.UUID
	resolver  resolver
	newEngine func(opts config.Options) Engine
	logger    *log.Logger
	events    chan Event

	// ctx is cancelled by Close; wg tracks the load and monitor goroutines that may still emit
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	url         string
	loadStarted bool
	ready       bool
	closed      bool
	engine      Engine
	media       resolvedMedia
	state       playbackState

	playing    bool
	playingSet bool
	volume     float64
	volumeSet  bool
	seek       *pendingSeek
}

func newEngineAdapter(r resolver, newEngine func(opts config.Options) Engine) *engineAdapter {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()
	return &engineAdapter{
		id:        id,
		resolver:  r,
		newEngine: newEngine,
		logger:    log.With("backend", string(r.kind()), "instance", id.String()),
		events:    make(chan Event, 32),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (a *engineAdapter) ID() uuid.UUID { return a.id }

func (a *engineAdapter) Kind() source.Kind { return a.resolver.kind() }

func (a *engineAdapter) Events() <-chan Event { return a.events }

func (a *engineAdapter) event(t EventType) Event {
	return Event{Type: t, Instance: a.id, Backend: a.resolver.kind()}
}

func (a *engineAdapter) Load(ctx context.Context, rawURL string, opts config.Options) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	if a.loadStarted {
		a.mu.Unlock()
		return fmt.Errorf("adapter %s already loaded %s", a.id, a.url)
	}
	a.loadStarted = true
	a.url = rawURL
	if !a.playingSet {
		a.playing = opts.IsPlaying()
	}
	if !a.volumeSet {
		a.volume = opts.VolumeLevel()
	}
	a.wg.Add(1)
	a.mu.Unlock()
	defer a.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(a.ctx, cancel)
	defer stop()

	err := a.load(ctx, rawURL, opts)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		// Torn down mid-load, nothing failed
		return ctx.Err()
	}

	a.mu.Lock()
	out := a.fail(ErrorBackendLoad, err)
	a.mu.Unlock()
	a.emit(out...)
	if len(out) > 0 {
		return out[0].Err
	}
	return newError(ErrorBackendLoad, a.Kind(), rawURL, err)
}

func (a *engineAdapter) load(ctx context.Context, rawURL string, opts config.Options) error {
	a.logger.Debug("Resolving source", "url", rawURL)
	media, err := a.resolver.resolve(ctx, rawURL, opts)
	if err != nil {
		return err
	}

	engine := a.newEngine(opts)
	a.mu.Lock()
	a.engine = engine
	a.media = media
	a.mu.Unlock()

	if err := engine.Start(ctx); err != nil {
		return err
	}

	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = config.DefaultOptions().ProgressInterval
	}

	a.mu.Lock()
	if media.Autoplay && !a.playingSet {
		a.playing = true
	}
	load := media.Load
	load.Paused = !a.playing
	load.Volume = a.volume
	if a.seek != nil {
		switch {
		case a.seek.unit == SeekSeconds:
			load.Start = a.seek.amount
			a.seek = nil
		case media.Duration > 0:
			load.Start = a.seek.amount * media.Duration
			a.seek = nil
		}
	}
	a.state.paused = load.Paused
	a.wg.Add(1)
	a.mu.Unlock()

	go a.monitor(engine, interval)

	a.logger.Info("Loading source", "target", redactTarget(media.Target), "duration", media.Duration)
	if err := engine.Load(ctx, media.Target, load); err != nil {
		return err
	}

	// Apply anything requested while the engine was loading
	a.mu.Lock()
	a.ready = true
	playing, volume := a.playing, a.volume
	a.mu.Unlock()
	if playing == load.Paused {
		if err := engine.SetPause(!playing); err != nil {
			a.logger.Warn("Failed to apply play state", "error", err)
		}
	}
	if volume != load.Volume {
		if err := engine.SetVolume(volume); err != nil {
			a.logger.Warn("Failed to apply volume", "error", err)
		}
	}
	return nil
}

func (a *engineAdapter) Play() error  { return a.setPlaying(true) }
func (a *engineAdapter) Pause() error { return a.setPlaying(false) }

func (a *engineAdapter) setPlaying(playing bool) error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.playing = playing
	a.playingSet = true
	engine, ready := a.engine, a.ready
	a.mu.Unlock()

	if !ready {
		return nil
	}
	return engine.SetPause(!playing)
}

func (a *engineAdapter) SeekTo(amount float64, unit SeekUnit) error {
	if amount < 0 || (unit == SeekFraction && amount > 1) {
		return fmt.Errorf("%w: seek amount %v out of range", config.ErrInvalidOptions, amount)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	duration := a.durationLocked()
	if !a.state.loaded || (unit == SeekFraction && duration <= 0) {
		a.seek = &pendingSeek{amount: amount, unit: unit}
		a.mu.Unlock()
		return nil
	}
	seconds := amount
	if unit == SeekFraction {
		seconds = amount * duration
	}
	engine := a.engine
	a.mu.Unlock()

	return engine.Seek(seconds)
}

func (a *engineAdapter) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("%w: volume %v outside [0,1]", config.ErrInvalidOptions, level)
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return ErrClosed
	}
	a.volume = level
	a.volumeSet = true
	engine, ready := a.engine, a.ready
	a.mu.Unlock()

	if !ready {
		return nil
	}
	return engine.SetVolume(level)
}

func (a *engineAdapter) Duration() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.durationLocked()
}

func (a *engineAdapter) durationLocked() float64 {
	if a.state.duration > 0 {
		return a.state.duration
	}
	return a.media.Duration
}

func (a *engineAdapter) CurrentTime() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state.timePos
}

// Close stops the monitor, shuts the engine down and closes Events.  No event is emitted after Close returns.
func (a *engineAdapter) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.cancel()
	a.wg.Wait()

	a.mu.Lock()
	engine := a.engine
	a.mu.Unlock()

	var err error
	if engine != nil {
		err = engine.Close()
	}
	close(a.events)
	a.logger.Debug("Adapter closed")
	return err
}

// monitor turns engine events and progress ticks into canonical events until the adapter is closed
func (a *engineAdapter) monitor(engine Engine, interval time.Duration) {
	defer a.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	native := engine.Events()
	for {
		var out []Event
		var seek *float64

		select {
		case <-a.ctx.Done():
			return
		case ev, ok := <-native:
			if !ok {
				if a.ctx.Err() != nil {
					return
				}
				a.mu.Lock()
				kind := ErrorPlayback
				if !a.state.loaded {
					kind = ErrorBackendLoad
				}
				out = a.fail(kind, errors.New("engine exited unexpectedly"))
				a.mu.Unlock()
				a.emit(out...)
				return
			}
			out, seek = a.handle(ev)
		case <-ticker.C:
			out = a.tick()
		}

		if seek != nil {
			if err := engine.Seek(*seek); err != nil {
				a.logger.Warn("Failed to apply pending seek", "seconds", *seek, "error", err)
			}
		}
		a.emit(out...)
	}
}

// handle folds one engine event into the state and returns the canonical events it causes, plus a seek to perform
func (a *engineAdapter) handle(ev EngineEvent) ([]Event, *float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &a.state
	if s.failed {
		return nil, nil
	}
	a.logger.Trace("Engine event", "type", ev.Type.String(), "value", ev.Value, "flag", ev.Flag)

	var out []Event
	var seek *float64
	switch ev.Type {
	case EngineFileLoaded:
		s.loaded = true
		if s.duration <= 0 && a.media.Duration > 0 {
			out = append(out, a.durationEvent(a.media.Duration)...)
		}
		seek = a.takePendingSeek()
		out = append(out, a.transition(EventPlay)...)
	case EnginePause:
		s.paused = ev.Flag
		out = append(out, a.transition(EventPause)...)
	case EngineBuffering:
		if ev.Flag && !s.buffering && s.loaded && !s.ended {
			out = append(out, a.event(EventBuffer))
		}
		s.buffering = ev.Flag
		out = append(out, a.transition(EventBuffer)...)
	case EngineDuration:
		if ev.Value > 0 {
			out = append(out, a.durationEvent(ev.Value)...)
			if s.loaded {
				seek = a.takePendingSeek()
			}
		}
	case EngineTimePos:
		s.timePos = ev.Value
	case EngineCacheTime:
		s.cacheTime = ev.Value
	case EngineEnded:
		if s.ended || !s.loaded {
			break
		}
		if d := a.durationLocked(); d > 0 {
			s.timePos = d
			out = append(out, a.progressEvent(d)...)
		}
		s.ended = true
		a.transition(EventEnded)
		out = append(out, a.event(EventEnded))
	case EngineFailed:
		kind := ErrorPlayback
		if !s.loaded {
			kind = ErrorBackendLoad
		}
		out = append(out, a.fail(kind, ev.Err)...)
	}
	return out, seek
}

// transition re-derives the playing state after a change caused by cause.  Play and Pause strictly alternate: a
// stall reports Buffer instead of Pause, and a pause during a stall still reports Pause.
func (a *engineAdapter) transition(cause EventType) []Event {
	s := &a.state
	now := s.loaded && !s.paused && !s.buffering && !s.ended && !s.failed
	switch {
	case now && !s.playing:
		s.playing = true
		s.stalled = false
		return []Event{a.event(EventPlay)}
	case !now && s.playing:
		s.playing = false
		switch cause {
		case EventBuffer:
			s.stalled = true
		case EventPause:
			return []Event{a.event(EventPause)}
		}
	case !now && s.stalled && cause == EventPause && s.paused:
		s.stalled = false
		return []Event{a.event(EventPause)}
	}
	return nil
}

func (a *engineAdapter) durationEvent(d float64) []Event {
	s := &a.state
	s.duration = d
	if s.durationSent {
		return nil
	}
	s.durationSent = true
	ev := a.event(EventDuration)
	ev.Duration = d
	return []Event{ev}
}

func (a *engineAdapter) takePendingSeek() *float64 {
	if a.seek == nil {
		return nil
	}
	seconds := a.seek.amount
	if a.seek.unit == SeekFraction {
		d := a.durationLocked()
		if d <= 0 {
			return nil
		}
		seconds = a.seek.amount * d
	}
	a.seek = nil
	return &seconds
}

// tick produces the periodic progress report
func (a *engineAdapter) tick() []Event {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := &a.state
	if !s.loaded || s.failed || s.ended {
		return nil
	}
	d := a.durationLocked()
	if d <= 0 {
		return nil
	}
	return a.progressEvent(d)
}

// progressEvent reports progress if it changed since the last report
func (a *engineAdapter) progressEvent(d float64) []Event {
	s := &a.state
	played := clamp(s.timePos, 0, d)
	loaded := d
	if !a.media.Local {
		loaded = clamp(max(s.cacheTime, played), played, d)
	}
	p := Progress{
		Played:        played / d,
		PlayedSeconds: played,
		Loaded:        loaded / d,
		LoadedSeconds: loaded,
	}
	if s.progressSent && p == s.lastProgress {
		return nil
	}
	s.progressSent = true
	s.lastProgress = p
	metrics.ProgressReports.WithLabelValues(string(a.resolver.kind())).Inc()

	ev := a.event(EventProgress)
	ev.Progress = p
	return []Event{ev}
}

// fail moves the adapter into the failed state.  Nothing but this one error is reported for the instance afterwards.
func (a *engineAdapter) fail(kind ErrorKind, err error) []Event {
	s := &a.state
	if s.failed || s.ended {
		return nil
	}
	s.failed = true
	s.playing = false

	perr := newError(kind, a.resolver.kind(), a.url, err)
	a.logger.Error("Source failed", "kind", string(perr.Kind), "error", perr.Err)
	ev := a.event(EventError)
	ev.Err = perr
	return []Event{ev}
}

func (a *engineAdapter) emit(events ...Event) {
	for _, ev := range events {
		select {
		case a.events <- ev:
		case <-a.ctx.Done():
			return
		}
	}
}
