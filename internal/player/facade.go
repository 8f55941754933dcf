package player

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/metrics"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/google/uuid"
)

// Player is the single entry point hosts use.  It keeps exactly one adapter mounted for the current source list,
// swaps it when the sources change, forwards control calls to it and re-publishes its events on one channel.
//
// Only events of the currently mounted adapter are delivered: once a call that replaces the source returns, nothing
// from the previous adapter reaches Events.  Events is unbuffered, so no event of a replaced adapter can be left
// queued in it either.
type Player struct {
	deps   Deps
	events chan Event
	// wg tracks background loads and adapter shutdowns so Close can wait for them
	wg sync.WaitGroup

	mu      sync.Mutex
	opts    config.Options
	active  source.Kind
	current *mount
	standby Engine
	closed  bool
}

// mount is one mounted source: an adapter, or for an unsupported source just the error it produced
type mount struct {
	id      uuid.UUID
	kind    source.Kind
	url     string
	sources []string
	adapter Adapter

	// ctx lives until the mount is replaced or the player closes; loadCtx is the caller's and only bounds loading
	ctx     context.Context
	cancel  context.CancelFunc
	loadCtx context.Context
	local   chan Event
	done    chan struct{}
}

// New creates a Player with opts merged over the defaults.  Nothing is mounted until Load or Update is called.
func New(opts config.Options, deps Deps) (*Player, error) {
	merged, err := config.MergeOptions(opts)
	if err != nil {
		return nil, err
	}
	p := &Player{
		deps:   deps.withDefaults(),
		events: make(chan Event),
		opts:   merged,
		active: source.KindNone,
	}
	metrics.SetActiveBackend("", kindLabels())
	return p, nil
}

// Events returns the canonical events of the mounted source.  The channel is closed by Close.
func (p *Player) Events() <-chan Event {
	return p.events
}

// ActiveBackend returns the backend of the mounted source, or KindNone
func (p *Player) ActiveBackend() source.Kind {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}

// Instance identifies the current mount.  Every event of the mounted source carries it.  It is uuid.Nil while nothing
// is mounted.
func (p *Player) Instance() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return uuid.Nil
	}
	return p.current.id
}

// Options returns a copy of the current options
func (p *Player) Options() config.Options {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.opts.Clone()
}

// Load mounts urls, an ordered list of sources where the first playable one wins.  With no urls it (re)mounts the
// sources of the current options.  ctx bounds only the loading of the source: cancelling it aborts a load still in
// flight, but a mount that has loaded keeps delivering events until it is replaced or the player is closed.
func (p *Player) Load(ctx context.Context, urls ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	if len(urls) == 0 {
		urls = p.opts.SourceList()
	} else {
		p.opts.URL = urls[0]
		p.opts.Sources = slices.Clone(urls[1:])
	}
	p.remountLocked(ctx, urls)
	return nil
}

// Update replaces the options.  A change of sources remounts; otherwise play state and volume changes are forwarded
// to the mounted adapter.  Invalid options are rejected and leave the player untouched.
func (p *Player) Update(ctx context.Context, opts config.Options) error {
	merged, err := config.MergeOptions(opts)
	if err != nil {
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	prev := p.opts
	p.opts = merged

	if p.current == nil || !slices.Equal(p.current.sources, merged.SourceList()) {
		if p.current == nil && len(merged.SourceList()) == 0 {
			return nil
		}
		p.remountLocked(ctx, merged.SourceList())
		return nil
	}

	adapter := p.current.adapter
	if adapter == nil {
		return nil
	}
	if merged.IsPlaying() != prev.IsPlaying() {
		if err := setAdapterPlaying(adapter, merged.IsPlaying()); err != nil {
			return err
		}
	}
	if merged.VolumeLevel() != prev.VolumeLevel() {
		if err := adapter.SetVolume(merged.VolumeLevel()); err != nil {
			return err
		}
	}
	return nil
}

// SetPlaying plays or pauses the mounted source.  With nothing mounted the state is kept for the next mount.
func (p *Player) SetPlaying(playing bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.opts.Playing = config.Bool(playing)
	if adapter := p.adapterLocked(); adapter != nil {
		return setAdapterPlaying(adapter, playing)
	}
	return nil
}

// SetVolume sets the volume in [0,1].  With nothing mounted the level is kept for the next mount.
func (p *Player) SetVolume(level float64) error {
	if level < 0 || level > 1 {
		return fmt.Errorf("%w: volume %v outside [0,1]", config.ErrInvalidOptions, level)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	p.opts.Volume = config.Float(level)
	if adapter := p.adapterLocked(); adapter != nil {
		return adapter.SetVolume(level)
	}
	return nil
}

// SeekTo seeks the mounted source
func (p *Player) SeekTo(amount float64, unit SeekUnit) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	adapter := p.adapterLocked()
	if adapter == nil {
		return ErrNotReady
	}
	return adapter.SeekTo(amount, unit)
}

// Duration returns the duration of the mounted source in seconds, or 0 while unknown
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if adapter := p.adapterLocked(); adapter != nil {
		return adapter.Duration()
	}
	return 0
}

// CurrentTime returns the playback position of the mounted source in seconds
func (p *Player) CurrentTime() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if adapter := p.adapterLocked(); adapter != nil {
		return adapter.CurrentTime()
	}
	return 0
}

// Preload starts an idle engine ahead of time when the YouTube or Vimeo options ask for it.  The next YouTube or
// Vimeo source adopts it instead of starting its own.
func (p *Player) Preload(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if p.standby != nil || !(p.opts.YouTube.Preload || p.opts.Vimeo.Preload) {
		p.mu.Unlock()
		return nil
	}
	engine := p.deps.NewEngine(p.opts)
	p.mu.Unlock()

	log.Debug("Preloading engine")
	if err := engine.Start(ctx); err != nil {
		engine.Close()
		return fmt.Errorf("preloading engine: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.standby != nil {
		engine.Close()
		return nil
	}
	p.standby = engine
	return nil
}

// Close unmounts the current source, waits for every adapter to shut down and closes Events
func (p *Player) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.unmountLocked()
	p.setActiveLocked(source.KindNone)
	standby := p.standby
	p.standby = nil
	p.mu.Unlock()

	if standby != nil {
		if err := standby.Close(); err != nil {
			log.Warn("Failed to close preloaded engine", "error", err)
		}
	}
	p.wg.Wait()
	close(p.events)
	log.Debug("Player closed")
	return nil
}

func (p *Player) adapterLocked() Adapter {
	if p.current == nil {
		return nil
	}
	return p.current.adapter
}

// remountLocked tears down the current mount, matches sources and mounts the result.  It does not wait for the new
// source to load.
func (p *Player) remountLocked(ctx context.Context, sources []string) {
	p.unmountLocked()
	if len(sources) == 0 {
		p.setActiveLocked(source.KindNone)
		return
	}

	m := &mount{
		sources: slices.Clone(sources),
		local:   make(chan Event, 1),
		done:    make(chan struct{}),
	}
	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	m.loadCtx = ctx

	target, kind, err := source.MatchList(sources)
	var adapter Adapter
	if err == nil {
		adapter, err = NewAdapter(kind, p.mountDepsLocked(kind))
	} else if web := firstWebURL(sources); web != "" {
		target, kind = web, source.KindFile
		adapter, err = newFallbackAdapter(p.mountDepsLocked(kind)), nil
	}

	if err != nil {
		m.id = uuid.New()
		m.kind = source.KindUnsupported
		m.url = sources[0]
		perr := newError(ErrorUnsupportedSource, source.KindUnsupported, m.url, err)
		log.Warn("No backend for sources", "sources", sources)
		m.local <- Event{Type: EventError, Instance: m.id, Backend: source.KindUnsupported, Err: perr}
		p.setActiveLocked(source.KindNone)
	} else {
		m.id = adapter.ID()
		m.kind = kind
		m.url = target
		m.adapter = adapter
		log.Info("Mounting source", "backend", string(kind), "url", target, "instance", m.id.String())
		metrics.AdapterMountsTotal.WithLabelValues(string(kind)).Inc()
		p.setActiveLocked(kind)

		p.wg.Add(1)
		go p.load(m, p.opts.Clone())
	}

	p.current = m
	go p.forward(m)
}

// unmountLocked cancels the current mount and waits for its forwarder, so nothing of it is delivered afterwards.
// The adapter itself shuts down in the background.
func (p *Player) unmountLocked() {
	m := p.current
	if m == nil {
		return
	}
	p.current = nil
	m.cancel()
	<-m.done

	if m.adapter != nil {
		log.Debug("Unmounting source", "backend", string(m.kind), "instance", m.id.String())
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			if err := m.adapter.Close(); err != nil {
				log.Warn("Failed to close adapter", "backend", string(m.kind), "error", err)
			}
		}()
	}
}

func (p *Player) load(m *mount, opts config.Options) {
	defer p.wg.Done()
	ctx, cancel := context.WithCancel(m.loadCtx)
	defer cancel()
	stop := context.AfterFunc(m.ctx, cancel)
	defer stop()

	start := time.Now()
	if err := m.adapter.Load(ctx, m.url, opts); err != nil {
		if ctx.Err() == nil {
			log.Warn("Source failed to load", "backend", string(m.kind), "error", err)
		}
		return
	}
	metrics.AdapterLoadDuration.WithLabelValues(string(m.kind)).Observe(time.Since(start).Seconds())
}

// forward re-publishes the events of one mount until it is cancelled
func (p *Player) forward(m *mount) {
	defer close(m.done)

	var adapterEvents <-chan Event
	if m.adapter != nil {
		adapterEvents = m.adapter.Events()
	}

	for {
		var ev Event
		select {
		case <-m.ctx.Done():
			return
		case ev = <-m.local:
		case e, ok := <-adapterEvents:
			if !ok {
				adapterEvents = nil
				continue
			}
			ev = e
		}

		if ev.Instance != m.id {
			metrics.StaleEventsDropped.WithLabelValues(string(ev.Backend)).Inc()
			continue
		}
		metrics.EventsTotal.WithLabelValues(string(ev.Backend), string(ev.Type)).Inc()
		if ev.Type == EventError {
			metrics.AdapterErrorsTotal.WithLabelValues(string(ev.Backend), string(ErrorKindOf(ev.Err))).Inc()
		}

		select {
		case p.events <- ev:
		case <-m.ctx.Done():
			return
		}
	}
}

// mountDepsLocked hands the preloaded engine, if any, to a YouTube or Vimeo mount
func (p *Player) mountDepsLocked(kind source.Kind) Deps {
	deps := p.deps
	if p.standby == nil {
		return deps
	}
	if !(kind == source.KindYouTube && p.opts.YouTube.Preload) && !(kind == source.KindVimeo && p.opts.Vimeo.Preload) {
		return deps
	}
	engine := p.standby
	p.standby = nil
	deps.NewEngine = func(config.Options) Engine { return engine }
	return deps
}

func (p *Player) setActiveLocked(kind source.Kind) {
	p.active = kind
	label := string(kind)
	if kind == source.KindNone {
		label = ""
	}
	metrics.SetActiveBackend(label, kindLabels())
}

func setAdapterPlaying(adapter Adapter, playing bool) error {
	if playing {
		return adapter.Play()
	}
	return adapter.Pause()
}

func firstWebURL(urls []string) string {
	for _, u := range urls {
		if source.IsWebURL(u) {
			return strings.TrimSpace(u)
		}
	}
	return ""
}

func kindLabels() []string {
	labels := make([]string, len(source.Kinds))
	for i, k := range source.Kinds {
		labels[i] = string(k)
	}
	return labels
}
