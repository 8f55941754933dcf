package player

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/log"
)

const (
	commandTimeout = 5 * time.Second
	exitTimeout    = 3 * time.Second
)

// MPVEngine implements Engine on top of an mpv process driven over its JSON IPC interface.  mpv runs idle until the
// first Load, and stays up between loads so a preloaded engine can be handed to the next source.
type MPVEngine struct {
	path         string
	args         []string
	startTimeout time.Duration
	geometry     string

	mu        sync.Mutex
	started   bool
	closed    bool
	cmd       *exec.Cmd
	ipc       *MPVIPCClient
	socketDir string
	exited    chan struct{}

	events chan EngineEvent
	done   chan struct{}
}

// NewMPVEngine creates an engine from the mpv section of the config and the player dimensions
func NewMPVEngine(cfg config.MPVConfig, width, height config.Dimension) *MPVEngine {
	path := cfg.Path
	if path == "" {
		path = "mpv"
	}
	timeout := cfg.StartTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MPVEngine{
		path:         path,
		args:         ParseArgs(cfg.Args),
		startTimeout: timeout,
		geometry:     geometry(width, height),
		events:       make(chan EngineEvent, 64),
		done:         make(chan struct{}),
	}
}

// geometry renders the dimensions as an mpv --geometry value, e.g. "640x360" or "50%x50%"
func geometry(width, height config.Dimension) string {
	w, wPercent, err := width.Parse()
	if err != nil {
		return ""
	}
	h, hPercent, err := height.Parse()
	if err != nil {
		return ""
	}
	format := func(v int, percent bool) string {
		if percent {
			return fmt.Sprintf("%d%%", v)
		}
		return fmt.Sprintf("%d", v)
	}
	return format(w, wPercent) + "x" + format(h, hPercent)
}

// Start launches mpv idle and connects to its IPC socket
func (e *MPVEngine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.started {
		return nil
	}

	socketPath, socketDir, err := newSocketPath()
	if err != nil {
		return err
	}
	e.socketDir = socketDir

	args := []string{
		"--idle=yes",     // Stay alive between files
		"--keep-open=no", // Report end-file at the end instead of holding the last frame
		"--no-terminal",
		"--input-ipc-server=" + socketPath,
	}
	if e.geometry != "" {
		args = append(args, "--geometry="+e.geometry)
	}
	args = append(args, e.args...)

	log.Info("Starting MPV", "path", e.path, "args", args)
	cmd := exec.Command(e.path, args...)
	setupPlayerProcess(cmd)
	if err := cmd.Start(); err != nil {
		e.removeSocketDir()
		return fmt.Errorf("failed to start MPV: %w", err)
	}
	e.cmd = cmd
	e.exited = make(chan struct{})
	go func() {
		err := cmd.Wait()
		log.Debug("MPV exited", "error", err)
		close(e.exited)
	}()

	connCtx, cancel := context.WithTimeout(ctx, e.startTimeout)
	defer cancel()

	e.ipc = NewMPVIPCClient(socketPath)
	attempts := max(int(e.startTimeout/(200*time.Millisecond)), 1)
	if err := e.ipc.WaitForConnection(connCtx, attempts, 200*time.Millisecond); err != nil {
		e.kill()
		return fmt.Errorf("failed to connect to MPV: %w", err)
	}

	ids := make([]int, 0, len(observedProperties))
	for id := range observedProperties {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if err := e.ipc.ObserveProperty(connCtx, id, observedProperties[id]); err != nil {
			e.kill()
			return fmt.Errorf("failed to observe %s: %w", observedProperties[id], err)
		}
	}

	e.started = true
	go e.translate()
	return nil
}

// translate turns raw mpv events into EngineEvents until the IPC connection closes
func (e *MPVEngine) translate() {
	defer close(e.events)
	for raw := range e.ipc.Events() {
		ev, ok := translateEvent(raw)
		if !ok {
			continue
		}
		log.Trace("MPV engine event", "type", ev.Type.String(), "value", ev.Value, "flag", ev.Flag)
		select {
		case e.events <- ev:
		case <-e.done:
			return
		}
	}
}

// Load applies opts and replaces the current file with target
func (e *MPVEngine) Load(ctx context.Context, target string, opts LoadOptions) error {
	ipc, err := e.client()
	if err != nil {
		return err
	}

	start, end, loop := "none", "none", "no"
	if opts.Start > 0 {
		start = fmt.Sprintf("%.3f", opts.Start)
	}
	if opts.End > 0 {
		end = fmt.Sprintf("%.3f", opts.End)
	}
	if opts.Loop {
		loop = "inf"
	}
	headers := make([]string, 0, len(opts.Headers))
	for k, v := range opts.Headers {
		headers = append(headers, k+": "+v)
	}
	sort.Strings(headers)

	props := []struct {
		name  string
		value any
	}{
		{"pause", opts.Paused},
		{"volume", opts.Volume * 100},
		{"mute", opts.Mute},
		{"loop-file", loop},
		{"start", start},
		{"end", end},
		{"http-header-fields", headers},
		{"force-media-title", opts.Title},
	}
	for _, p := range props {
		if err := ipc.SetProperty(ctx, p.name, p.value); err != nil {
			return fmt.Errorf("setting %s: %w", p.name, err)
		}
	}

	log.Info("Loading media into MPV", "target", redactTarget(target), "start", opts.Start, "paused", opts.Paused)
	if _, err := ipc.Command(ctx, "loadfile", target, "replace"); err != nil {
		return err
	}
	return nil
}

// SetPause pauses or resumes playback
func (e *MPVEngine) SetPause(paused bool) error {
	return e.command("set_property", "pause", paused)
}

// Seek jumps to an absolute position in seconds
func (e *MPVEngine) Seek(seconds float64) error {
	return e.command("seek", seconds, "absolute")
}

// SetVolume sets the volume from a [0,1] level
func (e *MPVEngine) SetVolume(level float64) error {
	return e.command("set_property", "volume", level*100)
}

// Events returns the channel of native state changes
func (e *MPVEngine) Events() <-chan EngineEvent {
	return e.events
}

// Close quits mpv and removes its socket
func (e *MPVEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)

	if !e.started {
		close(e.events)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	if _, err := e.ipc.Command(ctx, "quit"); err != nil {
		log.Debug("MPV quit command failed", "error", err)
	}
	cancel()
	e.ipc.Close()

	select {
	case <-e.exited:
	case <-time.After(exitTimeout):
		log.Warn("MPV did not exit, terminating")
		e.kill()
		return nil
	}
	e.removeSocketDir()
	return nil
}

func (e *MPVEngine) client() (*MPVIPCClient, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrClosed
	}
	if !e.started {
		return nil, errEngineNotStarted
	}
	return e.ipc, nil
}

func (e *MPVEngine) command(args ...any) error {
	ipc, err := e.client()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()
	_, err = ipc.Command(ctx, args...)
	return err
}

// kill stops the process and cleans up.  Caller holds e.mu.
func (e *MPVEngine) kill() {
	if e.ipc != nil {
		e.ipc.Close()
	}
	if e.cmd != nil {
		if err := stopPlayerProcess(e.cmd); err != nil {
			log.Warn("Failed to stop MPV process", "error", err)
		}
		select {
		case <-e.exited:
		case <-time.After(exitTimeout):
			if err := e.cmd.Process.Kill(); err != nil {
				log.Warn("Failed to kill MPV process", "error", err)
			}
		}
	}
	e.removeSocketDir()
}

func (e *MPVEngine) removeSocketDir() {
	if e.socketDir == "" {
		return
	}
	if err := os.RemoveAll(e.socketDir); err != nil {
		log.Warn("Failed to remove MPV socket dir", "path", e.socketDir, "error", err)
	}
	e.socketDir = ""
}

// redactTarget drops the query string, which carries API keys for some backends
func redactTarget(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i]
	}
	return target
}
