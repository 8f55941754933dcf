package player

import (
	"context"

	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/google/uuid"
)

// EventType is one of the canonical playback events every backend is normalised to
type EventType string

const (
	// EventPlay fires when playback starts or resumes
	EventPlay EventType = "play"
	// EventPause fires when playback is paused by a control call or by the user
	EventPause EventType = "pause"
	// EventBuffer fires when playback stalls waiting for data
	EventBuffer EventType = "buffer"
	// EventEnded fires once when the media plays through to its end
	EventEnded EventType = "ended"
	// EventError fires on any load or playback failure.  Err is set.
	EventError EventType = "error"
	// EventDuration fires once when the duration becomes known.  Duration is set.
	EventDuration EventType = "duration"
	// EventProgress fires every progress interval while the values change.  Progress is set.
	EventProgress EventType = "progress"
)

// Progress is the payload of a progress event.  Fractions are in [0,1] and PlayedSeconds <= LoadedSeconds.
type Progress struct {
	Played        float64 `json:"played"`
	PlayedSeconds float64 `json:"playedSeconds"`
	Loaded        float64 `json:"loaded"`
	LoadedSeconds float64 `json:"loadedSeconds"`
}

// Event is a canonical playback event.  Instance identifies the adapter that produced it, so hosts (and the Player)
// can tell events of the current source from those of one that has since been replaced.
type Event struct {
	Type     EventType
	Instance uuid.UUID
	Backend  source.Kind
	Duration float64  // Seconds, set for EventDuration
	Progress Progress // Set for EventProgress
	Err      error    // Set for EventError
}

// Handlers is the callback surface.  Any nil handler is skipped.
type Handlers struct {
	OnPlay     func()
	OnPause    func()
	OnBuffer   func()
	OnEnded    func()
	OnError    func(err error)
	OnDuration func(seconds float64)
	OnProgress func(p Progress)
}

// Dispatch reads events until the channel is closed or ctx is cancelled, invoking the matching handler for each.
// Handlers run on the calling goroutine, one at a time and in event order.
func Dispatch(ctx context.Context, events <-chan Event, h Handlers) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			h.handle(ev)
		}
	}
}

func (h Handlers) handle(ev Event) {
	switch ev.Type {
	case EventPlay:
		if h.OnPlay != nil {
			h.OnPlay()
		}
	case EventPause:
		if h.OnPause != nil {
			h.OnPause()
		}
	case EventBuffer:
		if h.OnBuffer != nil {
			h.OnBuffer()
		}
	case EventEnded:
		if h.OnEnded != nil {
			h.OnEnded()
		}
	case EventError:
		if h.OnError != nil {
			h.OnError(ev.Err)
		}
	case EventDuration:
		if h.OnDuration != nil {
			h.OnDuration(ev.Duration)
		}
	case EventProgress:
		if h.OnProgress != nil {
			h.OnProgress(ev.Progress)
		}
	}
}
