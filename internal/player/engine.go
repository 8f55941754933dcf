package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// LoadOptions are the per-media settings applied to the engine before a load
type LoadOptions struct {
	Start   float64 // Seconds, 0 plays from the beginning
	End     float64 // Seconds, 0 plays to the end
	Loop    bool
	Mute    bool
	Paused  bool
	Volume  float64 // [0,1]
	Title   string
	Headers map[string]string
}

// Engine is the native playback engine an adapter drives.  All backends play through one, so the adapters only
// differ in how they resolve a URL and which options they map onto LoadOptions.
type Engine interface {
	// Start brings the engine up idle.  Calling it on a started engine is a no-op.
	Start(ctx context.Context) error
	// Load replaces whatever is loaded with target
	Load(ctx context.Context, target string, opts LoadOptions) error
	SetPause(paused bool) error
	Seek(seconds float64) error
	SetVolume(level float64) error
	// Events delivers native state changes.  It is closed when the engine exits.
	Events() <-chan EngineEvent
	Close() error
}

// EngineEventType is a native state change reported by an Engine
type EngineEventType int

const (
	// EngineFileLoaded means the media is open and its metadata is available
	EngineFileLoaded EngineEventType = iota
	// EnginePause carries the pause flag in Flag
	EnginePause
	// EngineBuffering carries the stalled-for-data flag in Flag
	EngineBuffering
	// EngineDuration carries the duration in seconds in Value
	EngineDuration
	// EngineTimePos carries the playback position in seconds in Value
	EngineTimePos
	// EngineCacheTime carries how far ahead media has been buffered, in seconds, in Value
	EngineCacheTime
	// EngineEnded means the media reached its natural end
	EngineEnded
	// EngineFailed carries a native failure in Err
	EngineFailed
)

func (t EngineEventType) String() string {
	switch t {
	case EngineFileLoaded:
		return "file-loaded"
	case EnginePause:
		return "pause"
	case EngineBuffering:
		return "buffering"
	case EngineDuration:
		return "duration"
	case EngineTimePos:
		return "time-pos"
	case EngineCacheTime:
		return "cache-time"
	case EngineEnded:
		return "ended"
	case EngineFailed:
		return "failed"
	default:
		return fmt.Sprintf("engine-event(%d)", int(t))
	}
}

// EngineEvent is a native state change
type EngineEvent struct {
	Type  EngineEventType
	Value float64
	Flag  bool
	Err   error
}

// Properties observed on mpv, keyed by the observe id used for them
var observedProperties = map[int]string{
	1: "pause",
	2: "paused-for-cache",
	3: "duration",
	4: "time-pos",
	5: "demuxer-cache-time",
}

// translateEvent maps a raw mpv IPC event onto an EngineEvent.  The second return is false for events that carry no
// state the adapters care about.
func translateEvent(ev MPVEvent) (EngineEvent, bool) {
	switch ev.Event {
	case "file-loaded":
		return EngineEvent{Type: EngineFileLoaded}, true
	case "end-file":
		switch ev.Reason {
		case "eof":
			return EngineEvent{Type: EngineEnded}, true
		case "error":
			reason := ev.FileError
			if reason == "" {
				reason = "unknown error"
			}
			return EngineEvent{Type: EngineFailed, Err: fmt.Errorf("mpv: %s", reason)}, true
		}
		// stop, quit and redirect are the result of our own commands
		return EngineEvent{}, false
	case "property-change":
		// null data means the property is unavailable, e.g. duration while idle
		if len(ev.Data) == 0 || string(ev.Data) == "null" {
			return EngineEvent{}, false
		}
		switch ev.Name {
		case "pause", "paused-for-cache":
			var flag bool
			if err := json.Unmarshal(ev.Data, &flag); err != nil {
				return EngineEvent{}, false
			}
			t := EnginePause
			if ev.Name == "paused-for-cache" {
				t = EngineBuffering
			}
			return EngineEvent{Type: t, Flag: flag}, true
		case "duration", "time-pos", "demuxer-cache-time":
			var value float64
			if err := json.Unmarshal(ev.Data, &value); err != nil {
				return EngineEvent{}, false
			}
			t := map[string]EngineEventType{
				"duration":           EngineDuration,
				"time-pos":           EngineTimePos,
				"demuxer-cache-time": EngineCacheTime,
			}[ev.Name]
			return EngineEvent{Type: t, Value: value}, true
		}
	}
	return EngineEvent{}, false
}

var errEngineNotStarted = errors.New("engine not started")
