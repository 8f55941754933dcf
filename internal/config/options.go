package config

import (
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"gopkg.in/yaml.v3"
)

// DefaultSoundCloudClientID is the public client id used for SoundCloud's resolve API when none is configured
const DefaultSoundCloudClientID = "e8b6f84fbcad14c301ca1355cae1dea2"

// ErrInvalidOptions is wrapped by every validation failure so callers can tell caller errors from runtime faults
var ErrInvalidOptions = errors.New("invalid player options")

// Options is the declarative option set for one player instance.  Fields left at their zero value are filled in
// from DefaultOptions by MergeOptions.  Scalars whose zero value is meaningful (playing=false, volume=0) are pointers
// so that "unset" and "explicitly zero" can be told apart.
type Options struct {
	URL              string           `yaml:"url,omitempty" toml:"url,omitempty"`
	Sources          []string         `yaml:"sources,omitempty" toml:"sources,omitempty"`
	Playing          *bool            `yaml:"playing,omitempty" toml:"playing,omitempty"`
	Volume           *float64         `yaml:"volume,omitempty" toml:"volume,omitempty"`
	Width            Dimension        `yaml:"width,omitempty" toml:"width,omitempty"`
	Height           Dimension        `yaml:"height,omitempty" toml:"height,omitempty"`
	ProgressInterval time.Duration    `yaml:"progress_interval,omitempty" toml:"progress_interval,omitempty"`
	YouTube          YouTubeConfig    `yaml:"youtube,omitempty" toml:"youtube,omitempty"`
	SoundCloud       SoundCloudConfig `yaml:"soundcloud,omitempty" toml:"soundcloud,omitempty"`
	Vimeo            VimeoConfig      `yaml:"vimeo,omitempty" toml:"vimeo,omitempty"`
	File             FileConfig       `yaml:"file,omitempty" toml:"file,omitempty"`
}

// YouTubeConfig contains YouTube specific settings
type YouTubeConfig struct {
	// PlayerVars mirror the YouTube embed parameters.  start, end, loop and mute are honoured.
	PlayerVars map[string]string `yaml:"player_vars,omitempty" toml:"player_vars,omitempty"`
	Preload    bool              `yaml:"preload,omitempty" toml:"preload,omitempty"`
}

// SoundCloudConfig contains SoundCloud specific settings
type SoundCloudConfig struct {
	ClientID string `yaml:"client_id,omitempty" toml:"client_id,omitempty"`
}

// VimeoConfig contains Vimeo specific settings
type VimeoConfig struct {
	// IframeParams mirror the Vimeo embed parameters.  loop, muted and autoplay are honoured.
	IframeParams map[string]string `yaml:"iframe_params,omitempty" toml:"iframe_params,omitempty"`
	Preload      bool              `yaml:"preload,omitempty" toml:"preload,omitempty"`
}

// FileConfig contains settings for direct media URLs
type FileConfig struct {
	// Headers are sent with the reachability probe and forwarded to the engine
	Headers      map[string]string `yaml:"headers,omitempty" toml:"headers,omitempty"`
	ProbeTimeout time.Duration     `yaml:"probe_timeout,omitempty" toml:"probe_timeout,omitempty"`
}

// DefaultOptions returns a freshly allocated default option set.  Every call returns new maps and pointers, so the
// result can be modified freely by the caller.
func DefaultOptions() Options {
	return Options{
		Playing:          Bool(false),
		Volume:           Float(0.8),
		Width:            Pixels(640),
		Height:           Pixels(360),
		ProgressInterval: time.Second,
		YouTube: YouTubeConfig{
			PlayerVars: map[string]string{},
		},
		SoundCloud: SoundCloudConfig{
			ClientID: DefaultSoundCloudClientID,
		},
		Vimeo: VimeoConfig{
			IframeParams: map[string]string{},
		},
		File: FileConfig{
			Headers:      map[string]string{},
			ProbeTimeout: 10 * time.Second,
		},
	}
}

// MergeOptions fills every unset field of overrides from DefaultOptions and validates the result.  overrides is not
// modified.
func MergeOptions(overrides Options) (Options, error) {
	merged := overrides.Clone()
	if err := mergo.Merge(&merged, DefaultOptions(), mergo.WithoutDereference); err != nil {
		return Options{}, fmt.Errorf("error merging player options: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return Options{}, err
	}
	return merged, nil
}

// Clone returns a deep copy so that merged option sets never share maps, slices or pointers with their inputs.
func (o Options) Clone() Options {
	c := o
	if o.Sources != nil {
		c.Sources = append([]string(nil), o.Sources...)
	}
	if o.Playing != nil {
		c.Playing = Bool(*o.Playing)
	}
	if o.Volume != nil {
		c.Volume = Float(*o.Volume)
	}
	c.YouTube.PlayerVars = maps.Clone(o.YouTube.PlayerVars)
	c.Vimeo.IframeParams = maps.Clone(o.Vimeo.IframeParams)
	c.File.Headers = maps.Clone(o.File.Headers)
	return c
}

// Validate reports caller errors in the option set.  It does not require a URL; the player reports a missing source
// when asked to load.
func (o Options) Validate() error {
	if o.Volume != nil && (*o.Volume < 0 || *o.Volume > 1) {
		return fmt.Errorf("%w: volume %v outside [0,1]", ErrInvalidOptions, *o.Volume)
	}
	if o.ProgressInterval < 0 {
		return fmt.Errorf("%w: progress interval must be positive, got %s", ErrInvalidOptions, o.ProgressInterval)
	}
	for name, d := range map[string]Dimension{"width": o.Width, "height": o.Height} {
		if d == "" {
			continue
		}
		if _, _, err := d.Parse(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidOptions, name, err)
		}
	}
	for _, name := range []string{"start", "end"} {
		v, ok := o.YouTube.PlayerVars[name]
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		if _, valid := source.ParseTimestamp(v); !valid {
			return fmt.Errorf("%w: youtube player var %s=%q is not a timestamp", ErrInvalidOptions, name, v)
		}
	}
	if o.File.ProbeTimeout < 0 {
		return fmt.Errorf("%w: file probe timeout must be positive, got %s", ErrInvalidOptions, o.File.ProbeTimeout)
	}
	return nil
}

// SourceList returns URL followed by the fallback Sources, skipping blanks
func (o Options) SourceList() []string {
	var list []string
	for _, s := range append([]string{o.URL}, o.Sources...) {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return list
}

// IsPlaying dereferences Playing, treating unset as paused
func (o Options) IsPlaying() bool {
	return o.Playing != nil && *o.Playing
}

// VolumeLevel dereferences Volume, treating unset as the default level
func (o Options) VolumeLevel() float64 {
	if o.Volume == nil {
		return *DefaultOptions().Volume
	}
	return *o.Volume
}

// Bool returns a pointer to b, for populating optional fields
func Bool(b bool) *bool { return &b }

// Float returns a pointer to f, for populating optional fields
func Float(f float64) *float64 { return &f }

// Dimension is a width or height given either in pixels ("640") or as a percentage of the screen ("50%")
type Dimension string

// Pixels builds a pixel Dimension
func Pixels(n int) Dimension {
	return Dimension(strconv.Itoa(n))
}

// Parse returns the numeric value and whether it is a percentage
func (d Dimension) Parse() (value int, percent bool, err error) {
	s := strings.TrimSpace(string(d))
	if strings.HasSuffix(s, "%") {
		percent = true
		s = strings.TrimSuffix(s, "%")
	} else {
		s = strings.TrimSuffix(s, "px")
	}
	value, err = strconv.Atoi(s)
	if err != nil {
		return 0, false, fmt.Errorf("malformed dimension %q", string(d))
	}
	if value <= 0 || (percent && value > 100) {
		return 0, false, fmt.Errorf("dimension %q out of range", string(d))
	}
	return value, percent, nil
}

// UnmarshalYAML accepts both numeric and string scalars, the typed version of a "string | number" dimension
func (d *Dimension) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("dimension must be a scalar, got yaml kind %d", node.Kind)
	}
	*d = Dimension(node.Value)
	return nil
}

// UnmarshalTOML accepts both integers and strings
func (d *Dimension) UnmarshalTOML(data any) error {
	switch v := data.(type) {
	case int64:
		*d = Pixels(int(v))
	case string:
		*d = Dimension(v)
	default:
		return fmt.Errorf("dimension must be an integer or string, got %T", data)
	}
	return nil
}
