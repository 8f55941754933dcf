package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const envConfigPath = "OMNIPLAYER_CONFIG_PATH"

type envVar struct {
	name  string
	desc  string
	apply func(*Config, string) error
}

// EnvVar describes a supported environment variable for documentation output
type EnvVar struct {
	Name        string
	Description string
}

var supportedEnvVars = []envVar{
	{
		// Only here for documentation purposes.  Does not override any values in the config as this environment variable
		// points to where the config should be loaded.  It is handled prior to loading the config.
		name:  envConfigPath,
		desc:  "Sets the path to the config file.  A .toml extension selects TOML.  Default: OS-specific config directory",
		apply: func(c *Config, s string) error { return nil }, // Special case, no-op
	},
	{
		name: "OMNIPLAYER_CONFIG_PLAYER_PLAYING",
		desc: "Start playback as soon as a source is loaded.  Default: false",
		apply: func(c *Config, s string) error {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return err
			}
			c.Player.Playing = Bool(b)
			return nil
		},
	},
	{
		name: "OMNIPLAYER_CONFIG_PLAYER_VOLUME",
		desc: "Sets the initial volume between 0 and 1.  Default: 0.8",
		apply: func(c *Config, s string) error {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			c.Player.Volume = Float(f)
			return nil
		},
	},
	{
		name:  "OMNIPLAYER_CONFIG_PLAYER_WIDTH",
		desc:  "Sets the player width in pixels or as a percentage.  Default: 640",
		apply: func(c *Config, s string) error { c.Player.Width = Dimension(s); return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_PLAYER_HEIGHT",
		desc:  "Sets the player height in pixels or as a percentage.  Default: 360",
		apply: func(c *Config, s string) error { c.Player.Height = Dimension(s); return nil },
	},
	{
		name: "OMNIPLAYER_CONFIG_PLAYER_PROGRESS_INTERVAL",
		desc: "Sets how often progress is reported, as a Go duration.  Default: 1s",
		apply: func(c *Config, s string) error {
			d, err := time.ParseDuration(s)
			if err != nil {
				return err
			}
			c.Player.ProgressInterval = d
			return nil
		},
	},
	{
		name:  "OMNIPLAYER_CONFIG_SOUNDCLOUD_CLIENT_ID",
		desc:  "Sets the SoundCloud API client id.  Default: built-in public client id",
		apply: func(c *Config, s string) error { c.Player.SoundCloud.ClientID = s; return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_MPV_PATH",
		desc:  "Sets the path to the mpv binary.  Default: mpv",
		apply: func(c *Config, s string) error { c.MPV.Path = s; return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_MPV_ARGS",
		desc:  "Sets additional mpv arguments.  Default: None",
		apply: func(c *Config, s string) error { c.MPV.Args = s; return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_METRICS_ADDRESS",
		desc:  "Serves prometheus metrics on this address, e.g. :9090.  Default: disabled",
		apply: func(c *Config, s string) error { c.Metrics.Address = s; return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_LOGGING_LEVEL",
		desc:  "Sets the logging level.  One of: trace, debug, info, warn, error.  Default: info",
		apply: func(c *Config, s string) error { c.Logging.Level = s; return nil },
	},
	{
		name:  "OMNIPLAYER_CONFIG_LOGGING_FILE_PATH",
		desc:  "Sets the logging file path.  Default: OS-specific",
		apply: func(c *Config, s string) error { c.Logging.FilePath = s; return nil },
	},
}

func applyEnvVarOverrides(c *Config) error {
	for _, envVar := range supportedEnvVars {
		if value := os.Getenv(envVar.name); value != "" {
			if err := envVar.apply(c, value); err != nil {
				return fmt.Errorf("invalid value for %s: %w", envVar.name, err)
			}
		}
	}
	return nil
}

// SupportedEnvVars lists every environment variable Load understands
func SupportedEnvVars() []EnvVar {
	vars := make([]EnvVar, 0, len(supportedEnvVars))
	for _, v := range supportedEnvVars {
		vars = append(vars, EnvVar{Name: v.name, Description: v.desc})
	}
	return vars
}
