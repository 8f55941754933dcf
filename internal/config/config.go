package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Player  Options       `yaml:"player,omitempty" toml:"player,omitempty"`
	MPV     MPVConfig     `yaml:"mpv,omitempty" toml:"mpv,omitempty"`
	Metrics MetricsConfig `yaml:"metrics,omitempty" toml:"metrics,omitempty"`
	Logging LoggingConfig `yaml:"logging,omitempty" toml:"logging,omitempty"`
}

// MPVConfig contains settings for the mpv engine every backend plays through
type MPVConfig struct {
	Path         string        `yaml:"path,omitempty" toml:"path,omitempty"`
	Args         string        `yaml:"args,omitempty" toml:"args,omitempty"`
	StartTimeout time.Duration `yaml:"start_timeout,omitempty" toml:"start_timeout,omitempty"`
}

// MetricsConfig contains prometheus exposition settings.  An empty address disables the endpoint.
type MetricsConfig struct {
	Address string `yaml:"address,omitempty" toml:"address,omitempty"`
}

// LoggingConfig contains log related settings
type LoggingConfig struct {
	Level    string `yaml:"level,omitempty" toml:"level,omitempty"`
	FilePath string `yaml:"file_path,omitempty" toml:"file_path,omitempty"`
}

// Load builds a configuration struct from multiple sources using these steps:
// 1. Create a base config with default values
// 2. If no config file exists on disk, save the default config to that location
// 3. Apply 'dynamic' properties.  Dynamic properties are those that are determined at runtime, for example log file location which is different per OS.
// 4. Load & merge the config file (YAML, or TOML for a .toml path), overwriting any defaults with user-specified values
// 5. Apply environment variable overrides
// 6. Validate the result.  Unknown keys and out of range values are reported as errors.
func Load() (*Config, error) {
	// 1. Start with base defaults
	cfg := createBaseDefaultConfig()

	configPath, err := getConfigPath()
	if err != nil {
		return nil, fmt.Errorf("unable to determine config file path: %w", err)
	}

	// 2. If no config file exists on disk, then write a default one
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		// If there is an error saving the default config, then still let the application startup using the defaults.
		_ = save(cfg, configPath)
	}

	// 3. Apply dynamic defaults if necessary
	applyDynamicDefaults(cfg)

	// 4. Load the config from disk and merge it into the base defaults
	fileConfig, err := loadFromDisk(configPath)
	if err != nil {
		return nil, err
	}
	// WithoutDereference makes an explicit `volume: 0` or `playing: false` in the file replace the default pointer
	if err = mergo.Merge(cfg, fileConfig, mergo.WithOverride, mergo.WithoutDereference); err != nil {
		return nil, fmt.Errorf("error merging config loaded from disk: %w", err)
	}

	// 5. Apply the environment variable overrides which take precedence
	if err := applyEnvVarOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the whole configuration
func (c *Config) Validate() error {
	if err := c.Player.Validate(); err != nil {
		return err
	}
	if c.MPV.StartTimeout < 0 {
		return fmt.Errorf("mpv start timeout must be positive, got %s", c.MPV.StartTimeout)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unsupported logging level %q (valid: trace, debug, info, warn, error)", c.Logging.Level)
	}
	return nil
}

// applyDynamicDefaults sets runtime-determined default values for any properties that haven't been explicitly configured.
// Unlike static defaults, these values might change between runs based on the environment or system configuration.
func applyDynamicDefaults(cfg *Config) {
	cfg.Logging.FilePath = defaultLogFilePath()
}

// loadFromDisk loads the config from disk and returns the unmarshalled Config.  The format is picked from the file
// extension; anything that is not .toml is treated as YAML.
func loadFromDisk(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}

	cfg := &Config{}
	if isTOML(configPath) {
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, fmt.Errorf("unable to parse config file: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("unable to parse config file: unknown keys %v", undecoded)
		}
		return cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	// An empty file decodes to io.EOF, which simply means "no overrides"
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return cfg, nil
}

func save(cfg *Config, configPath string) error {
	// Create config dir if not exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}

	var data []byte
	if isTOML(configPath) {
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return err
		}
		data = buf.Bytes()
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return err
		}
	}

	return os.WriteFile(configPath, data, 0600)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// UpdateConfig reads the existing config, applies the update function, and saves it back to disk
func UpdateConfig(updateFn func(*Config)) error {
	configPath, err := getConfigPath()
	if err != nil {
		return fmt.Errorf("unable to determine config file path: %w", err)
	}

	cfg, err := loadFromDisk(configPath)
	if err != nil {
		return fmt.Errorf("error loading config file from disk: %w", err)
	}

	// Apply the updates
	updateFn(cfg)

	return save(cfg, configPath)
}

// Path returns the config file location that Load reads from
func Path() (string, error) {
	return getConfigPath()
}

// getConfigPath returns the path to the config file.  Uses the environment variable override if present, else tries
// to use OS config location defaults.
func getConfigPath() (string, error) {
	configPath := os.Getenv(envConfigPath)
	if configPath != "" {
		return configPath, nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "omniplayer", "config.yaml"), nil
}

// createBaseDefaultConfig creates a config with all default values
func createBaseDefaultConfig() *Config {
	player := DefaultOptions()
	// The app is for listening, so playback starts unless the config file, env or --paused say otherwise
	player.Playing = Bool(true)
	return &Config{
		Player: player,
		MPV: MPVConfig{
			Path:         "mpv",
			StartTimeout: 10 * time.Second,
		},
		Metrics: MetricsConfig{},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// defaultLogFilePath returns the path to the log file.  Tries to use expected OS location defaults.
func defaultLogFilePath() string {
	var basePath string
	homedir, err := os.UserHomeDir()
	if err != nil {
		// Fallback to logging in the current directory if home directory cannot be determined
		return filepath.Join(".", "omniplayer.log")
	}

	switch runtime.GOOS {
	case "windows":
		// Windows:  %LOCALAPPDATA%\omniplayer\logs
		if appData := os.Getenv("LOCALAPPDATA"); appData != "" {
			basePath = filepath.Join(appData, "omniplayer", "logs")
		} else {
			basePath = filepath.Join(homedir, "AppData", "local", "omniplayer", "logs")
		}
	case "darwin":
		// macOS:  ~/Library/Logs/omniplayer
		basePath = filepath.Join(homedir, "Library", "Logs", "omniplayer")
	default:
		// Linux/BSD:  XDG_STATE_HOME
		if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
			basePath = filepath.Join(xdgState, "omniplayer", "logs")
		} else {
			basePath = filepath.Join(homedir, ".local", "state", "omniplayer", "logs")
		}
	}

	err = os.MkdirAll(basePath, 0700)
	if err != nil {
		// If we failed to create the directory, fallback to logging in the current directory
		return filepath.Join(".", "omniplayer.log")
	}
	return filepath.Join(basePath, "omniplayer.log")
}
