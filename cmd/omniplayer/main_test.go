package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestMatchCommand(t *testing.T) {
	out := execute(t, "match",
		"https://www.youtube.com/watch?v=oUFJJNQGwhk",
		"https://soundcloud.com/miami-nights-1984/accelerated",
		"https://vimeo.com/90509568",
		"https://example.com/song.mp3",
		"https://example.com/watch",
		"not a url",
	)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "youtube"))
	assert.True(t, strings.HasPrefix(lines[1], "soundcloud"))
	assert.True(t, strings.HasPrefix(lines[2], "vimeo"))
	assert.True(t, strings.HasPrefix(lines[3], "file "))
	assert.True(t, strings.HasPrefix(lines[4], "file (probe)"))
	assert.True(t, strings.HasPrefix(lines[5], "unsupported"))
}

func TestAbsLocalPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "clip.mp4"), []byte("x"), 0o600))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "videos"), 0o700))
	t.Chdir(dir)

	got := absLocalPaths([]string{
		"clip.mp4",
		"missing.mp4",
		"videos",
		"https://vimeo.com/90509568",
	})
	require.Len(t, got, 4)
	assert.True(t, filepath.IsAbs(got[0]))
	assert.Equal(t, "clip.mp4", filepath.Base(got[0]))
	assert.Equal(t, source.KindFile, source.Match(got[0]))
	assert.Equal(t, "missing.mp4", got[1])
	assert.Equal(t, "videos", got[2])
	assert.Equal(t, "https://vimeo.com/90509568", got[3])
}

func TestMatchCommandResolvesRelativeFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "song.mp3"), []byte("x"), 0o600))
	t.Chdir(dir)

	assert.True(t, strings.HasPrefix(execute(t, "match", "song.mp3"), "file "))
}

func TestEnvCommandListsConfigPath(t *testing.T) {
	assert.Contains(t, execute(t, "env"), "OMNIPLAYER_CONFIG_PATH")
}

func TestVersionCommand(t *testing.T) {
	assert.Contains(t, execute(t, "version"), "omniplayer")
}

func TestApplyFlagsOnlyOverridesChangedFlags(t *testing.T) {
	cmd, flags := newRootCmdWithFlags()
	require.NoError(t, cmd.ParseFlags([]string{"--volume", "0.3", "--height", "50%", "--progress-interval", "250ms"}))

	opts, err := config.MergeOptions(config.Options{Width: config.Pixels(1280)})
	require.NoError(t, err)
	cfg := &config.Config{Player: opts}

	require.NoError(t, applyFlags(cmd.Flags(), flags, cfg))
	assert.Equal(t, 0.3, cfg.Player.VolumeLevel())
	assert.Equal(t, config.Dimension("50%"), cfg.Player.Height)
	assert.Equal(t, config.Pixels(1280), cfg.Player.Width, "unset flag keeps the config value")
	assert.Equal(t, 250*time.Millisecond, cfg.Player.ProgressInterval)
	assert.False(t, cfg.Player.IsPlaying(), "unset --paused keeps the config play state")
}

func TestApplyFlagsKeepsConfiguredPlayState(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		configured bool
		want       bool
	}{
		{"configured paused, no flags", nil, false, false},
		{"configured playing, no flags", nil, true, true},
		{"configured playing, --paused", []string{"--paused"}, true, false},
		{"configured paused, --paused=false", []string{"--paused=false"}, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, flags := newRootCmdWithFlags()
			require.NoError(t, cmd.ParseFlags(tt.args))

			opts, err := config.MergeOptions(config.Options{Playing: config.Bool(tt.configured)})
			require.NoError(t, err)
			cfg := &config.Config{Player: opts}

			require.NoError(t, applyFlags(cmd.Flags(), flags, cfg))
			assert.Equal(t, tt.want, cfg.Player.IsPlaying())
		})
	}
}

func TestApplyFlagsRejectsInvalidValues(t *testing.T) {
	cmd, flags := newRootCmdWithFlags()
	require.NoError(t, cmd.ParseFlags([]string{"--volume", "1.5", "--paused"}))

	opts, err := config.MergeOptions(config.Options{})
	require.NoError(t, err)
	cfg := &config.Config{Player: opts}

	err = applyFlags(cmd.Flags(), flags, cfg)
	assert.ErrorIs(t, err, config.ErrInvalidOptions)
}
