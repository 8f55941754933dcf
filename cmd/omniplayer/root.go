package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/config"
	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/metrics"
	"github.com/PizzaHomicide/omniplayer/internal/player"
	"github.com/PizzaHomicide/omniplayer/internal/source"
	"github.com/PizzaHomicide/omniplayer/internal/ui/headless"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui"
	"github.com/PizzaHomicide/omniplayer/internal/version"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// rootFlags are the playback flags of the root command.  Only flags the user set override the config file.
type rootFlags struct {
	volume           float64
	paused           bool
	width            string
	height           string
	progressInterval time.Duration
	headless         bool
	metricsAddr      string
	noExpand         bool
}

func newRootCmd() *cobra.Command {
	cmd, _ := newRootCmdWithFlags()
	return cmd
}

// newRootCmdWithFlags also returns the flag values the command parses into
func newRootCmdWithFlags() (*cobra.Command, *rootFlags) {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "omniplayer [url...]",
		Short: "Play YouTube, SoundCloud, Vimeo and media file URLs from the terminal",
		Long: `omniplayer plays media from YouTube, SoundCloud, Vimeo, direct media URLs and local files through one
player.  The URLs are an ordered source list: the first playable one is mounted and the rest can be
switched to from the TUI.  Without a terminal on stdout a progress bar is printed instead.`,
		Args:         cobra.ArbitraryArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlayer(cmd, flags, args)
		},
	}

	f := cmd.Flags()
	f.Float64Var(&flags.volume, "volume", 0.8, "Initial volume, 0 to 1")
	f.BoolVar(&flags.paused, "paused", false, "Mount the first source without starting playback")
	f.StringVar(&flags.width, "width", "640", "Window width in pixels or as a percentage of the screen")
	f.StringVar(&flags.height, "height", "360", "Window height in pixels or as a percentage of the screen")
	f.DurationVar(&flags.progressInterval, "progress-interval", time.Second, "How often progress is reported")
	f.BoolVar(&flags.headless, "headless", false, "Print a progress bar instead of running the TUI")
	f.StringVar(&flags.metricsAddr, "metrics-addr", "", "Serve prometheus metrics on this address, e.g. :9090")
	f.BoolVar(&flags.noExpand, "no-expand", false, "Do not expand YouTube playlist URLs into their videos")

	cmd.AddCommand(newMatchCmd(), newEnvCmd(), newVersionCmd())
	return cmd, flags
}

func runPlayer(cmd *cobra.Command, flags *rootFlags, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyFlags(cmd.Flags(), flags, cfg); err != nil {
		return err
	}

	logger, err := log.New(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
	})
	if err != nil {
		return fmt.Errorf("failed to initialise logger: %w", err)
	}
	defer logger.Close()
	log.SetDefaultLogger(logger)

	log.Info("Starting up omniplayer", "version", version.GetVersion(), "build_time", version.GetBuildTime())

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := cfg.Metrics.Address; addr != "" {
		go func() {
			if err := metrics.Serve(ctx, addr); err != nil {
				log.Error("Metrics endpoint stopped", "address", addr, "error", err)
			}
		}()
	}

	urls := absLocalPaths(args)
	if len(urls) == 0 {
		urls = cfg.Player.SourceList()
	}
	if !flags.noExpand {
		urls = source.ExpandAll(ctx, urls)
	}

	p, err := player.New(cfg.Player, player.NewDeps(cfg))
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}
	defer func() {
		if err := p.Close(); err != nil {
			log.Warn("Failed to close player", "error", err)
		}
		log.Info("omniplayer shutting down.  Goodbye!")
	}()
	if err := p.Preload(ctx); err != nil {
		log.Warn("Failed to preload engine", "error", err)
	}

	if flags.headless || !isTerminal(os.Stdout) {
		return runHeadless(ctx, cmd, p, urls)
	}

	err = tui.Run(ctx, p, urls)
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

func runHeadless(ctx context.Context, cmd *cobra.Command, p *player.Player, urls []string) error {
	if len(urls) == 0 {
		return errors.New("no sources given; pass at least one URL")
	}
	if err := p.Load(ctx, urls...); err != nil {
		return err
	}
	err := headless.Run(ctx, p.Events(), cmd.OutOrStdout())
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// applyFlags copies the flags the user set onto the player options and validates the result
func applyFlags(fs *pflag.FlagSet, flags *rootFlags, cfg *config.Config) error {
	opts := &cfg.Player
	if fs.Changed("paused") {
		opts.Playing = config.Bool(!flags.paused)
	}
	if fs.Changed("volume") {
		opts.Volume = config.Float(flags.volume)
	}
	if fs.Changed("width") {
		opts.Width = config.Dimension(flags.width)
	}
	if fs.Changed("height") {
		opts.Height = config.Dimension(flags.height)
	}
	if fs.Changed("progress-interval") {
		opts.ProgressInterval = flags.progressInterval
	}
	if fs.Changed("metrics-addr") {
		cfg.Metrics.Address = flags.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}
	return nil
}

// absLocalPaths makes relative paths to existing files absolute, so "omniplayer clip.mp4" plays from the working
// directory.  URLs and paths that do not exist are passed through untouched.
func absLocalPaths(args []string) []string {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		out = append(out, absLocalPath(arg))
	}
	return out
}

func absLocalPath(arg string) string {
	if arg == "" || filepath.IsAbs(arg) {
		return arg
	}
	if u, err := url.Parse(arg); err == nil && u.Scheme != "" {
		return arg
	}
	info, err := os.Stat(arg)
	if err != nil || info.IsDir() {
		return arg
	}
	abs, err := filepath.Abs(arg)
	if err != nil {
		return arg
	}
	return abs
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
