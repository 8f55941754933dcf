// Package headless renders playback of a single source as a progress bar on a plain writer, for terminals without a
// TUI and for output that is piped or redirected.
package headless

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PizzaHomicide/omniplayer/internal/log"
	"github.com/PizzaHomicide/omniplayer/internal/player"
	"github.com/PizzaHomicide/omniplayer/internal/ui/tui/util"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
)

// barMax is the resolution of the progress bar, in thousandths of the media
const barMax = 1000

var (
	statusColor = color.New(color.FgCyan)
	doneColor   = color.New(color.FgGreen)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// Run prints events until the media ends, fails, the channel closes or ctx is cancelled.  It returns nil when
// playback ends or the channel closes, the event's error on a failure and ctx.Err() on cancellation.
func Run(ctx context.Context, events <-chan player.Event, out io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := newPrinter(out)
	var (
		ended   bool
		failure error
	)
	err := player.Dispatch(ctx, events, player.Handlers{
		OnPlay:     func() { p.status("playing") },
		OnPause:    func() { p.status("paused") },
		OnBuffer:   func() { p.status("buffering") },
		OnDuration: p.duration,
		OnProgress: p.progress,
		OnEnded: func() {
			p.finish()
			ended = true
			cancel()
		},
		OnError: func(err error) {
			p.fail(err)
			failure = err
			cancel()
		},
	})

	switch {
	case failure != nil:
		return failure
	case ended:
		return nil
	}
	return err
}

// printer owns the bar and the status line state
type printer struct {
	out      io.Writer
	bar      *progressbar.ProgressBar
	total    float64
	lastSeen string
}

func newPrinter(out io.Writer) *printer {
	return &printer{
		out: out,
		bar: progressbar.NewOptions(barMax,
			progressbar.OptionSetWriter(out),
			progressbar.OptionSetDescription("loading"),
			progressbar.OptionSetWidth(30),
			progressbar.OptionSetPredictTime(false),
			progressbar.OptionThrottle(100*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		),
	}
}

func (p *printer) status(state string) {
	if state == p.lastSeen {
		return
	}
	p.lastSeen = state
	log.Debug("Headless playback state", "state", state)
	p.bar.Describe(state)
}

func (p *printer) duration(seconds float64) {
	p.total = seconds
	_ = p.bar.Clear()
	statusColor.Fprintf(p.out, "duration %s\n", util.FormatSeconds(seconds))
}

func (p *printer) progress(pr player.Progress) {
	desc := p.lastSeen
	if desc == "" {
		desc = "loading"
	}
	if p.total > 0 {
		desc = fmt.Sprintf("%s %s/%s", desc, util.FormatSeconds(pr.PlayedSeconds), util.FormatSeconds(p.total))
	}
	p.bar.Describe(desc)
	_ = p.bar.Set(int(pr.Played * barMax))
}

func (p *printer) finish() {
	_ = p.bar.Finish()
	doneColor.Fprintln(p.out, "ended")
}

func (p *printer) fail(err error) {
	_ = p.bar.Clear()
	errorColor.Fprintf(p.out, "error (%s): %v\n", player.ErrorKindOf(err), err)
}
