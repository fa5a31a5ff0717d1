// Package watch polls a progress status file written by the reporter
// and renders human-readable updates. It is the consumer side of the
// file protocol: the file is re-read on every tick and treated as a
// materialized snapshot, so missing files, truncated writes, and
// malformed JSON are all tolerated and retried.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/NethercraftMC5608/DepotDownloaderModified/internal/logging"
	"github.com/fatih/color"
)

var log = logging.L("watch")

// DefaultInterval is the poll interval used when Options.Interval is zero.
const DefaultInterval = 100 * time.Millisecond

// snapshot mirrors the status-file document. Percentage is decoded as
// a float so files written by other producers stay readable.
type snapshot struct {
	Downloaded uint64  `json:"downloaded"`
	Total      uint64  `json:"total"`
	Percentage float64 `json:"percentage"`
}

// Options configures a Watcher.
type Options struct {
	// Path is the progress file to poll.
	Path string

	// Interval is the poll interval. Default: DefaultInterval.
	Interval time.Duration

	// Output is where progress lines are written. Default: os.Stdout.
	Output io.Writer

	// Colorize enables colored percentage lines.
	Colorize bool
}

// Watcher polls a progress file until the download completes or the
// context is cancelled.
type Watcher struct {
	opts Options
}

// New creates a Watcher.
func New(opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Watcher{opts: opts}
}

// Run polls until the file reports a percentage of 100 or more, then
// prints a completion line and returns nil. Cancellation returns
// ctx.Err(). Lines are printed only when the percentage changes.
func (w *Watcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	pctLine := color.New(color.FgGreen).FprintfFunc()
	if !w.opts.Colorize {
		pctLine = plainFprintf
	}

	var lastPct = -1.0
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		snap, ok := w.read()
		if !ok {
			continue
		}

		if snap.Percentage != lastPct {
			if snap.Total > 0 {
				pctLine(w.opts.Output, "%6.2f%%  (%d/%d bytes)\n", snap.Percentage, snap.Downloaded, snap.Total)
			} else {
				pctLine(w.opts.Output, "%6.2f%%  (percent-only)\n", snap.Percentage)
			}
			lastPct = snap.Percentage
		}

		if snap.Percentage >= 100 {
			plainFprintf(w.opts.Output, "Download complete.\n")
			return nil
		}
	}
}

// read loads the current snapshot. A missing file, a file caught
// mid-rewrite, or any other read problem yields ok=false and the next
// tick tries again.
func (w *Watcher) read() (snapshot, bool) {
	data, err := os.ReadFile(w.opts.Path)
	if err != nil {
		return snapshot{}, false
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Debug("skipping unreadable snapshot", "path", w.opts.Path, "error", err)
		return snapshot{}, false
	}
	return snap, true
}

func plainFprintf(out io.Writer, format string, args ...interface{}) {
	fmt.Fprintf(out, format, args...)
}
