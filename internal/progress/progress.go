// Package progress reports download progress to the terminal and,
// optionally, mirrors it to a JSON status file for external consumers.
//
// Terminal output uses the OSC 9;4 taskbar-progress escape sequence
// understood by Windows Terminal and ConEmu. File output is a compact
// JSON snapshot overwritten on every report, intended to be polled by
// a wrapping process.
//
// Reporting is strictly best-effort: no call in this package ever
// surfaces an I/O error to the caller.
package progress

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"runtime"
	"strings"
	"sync"
)

// EnvProgressFile names the environment variable that, when set to a
// non-blank path, enables JSON status-file emission.
const EnvProgressFile = "DEPOTDOWNLOADER_PROGRESS_FILE"

// State tags the semantic meaning of a reported percentage. The values
// match the state codes of the OSC 9;4 sequence.
type State int

const (
	StateHidden State = iota
	StateDefault
	StateError
	StateIndeterminate
	StateWarning
)

// Snapshot is the progress tuple written to the status file.
type Snapshot struct {
	Downloaded uint64 `json:"downloaded"`
	Total      uint64 `json:"total"`
	Percentage int    `json:"percentage"`
}

// ConsoleCaps answers whether the attached console can render the
// OSC 9;4 sequence. Implementations are per-OS; tests inject fakes.
type ConsoleCaps interface {
	// SupportsEscapes reports whether the console interprets ANSI
	// escape sequences.
	SupportsEscapes() bool
	// LegacyMode reports whether the console is running in a legacy
	// mode that passes basic output through but mangles modern
	// escape sequences.
	LegacyMode() bool
}

// Options configures a Reporter. The zero value is usable: output
// defaults to os.Stdout and the capability probe to the platform one.
type Options struct {
	// Output is where escape sequences and the one-time announcement
	// are written. Default: os.Stdout.
	Output io.Writer

	// OutputIsTerminal overrides interactive-terminal detection for
	// Output. When nil, os.Stdin and os.Stdout are probed.
	OutputIsTerminal *bool

	// Caps overrides the console capability probe. When nil the
	// platform default is used.
	Caps ConsoleCaps

	// FilePath overrides the status-file path. When empty the
	// DEPOTDOWNLOADER_PROGRESS_FILE environment variable is consulted
	// during Initialize.
	FilePath string
}

// Reporter publishes progress snapshots. Safe for concurrent use by
// multiple download workers.
type Reporter struct {
	out  io.Writer
	caps ConsoleCaps

	mu       sync.Mutex
	terminal bool
	filePath string
	isTTY    *bool

	announceOnce sync.Once
}

// NewReporter creates a Reporter. Call Initialize before reporting.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Reporter{
		out:      opts.Output,
		caps:     opts.Caps,
		filePath: opts.FilePath,
		isTTY:    opts.OutputIsTerminal,
	}
}

// Initialize reads the process environment and console capabilities to
// decide which progress channels are active. It is idempotent: the
// status-file announcement prints at most once per Reporter, while
// capability detection is re-run on every call. Initialize never
// returns an error; any detection failure just disables terminal
// output.
func (r *Reporter) Initialize() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.filePath == "" {
		r.filePath = strings.TrimSpace(os.Getenv(EnvProgressFile))
	}
	if r.filePath != "" {
		r.announceOnce.Do(func() {
			// Stdout may already be closed or redirected to a broken
			// pipe; the announcement is not worth failing over.
			fmt.Fprintf(r.out, "Writing progress to %s\n", r.filePath)
		})
	}

	r.terminal = r.detectTerminal()
}

// detectTerminal decides whether OSC 9;4 emission is safe. Must hold mu.
func (r *Reporter) detectTerminal() (enabled bool) {
	defer func() {
		if recover() != nil {
			enabled = false
		}
	}()

	if r.isTTY != nil {
		if !*r.isTTY {
			return false
		}
	} else if !stdioIsTerminal() {
		return false
	}

	// Linux terminal emulators do not honor the OSC 9;4 sequence.
	switch runtime.GOOS {
	case "linux", "android":
		return false
	}

	caps := r.caps
	if caps == nil {
		caps = platformCaps()
	}
	if caps == nil {
		// No probe available: platform default.
		return runtime.GOOS == "windows"
	}
	return caps.SupportsEscapes() && !caps.LegacyMode()
}

// Report publishes a Default-state snapshot, deriving the percentage
// from the byte counts: zero when total is zero, otherwise
// downloaded/total*100 rounded to the nearest integer.
func (r *Reporter) Report(downloaded, total uint64) {
	var percent float64
	if total != 0 {
		percent = math.Round(float64(downloaded) / float64(total) * 100)
	}
	if percent > 255 {
		percent = 255
	}
	r.ReportState(StateDefault, uint8(percent), downloaded, total)
}

// ReportState publishes a snapshot with an explicit state and
// percentage. Best effort: terminal and file write failures are
// swallowed, and the call never fails.
func (r *Reporter) ReportState(state State, percent uint8, downloaded, total uint64) {
	r.mu.Lock()
	terminal := r.terminal
	path := r.filePath
	r.mu.Unlock()

	if terminal {
		fmt.Fprintf(r.out, "\x1b]9;4;%d;%d\x07", int(state), percent)
	}

	if path == "" {
		return
	}
	r.writeStatusFile(path, Snapshot{
		Downloaded: downloaded,
		Total:      total,
		Percentage: int(percent),
	})
}

// writeStatusFile overwrites the status file with one compact JSON
// document. Last write wins; a serializing mutex keeps concurrent
// in-process writers from interleaving bytes. Errors are discarded:
// the previous file content simply stays stale.
func (r *Reporter) writeStatusFile(path string, snap Snapshot) {
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return
	}
	f.Write(data)
	f.Close()
}

var defaultReporter = NewReporter(Options{})

// Initialize initializes the process-wide reporter. Call once at
// startup, before download workers begin.
func Initialize() {
	defaultReporter.Initialize()
}

// Report publishes a Default-state snapshot via the process-wide
// reporter.
func Report(downloaded, total uint64) {
	defaultReporter.Report(downloaded, total)
}

// ReportState publishes an explicit-state snapshot via the
// process-wide reporter.
func ReportState(state State, percent uint8, downloaded, total uint64) {
	defaultReporter.ReportState(state, percent, downloaded, total)
}
