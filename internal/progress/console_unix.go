//go:build !windows

package progress

import (
	"os"

	"golang.org/x/term"
)

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// unixCaps approximates escape-sequence support from the TERM
// variable. There is no legacy-console concept outside Windows.
type unixCaps struct{}

func (unixCaps) SupportsEscapes() bool {
	termEnv := os.Getenv("TERM")
	return termEnv != "" && termEnv != "dumb"
}

func (unixCaps) LegacyMode() bool { return false }

func platformCaps() ConsoleCaps { return unixCaps{} }
