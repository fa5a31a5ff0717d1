//go:build windows

package progress

import (
	"os"

	"golang.org/x/sys/windows"
	"golang.org/x/term"
)

func stdioIsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// windowsCaps probes the console mode of stdout. A console that has
// (or accepts) ENABLE_VIRTUAL_TERMINAL_PROCESSING renders OSC
// sequences; one that rejects it is a legacy console.
type windowsCaps struct{}

func (windowsCaps) SupportsEscapes() bool {
	handle := windows.Handle(os.Stdout.Fd())

	var mode uint32
	if err := windows.GetConsoleMode(handle, &mode); err != nil {
		return false
	}
	if mode&windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING != 0 {
		return true
	}
	// Try to switch VT processing on; legacy consoles refuse.
	if err := windows.SetConsoleMode(handle, mode|windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING); err != nil {
		return false
	}
	return true
}

func (c windowsCaps) LegacyMode() bool {
	var mode uint32
	err := windows.GetConsoleMode(windows.Handle(os.Stdout.Fd()), &mode)
	return err != nil
}

func platformCaps() ConsoleCaps { return windowsCaps{} }
