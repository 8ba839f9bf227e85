package ui

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔══════════════════════════════════════════════════════╗
    ║  ██╗  ██╗███████╗ ██████╗██████╗  █████╗ ██████╗     ║
    ║  ╚██╗██╔╝██╔════╝██╔════╝██╔══██╗██╔══██╗██╔══██╗    ║
    ║   ╚███╔╝ ███████╗██║     ██████╔╝███████║██████╔╝    ║
    ║   ██╔██╗ ╚════██║██║     ██╔══██╗██╔══██║██╔═══╝     ║
    ║  ██╔╝ ██╗███████║╚██████╗██║  ██║██║  ██║██║         ║
    ║  ╚═╝  ╚═╝╚══════╝ ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝╚═╝         ║
    ║          FEED COLLECTION UTILITY                     ║
    ╚══════════════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

var (
	outMu  sync.Mutex
	out    io.Writer = os.Stdout
	quiet  bool
	colors = true
)

// SetOutput redirects console output, e.g. to a raw-mode safe writer.
// nil restores stdout.
func SetOutput(w io.Writer) {
	outMu.Lock()
	defer outMu.Unlock()
	if w == nil {
		w = os.Stdout
	}
	out = w
}

// SetQuietMode suppresses everything except errors
func SetQuietMode(q bool) {
	outMu.Lock()
	defer outMu.Unlock()
	quiet = q
}

// IsQuietMode reports whether quiet mode is on
func IsQuietMode() bool {
	outMu.Lock()
	defer outMu.Unlock()
	return quiet
}

// SetColors turns ANSI colors on or off
func SetColors(enabled bool) {
	outMu.Lock()
	defer outMu.Unlock()
	colors = enabled
}

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		outMu.Lock()
		enabled := colors
		outMu.Unlock()
		if !enabled {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

func printf(errorLevel bool, format string, args ...interface{}) {
	outMu.Lock()
	defer outMu.Unlock()
	if quiet && !errorLevel {
		return
	}
	fmt.Fprintf(out, format, args...)
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	printf(false, "%s", Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	printf(true, "%s\n", Red(msg))
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	printf(false, "%s\n", Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	printf(false, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		msg = msg + ": " + fmt.Sprintf("%v", args[0])
	}
	printf(false, "%s\n", Yellow(msg))
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	printf(false, "%s\n", Magenta(msg))
}
