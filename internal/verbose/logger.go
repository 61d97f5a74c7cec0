// Package verbose writes progress and diagnostic lines for batch runs.
package verbose

import (
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

const verbosePrefix = "[verbose]"

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiGray   = "\x1b[90m"
	ansiGreen  = "\x1b[32m"
	ansiRed    = "\x1b[31m"
	ansiBlue   = "\x1b[34m"
	ansiYellow = "\x1b[33m"
)

// Style selects the color of a verbose line.
type Style int

const (
	StyleDefault Style = iota
	StyleTask
	StyleMetrics
	StyleError
	StyleWarn
)

// Options configures a Logger.
type Options struct {
	// Verbose enables Logf lines.
	Verbose bool
	// Out receives verbose lines; usually stdout.
	Out io.Writer
	// Err receives warnings and errors regardless of Verbose.
	Err io.Writer
	// Log mirrors every line without colors; usually the --log file.
	Log     io.Writer
	NoColor bool
	// Workers > 1 wraps the writers so concurrent lines do not interleave.
	Workers int
}

// Logger writes `[verbose]` lines. A nil *Logger discards everything.
type Logger struct {
	verbose bool
	out     io.Writer
	err     io.Writer
	log     io.Writer
	noColor bool
}

// New builds a Logger from opts.
func New(opts Options) *Logger {
	out, log := wrapWriters(opts.Workers, opts.Out, opts.Log)
	errOut := opts.Err
	if opts.Workers > 1 && errOut != nil {
		errOut = &lockedWriter{w: errOut}
	}
	return &Logger{
		verbose: opts.Verbose,
		out:     out,
		err:     errOut,
		log:     log,
		noColor: opts.NoColor,
	}
}

// Enabled reports whether verbose lines are written.
func (l *Logger) Enabled() bool {
	return l != nil && l.verbose
}

// Logf writes a verbose line when verbose output is enabled.
func (l *Logger) Logf(style Style, format string, args ...any) {
	if l == nil {
		return
	}
	line := fmt.Sprintf(format, args...)
	if l.verbose && l.out != nil {
		palette := paletteFor(l.out, l.noColor)
		fmt.Fprintf(l.out, "%s %s\n", palette.prefix(verbosePrefix), palette.apply(style, line))
	}
	if l.log != nil {
		fmt.Fprintf(l.log, "%s %s\n", verbosePrefix, line)
	}
}

// Warnf always writes a warning line.
func (l *Logger) Warnf(format string, args ...any) {
	l.always(StyleWarn, "warning: ", format, args...)
}

// Errorf always writes an error line.
func (l *Logger) Errorf(format string, args ...any) {
	l.always(StyleError, "error: ", format, args...)
}

func (l *Logger) always(style Style, label, format string, args ...any) {
	if l == nil {
		return
	}
	line := label + fmt.Sprintf(format, args...)
	if l.err != nil {
		palette := paletteFor(l.err, l.noColor)
		fmt.Fprintln(l.err, palette.apply(style, line))
	}
	if l.log != nil {
		fmt.Fprintln(l.log, line)
	}
}

type palette struct {
	enabled bool
}

func paletteFor(writer io.Writer, noColor bool) palette {
	if noColor {
		return palette{enabled: false}
	}
	return palette{enabled: ShouldUseStyling(writer)}
}

// ShouldUseStyling reports whether ANSI styling suits writer.
func ShouldUseStyling(writer io.Writer) bool {
	if writer == nil {
		return false
	}
	if os.Getenv("NO_COLOR") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	if strings.EqualFold(os.Getenv("CLICOLOR"), "0") {
		return false
	}
	return IsTerminal(writer)
}

// IsTerminal reports whether writer is backed by a terminal.
func IsTerminal(writer io.Writer) bool {
	if locked, ok := writer.(*lockedWriter); ok {
		writer = locked.w
	}
	if file, ok := writer.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := writer.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}

func (p palette) prefix(text string) string {
	if !p.enabled {
		return text
	}
	return ansiDim + ansiGray + text + ansiReset
}

func (p palette) apply(style Style, text string) string {
	if !p.enabled {
		return text
	}
	switch style {
	case StyleTask:
		return ansiBold + ansiBlue + text + ansiReset
	case StyleMetrics:
		return ansiBold + ansiGreen + text + ansiReset
	case StyleError:
		return ansiBold + ansiRed + text + ansiReset
	case StyleWarn:
		return ansiYellow + text + ansiReset
	default:
		return text
	}
}
