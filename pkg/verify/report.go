package verify

import (
	"bytes"
	"fmt"
	"github.com/funvibe/exprassert/internal/config"
	"github.com/funvibe/exprassert/internal/evaluator"
	"github.com/mattn/go-isatty"
	"io"
	"os"
	"reflect"
	"strings"
)

// =============================================================================
// Color support detection
// =============================================================================

// colorEnabled resolves a color mode ("auto", "always", "never") for w.
func colorEnabled(w io.Writer, mode string) bool {
	switch mode {
	case config.ColorAlways:
		return true
	case config.ColorNever:
		return false
	}

	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// =============================================================================
// ANSI escape code helpers
// =============================================================================

const (
	fgRed    = 31
	fgGreen  = 32
	fgYellow = 33
	fgCyan   = 36
)

func (r *Reporter) fg(colorCode int, s string) string {
	if !r.color {
		return s
	}
	return fmt.Sprintf("\033[%dm", colorCode) + s + "\033[39m"
}

func (r *Reporter) bold(s string) string {
	if !r.color {
		return s
	}
	return "\033[1m" + s + "\033[22m"
}

// =============================================================================
// Reporter
// =============================================================================

// Reporter prints failures for humans: the predicate, the message, then the
// structured fields of the failure and a diff for composite values.
type Reporter struct {
	w     io.Writer
	color bool
}

// NewReporter writes to w. mode is a config color mode; "auto" colours only
// terminals.
func NewReporter(w io.Writer, mode string) *Reporter {
	return &Reporter{w: w, color: colorEnabled(w, mode)}
}

// NewReporterFromConfig is NewReporter with the color mode from cfg.
func NewReporterFromConfig(w io.Writer, cfg *Config) *Reporter {
	return NewReporter(w, cfg.Color)
}

func (r *Reporter) Report(f *Failure) error {
	_, err := io.WriteString(r.w, r.format(f))
	return err
}

// Format renders a failure without colour.
func Format(f *Failure) string {
	return (&Reporter{}).format(f)
}

func (r *Reporter) format(f *Failure) string {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s [#%d] %s\n", r.bold(r.fg(fgRed, "FAIL")), f.Index, f.Predicate)
	for _, line := range strings.Split(f.Message, "\n") {
		fmt.Fprintf(&buf, "    %s\n", line)
	}

	field := func(label, value string, color int) {
		fmt.Fprintf(&buf, "  %-9s %s\n", label+":", r.fg(color, value))
	}
	if f.Target != "" {
		field("target", f.Target, fgCyan)
	}
	switch f.Kind {
	case FailureValue:
		field("expected", formatValue(f.Expected), fgGreen)
		field("actual", formatValue(f.Actual), fgYellow)
		if isComposite(f.Expected) || isComposite(f.Actual) {
			if d := evaluator.Diff(f.Expected, f.Actual); d != "" {
				buf.WriteString("  diff (-expected +actual):\n")
				for _, line := range strings.Split(strings.TrimRight(d, "\n"), "\n") {
					fmt.Fprintf(&buf, "    %s\n", line)
				}
			}
		}
	case FailureNullChain:
		field("nil at", f.NullProperty, fgYellow)
	}
	if f.Cause != nil {
		field("cause", f.Cause.Error(), fgYellow)
	}
	return buf.String()
}

func isComposite(v any) bool {
	if v == nil {
		return false
	}
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Struct, reflect.Slice, reflect.Array, reflect.Map:
		return true
	}
	return false
}
