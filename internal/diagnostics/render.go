package diagnostics

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

const (
	ansiRed   = "\x1b[31m"
	ansiBold  = "\x1b[1m"
	ansiReset = "\x1b[0m"
)

// ColorEnabled resolves a color mode ("auto", "always", "never") against f.
func ColorEnabled(mode string, f *os.File) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	if f == nil {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Render formats err for the user, with position when known.
func Render(err error, color bool) string {
	var sb strings.Builder
	d := Wrap(DecodeError, err)
	if color {
		sb.WriteString(ansiBold + ansiRed)
	}
	sb.WriteString(string(d.Kind))
	if color {
		sb.WriteString(ansiReset)
	}
	sb.WriteString(": ")
	sb.WriteString(d.Message)
	if d.Line > 0 {
		loc := fmt.Sprintf(" (line %d, column %d", d.Line, d.Column)
		if d.File != "" {
			loc = fmt.Sprintf(" (%s:%d:%d", d.File, d.Line, d.Column)
		}
		sb.WriteString(loc + ")")
	}
	return sb.String()
}

// Fprint writes the rendered error followed by a newline.
func Fprint(w io.Writer, err error, color bool) {
	fmt.Fprintln(w, Render(err, color))
}
