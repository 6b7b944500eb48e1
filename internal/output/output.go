// Package output formats CLI output with optional terminal styling.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Format selects the output rendering.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Writer renders CLI output to a destination.
type Writer struct {
	out    io.Writer
	format Format
	styles Styles
}

// NewWriter creates a Writer. Colors are enabled only when out is a
// terminal and noColor is false.
func NewWriter(out io.Writer, format Format, noColor bool) *Writer {
	useColor := !noColor && isTerminal(out)
	return &Writer{
		out:    out,
		format: format,
		styles: GetStyles(!useColor),
	}
}

// Format returns the writer's output format.
func (w *Writer) Format() Format {
	return w.format
}

// Styles exposes the active style set.
func (w *Writer) Styles() Styles {
	return w.styles
}

// Printf writes formatted text.
func (w *Writer) Printf(format string, args ...any) {
	fmt.Fprintf(w.out, format, args...)
}

// Println writes a line.
func (w *Writer) Println(args ...any) {
	fmt.Fprintln(w.out, args...)
}

// Success writes a success line.
func (w *Writer) Success(msg string) {
	fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+msg))
}

// Warning writes a warning line.
func (w *Writer) Warning(msg string) {
	fmt.Fprintln(w.out, w.styles.Warning.Render("⚠ "+msg))
}

// Error writes an error line.
func (w *Writer) Error(msg string) {
	fmt.Fprintln(w.out, w.styles.Error.Render("✗ "+msg))
}

// JSON writes v as indented JSON.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(out io.Writer) bool {
	f, ok := out.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
