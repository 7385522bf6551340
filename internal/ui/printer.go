package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Printer centralizes output formatting for commands.
// - Respects --output (text|json|yaml)
// - Uses ColorConfig for styling when printing text
// - Provides helpers for common message types
type Printer struct {
	format string
	out    io.Writer
	Colors *ColorConfig
}

// NewPrinter returns a Printer writing to stdout.
func NewPrinter(format string) Printer {
	return NewPrinterTo(os.Stdout, format, NewColorConfig())
}

// NewPrinterTo returns a Printer writing to w.
func NewPrinterTo(w io.Writer, format string, colors *ColorConfig) Printer {
	if format == "" {
		format = FormatText
	}
	if colors == nil {
		colors = NewColorConfig()
	}
	return Printer{format: format, out: w, Colors: colors}
}

// ValidFormat reports whether f is a supported --output value.
func ValidFormat(f string) bool {
	switch f {
	case FormatText, FormatJSON, FormatYAML, "":
		return true
	}
	return false
}

func (p Printer) Format() string { return p.format }

// Structured reports whether output is machine-readable.
func (p Printer) Structured() bool { return p.format == FormatJSON || p.format == FormatYAML }

// Writer exposes the destination, e.g. for tables.
func (p Printer) Writer() io.Writer { return p.out }

// Textf prints formatted text (always text path).
func (p Printer) Textf(format string, a ...any) { fmt.Fprintf(p.out, format, a...) }

// JSON pretty-prints a JSON value.
func (p Printer) JSON(v any) {
	enc := json.NewEncoder(p.out)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// YAML prints v as a YAML document.
func (p Printer) YAML(v any) {
	enc := yaml.NewEncoder(p.out)
	enc.SetIndent(2)
	_ = enc.Encode(v)
	_ = enc.Close()
}

// Emit prints v in the structured format, or calls text for text output.
func (p Printer) Emit(v any, text func()) {
	switch p.format {
	case FormatJSON:
		p.JSON(v)
	case FormatYAML:
		p.YAML(v)
	default:
		text()
	}
}

// Success prints a success line with themed prefix.
func (p Printer) Success(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintf(p.out, "%s %s\n", c.Success("✓"), msg)
	} else {
		fmt.Fprintf(p.out, "%s %s\n", c.Success("[OK]"), msg)
	}
}

// Info prints an informational line.
func (p Printer) Info(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.out, c.Info("ℹ"), msg)
	} else {
		fmt.Fprintln(p.out, c.Info("[INFO]"), msg)
	}
}

// Warn prints a warning line.
func (p Printer) Warn(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.out, c.Warning("!"), msg)
	} else {
		fmt.Fprintln(p.out, c.Warning("[WARN]"), msg)
	}
}

// Error prints an error line.
func (p Printer) Error(msg string) {
	c := p.Colors
	if c.EmojiEnabled {
		fmt.Fprintln(p.out, c.Error("✗"), msg)
	} else {
		fmt.Fprintln(p.out, c.Error("[ERR]"), msg)
	}
}

// Section prints a section header with separator
func (p Printer) Section(title string) {
	fmt.Fprintln(p.out)
	fmt.Fprintln(p.out, p.Colors.SubHeader(title))
	fmt.Fprintln(p.out, p.Colors.Separator(40))
}

// KeyValueLine prints a key-value pair with proper formatting
func (p Printer) KeyValueLine(key, value, colorType string) {
	var coloredValue string
	switch colorType {
	case "blue":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Info, value)
	case "yellow":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Warning, value)
	case "green":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Success, value)
	case "dim":
		coloredValue = p.Colors.Apply(p.Colors.Theme.Description, value)
	default:
		coloredValue = p.Colors.Value(value)
	}
	fmt.Fprintf(p.out, "%s %s\n", p.Colors.Label(key+":"), coloredValue)
}

// Table prints rows under headers.
func (p Printer) Table(headers []string, rows [][]string) {
	fmt.Fprint(p.out, Table(p.Colors, headers, rows, nil))
}

// PrintError renders a structured error.
func (p Printer) PrintError(e ErrorMessage) {
	fmt.Fprintln(p.out, e.Format(p.Colors))
}
