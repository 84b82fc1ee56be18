package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents the output format.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates a --output value. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// Tabular is implemented by values with a preferred table layout.
type Tabular interface {
	Table(wide bool) *Table
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format, wide bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TableFormatter{Wide: wide}
	}
}

// Printer binds a formatter to an output stream.
type Printer struct {
	Out    io.Writer
	Format Format
	Wide   bool
}

// Print writes data in the printer's format.
func (p *Printer) Print(data any) error {
	return NewFormatter(p.Format, p.Wide).Format(p.Out, data)
}

// Message prints a plain line in table mode and nothing otherwise, so
// machine-readable output stays parseable.
func (p *Printer) Message(format string, args ...any) {
	if p.Format != FormatTable && p.Format != "" {
		return
	}
	fmt.Fprintf(p.Out, format+"\n", args...)
}
