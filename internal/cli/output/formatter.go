package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// Format represents the output format.
type Format string

const (
	FormatQ     Format = "q"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// Formats lists the accepted format names.
var Formats = []Format{FormatQ, FormatTable, FormatJSON, FormatYAML}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "" {
		return FormatQ, nil
	}
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// Formatter writes a value to w.
type Formatter interface {
	Format(w io.Writer, v *domain.Value) error
}

// NewFormatter creates a formatter for the given format. Unknown formats use
// q syntax.
func NewFormatter(format Format, noHeaders bool) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	case FormatTable:
		return &TableFormatter{NoHeaders: noHeaders}
	default:
		return &QFormatter{}
	}
}

// QFormatter writes q display syntax.
type QFormatter struct{}

// Format writes v.String() followed by a newline.
func (f *QFormatter) Format(w io.Writer, v *domain.Value) error {
	if v == nil {
		return nil
	}
	_, err := fmt.Fprintln(w, v.String())
	return err
}
