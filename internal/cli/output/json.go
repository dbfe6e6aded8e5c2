package output

import (
	"encoding/json"
	"io"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// JSONFormatter formats values as JSON.
type JSONFormatter struct{}

// Format formats v as indented JSON.
func (f *JSONFormatter) Format(w io.Writer, v *domain.Value) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(Native(v))
}
