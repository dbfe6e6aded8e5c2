package command

import (
	"encoding/json"
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/qipc-go/internal/cli/output"
)

// encodeRecord writes one JSON line or one YAML document.
func encodeRecord(w io.Writer, format output.Format, v any) error {
	if format == output.FormatYAML {
		enc := yaml.NewEncoder(w)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return json.NewEncoder(w).Encode(v)
}
