package output

import (
	"io"

	"go.yaml.in/yaml/v3"

	"github.com/yndnr/qipc-go/internal/core/domain"
)

// YAMLFormatter formats values as YAML.
type YAMLFormatter struct{}

// Format formats v as YAML.
func (f *YAMLFormatter) Format(w io.Writer, v *domain.Value) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(Native(v)); err != nil {
		return err
	}
	return encoder.Close()
}
