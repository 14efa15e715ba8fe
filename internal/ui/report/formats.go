package report

import (
	"encoding/json"
	"fmt"
	"io"

	"cjsflat/internal/core/errors"

	"gopkg.in/yaml.v3"
)

const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

type document struct {
	Summary `yaml:",inline"`
	Counts  Counts `json:"counts" yaml:"counts"`
}

// Write renders s to w in format. color only affects the text format.
func Write(w io.Writer, format string, s Summary, color bool) error {
	switch format {
	case FormatText, "":
		_, err := io.WriteString(w, RenderText(s, color))
		return err
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(document{Summary: s, Counts: s.Counts()})
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(document{Summary: s, Counts: s.Counts()}); err != nil {
			return err
		}
		return enc.Close()
	}
	return errors.New(errors.CodeNotSupported, fmt.Sprintf("unknown report format %q", format))
}
