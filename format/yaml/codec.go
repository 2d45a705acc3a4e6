// Package yaml provides the YAML codec backed by gopkg.in/yaml.v3.
package yaml

import (
	"bytes"

	"github.com/yacchi/bindwatch/format"
	"gopkg.in/yaml.v3"
)

// NewCodec creates a YAML codec handling .yaml and .yml files.
//
// Example:
//
//	data, err := yaml.NewCodec().Marshal(preset)
func NewCodec() format.Codec {
	return format.NewCodec(format.YAML, marshal, unmarshal, format.CodecConfig{
		Extensions: []string{".yaml", ".yml"},
	})
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return yaml.Unmarshal(data, v)
}
