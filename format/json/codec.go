// Package json provides the JSON codec.
package json

import (
	"encoding/json"

	"github.com/yacchi/bindwatch/format"
)

// NewCodec creates a JSON codec producing two-space indented output.
//
// Example:
//
//	data, err := json.NewCodec().Marshal(preset)
func NewCodec() format.Codec {
	return format.NewCodec(format.JSON, marshal, json.Unmarshal, format.CodecConfig{})
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
