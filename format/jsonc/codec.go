// Package jsonc provides the JSONC (JSON with comments and trailing commas) codec.
//
// Decoding strips comments with github.com/tailscale/hujson before handing the
// standardized JSON to encoding/json.
package jsonc

import (
	"bytes"
	"encoding/json"

	"github.com/tailscale/hujson"
	"github.com/yacchi/bindwatch/format"
)

// NewCodec creates a JSONC codec.
//
// Example:
//
//	var cfg Config
//	err := jsonc.NewCodec().Unmarshal(data, &cfg)
func NewCodec() format.Codec {
	return format.NewCodec(format.JSONC, marshal, unmarshal, format.CodecConfig{})
}

func unmarshal(data []byte, v any) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		trimmed = []byte("{}")
	}
	value, err := hujson.Parse(trimmed)
	if err != nil {
		return err
	}
	// Standardize to remove comments for decoding
	value.Standardize()
	return json.Unmarshal(value.Pack(), v)
}

func marshal(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	value, err := hujson.Parse(data)
	if err != nil {
		return nil, err
	}
	value.Format()
	return value.Pack(), nil
}
