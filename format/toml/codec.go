// Package toml provides the TOML codec backed by github.com/pelletier/go-toml/v2.
package toml

import (
	"github.com/pelletier/go-toml/v2"
	"github.com/yacchi/bindwatch/format"
)

// NewCodec creates a TOML codec.
//
// Example:
//
//	var cfg Config
//	err := toml.NewCodec().Unmarshal(data, &cfg)
func NewCodec() format.Codec {
	return format.NewCodec(format.TOML, toml.Marshal, toml.Unmarshal, format.CodecConfig{})
}
