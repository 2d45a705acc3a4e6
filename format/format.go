// Package format provides the document codecs used for configuration files
// and for exporting parsed bindings.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnknownFormat is returned when no codec is registered for a format name
// or file extension.
var ErrUnknownFormat = errors.New("format: unknown format")

// Format identifies a document format.
type Format string

// Supported formats.
const (
	JSON  Format = "json"
	JSONC Format = "jsonc"
	YAML  Format = "yaml"
	TOML  Format = "toml"
)

// MarshalFunc encodes a value.
type MarshalFunc func(v any) ([]byte, error)

// UnmarshalFunc decodes data into v.
type UnmarshalFunc func(data []byte, v any) error

// Codec marshals and unmarshals values in one format.
type Codec interface {
	// Format returns the format identifier.
	Format() Format

	// Extensions returns the file extensions handled by the codec, with the leading dot.
	Extensions() []string

	// Marshal encodes v.
	Marshal(v any) ([]byte, error)

	// Unmarshal decodes data into v.
	Unmarshal(data []byte, v any) error
}

// CodecConfig configures optional codec behavior.
type CodecConfig struct {
	// Extensions overrides the default extension "." + format.
	Extensions []string
}

// NewCodec creates a Codec from marshal and unmarshal functions.
//
// Example:
//
//	codec := format.NewCodec(format.YAML, yaml.Marshal, yaml.Unmarshal, format.CodecConfig{
//	    Extensions: []string{".yaml", ".yml"},
//	})
func NewCodec(f Format, marshal MarshalFunc, unmarshal UnmarshalFunc, cfg CodecConfig) Codec {
	exts := cfg.Extensions
	if len(exts) == 0 {
		exts = []string{"." + string(f)}
	}
	return &codec{
		format:     f,
		extensions: exts,
		marshal:    marshal,
		unmarshal:  unmarshal,
	}
}

// codec implements Codec using the provided functions.
type codec struct {
	format     Format
	extensions []string
	marshal    MarshalFunc
	unmarshal  UnmarshalFunc
}

// Ensure codec implements the Codec interface.
var _ Codec = (*codec)(nil)

func (c *codec) Format() Format {
	return c.format
}

func (c *codec) Extensions() []string {
	return append([]string(nil), c.extensions...)
}

func (c *codec) Marshal(v any) ([]byte, error) {
	data, err := c.marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", c.format, err)
	}
	return data, nil
}

func (c *codec) Unmarshal(data []byte, v any) error {
	if err := c.unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", c.format, err)
	}
	return nil
}

// Registry looks codecs up by format name or file extension.
type Registry struct {
	codecs []Codec
}

// NewRegistry creates a Registry. Earlier codecs win on conflicting extensions.
func NewRegistry(codecs ...Codec) *Registry {
	return &Registry{codecs: codecs}
}

// Formats returns the registered format names in registration order.
func (r *Registry) Formats() []Format {
	formats := make([]Format, 0, len(r.codecs))
	for _, c := range r.codecs {
		formats = append(formats, c.Format())
	}
	return formats
}

// Lookup returns the codec for a format name (case-insensitive).
func (r *Registry) Lookup(name string) (Codec, error) {
	for _, c := range r.codecs {
		if strings.EqualFold(string(c.Format()), name) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

// ForPath returns the codec handling the extension of path.
func (r *Registry) ForPath(path string) (Codec, error) {
	ext := strings.ToLower(filepath.Ext(path))
	for _, c := range r.codecs {
		for _, e := range c.Extensions() {
			if e == ext {
				return c, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: no codec for extension %q of %q", ErrUnknownFormat, ext, path)
}
