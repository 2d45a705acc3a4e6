// Package config loads the bindwatch command configuration file.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/yacchi/bindwatch/format"
	"github.com/yacchi/bindwatch/format/json"
	"github.com/yacchi/bindwatch/format/jsonc"
	"github.com/yacchi/bindwatch/format/toml"
	"github.com/yacchi/bindwatch/format/yaml"
	"github.com/yacchi/bindwatch/source/fs"
)

// Duration is a time.Duration read from strings such as "250ms" or "2s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// Config is the contents of a configuration file. Zero values mean "use the
// default"; Debounce and Retry are pointers so an explicit zero can switch
// the feature off.
type Config struct {
	// Filter is the glob applied to file names when watching a directory.
	Filter string `json:"filter,omitempty" yaml:"filter,omitempty" toml:"filter,omitempty"`

	// Debounce is the window in which repeated events for a path are coalesced.
	Debounce *Duration `json:"debounce,omitempty" yaml:"debounce,omitempty" toml:"debounce,omitempty"`

	// Poll switches to the polling notifier with this interval.
	Poll Duration `json:"poll,omitempty" yaml:"poll,omitempty" toml:"poll,omitempty"`

	// Retry bounds how long a changed bindings file is re-read.
	Retry *Duration `json:"retry,omitempty" yaml:"retry,omitempty" toml:"retry,omitempty"`

	// Format is the output format of dump and watch.
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`

	// SearchPaths are fallback locations of the bindings file.
	SearchPaths []string `json:"search_paths,omitempty" yaml:"search_paths,omitempty" toml:"search_paths,omitempty"`

	Log Log `json:"log,omitempty" yaml:"log,omitempty" toml:"log,omitempty"`
}

// Log configures logging.
type Log struct {
	Level       string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	Development bool   `json:"development,omitempty" yaml:"development,omitempty" toml:"development,omitempty"`
}

// Codecs returns the registry of supported configuration formats.
func Codecs() *format.Registry {
	return format.NewRegistry(yaml.NewCodec(), toml.NewCodec(), json.NewCodec(), jsonc.NewCodec())
}

// Load reads the configuration file at path. The format is chosen by the
// file extension.
func Load(ctx context.Context, path string, codecs *format.Registry) (Config, error) {
	var cfg Config

	codec, err := codecs.ForPath(path)
	if err != nil {
		return cfg, err
	}
	data, err := fs.New(path).Load(ctx)
	if err != nil {
		return cfg, err
	}
	if err := codec.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}
