package format_test

import (
	"strings"
	"testing"

	"github.com/yacchi/bindwatch/format"
	"github.com/yacchi/bindwatch/format/json"
	"github.com/yacchi/bindwatch/format/jsonc"
	"github.com/yacchi/bindwatch/format/toml"
	"github.com/yacchi/bindwatch/format/yaml"
)

type sample struct {
	Filter   string   `json:"filter" yaml:"filter" toml:"filter"`
	Paths    []string `json:"paths" yaml:"paths" toml:"paths"`
	Interval int      `json:"interval" yaml:"interval" toml:"interval"`
}

func TestCodecs_Decode(t *testing.T) {
	tests := []struct {
		name  string
		codec format.Codec
		input string
	}{
		{"json", json.NewCodec(), `{"filter": "*.binds", "paths": ["a", "b"], "interval": 3}`},
		{"jsonc", jsonc.NewCodec(), `{
			// watched files
			"filter": "*.binds",
			"paths": ["a", "b",],
			"interval": 3, /* seconds */
		}`},
		{"yaml", yaml.NewCodec(), "filter: '*.binds'\npaths: [a, b]\ninterval: 3\n"},
		{"toml", toml.NewCodec(), "filter = '*.binds'\npaths = ['a', 'b']\ninterval = 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got sample
			if err := tt.codec.Unmarshal([]byte(tt.input), &got); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if got.Filter != "*.binds" || got.Interval != 3 || strings.Join(got.Paths, ",") != "a,b" {
				t.Errorf("Unmarshal() = %+v", got)
			}
		})
	}
}

func TestCodecs_Encode(t *testing.T) {
	v := sample{Filter: "*.binds", Paths: []string{"a"}, Interval: 3}

	tests := []struct {
		name  string
		codec format.Codec
		want  string
	}{
		{"json", json.NewCodec(), `"filter": "*.binds"`},
		{"jsonc", jsonc.NewCodec(), `"*.binds"`},
		{"yaml", yaml.NewCodec(), `filter: '*.binds'`},
		{"toml", toml.NewCodec(), `filter = '*.binds'`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.codec.Marshal(v)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if !strings.Contains(string(data), tt.want) {
				t.Errorf("Marshal() = %s, want to contain %s", data, tt.want)
			}
		})
	}
}

func TestCodecs_EmptyInput(t *testing.T) {
	for _, c := range []format.Codec{jsonc.NewCodec(), yaml.NewCodec()} {
		var got sample
		if err := c.Unmarshal([]byte("  \n"), &got); err != nil {
			t.Errorf("%s: Unmarshal(empty) error = %v", c.Format(), err)
		}
	}
}

func TestCodecs_InvalidInput(t *testing.T) {
	for _, c := range []format.Codec{json.NewCodec(), jsonc.NewCodec(), yaml.NewCodec(), toml.NewCodec()} {
		var got sample
		if err := c.Unmarshal([]byte("{{{ not valid"), &got); err == nil {
			t.Errorf("%s: Unmarshal(invalid) returned no error", c.Format())
		}
	}
}
