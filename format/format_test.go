package format_test

import (
	"errors"
	"testing"

	"github.com/yacchi/bindwatch/format"
	"github.com/yacchi/bindwatch/format/json"
	"github.com/yacchi/bindwatch/format/jsonc"
	"github.com/yacchi/bindwatch/format/toml"
	"github.com/yacchi/bindwatch/format/yaml"
)

func newRegistry() *format.Registry {
	return format.NewRegistry(json.NewCodec(), jsonc.NewCodec(), yaml.NewCodec(), toml.NewCodec())
}

func TestRegistry_ForPath(t *testing.T) {
	r := newRegistry()

	tests := []struct {
		path string
		want format.Format
	}{
		{"bindwatch.json", format.JSON},
		{"bindwatch.jsonc", format.JSONC},
		{"bindwatch.yaml", format.YAML},
		{"/etc/bindwatch/config.YML", format.YAML},
		{"bindwatch.toml", format.TOML},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			c, err := r.ForPath(tt.path)
			if err != nil {
				t.Fatalf("ForPath() error = %v", err)
			}
			if c.Format() != tt.want {
				t.Errorf("ForPath(%q) = %s, want %s", tt.path, c.Format(), tt.want)
			}
		})
	}

	if _, err := r.ForPath("bindwatch.ini"); !errors.Is(err, format.ErrUnknownFormat) {
		t.Errorf("ForPath(.ini) error = %v, want ErrUnknownFormat", err)
	}
}

func TestRegistry_Lookup(t *testing.T) {
	r := newRegistry()

	c, err := r.Lookup("TOML")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if c.Format() != format.TOML {
		t.Errorf("Lookup(TOML) = %s", c.Format())
	}
	if _, err := r.Lookup("xml"); !errors.Is(err, format.ErrUnknownFormat) {
		t.Errorf("Lookup(xml) error = %v, want ErrUnknownFormat", err)
	}

	want := []format.Format{format.JSON, format.JSONC, format.YAML, format.TOML}
	got := r.Formats()
	if len(got) != len(want) {
		t.Fatalf("Formats() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Formats()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNewCodec_WrapsErrors(t *testing.T) {
	boom := errors.New("boom")
	c := format.NewCodec("test",
		func(any) ([]byte, error) { return nil, boom },
		func([]byte, any) error { return boom },
		format.CodecConfig{},
	)
	if got := c.Extensions(); len(got) != 1 || got[0] != ".test" {
		t.Errorf("Extensions() = %v, want [.test]", got)
	}
	if _, err := c.Marshal(1); !errors.Is(err, boom) {
		t.Errorf("Marshal() error = %v, want wrapped boom", err)
	}
	if err := c.Unmarshal(nil, new(int)); !errors.Is(err, boom) {
		t.Errorf("Unmarshal() error = %v, want wrapped boom", err)
	}
}
