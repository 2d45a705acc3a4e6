package bindings_test

import (
	"bytes"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yacchi/bindwatch/bindings"
)

func loadTestPreset(t *testing.T) *bindings.Preset {
	t.Helper()
	p, err := bindings.ParseFile(filepath.Join("testdata", "Custom.4.0.binds"))
	if err != nil {
		t.Fatalf("ParseFile() error: %v", err)
	}
	return p
}

func TestParse_Header(t *testing.T) {
	p := loadTestPreset(t)

	if p.Name != "Custom" {
		t.Errorf("Name = %q, want Custom", p.Name)
	}
	if p.Version() != "4.0" {
		t.Errorf("Version() = %q, want 4.0", p.Version())
	}
	if p.KeyboardLayout != "en-US" {
		t.Errorf("KeyboardLayout = %q, want en-US", p.KeyboardLayout)
	}
	want := map[string]string{
		"MouseXMode":       "Bindings_MouseYaw",
		"MouseSensitivity": "1.00000000",
	}
	if !reflect.DeepEqual(p.Settings, want) {
		t.Errorf("Settings = %v, want %v", p.Settings, want)
	}
}

func TestParse_Bindings(t *testing.T) {
	p := loadTestPreset(t)

	if got, want := p.Names(), []string{"HyperSuperCombination", "PrimaryFire", "YawLeftButton"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}

	tests := []struct {
		name      string
		primary   string
		secondary string
		settings  map[string]string
	}{
		{"YawLeftButton", "Keyboard:Key_A", bindings.NoDevice, nil},
		{"HyperSuperCombination", "Keyboard:Key_LeftShift+Keyboard:Key_J", "ThrustMasterHOTAS4:Joy_5", map[string]string{"ToggleOn": "1"}},
		{"PrimaryFire", bindings.NoDevice, "Mouse:Mouse_1", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := p.Binding(tt.name)
			if !ok {
				t.Fatalf("Binding(%q) not found", tt.name)
			}
			if b.Name != tt.name {
				t.Errorf("Name = %q", b.Name)
			}
			if got := b.Primary.String(); got != tt.primary {
				t.Errorf("Primary = %q, want %q", got, tt.primary)
			}
			if got := b.Secondary.String(); got != tt.secondary {
				t.Errorf("Secondary = %q, want %q", got, tt.secondary)
			}
			if !reflect.DeepEqual(b.Settings, tt.settings) {
				t.Errorf("Settings = %v, want %v", b.Settings, tt.settings)
			}
			if !b.IsDefined() {
				t.Error("IsDefined() = false")
			}
		})
	}
}

func TestParse_MissingSideIsUndefined(t *testing.T) {
	p := loadTestPreset(t)
	b, _ := p.Binding("PrimaryFire")
	if !reflect.DeepEqual(b.Primary, bindings.Undefined) {
		t.Errorf("Primary = %+v, want Undefined", b.Primary)
	}
}

func TestParse_Axes(t *testing.T) {
	p := loadTestPreset(t)

	a, ok := p.Axis("YawAxisRaw")
	if !ok {
		t.Fatal("Axis(YawAxisRaw) not found")
	}
	want := bindings.AxisBinding{
		Name:     "YawAxisRaw",
		Binding:  bindings.DeviceKey{Device: "ThrustMasterHOTAS4", Key: "Joy_XAxis"},
		Inverted: true,
		Deadzone: 0.05,
	}
	if !reflect.DeepEqual(a, want) {
		t.Errorf("Axis = %+v, want %+v", a, want)
	}
	if _, ok := p.Binding("YawAxisRaw"); ok {
		t.Error("axis also reported as a button binding")
	}
	if _, ok := p.Binding("UnknownGroup"); ok {
		t.Error("element without Primary/Secondary reported as a binding")
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{"wrong root", `<Settings><A Value="1"/></Settings>`, bindings.ErrNotBindings},
		{"malformed", `<Root><A>`, nil},
		{"bad version", `<Root MajorVersion="four"/>`, nil},
		{"bad deadzone", `<Root><X><Binding Device="Mouse" Key="Mouse_X"/><Deadzone Value="wide"/></X></Root>`, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := bindings.Parse(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("Parse() returned no error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_ByteOrderMark(t *testing.T) {
	input := "\xEF\xBB\xBF" + `<?xml version="1.0" encoding="UTF-8" ?><Root PresetName="BOM"/>`
	p, err := bindings.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if p.Name != "BOM" {
		t.Errorf("Name = %q, want BOM", p.Name)
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := bindings.ParseFile(filepath.Join(t.TempDir(), "missing.binds")); err == nil {
		t.Error("ParseFile() on a missing file returned no error")
	}
}

func TestWriteTo_RoundTrip(t *testing.T) {
	p := loadTestPreset(t)

	var buf bytes.Buffer
	n, err := p.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo() error: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Errorf("WriteTo() = %d, wrote %d bytes", n, buf.Len())
	}
	out := buf.String()
	if !strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8" ?>`) {
		t.Errorf("missing XML header:\n%s", out)
	}
	// Document order is preserved.
	if strings.Index(out, "<MouseXMode") > strings.Index(out, "<YawAxisRaw") {
		t.Errorf("element order not preserved:\n%s", out)
	}

	again, err := bindings.Parse(&buf)
	if err != nil {
		t.Fatalf("Parse(WriteTo()) error: %v", err)
	}
	if !reflect.DeepEqual(again.Bindings, p.Bindings) {
		t.Errorf("Bindings changed on round trip:\n got %+v\nwant %+v", again.Bindings, p.Bindings)
	}
	if !reflect.DeepEqual(again.Axes, p.Axes) {
		t.Errorf("Axes changed on round trip:\n got %+v\nwant %+v", again.Axes, p.Axes)
	}
	if !reflect.DeepEqual(again.Settings, p.Settings) {
		t.Errorf("Settings changed on round trip:\n got %+v\nwant %+v", again.Settings, p.Settings)
	}
}

func TestWriteTo_NewPreset(t *testing.T) {
	p := bindings.NewPreset("Built")
	p.MajorVersion = 4
	p.Bindings["Zoom"] = bindings.Binding{
		Name:      "Zoom",
		Primary:   bindings.DeviceKeyCombination{Device: "Keyboard", Key: "Key_Z"},
		Secondary: bindings.DeviceKeyCombination{},
	}
	p.Bindings["Boost"] = bindings.Binding{
		Name:      "Boost",
		Primary:   bindings.DeviceKeyCombination{Device: "Keyboard", Key: "Key_Tab"},
		Secondary: bindings.Undefined,
	}

	data, err := p.MarshalBinds()
	if err != nil {
		t.Fatalf("MarshalBinds() error: %v", err)
	}
	out := string(data)
	if strings.Index(out, "<Boost>") > strings.Index(out, "<Zoom>") {
		t.Errorf("new elements not written in name order:\n%s", out)
	}

	again, err := bindings.Parse(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	zoom, _ := again.Binding("Zoom")
	if !reflect.DeepEqual(zoom.Secondary, bindings.Undefined) {
		t.Errorf("unset Secondary = %+v, want Undefined", zoom.Secondary)
	}
}
