package watcher_test

import (
	"errors"
	"runtime"
	"testing"

	"github.com/yacchi/bindwatch/watcher"
)

func TestFilter_Match(t *testing.T) {
	tests := []struct {
		filter string
		path   string
		want   bool
	}{
		{"*.*", "/dir/Custom.binds", true},
		{"*.*", "/dir/noext", true},
		{"*", "/dir/noext", true},
		{"", "/dir/anything.txt", true},
		{"*.cfg", "/dir/x.cfg", true},
		{"*.cfg", "/dir/x.cfg.bak", false},
		{"*.cfg", "/dir/x.txt", false},
		{"Custom.?.0.binds", "/dir/Custom.4.0.binds", true},
		{"Custom.[34].*", "/dir/Custom.5.0.binds", false},
	}

	for _, tt := range tests {
		t.Run(tt.filter+" "+tt.path, func(t *testing.T) {
			f, err := watcher.ParseFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseFilter(%q) error: %v", tt.filter, err)
			}
			if got := f.Match(tt.path); got != tt.want {
				t.Errorf("Filter(%q).Match(%q) = %v, want %v", tt.filter, tt.path, got, tt.want)
			}
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	for _, pattern := range []string{"[", "[a-", "x[]"} {
		if _, err := watcher.ParseFilter(pattern); !errors.Is(err, watcher.ErrInvalidFilter) {
			t.Errorf("ParseFilter(%q) error = %v, want ErrInvalidFilter", pattern, err)
		}
	}
}

func TestLiteralFilter(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no glob escaping on windows")
	}
	f := watcher.LiteralFilter("preset[1]*.binds")
	if !f.Match("/dir/preset[1]*.binds") {
		t.Error("literal filter does not match its own name")
	}
	if f.Match("/dir/preset1x.binds") {
		t.Error("literal filter matched a glob expansion")
	}
	if f.MatchAll() {
		t.Error("literal filter reported MatchAll")
	}
}
