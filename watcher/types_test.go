package watcher_test

import (
	"errors"
	"testing"
	"time"

	"github.com/yacchi/bindwatch/watcher"
)

func TestNewWatchConfig(t *testing.T) {
	// Default config
	cfg := watcher.NewWatchConfig()
	if cfg.DebounceWindow != watcher.DefaultDebounceWindow {
		t.Errorf("expected default DebounceWindow %v, got %v", watcher.DefaultDebounceWindow, cfg.DebounceWindow)
	}
	if cfg.Kinds != watcher.Modified {
		t.Errorf("expected default Kinds modified, got %s", cfg.Kinds)
	}
	if cfg.BufferSize != watcher.DefaultBufferSize {
		t.Errorf("expected default BufferSize %d, got %d", watcher.DefaultBufferSize, cfg.BufferSize)
	}
	if cfg.PollInterval != watcher.DefaultPollInterval {
		t.Errorf("expected default PollInterval %v, got %v", watcher.DefaultPollInterval, cfg.PollInterval)
	}
	if cfg.Notifier == nil || cfg.Logger == nil {
		t.Error("expected default Notifier and Logger")
	}

	// With custom options
	cfg = watcher.NewWatchConfig(
		watcher.WithDebounceWindow(time.Second),
		watcher.WithKinds(watcher.Created),
		watcher.WithBufferSize(8),
		watcher.WithPollInterval(5*time.Second),
		watcher.WithNotifier(watcher.Polling),
	)
	if cfg.DebounceWindow != time.Second {
		t.Errorf("expected DebounceWindow 1s, got %v", cfg.DebounceWindow)
	}
	if cfg.Kinds != watcher.Created {
		t.Errorf("expected Kinds created, got %s", cfg.Kinds)
	}
	if cfg.BufferSize != 8 {
		t.Errorf("expected BufferSize 8, got %d", cfg.BufferSize)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected PollInterval 5s, got %v", cfg.PollInterval)
	}
}

func TestWatchConfig_ApplyDefaults(t *testing.T) {
	t.Run("fills negative values", func(t *testing.T) {
		cfg := watcher.WatchConfig{DebounceWindow: -1, BufferSize: -1, PollInterval: -time.Second}
		cfg.ApplyDefaults()
		if cfg.DebounceWindow != watcher.DefaultDebounceWindow {
			t.Errorf("expected DebounceWindow %v, got %v", watcher.DefaultDebounceWindow, cfg.DebounceWindow)
		}
		if cfg.BufferSize != watcher.DefaultBufferSize {
			t.Errorf("expected BufferSize %d, got %d", watcher.DefaultBufferSize, cfg.BufferSize)
		}
		if cfg.PollInterval != watcher.DefaultPollInterval {
			t.Errorf("expected PollInterval %v, got %v", watcher.DefaultPollInterval, cfg.PollInterval)
		}
	})

	t.Run("preserves explicit zero debounce window", func(t *testing.T) {
		cfg := watcher.NewWatchConfig(watcher.WithDebounceWindow(0))
		if cfg.DebounceWindow != 0 {
			t.Errorf("expected DebounceWindow 0, got %v", cfg.DebounceWindow)
		}
	})

	t.Run("ApplyOptions after defaults", func(t *testing.T) {
		cfg := watcher.NewWatchConfig()
		cfg.ApplyOptions(watcher.WithBufferSize(128))
		if cfg.BufferSize != 128 {
			t.Errorf("expected BufferSize 128, got %d", cfg.BufferSize)
		}
	})
}

func TestWatchConfig_OnError(t *testing.T) {
	var got error
	cfg := watcher.NewWatchConfig(watcher.WithOnError(func(err error) { got = err }))
	boom := errors.New("boom")
	cfg.OnError(boom)
	if !errors.Is(got, boom) {
		t.Errorf("OnError received %v, want %v", got, boom)
	}
}
