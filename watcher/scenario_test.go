package watcher_test

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yacchi/bindwatch/watcher"
	"github.com/yacchi/bindwatch/watchtest"
)

// TestWatcher_FSNotifyScenario drives a real fsnotify-backed watcher through
// write bursts, Stop and Close.
func TestWatcher_FSNotifyScenario(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.cfg")
	if err := os.WriteFile(path, []byte("initial"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.NewWithFilter(dir, "*.cfg")
	if err != nil {
		t.Fatalf("NewWithFilter() error: %v", err)
	}
	defer w.Close()

	rec := watchtest.NewRecorder()
	var calls atomic.Int32
	w.Subscribe(func(ev watcher.ChangeEvent) error {
		calls.Add(1)
		return rec.Handle(ev)
	})
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	// One logical save producing several raw write events.
	if err := os.WriteFile(path, []byte("first write"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	if err := os.WriteFile(path, []byte("second write"), 0o644); err != nil {
		t.Fatal(err)
	}

	ev := rec.WaitFor(t, path, 3*time.Second)
	if ev.Kind != watcher.Modified {
		t.Errorf("Kind = %s, want modified", ev.Kind)
	}
	rec.Drain(300 * time.Millisecond)
	// The burst yields one delivery plus at most one trailing delivery.
	burst := calls.Load()
	if burst < 1 || burst > 2 {
		t.Errorf("subscriber called %d times for one burst, want 1 or 2", burst)
	}

	// Files outside the filter are ignored.
	if err := os.WriteFile(filepath.Join(dir, "x.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.ExpectNone(t, 300*time.Millisecond)

	w.Stop()
	if err := os.WriteFile(path, []byte("after stop"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.ExpectNone(t, 300*time.Millisecond)

	if err := w.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
	if err := w.Start(); err != nil {
		t.Errorf("Start() after Close error: %v", err)
	}
	if err := os.WriteFile(path, []byte("after close"), 0o644); err != nil {
		t.Fatal(err)
	}
	rec.ExpectNone(t, 300*time.Millisecond)
	if got := calls.Load(); got != burst {
		t.Errorf("subscriber called %d times in total, want %d", got, burst)
	}
}

func TestWatcher_PollingRestart(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.cfg")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := watcher.NewForFile(path,
		watcher.WithNotifier(watcher.Polling),
		watcher.WithPollInterval(20*time.Millisecond),
	)
	if err != nil {
		t.Fatalf("NewForFile() error: %v", err)
	}
	defer w.Close()

	rec := watchtest.NewRecorder()
	w.Subscribe(rec.Handle)

	for i, content := range []string{"version-2", "version-three"} {
		if err := w.Start(); err != nil {
			t.Fatalf("Start() error: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		rec.WaitFor(t, path, 3*time.Second)
		w.Stop()
		rec.Drain(100 * time.Millisecond)
		if w.State() != watcher.Idle {
			t.Fatalf("cycle %d: State() = %v, want idle", i, w.State())
		}
	}
}
