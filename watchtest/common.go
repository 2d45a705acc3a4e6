package watchtest

import (
	"testing"
	"time"

	"github.com/yacchi/bindwatch/watcher"
)

// testT is the minimal testing interface used by watchtest utilities.
type testT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
}

// require fails the test immediately if the condition is false.
func require(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// requireNoError fails the test immediately if err is not nil.
func requireNoError(t testT, err error, format string, args ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf(format, args...)
	}
}

// check reports an error if the condition is false, but continues the test.
func check(t testT, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Errorf(format, args...)
	}
}

// Recorder collects delivered events. Its Deliver method can be used as a
// watcher.DeliverFunc and its Handle method as a watcher.Handler.
type Recorder struct {
	events chan watcher.ChangeEvent
}

// NewRecorder creates a Recorder buffering up to 256 events.
func NewRecorder() *Recorder {
	return &Recorder{events: make(chan watcher.ChangeEvent, 256)}
}

// Deliver records ev.
func (r *Recorder) Deliver(ev watcher.ChangeEvent) error {
	select {
	case r.events <- ev:
	default:
	}
	return nil
}

// Handle records ev.
func (r *Recorder) Handle(ev watcher.ChangeEvent) error {
	return r.Deliver(ev)
}

// Events returns the channel of recorded events.
func (r *Recorder) Events() <-chan watcher.ChangeEvent {
	return r.events
}

// WaitFor waits up to timeout for an event on path.
func (r *Recorder) WaitFor(t *testing.T, path string, timeout time.Duration) watcher.ChangeEvent {
	t.Helper()
	deadline := time.After(timeout)
	for {
		select {
		case ev := <-r.events:
			if ev.Path == path {
				return ev
			}
		case <-deadline:
			t.Fatalf("timeout waiting for event on %s", path)
			return watcher.ChangeEvent{}
		}
	}
}

// ExpectNone fails the test if any event arrives within d.
func (r *Recorder) ExpectNone(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case ev := <-r.events:
		t.Errorf("unexpected event: %s %s", ev.Kind, ev.Path)
	case <-time.After(d):
	}
}

// Drain discards recorded events until none arrives for quiet.
func (r *Recorder) Drain(quiet time.Duration) {
	for {
		select {
		case <-r.events:
		case <-time.After(quiet):
			return
		}
	}
}
