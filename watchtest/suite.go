package watchtest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yacchi/bindwatch/watcher"
)

// NotifierTesterOption configures NotifierTester behavior.
type NotifierTesterOption func(*NotifierTester)

// WithConfig sets the WatchConfig options passed to the factory.
func WithConfig(opts ...watcher.WatchConfigOption) NotifierTesterOption {
	return func(nt *NotifierTester) {
		nt.opts = append(nt.opts, opts...)
	}
}

// WithTimeout sets how long to wait for an expected event. Default is 3s.
func WithTimeout(d time.Duration) NotifierTesterOption {
	return func(nt *NotifierTester) {
		nt.timeout = d
	}
}

// WithQuietPeriod sets how long to wait when asserting that no event arrives.
// Default is 300ms.
func WithQuietPeriod(d time.Duration) NotifierTesterOption {
	return func(nt *NotifierTester) {
		nt.quiet = d
	}
}

// NotifierTester verifies watcher.Notifier implementations against a real
// temporary directory.
type NotifierTester struct {
	t       *testing.T
	factory watcher.NotifierFactory
	opts    []watcher.WatchConfigOption
	timeout time.Duration
	quiet   time.Duration
}

// NewNotifierTester creates a NotifierTester for factory.
func NewNotifierTester(t *testing.T, factory watcher.NotifierFactory, opts ...NotifierTesterOption) *NotifierTester {
	nt := &NotifierTester{
		t:       t,
		factory: factory,
		timeout: 3 * time.Second,
		quiet:   300 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(nt)
	}
	return nt
}

// TestAll runs all standard compliance tests for Notifier implementations.
func (nt *NotifierTester) TestAll() {
	nt.t.Run("InvalidDir", nt.testInvalidDir)
	nt.t.Run("StartsDisabled", nt.testStartsDisabled)
	nt.t.Run("DeliversModified", nt.testDeliversModified)
	nt.t.Run("DropsWhileDisabled", nt.testDropsWhileDisabled)
	nt.t.Run("Close", nt.testClose)
}

// setup creates a directory with one existing file and a notifier on it.
func (nt *NotifierTester) setup(t *testing.T) (string, watcher.Notifier, *Recorder) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.cfg")
	requireNoError(t, os.WriteFile(path, []byte("v1"), 0o644), "write initial file")

	rec := NewRecorder()
	n, err := nt.factory(dir, rec.Deliver, watcher.NewWatchConfig(nt.opts...))
	requireNoError(t, err, "factory error = %v", err)
	t.Cleanup(func() { n.Close() })
	return path, n, rec
}

// testInvalidDir verifies construction fails with ErrInvalidPath for a missing directory.
func (nt *NotifierTester) testInvalidDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "missing")
	n, err := nt.factory(dir, NewRecorder().Deliver, watcher.NewWatchConfig(nt.opts...))
	if n != nil {
		n.Close()
	}
	require(t, err != nil, "factory on a missing directory returned no error")
	check(t, errors.Is(err, watcher.ErrInvalidPath), "error = %v, want ErrInvalidPath", err)
}

// testStartsDisabled verifies no event is delivered before Enable.
func (nt *NotifierTester) testStartsDisabled(t *testing.T) {
	path, _, rec := nt.setup(t)

	requireNoError(t, os.WriteFile(path, []byte("version-2"), 0o644), "write file")
	rec.ExpectNone(t, nt.quiet)
}

// testDeliversModified verifies a write is reported as Modified after Enable.
func (nt *NotifierTester) testDeliversModified(t *testing.T) {
	path, n, rec := nt.setup(t)
	requireNoError(t, n.Enable(), "Enable error")

	requireNoError(t, os.WriteFile(path, []byte("version-2"), 0o644), "write file")
	ev := rec.WaitFor(t, path, nt.timeout)
	check(t, ev.Kind.Has(watcher.Modified), "Kind = %s, want modified", ev.Kind)
	check(t, !ev.Time.IsZero(), "event time not set")
}

// testDropsWhileDisabled verifies events observed while disabled are not
// replayed on Enable.
func (nt *NotifierTester) testDropsWhileDisabled(t *testing.T) {
	path, n, rec := nt.setup(t)
	requireNoError(t, n.Enable(), "Enable error")
	n.Disable()

	requireNoError(t, os.WriteFile(path, []byte("version-2"), 0o644), "write file")
	rec.ExpectNone(t, nt.quiet)

	requireNoError(t, n.Enable(), "Enable error")
	rec.ExpectNone(t, nt.quiet)

	requireNoError(t, os.WriteFile(path, []byte("version-three"), 0o644), "write file")
	rec.WaitFor(t, path, nt.timeout)
}

// testClose verifies Close is idempotent and stops delivery.
func (nt *NotifierTester) testClose(t *testing.T) {
	path, n, rec := nt.setup(t)
	requireNoError(t, n.Enable(), "Enable error")

	requireNoError(t, n.Close(), "first Close error")
	requireNoError(t, n.Close(), "second Close error")
	check(t, n.Enable() != nil, "Enable after Close returned no error")

	requireNoError(t, os.WriteFile(path, []byte("version-2"), 0o644), "write file")
	rec.ExpectNone(t, nt.quiet)
}
