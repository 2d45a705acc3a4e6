// Package watchtest provides testing utilities for watcher.Notifier
// implementations and for code built on watcher.Watcher.
package watchtest

import (
	"errors"
	"sync"
	"time"

	"github.com/yacchi/bindwatch/watcher"
)

// ErrNotBound is returned by Emit and Inject before a Watcher created the Notifier.
var ErrNotBound = errors.New("watchtest: notifier not bound to a watcher")

// Notifier is a watcher.Notifier driven by the test.
// Use its Factory method with watcher.WithNotifier.
//
// Example:
//
//	n := watchtest.NewNotifier()
//	w, _ := watcher.New(t.TempDir(), watcher.WithNotifier(n.Factory))
//	w.Start()
//	n.Emit(watchtest.Modified(filepath.Join(w.Dir(), "a.cfg")))
type Notifier struct {
	mu           sync.Mutex
	dir          string
	deliver      watcher.DeliverFunc
	created      int
	enabled      bool
	closed       bool
	enableCalls  int
	disableCalls int
	dropped      int
	enableErr    error
}

// Ensure Notifier implements the watcher.Notifier interface.
var _ watcher.Notifier = (*Notifier)(nil)

// NewNotifier creates an unbound Notifier.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// Factory implements watcher.NotifierFactory. It binds the Notifier to the
// calling Watcher and returns the Notifier itself.
func (n *Notifier) Factory(dir string, deliver watcher.DeliverFunc, cfg watcher.WatchConfig) (watcher.Notifier, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.dir = dir
	n.deliver = deliver
	n.created++
	return n, nil
}

// Enable implements watcher.Notifier.
func (n *Notifier) Enable() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enableCalls++
	if n.enableErr != nil {
		return n.enableErr
	}
	if n.closed {
		return errors.New("watchtest: notifier closed")
	}
	n.enabled = true
	return nil
}

// Disable implements watcher.Notifier.
func (n *Notifier) Disable() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.disableCalls++
	n.enabled = false
}

// Close implements watcher.Notifier.
func (n *Notifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	n.enabled = false
	return nil
}

// FailEnable makes subsequent Enable calls return err. Pass nil to clear.
func (n *Notifier) FailEnable(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enableErr = err
}

// Emit delivers ev the way an OS source would: events observed while the
// Notifier is disabled are dropped. The deliver error is returned.
func (n *Notifier) Emit(ev watcher.ChangeEvent) error {
	n.mu.Lock()
	deliver := n.deliver
	enabled := n.enabled
	if deliver != nil && !enabled {
		n.dropped++
	}
	n.mu.Unlock()

	if deliver == nil {
		return ErrNotBound
	}
	if !enabled {
		return nil
	}
	return deliver(ev)
}

// Inject delivers ev regardless of the enabled state, simulating an event
// that was already in flight when the Notifier was disabled.
func (n *Notifier) Inject(ev watcher.ChangeEvent) error {
	n.mu.Lock()
	deliver := n.deliver
	n.mu.Unlock()

	if deliver == nil {
		return ErrNotBound
	}
	return deliver(ev)
}

// Dir returns the directory passed by the Watcher.
func (n *Notifier) Dir() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dir
}

// Created returns how many times Factory was called.
func (n *Notifier) Created() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.created
}

// Enabled reports whether the Notifier currently delivers events.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// Closed reports whether Close was called.
func (n *Notifier) Closed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.closed
}

// EnableCalls returns the number of Enable calls.
func (n *Notifier) EnableCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enableCalls
}

// DisableCalls returns the number of Disable calls.
func (n *Notifier) DisableCalls() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.disableCalls
}

// Dropped returns how many emitted events were dropped while disabled.
func (n *Notifier) Dropped() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dropped
}

// Modified returns a Modified event for path stamped with the current time.
func Modified(path string) watcher.ChangeEvent {
	return watcher.ChangeEvent{Path: path, Kind: watcher.Modified, Time: time.Now()}
}
