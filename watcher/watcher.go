package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

// Lifecycle states and events of the underlying state machine.
const (
	stateIdle     = "idle"
	stateRunning  = "running"
	stateDisposed = "disposed"

	eventStart   = "start"
	eventStop    = "stop"
	eventDispose = "dispose"
)

type subscriber struct {
	id uint64
	fn Handler
}

// Watcher monitors a directory for changes to files matching a glob filter and
// delivers each logical change once to its subscribers.
//
// When the notifier reports a change, the Watcher disables the notifier, runs
// the subscribers synchronously on the notifier's goroutine, and re-enables the
// notifier afterwards unless Stop or Close was called in the meantime. Events
// for a path that arrive within the debounce window after its previous delivery
// finished are coalesced into one trailing delivery when the window closes.
// Deliveries that only report a removal or rename do not open a window.
//
// All methods are safe for concurrent use.
type Watcher struct {
	dir      string
	cfg      WatchConfig
	notifier Notifier
	logger   *zap.Logger

	mu          sync.Mutex
	lifecycle   *fsm.FSM
	filter      Filter
	subscribers []subscriber
	nextSubID   uint64
	delivering  bool
	delivered   map[string]time.Time
	pending     map[string]ChangeEvent
	timers      map[string]*time.Timer
}

// New creates a Watcher for dir matching every file.
// The Watcher is idle until Start is called.
func New(dir string, opts ...WatchConfigOption) (*Watcher, error) {
	return NewWithFilter(dir, DefaultFilter, opts...)
}

// NewWithFilter creates a Watcher for dir matching files against the glob filter.
//
// Example:
//
//	w, err := watcher.NewWithFilter("/etc/app", "*.cfg")
//	if err != nil {
//	    return err
//	}
//	defer w.Close()
//	w.Subscribe(func(ev watcher.ChangeEvent) error {
//	    return reload(ev.Path)
//	})
//	err = w.Start()
func NewWithFilter(dir, filter string, opts ...WatchConfigOption) (*Watcher, error) {
	f, err := ParseFilter(filter)
	if err != nil {
		return nil, err
	}
	return newWatcher(dir, f, opts...)
}

// NewForFile creates a Watcher for a single file. The directory and the exact
// file name are derived from path.
func NewForFile(path string, opts ...WatchConfigOption) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty file path", ErrInvalidPath)
	}
	return newWatcher(filepath.Dir(path), LiteralFilter(filepath.Base(path)), opts...)
}

func newWatcher(dir string, filter Filter, opts ...WatchConfigOption) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPath, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w %q: not a directory", ErrInvalidPath, dir)
	}

	cfg := NewWatchConfig(opts...)
	w := &Watcher{
		dir:       dir,
		cfg:       cfg,
		filter:    filter,
		logger:    cfg.Logger.Named("watcher").With(zap.String("dir", dir)),
		delivered: make(map[string]time.Time),
		pending:   make(map[string]ChangeEvent),
		timers:    make(map[string]*time.Timer),
	}
	w.lifecycle = fsm.NewFSM(
		stateIdle,
		fsm.Events{
			{Name: eventStart, Src: []string{stateIdle}, Dst: stateRunning},
			{Name: eventStop, Src: []string{stateRunning}, Dst: stateIdle},
			{Name: eventDispose, Src: []string{stateIdle, stateRunning}, Dst: stateDisposed},
		},
		fsm.Callbacks{},
	)

	n, err := cfg.Notifier(dir, w.handle, cfg)
	if err != nil {
		return nil, fmt.Errorf("watcher: create notifier for %q: %w", dir, err)
	}
	w.notifier = n
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Filter returns the active glob filter.
func (w *Watcher) Filter() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return string(w.filter)
}

// SetFilter replaces the glob filter. The new filter applies to the next event,
// whether or not the Watcher is running. SetFilter is a no-op after Close.
func (w *Watcher) SetFilter(filter string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lifecycle.Is(stateDisposed) {
		return nil
	}
	f, err := ParseFilter(filter)
	if err != nil {
		return err
	}
	w.filter = f
	w.logger.Debug("filter changed", zap.String("filter", filter))
	return nil
}

// State returns the current lifecycle state.
func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.lifecycle.Current() {
	case stateRunning:
		return Running
	case stateDisposed:
		return Disposed
	default:
		return Idle
	}
}

// Start enables change delivery. Calling Start on a running or closed Watcher
// does nothing.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.Can(eventStart) {
		return nil
	}
	// An in-flight delivery re-enables the notifier itself once it sees the
	// running state.
	if !w.delivering {
		if err := w.notifier.Enable(); err != nil {
			return fmt.Errorf("watcher: enable notifier: %w", err)
		}
	}
	w.transition(eventStart)
	return nil
}

// Stop disables change delivery. A subscriber that is already running is not
// interrupted, but no event is delivered after Stop returns.
// Calling Stop on an idle or closed Watcher does nothing.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.Can(eventStop) {
		return
	}
	w.notifier.Disable()
	w.dropPending()
	w.transition(eventStop)
}

// Close stops the Watcher and releases the notifier. Close is idempotent;
// Start, Stop and SetFilter are no-ops afterwards.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if !w.lifecycle.Can(eventDispose) {
		w.mu.Unlock()
		return nil
	}
	if w.lifecycle.Is(stateRunning) {
		w.notifier.Disable()
		w.transition(eventStop)
	}
	w.dropPending()
	w.transition(eventDispose)
	w.subscribers = nil
	w.delivered = nil
	w.pending = nil
	w.timers = nil
	n := w.notifier
	w.mu.Unlock()

	if err := n.Close(); err != nil {
		return fmt.Errorf("watcher: close notifier: %w", err)
	}
	return nil
}

// Subscribe registers fn for change events and returns a function that
// removes the registration. Subscribers run in registration order.
func (w *Watcher) Subscribe(fn Handler) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if fn == nil || w.lifecycle.Is(stateDisposed) {
		return func() {}
	}
	id := w.nextSubID
	w.nextSubID++
	w.subscribers = append(w.subscribers, subscriber{id: id, fn: fn})

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, sub := range w.subscribers {
			if sub.id == id {
				w.subscribers = append(w.subscribers[:i], w.subscribers[i+1:]...)
				return
			}
		}
	}
}

// handle is the DeliverFunc given to the notifier.
func (w *Watcher) handle(event ChangeEvent) error {
	return w.deliver(event, false)
}

func (w *Watcher) deliver(event ChangeEvent, trailing bool) error {
	subscribers, ok := w.beginDelivery(event, trailing)
	if !ok {
		return nil
	}
	// Deferred so the notifier comes back after a failing or panicking subscriber.
	defer w.endDelivery(event)

	var errs []error
	for _, sub := range subscribers {
		if err := sub.fn(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// beginDelivery decides whether event is delivered and, if so, disables the
// notifier and returns a snapshot of the subscribers. An event inside the
// debounce window of its path is parked for a trailing delivery instead.
func (w *Watcher) beginDelivery(event ChangeEvent, trailing bool) ([]subscriber, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.lifecycle.Is(stateRunning) {
		return nil, false
	}
	if w.delivering {
		// A raw event during a delivery was raised while the notifier was
		// disabled. A trailing one waits for endDelivery to reschedule it.
		if trailing {
			if _, ok := w.pending[event.Path]; !ok {
				w.pending[event.Path] = event
			}
		}
		return nil, false
	}
	if event.Kind&w.cfg.Kinds == 0 || !w.filter.Match(event.Path) {
		return nil, false
	}
	if !trailing {
		if last, ok := w.delivered[event.Path]; ok {
			if wait := w.cfg.DebounceWindow - time.Since(last); wait > 0 {
				w.logger.Debug("event coalesced", zap.String("path", event.Path), zap.Duration("wait", wait))
				w.pending[event.Path] = event
				w.schedule(event.Path, wait)
				return nil, false
			}
		}
	}

	// This delivery supersedes anything parked for the path.
	if t, ok := w.timers[event.Path]; ok {
		t.Stop()
		delete(w.timers, event.Path)
	}
	delete(w.pending, event.Path)

	w.notifier.Disable()
	w.delivering = true
	return append([]subscriber(nil), w.subscribers...), true
}

// endDelivery re-enables the notifier if the Watcher is still running and
// opens the debounce window for the delivered path.
func (w *Watcher) endDelivery(event ChangeEvent) {
	w.mu.Lock()
	w.delivering = false
	now := time.Now()
	if w.delivered != nil && w.cfg.DebounceWindow > 0 {
		for p, t := range w.delivered {
			if now.Sub(t) >= w.cfg.DebounceWindow {
				delete(w.delivered, p)
			}
		}
		if event.Kind&(Modified|Created) != 0 {
			w.delivered[event.Path] = now
		}
	}

	var err error
	if w.lifecycle.Is(stateRunning) {
		if err = w.notifier.Enable(); err != nil {
			w.logger.Warn("failed to re-enable notifier", zap.Error(err))
			err = fmt.Errorf("watcher: re-enable notifier: %w", err)
		}
		for p := range w.pending {
			var wait time.Duration
			if last, ok := w.delivered[p]; ok {
				wait = w.cfg.DebounceWindow - now.Sub(last)
			}
			w.schedule(p, wait)
		}
	}
	w.mu.Unlock()

	w.cfg.reportError(err)
}

// schedule arms the trailing delivery timer for path. Callers hold w.mu.
func (w *Watcher) schedule(path string, wait time.Duration) {
	if _, ok := w.timers[path]; ok {
		return
	}
	w.timers[path] = time.AfterFunc(wait, func() { w.flush(path) })
}

// flush delivers the event parked for path.
func (w *Watcher) flush(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	event, ok := w.pending[path]
	delete(w.pending, path)
	running := w.lifecycle.Is(stateRunning)
	w.mu.Unlock()

	if !ok || !running {
		return
	}
	w.cfg.reportError(w.deliver(event, true))
}

// dropPending cancels all trailing deliveries. Callers hold w.mu.
func (w *Watcher) dropPending() {
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	for p := range w.pending {
		delete(w.pending, p)
	}
}

// transition fires a lifecycle event. Callers hold w.mu and have checked Can.
func (w *Watcher) transition(event string) {
	from := w.lifecycle.Current()
	if err := w.lifecycle.Event(context.Background(), event); err != nil {
		w.logger.Debug("lifecycle transition rejected", zap.String("event", event), zap.Error(err))
		return
	}
	w.logger.Debug("state changed", zap.String("from", from), zap.String("to", w.lifecycle.Current()))
}
