package watcher

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

var errNotifierClosed = errors.New("watcher: notifier closed")

// fsnotifyNotifier implements Notifier using fsnotify.
type fsnotifyNotifier struct {
	watcher *fsnotify.Watcher
	deliver DeliverFunc
	cfg     WatchConfig
	logger  *zap.Logger

	enabled   atomic.Bool
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// FSNotify is the default NotifierFactory. It watches dir with a single
// buffered fsnotify watcher for the lifetime of the Notifier; Enable and
// Disable only gate delivery, so restarting never registers a second watch.
func FSNotify(dir string, deliver DeliverFunc, cfg WatchConfig) (Notifier, error) {
	cfg.ApplyDefaults()

	w, err := fsnotify.NewBufferedWatcher(uint(cfg.BufferSize))
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPath, dir, err)
	}

	n := &fsnotifyNotifier{
		watcher: w,
		deliver: deliver,
		cfg:     cfg,
		logger:  cfg.Logger.Named("fsnotify").With(zap.String("dir", dir)),
	}
	go n.run()
	return n, nil
}

// Enable implements Notifier.
func (n *fsnotifyNotifier) Enable() error {
	if n.closed.Load() {
		return errNotifierClosed
	}
	n.enabled.Store(true)
	return nil
}

// Disable implements Notifier.
func (n *fsnotifyNotifier) Disable() {
	n.enabled.Store(false)
}

// Close implements Notifier.
func (n *fsnotifyNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		n.enabled.Store(false)
		n.closeErr = n.watcher.Close()
	})
	return n.closeErr
}

func (n *fsnotifyNotifier) run() {
	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			kind := kindOf(event.Op)
			if kind&n.cfg.Kinds == 0 {
				continue
			}
			if !n.enabled.Load() {
				continue
			}
			err := n.deliver(ChangeEvent{
				Path: event.Name,
				Kind: kind & n.cfg.Kinds,
				Time: time.Now(),
			})
			n.cfg.reportError(err)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				err = fmt.Errorf("%w: %v", ErrOverflow, err)
			}
			n.logger.Warn("fsnotify error", zap.Error(err))
			n.cfg.reportError(err)
		}
	}
}

// kindOf maps fsnotify operations to change kinds. Chmod has no counterpart.
func kindOf(op fsnotify.Op) ChangeKind {
	var kind ChangeKind
	if op.Has(fsnotify.Write) {
		kind |= Modified
	}
	if op.Has(fsnotify.Create) {
		kind |= Created
	}
	if op.Has(fsnotify.Remove) {
		kind |= Removed
	}
	if op.Has(fsnotify.Rename) {
		kind |= Renamed
	}
	return kind
}
