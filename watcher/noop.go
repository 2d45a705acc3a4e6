package watcher

import "sync"

// Noop is a NotifierFactory whose notifiers never report changes. Use it for
// files that are read once.
func Noop(dir string, deliver DeliverFunc, cfg WatchConfig) (Notifier, error) {
	return &noopNotifier{}, nil
}

type noopNotifier struct {
	mu     sync.Mutex
	closed bool
}

func (n *noopNotifier) Enable() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return errNotifierClosed
	}
	return nil
}

func (n *noopNotifier) Disable() {}

func (n *noopNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = true
	return nil
}
