package watcher

// Notifier is the low-level change source wrapped by a Watcher.
// Implementations include the fsnotify-backed FSNotify and the stat-based Polling.
//
// A Notifier calls its DeliverFunc from a goroutine it owns. While disabled it
// must drop observed events instead of queueing them.
type Notifier interface {
	// Enable resumes raw event delivery.
	Enable() error

	// Disable suspends raw event delivery.
	Disable()

	// Close releases the underlying resources. Close is idempotent and must be
	// safe to call from inside a DeliverFunc.
	Close() error
}

// NotifierFactory creates a Notifier for dir. The returned Notifier starts disabled.
type NotifierFactory func(dir string, deliver DeliverFunc, cfg WatchConfig) (Notifier, error)
