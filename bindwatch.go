// Package bindwatch keeps a parsed key-bindings preset in sync with its file.
//
// A Monitor loads a bindings file, watches its directory and re-parses the
// file whenever it changes. The game rewrites the file in place, so a change
// notification may arrive before the write is complete; the Monitor retries
// the read with exponential backoff until the document parses.
//
// Packages:
//   - watcher: directory watching with per-change delivery and debouncing
//   - bindings: the bindings document model and XML codec
//   - source/fs: locked file reads and atomic writes
//   - format: JSON, JSONC, YAML and TOML codecs for export and configuration
package bindwatch

import (
	"time"

	"github.com/yacchi/bindwatch/watcher"
	"go.uber.org/zap"
)

// DefaultRetry is the default time spent re-reading a changed file before
// the change is reported as an error.
const DefaultRetry = 2 * time.Second

// Option configures a Monitor.
type Option func(*options)

type options struct {
	logger      *zap.Logger
	watcherOpts []watcher.WatchConfigOption
	onError     func(error)
	retry       time.Duration
	searchPaths []string
	static      bool
}

// WithLogger sets the logger. Default is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithWatcherOptions passes options to the underlying watcher.Watcher.
func WithWatcherOptions(opts ...watcher.WatchConfigOption) Option {
	return func(o *options) {
		o.watcherOpts = append(o.watcherOpts, opts...)
	}
}

// WithOnError sets the function receiving reload and notifier errors.
// It is called on the notifier goroutine and must not block.
func WithOnError(fn func(error)) Option {
	return func(o *options) {
		o.onError = fn
	}
}

// WithRetry sets how long a changed file is re-read before giving up.
// Zero disables retrying.
func WithRetry(maxElapsed time.Duration) Option {
	return func(o *options) {
		o.retry = maxElapsed
	}
}

// WithSearchPaths adds fallback locations for the bindings file. The first
// existing file among the primary path and these paths is monitored.
func WithSearchPaths(paths ...string) Option {
	return func(o *options) {
		o.searchPaths = append(o.searchPaths, paths...)
	}
}

// WithoutWatch loads the file once. Start succeeds but no change is ever reported.
func WithoutWatch() Option {
	return func(o *options) {
		o.static = true
	}
}

func newOptions(opts ...Option) options {
	o := options{
		logger: zap.NewNop(),
		retry:  DefaultRetry,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
