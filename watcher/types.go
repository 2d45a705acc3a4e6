// Package watcher provides a debounced directory watcher.
// A Watcher wraps a low-level Notifier (fsnotify or polling), suppresses the
// duplicate notifications those sources emit for a single save, and fans the
// remaining events out to subscribers.
package watcher

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Defaults applied by WatchConfig.ApplyDefaults.
const (
	DefaultFilter         = "*.*"
	DefaultDebounceWindow = 100 * time.Millisecond
	DefaultPollInterval   = time.Second
	DefaultBufferSize     = 64
)

var (
	// ErrInvalidPath is returned when the watched directory does not exist or is not a directory.
	ErrInvalidPath = errors.New("watcher: invalid path")

	// ErrInvalidFilter is returned for a malformed glob filter.
	ErrInvalidFilter = errors.New("watcher: invalid filter")

	// ErrOverflow is reported through OnError when the notifier dropped events.
	ErrOverflow = errors.New("watcher: event buffer overflow")
)

// State is the lifecycle state of a Watcher.
type State int

const (
	Idle State = iota
	Running
	Disposed
)

func (s State) String() string {
	switch s {
	case Idle:
		return stateIdle
	case Running:
		return stateRunning
	case Disposed:
		return stateDisposed
	default:
		return "unknown"
	}
}

// ChangeKind tags a ChangeEvent. Kinds are bit flags so a WatchConfig can
// select several of them.
type ChangeKind uint8

const (
	Modified ChangeKind = 1 << iota
	Created
	Removed
	Renamed
)

// Has reports whether k contains every flag of other.
func (k ChangeKind) Has(other ChangeKind) bool {
	return k&other == other && other != 0
}

func (k ChangeKind) String() string {
	var parts []string
	if k&Modified != 0 {
		parts = append(parts, "modified")
	}
	if k&Created != 0 {
		parts = append(parts, "created")
	}
	if k&Removed != 0 {
		parts = append(parts, "removed")
	}
	if k&Renamed != 0 {
		parts = append(parts, "renamed")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ChangeEvent is a single change notification.
type ChangeEvent struct {
	// Path is the full path of the changed file.
	Path string

	// Kind is the change kind.
	Kind ChangeKind

	// Time is when the notifier observed the change.
	Time time.Time
}

// Handler receives change events. A returned error is handed back to the
// notifier, which reports it through WatchConfig.OnError.
type Handler func(ChangeEvent) error

// DeliverFunc is the callback a Notifier invokes for every raw event.
type DeliverFunc func(ChangeEvent) error

// WatchConfig configures a Watcher and the Notifier it creates.
type WatchConfig struct {
	// DebounceWindow is measured from the end of a delivery for a path.
	// Events for that path arriving inside the window are coalesced into one
	// trailing delivery of the latest of them when the window closes.
	// Zero keeps only the disable/re-enable cycle around each delivery.
	DebounceWindow time.Duration

	// Kinds selects which change kinds are delivered. Default is Modified.
	Kinds ChangeKind

	// BufferSize is the event buffer size of the fsnotify notifier.
	BufferSize int

	// PollInterval is the scan interval of the polling notifier.
	PollInterval time.Duration

	// Notifier builds the underlying change source. Default is FSNotify.
	Notifier NotifierFactory

	// Logger receives lifecycle and notifier diagnostics.
	Logger *zap.Logger

	// OnError receives subscriber errors and notifier errors.
	// If nil, they are dropped.
	OnError func(error)

	debounceSet bool
}

// WatchConfigOption is a functional option for WatchConfig.
type WatchConfigOption func(*WatchConfig)

// WithDebounceWindow sets the duplicate suppression window.
func WithDebounceWindow(d time.Duration) WatchConfigOption {
	return func(c *WatchConfig) {
		c.DebounceWindow = d
		c.debounceSet = true
	}
}

// WithKinds sets the delivered change kinds.
func WithKinds(kinds ChangeKind) WatchConfigOption {
	return func(c *WatchConfig) {
		c.Kinds = kinds
	}
}

// WithBufferSize sets the fsnotify event buffer size.
func WithBufferSize(n int) WatchConfigOption {
	return func(c *WatchConfig) {
		c.BufferSize = n
	}
}

// WithPollInterval sets the polling interval used by the Polling notifier.
func WithPollInterval(d time.Duration) WatchConfigOption {
	return func(c *WatchConfig) {
		c.PollInterval = d
	}
}

// WithNotifier selects the underlying change source.
func WithNotifier(factory NotifierFactory) WatchConfigOption {
	return func(c *WatchConfig) {
		c.Notifier = factory
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) WatchConfigOption {
	return func(c *WatchConfig) {
		c.Logger = logger
	}
}

// WithOnError sets the error hook.
func WithOnError(fn func(error)) WatchConfigOption {
	return func(c *WatchConfig) {
		c.OnError = fn
	}
}

// NewWatchConfig creates a WatchConfig with the given options and defaults
// for everything left unset.
func NewWatchConfig(opts ...WatchConfigOption) WatchConfig {
	var cfg WatchConfig
	cfg.ApplyOptions(opts...)
	cfg.ApplyDefaults()
	return cfg
}

// ApplyOptions applies the given options to the config.
func (c *WatchConfig) ApplyOptions(opts ...WatchConfigOption) {
	for _, opt := range opts {
		opt(c)
	}
}

// ApplyDefaults fills zero values with defaults.
// An explicit WithDebounceWindow(0) is preserved.
func (c *WatchConfig) ApplyDefaults() {
	if c.DebounceWindow < 0 || (c.DebounceWindow == 0 && !c.debounceSet) {
		c.DebounceWindow = DefaultDebounceWindow
	}
	if c.Kinds == 0 {
		c.Kinds = Modified
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.Notifier == nil {
		c.Notifier = FSNotify
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// reportError forwards err to OnError when set.
func (c *WatchConfig) reportError(err error) {
	if err != nil && c.OnError != nil {
		c.OnError(err)
	}
}
