package bindwatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/yacchi/bindwatch/bindings"
	"github.com/yacchi/bindwatch/source/fs"
	"github.com/yacchi/bindwatch/watcher"
	"go.uber.org/zap"
)

// ErrRemoved is reported when the monitored file is deleted or renamed away.
// The last parsed preset stays current.
var ErrRemoved = errors.New("bindwatch: bindings file removed")

type subscriber struct {
	id uint64
	fn func(*bindings.Preset)
}

// Monitor holds the most recently parsed preset of a bindings file and
// notifies subscribers when the file changes.
//
// All methods are safe for concurrent use.
type Monitor struct {
	src     *fs.Source
	watcher *watcher.Watcher
	opts    options
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	current atomic.Pointer[bindings.Preset]

	mu          sync.Mutex
	subscribers []subscriber
	nextSubID   uint64
}

// Open loads and parses the bindings file at path and prepares a watcher for
// it. The Monitor does not watch until Start is called.
//
// Example:
//
//	m, err := bindwatch.Open("~/Bindings/Custom.4.0.binds",
//	    bindwatch.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	defer m.Close()
//	m.Subscribe(func(p *bindings.Preset) {
//	    log.Println("bindings reloaded:", p.Name)
//	})
//	err = m.Start()
func Open(path string, opts ...Option) (*Monitor, error) {
	o := newOptions(opts...)
	m := &Monitor{
		src:    fs.New(path, fs.WithSearchPaths(o.searchPaths...)),
		opts:   o,
		logger: o.logger.Named("bindwatch"),
	}

	p, err := m.load(context.Background())
	if err != nil {
		return nil, err
	}
	m.current.Store(p)

	resolved := m.src.ResolvedPath()
	m.logger = m.logger.With(zap.String("path", resolved))

	wopts := []watcher.WatchConfigOption{
		watcher.WithLogger(o.logger),
		watcher.WithKinds(watcher.Modified | watcher.Created | watcher.Removed | watcher.Renamed),
	}
	wopts = append(wopts, o.watcherOpts...)
	wopts = append(wopts, watcher.WithOnError(m.reportError))
	if o.static {
		wopts = append(wopts, watcher.WithNotifier(watcher.Noop))
	}
	w, err := watcher.NewForFile(resolved, wopts...)
	if err != nil {
		return nil, err
	}
	m.watcher = w
	m.ctx, m.cancel = context.WithCancel(context.Background())
	w.Subscribe(m.handle)

	m.logger.Debug("bindings loaded",
		zap.String("preset", p.Name),
		zap.Int("bindings", len(p.Bindings)),
		zap.Int("axes", len(p.Axes)))
	return m, nil
}

// Path returns the monitored file.
func (m *Monitor) Path() string {
	return m.src.ResolvedPath()
}

// Current returns the most recently parsed preset. It never returns nil.
// The returned preset must not be modified.
func (m *Monitor) Current() *bindings.Preset {
	return m.current.Load()
}

// Subscribe registers fn to receive each newly parsed preset and returns a
// function that removes it. fn runs on the watcher goroutine.
func (m *Monitor) Subscribe(fn func(*bindings.Preset)) func() {
	m.mu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}

// Start begins watching the file.
func (m *Monitor) Start() error {
	return m.watcher.Start()
}

// Stop pauses watching. Changes made while stopped are not reported.
func (m *Monitor) Stop() {
	m.watcher.Stop()
}

// Close stops watching and releases the watcher. A reload in progress is abandoned.
func (m *Monitor) Close() error {
	m.cancel()
	return m.watcher.Close()
}

// State returns the state of the underlying watcher.
func (m *Monitor) State() watcher.State {
	return m.watcher.State()
}

// handle reloads the preset after a change to the file.
func (m *Monitor) handle(ev watcher.ChangeEvent) error {
	if ev.Kind&(watcher.Modified|watcher.Created) == 0 {
		m.logger.Info("bindings file removed", zap.Stringer("kind", ev.Kind))
		return fmt.Errorf("%w: %s", ErrRemoved, ev.Path)
	}

	p, err := m.reload()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		m.logger.Warn("failed to reload bindings", zap.Error(err))
		return err
	}
	m.current.Store(p)
	m.logger.Info("bindings reloaded",
		zap.String("preset", p.Name),
		zap.Int("bindings", len(p.Bindings)),
		zap.Int("axes", len(p.Axes)))

	m.mu.Lock()
	subscribers := append([]subscriber(nil), m.subscribers...)
	m.mu.Unlock()

	for _, sub := range subscribers {
		sub.fn(p)
	}
	return nil
}

// reload reads and parses the file, retrying while it is incomplete.
func (m *Monitor) reload() (*bindings.Preset, error) {
	if m.opts.retry <= 0 {
		return m.load(m.ctx)
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 20 * time.Millisecond
	b.MaxInterval = 250 * time.Millisecond
	b.MaxElapsedTime = m.opts.retry

	attempt := 0
	return backoff.RetryNotifyWithData[*bindings.Preset](func() (*bindings.Preset, error) {
		attempt++
		p, err := m.load(m.ctx)
		if errors.Is(err, bindings.ErrNotBindings) || errors.Is(err, context.Canceled) {
			return nil, backoff.Permanent(err)
		}
		return p, err
	}, backoff.WithContext(b, m.ctx), func(err error, next time.Duration) {
		m.logger.Debug("bindings not readable yet",
			zap.Int("attempt", attempt),
			zap.Duration("retry_in", next),
			zap.Error(err))
	})
}

func (m *Monitor) load(ctx context.Context) (*bindings.Preset, error) {
	data, err := m.src.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("bindwatch: %w", err)
	}
	p, err := bindings.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("bindwatch: %s: %w", m.src.ResolvedPath(), err)
	}
	return p, nil
}

func (m *Monitor) reportError(err error) {
	if m.opts.onError != nil {
		m.opts.onError(err)
	}
}
