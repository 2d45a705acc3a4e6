package watcher

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

type fileStat struct {
	size    int64
	modTime time.Time
}

// pollingNotifier implements Notifier by scanning the directory at a fixed
// interval and comparing size and modification time of every file.
type pollingNotifier struct {
	dir     string
	deliver DeliverFunc
	cfg     WatchConfig
	logger  *zap.Logger

	enabled   atomic.Bool
	closed    atomic.Bool
	stopCh    chan struct{}
	closeOnce sync.Once

	// snapshot is owned by the poll goroutine.
	snapshot map[string]fileStat
}

// Polling is a NotifierFactory for file systems without change notification
// support (network shares, some container mounts). The directory is scanned
// every WatchConfig.PollInterval. Scans continue while disabled so changes made
// in the meantime are not replayed on Enable.
func Polling(dir string, deliver DeliverFunc, cfg WatchConfig) (Notifier, error) {
	cfg.ApplyDefaults()

	n := &pollingNotifier{
		dir:     dir,
		deliver: deliver,
		cfg:     cfg,
		logger:  cfg.Logger.Named("polling").With(zap.String("dir", dir)),
		stopCh:  make(chan struct{}),
	}
	snapshot, err := n.scan()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidPath, dir, err)
	}
	n.snapshot = snapshot

	go n.run()
	return n, nil
}

// Enable implements Notifier.
func (n *pollingNotifier) Enable() error {
	if n.closed.Load() {
		return errNotifierClosed
	}
	n.enabled.Store(true)
	return nil
}

// Disable implements Notifier.
func (n *pollingNotifier) Disable() {
	n.enabled.Store(false)
}

// Close implements Notifier.
func (n *pollingNotifier) Close() error {
	n.closeOnce.Do(func() {
		n.closed.Store(true)
		n.enabled.Store(false)
		close(n.stopCh)
	})
	return nil
}

func (n *pollingNotifier) run() {
	interval := n.cfg.PollInterval
	for {
		startTime := time.Now()
		n.poll()

		// Calculate wait time, accounting for scan time
		waitTime := interval - time.Since(startTime)
		if waitTime <= 0 {
			select {
			case <-n.stopCh:
				return
			default:
			}
			continue
		}

		select {
		case <-time.After(waitTime):
		case <-n.stopCh:
			return
		}
	}
}

func (n *pollingNotifier) poll() {
	current, err := n.scan()
	if err != nil {
		n.logger.Warn("scan failed", zap.Error(err))
		n.cfg.reportError(fmt.Errorf("watcher: scan %q: %w", n.dir, err))
		return
	}
	previous := n.snapshot
	n.snapshot = current

	if !n.enabled.Load() {
		return
	}

	var events []ChangeEvent
	now := time.Now()
	for name, st := range current {
		old, ok := previous[name]
		switch {
		case !ok:
			events = append(events, ChangeEvent{Path: name, Kind: Created, Time: now})
		case old.size != st.size || !old.modTime.Equal(st.modTime):
			events = append(events, ChangeEvent{Path: name, Kind: Modified, Time: now})
		}
	}
	for name := range previous {
		if _, ok := current[name]; !ok {
			events = append(events, ChangeEvent{Path: name, Kind: Removed, Time: now})
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Path < events[j].Path })

	for _, ev := range events {
		if ev.Kind&n.cfg.Kinds == 0 || !n.enabled.Load() {
			continue
		}
		n.cfg.reportError(n.deliver(ev))
	}
}

// scan returns size and modification time of every regular file in the directory.
func (n *pollingNotifier) scan() (map[string]fileStat, error) {
	entries, err := os.ReadDir(n.dir)
	if err != nil {
		return nil, err
	}
	stats := make(map[string]fileStat, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			// Removed between ReadDir and Info.
			continue
		}
		stats[filepath.Join(n.dir, e.Name())] = fileStat{size: info.Size(), modTime: info.ModTime()}
	}
	return stats, nil
}
