package watcher

import (
	"errors"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// newRunningNotifier starts run on a notifier fed by the returned channels.
func newRunningNotifier(t *testing.T, deliver DeliverFunc, onError func(error)) (*fsnotifyNotifier, chan fsnotify.Event, chan error) {
	t.Helper()
	events := make(chan fsnotify.Event)
	errs := make(chan error)
	n := &fsnotifyNotifier{
		watcher: &fsnotify.Watcher{Events: events, Errors: errs},
		deliver: deliver,
		cfg:     NewWatchConfig(WithOnError(onError), WithKinds(Modified|Renamed)),
		logger:  zap.NewNop(),
	}
	done := make(chan struct{})
	go func() {
		n.run()
		close(done)
	}()
	t.Cleanup(func() {
		close(events)
		<-done
	})
	return n, events, errs
}

func TestFSNotifyRun_Overflow(t *testing.T) {
	reported := make(chan error, 1)
	_, _, errs := newRunningNotifier(t, func(ChangeEvent) error { return nil }, func(err error) {
		reported <- err
	})

	errs <- fsnotify.ErrEventOverflow

	select {
	case err := <-reported:
		if !errors.Is(err, ErrOverflow) {
			t.Errorf("OnError got %v, want ErrOverflow", err)
		}
	case <-time.After(time.Second):
		t.Fatal("overflow not reported")
	}
}

func TestFSNotifyRun_OtherErrorsPassThrough(t *testing.T) {
	reported := make(chan error, 1)
	_, _, errs := newRunningNotifier(t, func(ChangeEvent) error { return nil }, func(err error) {
		reported <- err
	})

	boom := errors.New("inotify failure")
	errs <- boom

	select {
	case err := <-reported:
		if !errors.Is(err, boom) || errors.Is(err, ErrOverflow) {
			t.Errorf("OnError got %v, want the raw error", err)
		}
	case <-time.After(time.Second):
		t.Fatal("error not reported")
	}
}

func TestFSNotifyRun_Delivery(t *testing.T) {
	delivered := make(chan ChangeEvent, 4)
	n, events, _ := newRunningNotifier(t, func(ev ChangeEvent) error {
		delivered <- ev
		return nil
	}, nil)

	// Disabled: dropped.
	events <- fsnotify.Event{Name: "/d/a.cfg", Op: fsnotify.Write}
	// Chmod maps to no kind; once it is received the write above was handled.
	events <- fsnotify.Event{Name: "/d/a.cfg", Op: fsnotify.Chmod}
	if err := n.Enable(); err != nil {
		t.Fatalf("Enable() error: %v", err)
	}
	// Not a selected kind: dropped.
	events <- fsnotify.Event{Name: "/d/a.cfg", Op: fsnotify.Create}
	events <- fsnotify.Event{Name: "/d/a.cfg", Op: fsnotify.Write | fsnotify.Chmod}
	events <- fsnotify.Event{Name: "/d/b.cfg", Op: fsnotify.Rename}

	want := []ChangeEvent{
		{Path: "/d/a.cfg", Kind: Modified},
		{Path: "/d/b.cfg", Kind: Renamed},
	}
	for _, w := range want {
		select {
		case ev := <-delivered:
			if ev.Path != w.Path || ev.Kind != w.Kind {
				t.Errorf("delivered %s %s, want %s %s", ev.Kind, ev.Path, w.Kind, w.Path)
			}
		case <-time.After(time.Second):
			t.Fatalf("timeout waiting for %s", w.Path)
		}
	}
	select {
	case ev := <-delivered:
		t.Errorf("unexpected delivery %s %s", ev.Kind, ev.Path)
	default:
	}
}
