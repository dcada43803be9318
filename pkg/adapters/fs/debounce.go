package fs

import (
	"sync"
	"time"

	"github.com/aretw0/notebox/pkg/core"
)

// debouncer coalesces bursts of events per key. The last event for a key
// within the window wins.
type debouncer struct {
	window time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	latest  map[string]core.StorageEvent
	stopped bool
	wg      sync.WaitGroup
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window:  window,
		pending: make(map[string]*time.Timer),
		latest:  make(map[string]core.StorageEvent),
	}
}

func (d *debouncer) add(e core.StorageEvent, fire func(core.StorageEvent)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}

	d.latest[e.Key] = e
	if _, ok := d.pending[e.Key]; ok {
		return
	}

	d.wg.Add(1)
	d.pending[e.Key] = time.AfterFunc(d.window, func() {
		defer d.wg.Done()

		d.mu.Lock()
		ev := d.latest[e.Key]
		delete(d.latest, e.Key)
		delete(d.pending, e.Key)
		d.mu.Unlock()

		fire(ev)
	})
}

// stopAndWait rejects new events and waits for in-flight timers, giving up
// after timeout.
func (d *debouncer) stopAndWait(timeout time.Duration) {
	d.mu.Lock()
	d.stopped = true
	for key, t := range d.pending {
		if t.Stop() {
			// Timer never fired; release its slot.
			d.wg.Done()
			delete(d.pending, key)
			delete(d.latest, key)
		}
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeout):
	}
}
