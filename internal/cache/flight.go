package cache

import "sync"

type call[V any] struct {
	done chan struct{}
	val  V
	err  error
}

// Flight coalesces concurrent requests for the same key: the first caller
// runs fn, later callers block on the same pending handle and receive the
// first caller's result. The handle is removed once fn settles, success or
// failure, so the next request after settlement starts fresh.
type Flight[V any] struct {
	mu    sync.Mutex
	calls map[string]*call[V]
}

// NewFlight returns an empty coalescing map.
func NewFlight[V any]() *Flight[V] {
	return &Flight[V]{calls: make(map[string]*call[V])}
}

// Do executes fn for key, sharing the result with every caller that arrives
// while fn is in flight. The check-and-insert is atomic under the mutex, so
// two concurrent callers can never both start fn.
func (f *Flight[V]) Do(key string, fn func() (V, error)) (V, error) {
	f.mu.Lock()
	if c, ok := f.calls[key]; ok {
		f.mu.Unlock()
		<-c.done
		return c.val, c.err
	}
	c := &call[V]{done: make(chan struct{})}
	f.calls[key] = c
	f.mu.Unlock()

	c.val, c.err = fn()

	f.mu.Lock()
	delete(f.calls, key)
	f.mu.Unlock()
	close(c.done)

	return c.val, c.err
}

// Pending reports whether a call for key is currently in flight.
func (f *Flight[V]) Pending(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.calls[key]
	return ok
}
