package cache

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFlightCoalescesConcurrentCalls(t *testing.T) {
	f := NewFlight[int]()

	var calls int32
	gate := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := f.Do("key", func() (int, error) {
				atomic.AddInt32(&calls, 1)
				<-gate
				return 7, nil
			})
			if err != nil {
				t.Errorf("Do returned error: %v", err)
			}
			results[i] = v
		}(i)
	}

	close(gate)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("fn ran %d times for concurrent callers, want 1", got)
	}
	for i, v := range results {
		if v != 7 {
			t.Fatalf("caller %d got %d, want 7", i, v)
		}
	}
}

func TestFlightHandleRemovedAfterSettle(t *testing.T) {
	f := NewFlight[string]()

	// First call fails; the pending handle must still be removed so the
	// next call starts fresh instead of replaying the failure.
	if _, err := f.Do("k", func() (string, error) {
		return "", errors.New("boom")
	}); err == nil {
		t.Fatal("expected error from first call")
	}
	if f.Pending("k") {
		t.Fatal("handle still pending after settle")
	}

	v, err := f.Do("k", func() (string, error) { return "second", nil })
	if err != nil || v != "second" {
		t.Fatalf("second call = %q, %v; want second, nil", v, err)
	}
}
