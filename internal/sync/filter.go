// ABOUTME: Sliding-window median filter for clock offset samples
// ABOUTME: Fixed-capacity ring plus a parallel sorted scratch for the median
package sync

import (
	"sort"
	"sync"

	"github.com/snapcastgo/snapclient/pkg/wire"
)

// DefaultWindow is the recommended ring capacity: large enough to reject
// bufferbloat outliers, small enough to track slow clock drift instead of
// freezing on early estimates.
const DefaultWindow = 20

// Filter is a fixed-capacity circular buffer of offset samples, reporting
// the median of the samples currently held.
//
// Safe for concurrent use: Filter serializes access with an internal
// mutex, since the session reader and the app's stats loop both read it.
type Filter struct {
	mu      sync.RWMutex
	ring    []wire.TimeVal // fixed-capacity, conceptually circular
	scratch []wire.TimeVal // parallel sorted working copy, reused across Current calls
	next    int            // next ring slot to overwrite
	count   int            // number of valid samples (saturates at capacity)
}

// NewFilter creates a Filter with the given capacity. Capacity must be
// >= 1; the recommended range is 10-50 slots.
func NewFilter(capacity int) *Filter {
	if capacity < 1 {
		capacity = DefaultWindow
	}
	return &Filter{
		ring:    make([]wire.TimeVal, capacity),
		scratch: make([]wire.TimeVal, capacity),
	}
}

// Push adds a new offset sample, evicting the oldest sample once the ring
// is full.
func (f *Filter) Push(sample wire.TimeVal) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.ring[f.next] = sample
	f.next = (f.next + 1) % len(f.ring)
	if f.count < len(f.ring) {
		f.count++
	}
}

// Current returns the median of the samples currently held, and whether
// any samples have been pushed yet. Before the first sample it returns a
// conservative 1ms estimate with ok=false; callers MUST NOT block waiting
// for Synchronized — they just drop chunks whose deadlines land in the
// past while the estimate warms up.
func (f *Filter) Current() (offset wire.TimeVal, ok bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.count == 0 {
		return wire.FromMillis(1), false
	}

	copy(f.scratch[:f.count], f.ring[:f.count])
	sort.Slice(f.scratch[:f.count], func(i, j int) bool {
		return f.scratch[i].Compare(f.scratch[j]) < 0
	})

	return f.scratch[f.count/2], true
}

// Synchronized reports whether the ring has filled to capacity at least
// once.
func (f *Filter) Synchronized() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count == len(f.ring)
}

// Len returns the number of samples currently held (<= capacity).
func (f *Filter) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

// Cap returns the filter's fixed capacity.
func (f *Filter) Cap() int {
	return len(f.ring)
}
