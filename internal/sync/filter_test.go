// ABOUTME: Tests for the sliding-window median offset filter
package sync

import (
	"testing"

	"github.com/snapcastgo/snapclient/pkg/wire"
)

func millis(m int32) wire.TimeVal { return wire.FromMillis(m) }

func TestFilterBeforeAnySampleIsUnsynchronized(t *testing.T) {
	f := NewFilter(5)
	if f.Synchronized() {
		t.Error("expected unsynchronized before any sample")
	}
	offset, ok := f.Current()
	if ok {
		t.Error("expected ok=false before any sample")
	}
	if offset != millis(1) {
		t.Errorf("offset = %+v, want conservative 1ms", offset)
	}
}

func TestFilterMedianOfOddCount(t *testing.T) {
	f := NewFilter(10)
	for _, m := range []int32{10, 30, 20} {
		f.Push(millis(m))
	}
	got, ok := f.Current()
	if !ok {
		t.Fatal("expected ok=true after pushes")
	}
	if got != millis(20) {
		t.Errorf("median = %+v, want 20ms", got)
	}
}

func TestFilterSynchronizedOnceFull(t *testing.T) {
	f := NewFilter(3)
	for i := 0; i < 2; i++ {
		f.Push(millis(int32(i)))
		if f.Synchronized() {
			t.Errorf("expected unsynchronized with %d/%d samples", i+1, 3)
		}
	}
	f.Push(millis(2))
	if !f.Synchronized() {
		t.Error("expected synchronized once ring is full")
	}
}

func TestFilterEvictsOldestOnOverflow(t *testing.T) {
	f := NewFilter(3)
	// Fill with a known triplet, then push a much larger sample that
	// should evict the oldest (10ms) rather than grow the window.
	for _, m := range []int32{10, 20, 30} {
		f.Push(millis(m))
	}
	f.Push(millis(900))

	if f.Len() != 3 {
		t.Fatalf("Len() = %d, want 3 (capacity unchanged)", f.Len())
	}

	got, _ := f.Current()
	// Live set is now {20, 30, 900}; median is 30ms.
	if got != millis(30) {
		t.Errorf("median after eviction = %+v, want 30ms", got)
	}
}

// TestFilterMatchesMedianOfLastMinNC is the §8 property test: after
// pushing N samples into capacity C, Current() equals the median of the
// last min(N, C) samples.
func TestFilterMatchesMedianOfLastMinNC(t *testing.T) {
	const capacity = 5
	f := NewFilter(capacity)

	samples := []int32{7, 3, 9, 1, 8, 2, 6, 5, 4}
	for i, m := range samples {
		f.Push(millis(m))

		live := samples[:i+1]
		if len(live) > capacity {
			live = live[len(live)-capacity:]
		}
		want := medianOf(live)

		got, _ := f.Current()
		if got != millis(want) {
			t.Fatalf("after %d pushes: median = %+v, want %dms", i+1, got, want)
		}
	}
}

func medianOf(values []int32) int32 {
	sorted := append([]int32{}, values...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	return sorted[len(sorted)/2]
}
