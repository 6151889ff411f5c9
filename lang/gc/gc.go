// Package gc implements a precise tracing mark-sweep collector. It
// operates entirely through lang/object's Obj and Traceable interfaces
// and Heap's exported surface, so it never needs to know about concrete
// object kinds.
package gc

import (
	"fmt"
	"io"

	"ember/lang/object"
	"ember/lang/value"
)

// Stats summarizes one collection cycle, reported to Collector.Logger
// when set.
type Stats struct {
	BytesBefore, BytesAfter uint64
	ObjectsFreed            int
	NextGC                  uint64
}

// Collector runs mark-sweep cycles over a Heap.
type Collector struct {
	Heap *object.Heap

	// Stress forces a collection on every call to MaybeCollect, matching
	// a debug-stress build flag (EMBER_GC_STRESS).
	Stress bool

	// Logger, if non-nil, receives one line per collection cycle
	// (EMBER_GC_LOG).
	Logger io.Writer

	// gray is reused across cycles to avoid an allocation per collection;
	// the gray worklist must bypass the GC-aware allocator to avoid
	// reentry, which a plain Go slice not tracked by Heap satisfies.
	gray []object.Obj
}

// MaybeCollect runs a cycle if the heap is over threshold or Stress is
// set: triggered on allocation when bytesAllocated > nextGC, or
// unconditionally under a debug-stress build flag.
func (c *Collector) MaybeCollect() {
	if c.Stress || c.Heap.BytesAllocated() > c.Heap.NextGC() {
		c.Collect()
	}
}

// Collect runs one full mark-sweep cycle unconditionally.
func (c *Collector) Collect() Stats {
	before := c.Heap.BytesAllocated()

	c.gray = c.gray[:0]
	mark := func(v value.Value) {
		obj, ok := v.(object.Obj)
		if !ok || obj == nil || obj.IsMarked() {
			return
		}
		obj.SetMarked(true)
		c.gray = append(c.gray, obj)
	}

	// Step 1: mark all roots.
	c.Heap.EachRoot(mark)

	// Step 2: blacken until the worklist is empty.
	for len(c.gray) > 0 {
		n := len(c.gray) - 1
		obj := c.gray[n]
		c.gray = c.gray[:n]
		if tr, ok := obj.(object.Traceable); ok {
			tr.Trace(mark)
		}
	}

	// Step 3: weak-set cleanup of the string-interning table before
	// sweep, so it never outlives the strings it names.
	c.Heap.Strings.DeleteWhere(func(_ string, s *object.String) bool {
		return s.IsMarked()
	})

	// Step 4: sweep, freeing every white object and clearing the mark bit
	// on every black one so the next cycle starts clean.
	freed := 0
	var survivors object.Obj
	for o := c.Heap.Head(); o != nil; {
		next := o.Next()
		if o.IsMarked() {
			o.SetMarked(false)
			o.SetNext(survivors)
			survivors = o
		} else {
			c.Heap.ReleaseBytes(o.Size())
			freed++
		}
		o = next
	}
	c.Heap.SetHead(survivors)

	// Step 5: grow the threshold for the next cycle.
	next := uint64(float64(c.Heap.BytesAllocated()) * c.Heap.GrowFactor)
	c.Heap.SetNextGC(next)

	stats := Stats{BytesBefore: before, BytesAfter: c.Heap.BytesAllocated(), ObjectsFreed: freed, NextGC: next}
	if c.Logger != nil {
		fmt.Fprintf(c.Logger, "gc: collected %d objects, %d -> %d bytes, next at %d\n",
			stats.ObjectsFreed, stats.BytesBefore, stats.BytesAfter, stats.NextGC)
	}
	return stats
}
