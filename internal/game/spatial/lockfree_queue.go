package spatial

import (
	"sync/atomic"
)

// CacheLineSize is the typical CPU cache line size (64 bytes on x86-64)
const CacheLineSize = 64

// Padding keeps hot counters on separate cache lines.
type Padding [CacheLineSize]byte

type slot[T any] struct {
	seq atomic.Uint64
	val T
}

// LockFreeQueue is a bounded MPSC ring buffer. Any number of goroutines
// may push; exactly one goroutine pops.
//
// Each slot carries a sequence number so the consumer never observes a
// slot whose producer has claimed it but not finished writing it.
type LockFreeQueue[T any] struct {
	_pad0 Padding

	head atomic.Uint64 // next write position
	_pad1 Padding

	tail atomic.Uint64 // next read position
	_pad2 Padding

	mask  uint64
	slots []slot[T]
}

// NewLockFreeQueue creates a queue. capacity is rounded up to a power of 2.
func NewLockFreeQueue[T any](capacity int) *LockFreeQueue[T] {
	size := 1
	for size < capacity {
		size <<= 1
	}

	q := &LockFreeQueue[T]{
		mask:  uint64(size - 1),
		slots: make([]slot[T], size),
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush adds an item. Returns false if the queue is full.
// Safe for concurrent producers.
func (q *LockFreeQueue[T]) TryPush(item T) bool {
	for {
		pos := q.head.Load()
		s := &q.slots[pos&q.mask]
		seq := s.seq.Load()

		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if q.head.CompareAndSwap(pos, pos+1) {
				s.val = item
				s.seq.Store(pos + 1)
				return true
			}
		case diff < 0:
			return false
		}
		// Another producer took this position, reload.
	}
}

// TryPop removes the oldest item. Single consumer only.
func (q *LockFreeQueue[T]) TryPop() (T, bool) {
	var zero T

	pos := q.tail.Load()
	s := &q.slots[pos&q.mask]
	if int64(s.seq.Load())-int64(pos+1) < 0 {
		return zero, false
	}

	item := s.val
	s.val = zero
	s.seq.Store(pos + q.mask + 1)
	q.tail.Store(pos + 1)
	return item, true
}

// Drain pops everything currently visible into dst and returns it.
func (q *LockFreeQueue[T]) Drain(dst []T) []T {
	for {
		item, ok := q.TryPop()
		if !ok {
			return dst
		}
		dst = append(dst, item)
	}
}

// Len is an approximate item count.
func (q *LockFreeQueue[T]) Len() int {
	head := q.head.Load()
	tail := q.tail.Load()
	if head < tail {
		return 0
	}
	return int(head - tail)
}

// Cap returns the queue capacity.
func (q *LockFreeQueue[T]) Cap() int {
	return int(q.mask + 1)
}
