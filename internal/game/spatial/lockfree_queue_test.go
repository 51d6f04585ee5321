package spatial

import (
	"sync"
	"testing"
)

func TestQueueRoundsCapacity(t *testing.T) {
	q := NewLockFreeQueue[int](5)
	if q.Cap() != 8 {
		t.Errorf("Expected capacity 8, got %d", q.Cap())
	}
}

func TestQueueFIFOAndFull(t *testing.T) {
	q := NewLockFreeQueue[int](4)
	for i := 0; i < 4; i++ {
		if !q.TryPush(i) {
			t.Fatalf("Push %d failed", i)
		}
	}
	if q.TryPush(99) {
		t.Error("Push into a full queue should fail")
	}

	for want := 0; want < 4; want++ {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Errorf("Expected %d, got %d (ok=%v)", want, got, ok)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Error("Pop from an empty queue should fail")
	}
}

func TestQueueDrainWrapsAround(t *testing.T) {
	q := NewLockFreeQueue[int](4)
	for round := 0; round < 3; round++ {
		q.TryPush(round * 10)
		q.TryPush(round*10 + 1)
		q.TryPush(round*10 + 2)

		got := q.Drain(nil)
		if len(got) != 3 || got[0] != round*10 || got[2] != round*10+2 {
			t.Errorf("Round %d: unexpected drain %v", round, got)
		}
		if q.Len() != 0 {
			t.Errorf("Round %d: expected empty, got %d", round, q.Len())
		}
	}
}

func TestQueueConcurrentProducers(t *testing.T) {
	const producers, perProducer = 8, 500
	q := NewLockFreeQueue[int](producers * perProducer)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if !q.TryPush(base + i) {
					t.Errorf("Push %d failed", base+i)
				}
			}
		}(p * perProducer)
	}
	wg.Wait()

	seen := make(map[int]bool, producers*perProducer)
	for _, v := range q.Drain(nil) {
		if seen[v] {
			t.Fatalf("Value %d popped twice", v)
		}
		seen[v] = true
	}
	if len(seen) != producers*perProducer {
		t.Errorf("Expected %d values, got %d", producers*perProducer, len(seen))
	}
}
