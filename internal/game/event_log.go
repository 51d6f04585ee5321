package game

import (
	"bufio"
	"encoding/json"
	"log"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"game-hub/internal/config"
)

const (
	BatchFlushSize     = 64                     // Events per batch write
	BatchFlushInterval = 100 * time.Millisecond // How often to flush
	TickSampleEvery    = 60                     // Log one tick event per this many ticks
)

// EventLog is a bounded, rate-limited gameplay event log for one session.
//
// Events land in a ring buffer so the API can show recent history. When
// started with a file path, an async writer appends them as JSONL.
// Under pressure the limiter drops events instead of slowing the tick.
type EventLog struct {
	mu      sync.Mutex
	buffer  []Event
	written uint64 // events accepted, also the last sequence number
	flushed uint64 // events handed to the writer

	limiter *rate.Limiter

	writerWg sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
	running  atomic.Bool

	file *os.File

	droppedCount atomic.Uint64
	totalCount   atomic.Uint64
}

// NewEventLog creates a new bounded event log
func NewEventLog(cfg config.EventLogConfig) *EventLog {
	size := cfg.BufferSize
	if size <= 0 {
		size = 1024
	}
	rps := cfg.RatePerSec
	if rps <= 0 {
		rps = 200
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(rps)
	}
	return &EventLog{
		buffer:   make([]Event, size),
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
		stopChan: make(chan struct{}),
	}
}

// Start enables the log. A non-empty filePath also starts the JSONL writer.
func (el *EventLog) Start(filePath string) error {
	if el.running.Load() {
		return nil
	}

	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		el.file = file
		el.writerWg.Add(1)
		go el.writerLoop()
	}

	el.running.Store(true)
	return nil
}

// Stop flushes and closes the log. Safe to call more than once.
func (el *EventLog) Stop() {
	el.stopOnce.Do(func() {
		el.running.Store(false)
		close(el.stopChan)
		el.writerWg.Wait()

		if el.file != nil {
			if err := el.file.Close(); err != nil {
				log.Printf("⚠️ Event log close failed: %v", err)
			}
		}
	})
}

// Emit adds an event. Returns false if the log is stopped or rate limited.
func (el *EventLog) Emit(event Event) bool {
	if !el.running.Load() {
		return false
	}
	if !el.limiter.Allow() {
		el.droppedCount.Add(1)
		return false
	}

	el.mu.Lock()
	el.written++
	event.Sequence = el.written
	el.buffer[el.written%uint64(len(el.buffer))] = event
	if el.file == nil {
		el.flushed = el.written
	} else if el.written-el.flushed > uint64(len(el.buffer)) {
		// Writer fell a full ring behind; skip what was overwritten.
		el.droppedCount.Add(el.written - el.flushed - uint64(len(el.buffer)))
		el.flushed = el.written - uint64(len(el.buffer))
	}
	el.mu.Unlock()

	el.totalCount.Add(1)
	return true
}

// EmitSimple is a convenience method to emit an event with automatic creation
func (el *EventLog) EmitSimple(eventType EventType, tickNum uint64, sessionID string, payload interface{}) bool {
	if el == nil {
		return false
	}
	return el.Emit(NewEvent(eventType, tickNum, sessionID, payload))
}

// Recent returns up to n most recent events, oldest first.
func (el *EventLog) Recent(n int) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	size := uint64(len(el.buffer))
	avail := el.written
	if avail > size {
		avail = size
	}
	if n <= 0 || uint64(n) > avail {
		n = int(avail)
	}

	out := make([]Event, 0, n)
	for seq := el.written - uint64(n) + 1; seq <= el.written; seq++ {
		out = append(out, el.buffer[seq%size])
	}
	return out
}

// writerLoop batches and writes events to disk asynchronously
func (el *EventLog) writerLoop() {
	defer el.writerWg.Done()

	ticker := time.NewTicker(BatchFlushInterval)
	defer ticker.Stop()

	w := bufio.NewWriter(el.file)
	batch := make([]Event, 0, BatchFlushSize)

	for {
		select {
		case <-el.stopChan:
			for {
				batch = el.collectBatch(batch[:0])
				if len(batch) == 0 {
					break
				}
				el.flushBatch(w, batch)
			}
			return
		case <-ticker.C:
			batch = el.collectBatch(batch[:0])
			if len(batch) > 0 {
				el.flushBatch(w, batch)
			}
		}
	}
}

// collectBatch copies unflushed events out of the ring.
func (el *EventLog) collectBatch(batch []Event) []Event {
	el.mu.Lock()
	defer el.mu.Unlock()

	size := uint64(len(el.buffer))
	for el.flushed < el.written && len(batch) < BatchFlushSize {
		el.flushed++
		batch = append(batch, el.buffer[el.flushed%size])
	}
	return batch
}

// flushBatch writes events as newline-delimited JSON.
func (el *EventLog) flushBatch(w *bufio.Writer, batch []Event) {
	for _, event := range batch {
		data, err := json.Marshal(event)
		if err != nil {
			continue
		}
		w.Write(data)
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		log.Printf("⚠️ Event log write failed: %v", err)
	}
}

// GetStats returns counters for monitoring
func (el *EventLog) GetStats() map[string]interface{} {
	el.mu.Lock()
	pending := el.written - el.flushed
	el.mu.Unlock()

	return map[string]interface{}{
		"total":   el.totalCount.Load(),
		"dropped": el.droppedCount.Load(),
		"pending": pending,
		"running": el.running.Load(),
	}
}

// GetDroppedCount returns the number of dropped events
func (el *EventLog) GetDroppedCount() uint64 {
	return el.droppedCount.Load()
}

// GetTotalCount returns the total number of events accepted
func (el *EventLog) GetTotalCount() uint64 {
	return el.totalCount.Load()
}
