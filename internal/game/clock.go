package game

import (
	"sync"
	"time"
)

// Frame is what every subsystem sees for one simulation tick.
// Elapsed and Delta are simulated seconds; both stand still while paused.
type Frame struct {
	Tick    uint64
	Elapsed float64
	Delta   float64
}

// TimeProvider supplies wall-clock time to the engine loop.
type TimeProvider interface {
	Now() time.Time
}

type realTimeProvider struct{}

func (realTimeProvider) Now() time.Time { return time.Now() }

// NewRealTimeProvider returns a TimeProvider backed by time.Now.
func NewRealTimeProvider() TimeProvider { return realTimeProvider{} }

// MockTimeProvider is a settable TimeProvider for tests.
type MockTimeProvider struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockTimeProvider creates a mock clock starting at start.
func NewMockTimeProvider(start time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: start}
}

func (m *MockTimeProvider) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Set jumps the clock to t.
func (m *MockTimeProvider) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *MockTimeProvider) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}

// WorldClock turns raw wall deltas into simulation frames.
// Paused time is dropped, not banked, so nothing catches up on resume.
type WorldClock struct {
	tick     uint64
	elapsed  float64
	maxDelta float64
	paused   bool
}

// NewWorldClock creates a paused clock. maxDelta bounds a single frame.
func NewWorldClock(maxDelta float64) *WorldClock {
	if maxDelta <= 0 {
		maxDelta = 0.1
	}
	return &WorldClock{maxDelta: maxDelta, paused: true}
}

// Advance produces the next frame from a raw wall-clock delta in seconds.
func (c *WorldClock) Advance(raw float64) Frame {
	c.tick++
	if c.paused || raw <= 0 {
		return Frame{Tick: c.tick, Elapsed: c.elapsed}
	}
	if raw > c.maxDelta {
		raw = c.maxDelta
	}
	c.elapsed += raw
	return Frame{Tick: c.tick, Elapsed: c.elapsed, Delta: raw}
}

func (c *WorldClock) Pause()  { c.paused = true }
func (c *WorldClock) Resume() { c.paused = false }

func (c *WorldClock) Paused() bool     { return c.paused }
func (c *WorldClock) Elapsed() float64 { return c.elapsed }
func (c *WorldClock) Tick() uint64     { return c.tick }

// Reset rewinds simulated time to zero and pauses the clock.
// The tick counter keeps counting so snapshots stay monotonic.
func (c *WorldClock) Reset() {
	c.elapsed = 0
	c.paused = true
}
