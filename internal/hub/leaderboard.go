package hub

import (
	"sort"
	"sync"
	"time"
)

// DefaultLeaderboardSize is how many results the board keeps.
const DefaultLeaderboardSize = 10

// LeaderboardEntry is one finished session's result.
type LeaderboardEntry struct {
	SessionID  string    `json:"sessionId"`
	Score      int       `json:"score"`
	Kills      int       `json:"kills"`
	Survived   float64   `json:"survived"` // simulated seconds
	FinishedAt time.Time `json:"finishedAt"`
	Rank       int       `json:"rank"`
}

// Leaderboard keeps the best results of sessions that have ended,
// highest score first. It lives in memory only.
type Leaderboard struct {
	mu      sync.RWMutex
	entries []LeaderboardEntry
	size    int
}

// NewLeaderboard creates a board holding the top size results.
func NewLeaderboard(size int) *Leaderboard {
	if size <= 0 {
		size = DefaultLeaderboardSize
	}
	return &Leaderboard{entries: make([]LeaderboardEntry, 0, size+1), size: size}
}

// Record adds a result. Zero scores are not recorded. Returns the rank the
// entry landed at, or 0 when it did not make the board.
func (lb *Leaderboard) Record(e LeaderboardEntry) int {
	if e.Score <= 0 {
		return 0
	}

	lb.mu.Lock()
	defer lb.mu.Unlock()

	lb.entries = append(lb.entries, e)
	sort.SliceStable(lb.entries, func(i, j int) bool {
		a, b := lb.entries[i], lb.entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.FinishedAt.Before(b.FinishedAt)
	})
	if len(lb.entries) > lb.size {
		lb.entries = lb.entries[:lb.size]
	}

	for i := range lb.entries {
		lb.entries[i].Rank = i + 1
	}
	for _, entry := range lb.entries {
		if entry.SessionID == e.SessionID && entry.FinishedAt.Equal(e.FinishedAt) {
			return entry.Rank
		}
	}
	return 0
}

// Top returns up to n entries, best first.
func (lb *Leaderboard) Top(n int) []LeaderboardEntry {
	lb.mu.RLock()
	defer lb.mu.RUnlock()

	if n <= 0 || n > len(lb.entries) {
		n = len(lb.entries)
	}
	out := make([]LeaderboardEntry, n)
	copy(out, lb.entries[:n])
	return out
}

// Len returns the number of recorded entries.
func (lb *Leaderboard) Len() int {
	lb.mu.RLock()
	defer lb.mu.RUnlock()
	return len(lb.entries)
}
