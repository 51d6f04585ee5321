package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"game-hub/internal/game"
	"game-hub/internal/hub"
)

const (
	defaultEventCount = 50
	maxEventCount     = 1024
)

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"status":   "ok",
		"sessions": h.hub.Count(),
	})
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	enemies, bullets, clients := 0, 0, 0
	phases := make(map[string]int)
	for _, s := range h.hub.List() {
		enemies += s.Enemies
		bullets += s.Bullets
		clients += s.Clients
		phases[s.Phase.String()]++
	}

	stats := map[string]interface{}{
		"sessions":     h.hub.Count(),
		"totalCreated": h.hub.TotalCreated(),
		"phases":       phases,
		"enemies":      enemies,
		"bullets":      bullets,
		"clients":      clients,
		"rateLimit":    h.limiter.GetStats(),
	}
	if h.wsLimiter != nil {
		stats["websocket"] = h.wsLimiter.GetStats()
	}
	writeJSON(w, stats)
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	n, err := queryInt(r, "n", hub.DefaultLeaderboardSize)
	if err != nil {
		writeError(w, "n must be a number", http.StatusBadRequest)
		return
	}
	writeJSON(w, h.hub.Leaderboard().Top(n))
}

func (h *routerHandlers) handleGetWeapons(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, game.GetAllWeapons())
}

func (h *routerHandlers) handleGetEnemies(w http.ResponseWriter, r *http.Request) {
	out := make([]game.EnemyStats, 0, len(game.EnemyOrder))
	for _, t := range game.EnemyOrder {
		out = append(out, game.GetEnemyStats(t))
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.hub.List())
}

func (h *routerHandlers) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Seed int64 `json:"seed"`
	}
	// An empty body means "pick a seed for me".
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return
	}

	s, err := h.hub.Create(req.Seed)
	if errors.Is(err, hub.ErrSessionLimit) {
		writeError(w, "Session limit reached", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		log.Printf("⚠️ Create session failed: %v", err)
		writeError(w, "Could not create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Location", "/api/sessions/"+s.ID)
	writeJSONStatus(w, http.StatusCreated, map[string]interface{}{
		"id":    s.ID,
		"seed":  s.Seed,
		"phase": s.Engine.Phase(),
		"ws":    "/ws?session=" + s.ID,
	})
}

func (h *routerHandlers) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, s.Engine.GetSnapshot())
}

func (h *routerHandlers) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.hub.Remove(chi.URLParam(r, "id")); err != nil {
		writeError(w, "Session not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionCommand queues start, resume, restart or reset. The phase
// changes on the session's next tick.
func (h *routerHandlers) handleSessionCommand(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	command := chi.URLParam(r, "command")
	if err := s.Engine.Input().Command(command); err != nil {
		writeError(w, "Unknown command: "+command, http.StatusBadRequest)
		return
	}
	s.Touch()

	writeJSONStatus(w, http.StatusAccepted, map[string]interface{}{
		"queued": command,
		"phase":  s.Engine.Phase(),
	})
}

func (h *routerHandlers) handleSessionEvents(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	n, err := queryInt(r, "n", defaultEventCount)
	if err != nil || n <= 0 {
		writeError(w, "n must be a positive number", http.StatusBadRequest)
		return
	}
	if n > maxEventCount {
		n = maxEventCount
	}

	writeJSON(w, map[string]interface{}{
		"events": s.Engine.RecentEvents(n),
		"stats":  s.Engine.GetEventLogStats(),
	})
}

func (h *routerHandlers) handleMinimap(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.Minimap.EncodePNG(w, s.Engine.GetSnapshot()); err != nil {
		log.Printf("⚠️ Minimap for %s failed: %v", s.ID, err)
	}
}

// session resolves {id} or writes a 404.
func (h *routerHandlers) session(w http.ResponseWriter, r *http.Request) (*hub.Session, bool) {
	s, err := h.hub.Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return s, true
}

// Helper functions (package-level for reuse)

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	writeJSONStatus(w, http.StatusOK, data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSONStatus(w, code, map[string]string{"error": message})
}
