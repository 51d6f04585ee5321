package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"game-hub/internal/game"
	"game-hub/internal/hub"
)

const (
	// MaxWSConnectionsTotal caps websocket clients across all sessions.
	MaxWSConnectionsTotal = 500

	writeWait       = 5 * time.Second
	maxInputMessage = 4096
)

// Snapshot encodings a client may ask for with ?format=.
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
)

var errUnknownMessage = errors.New("unknown input message")

// inputMessage is one browser event. Which fields matter depends on Type.
type inputMessage struct {
	Type     string  `json:"type"`
	Code     string  `json:"code,omitempty"`     // keydown, keyup
	DX       float64 `json:"dx,omitempty"`       // mousemove
	DY       float64 `json:"dy,omitempty"`       // mousemove
	Button   int     `json:"button,omitempty"`   // mousedown
	DeltaY   float64 `json:"deltaY,omitempty"`   // wheel
	Modifier bool    `json:"modifier,omitempty"` // wheel
	Locked   bool    `json:"locked,omitempty"`   // pointerlock
	Hidden   bool    `json:"hidden,omitempty"`   // visibility
	Name     string  `json:"name,omitempty"`     // command
}

// applyInput forwards msg to the session's aggregator.
func applyInput(in *game.InputAggregator, msg inputMessage) error {
	switch msg.Type {
	case "keydown":
		in.KeyDown(msg.Code)
	case "keyup":
		in.KeyUp(msg.Code)
	case "mousemove":
		in.MouseMove(msg.DX, msg.DY)
	case "mousedown":
		in.MouseDown(msg.Button)
	case "wheel":
		in.Wheel(msg.DeltaY, msg.Modifier)
	case "pointerlock":
		in.PointerLockChange(msg.Locked)
	case "visibility":
		in.VisibilityChange(msg.Hidden)
	case "blur":
		in.Blur()
	case "command":
		return in.Command(msg.Name)
	default:
		return errUnknownMessage
	}
	return nil
}

// outbound is the envelope for everything the server sends.
type outbound struct {
	Type string             `json:"type" msgpack:"type"`
	Data *game.GameSnapshot `json:"data,omitempty" msgpack:"data,omitempty"`
}

// encodeOutbound marshals msg in format and returns the matching frame type.
func encodeOutbound(format string, msg outbound) ([]byte, int, error) {
	if format == FormatMsgpack {
		b, err := msgpack.Marshal(&msg)
		return b, websocket.BinaryMessage, err
	}
	b, err := json.Marshal(msg)
	return b, websocket.TextMessage, err
}

// SessionSocket serves /ws?session={id}[&format=msgpack]: one client
// driving one session. Reads input until the client goes away and pushes
// snapshots on a fixed interval.
type SessionSocket struct {
	hub      SessionHub
	limiter  *WebSocketRateLimiter
	interval time.Duration
	input    InputRateConfig
	upgrader websocket.Upgrader
}

// NewSessionSocket creates the websocket handler.
func NewSessionSocket(h SessionHub, limiter *WebSocketRateLimiter, origins *OriginChecker, interval time.Duration, input InputRateConfig) *SessionSocket {
	if interval <= 0 {
		interval = 50 * time.Millisecond
	}
	return &SessionSocket{
		hub:      h,
		limiter:  limiter,
		interval: interval,
		input:    input,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origins.Allowed(origin) {
					return true
				}
				log.Printf("⚠️ WebSocket connection rejected from origin: %s", origin)
				RecordConnectionRejected("origin")
				return false
			},
		},
	}
}

// ServeHTTP upgrades the request and runs the session pump.
func (ss *SessionSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s, err := ss.hub.Get(r.URL.Query().Get("session"))
	if err != nil {
		writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = FormatJSON
	}
	if format != FormatJSON && format != FormatMsgpack {
		writeError(w, "format must be json or msgpack", http.StatusBadRequest)
		return
	}

	if ss.limiter.Total() >= MaxWSConnectionsTotal {
		RecordConnectionRejected("ws_total_limit")
		writeError(w, "Too many connections", http.StatusServiceUnavailable)
		return
	}

	ip := GetClientIP(r)
	if !ss.limiter.Allow(ip) {
		log.Printf("⚠️ WebSocket connection rejected from %s: per-IP limit reached", ip)
		RecordConnectionRejected("ws_ip_limit")
		writeError(w, "Too many connections from your IP", http.StatusTooManyRequests)
		return
	}

	conn, err := ss.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		ss.limiter.Release(ip)
		return
	}

	detach := s.Attach()
	UpdateWSConnections(ss.limiter.Total())
	log.Printf("📱 Client %s joined session %s (%s)", ip, s.ID, format)

	defer func() {
		conn.Close()
		detach()
		ss.limiter.Release(ip)
		UpdateWSConnections(ss.limiter.Total())
		log.Printf("📱 Client %s left session %s", ip, s.ID)
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ss.readLoop(conn, s)
	}()
	ss.writeLoop(conn, s, format, done)
}

// readLoop applies client input until the connection fails.
func (ss *SessionSocket) readLoop(conn *websocket.Conn, s *hub.Session) {
	conn.SetReadLimit(maxInputMessage)
	in := s.Engine.Input()
	throttle := NewInputLimiter(ss.input)
	defer func() {
		if n := throttle.Dropped(); n > 0 {
			log.Printf("🐢 Throttled %d input messages on session %s", n, s.ID)
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		IncrementWSMessages("in")
		s.Touch()

		var msg inputMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if !throttle.Allow(msg.Type) {
			RecordInputThrottled()
			continue
		}
		if err := applyInput(in, msg); err != nil {
			log.Printf("📨 Ignored %q from session %s: %v", msg.Type, s.ID, err)
		}
	}
}

// writeLoop is the only writer on conn. It sends a snapshot whenever a new
// one was published since the last push, and forwards engine commands.
func (ss *SessionSocket) writeLoop(conn *websocket.Conn, s *hub.Session, format string, done <-chan struct{}) {
	ticker := time.NewTicker(ss.interval)
	defer ticker.Stop()

	var lastSeq uint64
	for {
		select {
		case <-done:
			return

		case cmd := <-s.Engine.Commands():
			if err := ss.send(conn, format, outbound{Type: cmd.Type}); err != nil {
				return
			}

		case <-ticker.C:
			snap := s.Engine.GetSnapshot()
			if snap.Sequence == lastSeq {
				continue
			}
			lastSeq = snap.Sequence
			if err := ss.send(conn, format, outbound{Type: "snapshot", Data: snap}); err != nil {
				return
			}
		}
	}
}

func (ss *SessionSocket) send(conn *websocket.Conn, format string, msg outbound) error {
	data, kind, err := encodeOutbound(format, msg)
	if err != nil {
		log.Printf("⚠️ Encode %s failed: %v", msg.Type, err)
		return nil
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(kind, data); err != nil {
		return err
	}
	IncrementWSMessages("out")
	return nil
}
