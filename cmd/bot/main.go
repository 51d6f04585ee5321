// Command bot plays game-hub sessions headlessly over the websocket. It
// is a smoke and load tool: each bot creates its own session, starts it,
// turns toward the nearest enemy and fires.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/joho/godotenv"
	"github.com/vmihailenco/msgpack/v5"
	"golang.org/x/sync/errgroup"

	"game-hub/internal/game"
	"game-hub/internal/game/vmath"
)

const (
	decideInterval = time.Second / 30
	approachRange  = 8.0  // walk forward while the target is farther than this
	fireCone       = 0.15 // radians of yaw error still worth a shot
)

type botConfig struct {
	server   string
	count    int
	duration time.Duration
	restart  bool
}

func loadConfig() botConfig {
	cfg := botConfig{
		server:   getEnv("BOT_SERVER", "http://localhost:3000"),
		count:    1,
		duration: 0,
		restart:  os.Getenv("BOT_RESTART") != "false",
	}
	if n, err := strconv.Atoi(os.Getenv("BOT_COUNT")); err == nil && n > 0 {
		cfg.count = n
	}
	if s, err := strconv.Atoi(os.Getenv("BOT_DURATION_SEC")); err == nil && s > 0 {
		cfg.duration = time.Duration(s) * time.Second
	}
	return cfg
}

func main() {
	_ = godotenv.Load(".env")
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if cfg.duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.duration)
		defer cancel()
	}

	log.Printf("🤖 Starting %d bot(s) against %s", cfg.count, cfg.server)

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < cfg.count; i++ {
		b := &bot{id: i, cfg: cfg}
		g.Go(func() error { return b.run(ctx) })
	}
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Fatalf("❌ %v", err)
	}
	log.Println("🤖 All bots stopped")
}

type bot struct {
	id  int
	cfg botConfig

	conn    *websocket.Conn
	writeMu sync.Mutex

	mu     sync.Mutex
	latest *game.GameSnapshot
	held   map[string]bool
	games  int
}

func (b *bot) run(ctx context.Context) error {
	id, err := createSession(ctx, b.cfg.server)
	if err != nil {
		return fmt.Errorf("bot %d: %w", b.id, err)
	}
	defer deleteSession(b.cfg.server, id)

	url := "ws" + strings.TrimPrefix(b.cfg.server, "http") + "/ws?format=msgpack&session=" + id
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("bot %d dial: %w", b.id, err)
	}
	defer conn.CloseNow()
	b.conn = conn
	b.held = make(map[string]bool)

	log.Printf("🤖 Bot %d playing session %s", b.id, id)

	if err := b.send(ctx, message{Type: "command", Name: "start"}); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.readLoop(gctx) })
	g.Go(func() error { return b.decideLoop(gctx) })
	err = g.Wait()

	conn.Close(websocket.StatusNormalClosure, "bye")
	if ctx.Err() != nil {
		log.Printf("🤖 Bot %d done after %d game(s)", b.id, b.gamesPlayed())
		return nil
	}
	return err
}

// message mirrors the server's input message.
type message struct {
	Type     string  `json:"type"`
	Code     string  `json:"code,omitempty"`
	DX       float64 `json:"dx,omitempty"`
	DY       float64 `json:"dy,omitempty"`
	Button   int     `json:"button"`
	DeltaY   float64 `json:"deltaY,omitempty"`
	Modifier bool    `json:"modifier,omitempty"`
	Locked   bool    `json:"locked,omitempty"`
	Hidden   bool    `json:"hidden,omitempty"`
	Name     string  `json:"name,omitempty"`
}

type outbound struct {
	Type string             `msgpack:"type"`
	Data *game.GameSnapshot `msgpack:"data,omitempty"`
}

func (b *bot) send(ctx context.Context, m message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	return b.conn.Write(ctx, websocket.MessageText, data)
}

func (b *bot) readLoop(ctx context.Context) error {
	for {
		_, data, err := b.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("bot %d read: %w", b.id, err)
		}

		var msg outbound
		if err := msgpack.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case game.CommandRequestPointerLock:
			// A headless client always grants the capture.
			if err := b.send(ctx, message{Type: "pointerlock", Locked: true}); err != nil {
				return err
			}
		case "snapshot":
			b.mu.Lock()
			b.latest = msg.Data
			b.mu.Unlock()
		}
	}
}

func (b *bot) decideLoop(ctx context.Context) error {
	ticker := time.NewTicker(decideInterval)
	defer ticker.Stop()

	var lastPhase game.Phase
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		b.mu.Lock()
		snap := b.latest
		b.mu.Unlock()
		if snap == nil {
			continue
		}

		if snap.Phase == game.PhaseGameOver && lastPhase != game.PhaseGameOver {
			b.mu.Lock()
			b.games++
			b.mu.Unlock()
			log.Printf("💀 Bot %d game over: score %d", b.id, snap.Session.Score)
			if b.cfg.restart {
				if err := b.send(ctx, message{Type: "command", Name: "restart"}); err != nil {
					return err
				}
			}
		}
		lastPhase = snap.Phase

		if snap.Phase != game.PhasePlaying {
			continue
		}
		for _, m := range decide(snap) {
			if !b.trackKeys(m) {
				continue
			}
			if err := b.send(ctx, m); err != nil {
				return err
			}
		}
	}
}

// trackKeys drops repeated keydown/keyup messages for the same key.
func (b *bot) trackKeys(m message) bool {
	switch m.Type {
	case "keydown":
		if b.held[m.Code] {
			return false
		}
		b.held[m.Code] = true
	case "keyup":
		if !b.held[m.Code] {
			return false
		}
		delete(b.held, m.Code)
	}
	return true
}

func (b *bot) gamesPlayed() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.games
}

// decide turns one snapshot into input messages.
func decide(snap *game.GameSnapshot) []message {
	target, dist, ok := nearestEnemy(snap)
	if !ok {
		return []message{{Type: "keyup", Code: "KeyW"}}
	}

	var out []message
	yawErr := yawTo(snap.Camera.Position, snap.Camera.Yaw, target)
	if dx := lookPixels(yawErr, snap.Session.MouseSensitivity); dx != 0 {
		out = append(out, message{Type: "mousemove", DX: dx})
	}
	if dist > approachRange {
		out = append(out, message{Type: "keydown", Code: "KeyW"})
	} else {
		out = append(out, message{Type: "keyup", Code: "KeyW"})
	}
	if math.Abs(yawErr) < fireCone {
		if slot := bestSlot(snap.Session); slot > 0 {
			out = append(out, message{Type: "keydown", Code: "Digit" + strconv.Itoa(slot)})
			out = append(out, message{Type: "keyup", Code: "Digit" + strconv.Itoa(slot)})
		}
		out = append(out, message{Type: "mousedown", Button: 0})
	}
	return out
}

func nearestEnemy(snap *game.GameSnapshot) (vmath.Vec3, float64, bool) {
	best, bestDist, found := vmath.Zero, math.Inf(1), false
	for _, e := range snap.Enemies {
		if e.State != game.EnemyActive {
			continue
		}
		if l := e.Position.FlatDist(snap.Camera.Position); l < bestDist {
			best, bestDist, found = e.Position, l, true
		}
	}
	return best, bestDist, found
}

// yawTo returns the signed yaw change that faces target from eye. Yaw 0
// looks down -Z and grows counter-clockwise seen from above.
func yawTo(eye vmath.Vec3, yaw float64, target vmath.Vec3) float64 {
	d := target.Sub(eye)
	want := math.Atan2(-d.X, -d.Z)
	diff := math.Mod(want-yaw+math.Pi, 2*math.Pi)
	if diff < 0 {
		diff += 2 * math.Pi
	}
	return diff - math.Pi
}

// lookPixels converts a yaw change into a pointer delta.
func lookPixels(yawErr, sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return math.Round(-yawErr / (game.LookRadiansPerPixel * sensitivity))
}

// bestSlot returns the slot of the strongest weapon with ammo when it is
// not already equipped, or 0.
func bestSlot(s game.SessionState) int {
	for slot := 3; slot >= 1; slot-- {
		id, ok := game.WeaponForSlot(slot)
		if !ok || s.Ammo[id] <= 0 {
			continue
		}
		if id == s.CurrentWeapon {
			return 0
		}
		return slot
	}
	return 0
}

func createSession(ctx context.Context, server string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, server+"/api/sessions", bytes.NewReader([]byte("{}")))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("create session: status %d", resp.StatusCode)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	return out.ID, nil
}

func deleteSession(server, id string) {
	req, err := http.NewRequest(http.MethodDelete, server+"/api/sessions/"+id, nil)
	if err != nil {
		return
	}
	if resp, err := http.DefaultClient.Do(req); err == nil {
		resp.Body.Close()
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
