// Package gatewaytest provides an in-memory scoring gateway for tests and
// local runs. It speaks the same contract as the real gateway but fuses
// scores with deliberately simple arithmetic; it is scaffolding, not a
// reference fusion algorithm.
package gatewaytest

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/grit/internal/domain/model"
)

// Fusion scaffolding constants.
const (
	gritCeiling   = 100.0
	auFullScale   = 25.0 // five AUs maxed out
	leverageScale = 10.0
	scoreBacklog  = 16 // retained per session for polling
)

// Gateway is a scriptable in-memory scoring gateway.
type Gateway struct {
	mu       sync.Mutex
	sessions map[string]model.SessionConfig
	scores   map[string][]model.ScorePacket

	failTelemetry bool
	failHealth    bool
	down          bool

	telemetryBatches int
	eventsLogged     int
	cuesReceived     int
	sessionsEnded    int
}

// New creates an empty gateway.
func New() *Gateway {
	return &Gateway{
		sessions: make(map[string]model.SessionConfig),
		scores:   make(map[string][]model.ScorePacket),
	}
}

// FailTelemetry makes telemetry submissions return HTTP 500 until reset.
func (g *Gateway) FailTelemetry(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failTelemetry = fail
}

// FailHealth makes health checks report unhealthy until reset.
func (g *Gateway) FailHealth(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failHealth = fail
}

// Down makes every endpoint return HTTP 503 until reset.
func (g *Gateway) Down(down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.down = down
}

// TelemetryBatches returns how many telemetry submissions were accepted.
func (g *Gateway) TelemetryBatches() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.telemetryBatches
}

// EventsLogged returns how many events were accepted.
func (g *Gateway) EventsLogged() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.eventsLogged
}

// CuesReceived returns how many coaching cues were accepted.
func (g *Gateway) CuesReceived() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.cuesReceived
}

// SessionsEnded returns how many sessions were terminated.
func (g *Gateway) SessionsEnded() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sessionsEnded
}

// Handler returns the HTTP surface of the gateway.
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/sessions", g.handleCreateSession)
	mux.HandleFunc("POST /v1/sessions/{id}/telemetry", g.handleTelemetry)
	mux.HandleFunc("GET /v1/sessions/{id}/scores", g.handleScores)
	mux.HandleFunc("POST /v1/sessions/{id}/events", g.handleEvent)
	mux.HandleFunc("POST /v1/sessions/{id}/cues", g.handleCue)
	mux.HandleFunc("DELETE /v1/sessions/{id}", g.handleEndSession)
	mux.HandleFunc("GET /v1/health", g.handleHealth)
	return mux
}

func (g *Gateway) unavailable(w http.ResponseWriter) bool {
	g.mu.Lock()
	down := g.down
	g.mu.Unlock()
	if down {
		http.Error(w, "gateway down", http.StatusServiceUnavailable)
	}
	return down
}

func (g *Gateway) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	var cfg model.SessionConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}

	g.mu.Lock()
	_, exists := g.sessions[cfg.SessionID]
	if !exists {
		g.sessions[cfg.SessionID] = cfg
	}
	g.mu.Unlock()

	if exists {
		writeJSON(w, map[string]any{"success": false, "message": "session id already active"})
		return
	}
	writeJSON(w, map[string]any{"success": true, "session_id": cfg.SessionID})
}

func (g *Gateway) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	g.mu.Lock()
	fail := g.failTelemetry
	g.mu.Unlock()
	if fail {
		http.Error(w, "telemetry rejected", http.StatusInternalServerError)
		return
	}

	id := r.PathValue("id")
	var req struct {
		Packets []model.FeaturePacket `json:"packets"`
		Context model.GameContext     `json:"game_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		writeJSON(w, map[string]any{"success": false, "message": "unknown session"})
		return
	}

	g.telemetryBatches++
	scores := make([]model.ScorePacket, 0, len(req.Packets))
	for _, pkt := range req.Packets {
		scores = append(scores, fuse(id, pkt, req.Context))
	}
	g.scores[id] = append(g.scores[id], scores...)
	if n := len(g.scores[id]); n > scoreBacklog {
		g.scores[id] = g.scores[id][n-scoreBacklog:]
	}

	writeJSON(w, map[string]any{"success": true, "scores": scores})
}

func (g *Gateway) handleScores(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	id := r.PathValue("id")

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		writeJSON(w, map[string]any{"success": false, "message": "unknown session"})
		return
	}
	writeJSON(w, map[string]any{"success": true, "scores": g.scores[id]})
}

func (g *Gateway) handleEvent(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	id := r.PathValue("id")

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		writeJSON(w, map[string]any{"success": false, "message": "unknown session"})
		return
	}
	g.eventsLogged++
	writeJSON(w, map[string]any{"success": true})
}

func (g *Gateway) handleCue(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	id := r.PathValue("id")

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		writeJSON(w, map[string]any{"success": false, "message": "unknown session"})
		return
	}
	g.cuesReceived++
	writeJSON(w, map[string]any{"success": true})
}

func (g *Gateway) handleEndSession(w http.ResponseWriter, r *http.Request) {
	if g.unavailable(w) {
		return
	}
	id := r.PathValue("id")

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.sessions[id]; !ok {
		writeJSON(w, map[string]any{"success": false, "message": "unknown session"})
		return
	}
	delete(g.sessions, id)
	delete(g.scores, id)
	g.sessionsEnded++
	writeJSON(w, map[string]any{"success": true})
}

func (g *Gateway) handleHealth(w http.ResponseWriter, _ *http.Request) {
	if g.unavailable(w) {
		return
	}
	g.mu.Lock()
	healthy := !g.failHealth
	g.mu.Unlock()
	writeJSON(w, map[string]any{"healthy": healthy})
}

// fuse produces a placeholder composite: stress pulls the score down, game
// leverage amplifies the pull.
func fuse(sessionID string, pkt model.FeaturePacket, gameCtx model.GameContext) model.ScorePacket {
	var stress float64
	if pkt.Face != nil {
		au := pkt.Face.AU
		stress = (au.AU4 + au.AU5_7 + au.AU9_10 + au.AU14 + au.AU17_23_24) / auFullScale
	}
	amplify := 1 + gameCtx.LeverageIndex/leverageScale
	grit := gritCeiling * (1 - stress*amplify)
	if grit < 0 {
		grit = 0
	}

	level := "calm"
	switch {
	case stress > 0.6:
		level = "high"
	case stress > 0.3:
		level = "elevated"
	}

	return model.ScorePacket{
		SessionID: sessionID,
		Timestamp: time.Now(),
		Grit:      grit,
		Risk:      clamp01(stress * amplify),
		Components: model.GritComponents{
			Confidence: grit,
			Composure:  gritCeiling * (1 - stress),
			Focus:      grit,
			Resilience: gritCeiling * (1 - clamp01(stress*amplify)),
		},
		Explanations:    []string{"synthetic fusion for test support"},
		PressureContext: gameCtx.PressureContext,
		StressLevel:     level,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
