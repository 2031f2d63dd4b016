// Package session owns the telemetry session lifecycle: it batches feature
// packets with the current game context, transports them to the scoring
// gateway, polls for fused scores, and supervises connection health
// independently of session activity.
//
// Connection health is deliberately orthogonal to the session state
// machine: a failed health check flips the connected flag and nothing
// else. Telemetry keeps being attempted while disconnected.
package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/okian/grit/internal/domain/model"
	"github.com/okian/grit/pkg/logger"
	"github.com/okian/grit/pkg/metrics"
)

// Timer periods and defaults.
const (
	defaultPollInterval   = 1 * time.Second
	defaultHealthInterval = 30 * time.Second
	defaultTargetFPS      = 30
	defaultBaselineMS     = 5000

	endSessionTimeout = 3 * time.Second

	fpsSmoothing = 0.2 // EWMA weight for the instantaneous rate
)

// State is the session state machine position.
type State int

// Session states. Connection health is tracked separately and never forces
// a state transition.
const (
	StateIdle State = iota
	StateStarting
	StateActive
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStarting:
		return "starting"
	case StateActive:
		return "active"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}

// Gateway is the scoring-gateway surface the manager depends on.
type Gateway interface {
	CreateSession(ctx context.Context, cfg model.SessionConfig) (string, error)
	SubmitTelemetry(ctx context.Context, sessionID string, packets []model.FeaturePacket, gameCtx model.GameContext) ([]model.ScorePacket, error)
	PollScores(ctx context.Context, sessionID string) ([]model.ScorePacket, error)
	LogEvent(ctx context.Context, sessionID, eventType, outcome string, meta map[string]any) error
	SendCoachingCue(ctx context.Context, sessionID string, cue model.CoachingCue) error
	HealthCheck(ctx context.Context) error
	EndSession(ctx context.Context, sessionID string) error
}

// ContextSource supplies the game-context snapshot attached to outgoing
// telemetry. The gamecontext engine satisfies it.
type ContextSource interface {
	Context() model.GameContext
}

// Manager owns at most one active session. It is the single session
// handle: a second StartSession while one is live fails with
// ErrSessionActive.
type Manager struct {
	gw       Gateway
	contexts ContextSource
	logger   logger.Logger

	pollInterval   time.Duration
	healthInterval time.Duration

	mu         sync.Mutex
	state      State
	sessionID  string
	config     model.SessionConfig
	startedAt  time.Time
	cancel     context.CancelFunc
	generation uint64

	latencyAvg     float64
	latencySamples int64
	fps            float64
	lastSendAt     time.Time
	score          *model.ScorePacket
	lastErr        error

	connected atomic.Bool
	packets   atomic.Int64
	errors    atomic.Int64
}

// Option applies a configuration option to the Manager.
type Option func(*Manager)

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithPollInterval overrides the score polling period.
func WithPollInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.pollInterval = d
		}
	}
}

// WithHealthInterval overrides the health check period.
func WithHealthInterval(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.healthInterval = d
		}
	}
}

// New constructs a Manager in the Idle state.
func New(gw Gateway, contexts ContextSource, opts ...Option) *Manager {
	m := &Manager{
		gw:             gw,
		contexts:       contexts,
		pollInterval:   defaultPollInterval,
		healthInterval: defaultHealthInterval,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartSession validates cfg, registers the session with the gateway, and
// starts the score-poll and health-check loops. On any failure the state
// returns to Idle, no loops run, and the error wraps ErrSessionCreation.
func (m *Manager) StartSession(ctx context.Context, cfg model.SessionConfig) error {
	if err := normalize(&cfg); err != nil {
		return err
	}

	m.mu.Lock()
	if m.logger == nil {
		m.logger = logger.Get().Named("session")
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return fmt.Errorf("%w: state %s", ErrSessionActive, m.state)
	}
	m.state = StateStarting
	m.mu.Unlock()
	metrics.UpdateSessionState(int(StateStarting))

	sessionID, err := m.gw.CreateSession(ctx, cfg)
	if err != nil {
		m.mu.Lock()
		m.state = StateIdle
		m.mu.Unlock()
		metrics.UpdateSessionState(int(StateIdle))
		metrics.RecordErrorByComponent("session", "create")
		return fmt.Errorf("%w: %v", ErrSessionCreation, err)
	}

	loopCtx, cancel := context.WithCancel(context.Background())

	m.mu.Lock()
	m.sessionID = sessionID
	m.config = cfg
	m.startedAt = time.Now()
	m.cancel = cancel
	m.generation++
	gen := m.generation
	m.state = StateActive
	m.lastErr = nil
	m.mu.Unlock()

	m.connected.Store(true)
	metrics.UpdateConnected(true)
	metrics.UpdateSessionState(int(StateActive))

	go m.pollLoop(loopCtx, sessionID, gen)
	go m.healthLoop(loopCtx, gen)

	m.logger.Info(ctx, "session started",
		logger.String("session_id", sessionID),
		logger.String("player_id", cfg.PlayerID),
		logger.Int("target_fps", cfg.TargetFPS),
	)
	return nil
}

// StopSession cancels both loops, terminates the session on the gateway
// (best-effort: a failure there is logged, never propagated), resets all
// stats counters, and clears the current score. Stopping an idle manager
// is a no-op.
func (m *Manager) StopSession(ctx context.Context) {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return
	}
	m.state = StateStopping
	sessionID := m.sessionID
	cancel := m.cancel
	m.mu.Unlock()
	metrics.UpdateSessionState(int(StateStopping))

	if cancel != nil {
		cancel()
	}

	endCtx, endCancel := context.WithTimeout(ctx, endSessionTimeout)
	defer endCancel()
	if err := m.gw.EndSession(endCtx, sessionID); err != nil {
		m.logger.Warn(ctx, "end session failed", logger.String("session_id", sessionID), logger.Error(err))
	}

	m.mu.Lock()
	m.state = StateIdle
	m.sessionID = ""
	m.cancel = nil
	m.startedAt = time.Time{}
	m.latencyAvg = 0
	m.latencySamples = 0
	m.fps = 0
	m.lastSendAt = time.Time{}
	m.score = nil
	m.lastErr = nil
	m.mu.Unlock()

	m.packets.Store(0)
	m.errors.Store(0)
	m.connected.Store(false)
	metrics.UpdateConnected(false)
	metrics.UpdateSessionState(int(StateIdle))

	m.logger.Info(ctx, "session stopped", logger.String("session_id", sessionID))
}

// SendTelemetry transmits a batch of feature packets with the current game
// context attached. A transport failure increments the error counter and
// wraps ErrTelemetryTransport, but never tears the session down.
func (m *Manager) SendTelemetry(ctx context.Context, packets []model.FeaturePacket) error {
	m.mu.Lock()
	if m.state != StateActive {
		m.mu.Unlock()
		return ErrNoSession
	}
	sessionID := m.sessionID
	gen := m.generation
	m.mu.Unlock()

	for i := range packets {
		if packets[i].SessionID == "" {
			packets[i].SessionID = sessionID
		}
	}

	gameCtx := m.contexts.Context()
	metrics.UpdateLeverageIndex(gameCtx.LeverageIndex)

	start := time.Now()
	scores, err := m.gw.SubmitTelemetry(ctx, sessionID, packets, gameCtx)
	rtt := time.Since(start)

	if err != nil {
		m.errors.Add(1)
		m.setLastErr(fmt.Errorf("%w: %v", ErrTelemetryTransport, err))
		metrics.RecordErrorByComponent("session", "telemetry")
		return fmt.Errorf("%w: %v", ErrTelemetryTransport, err)
	}

	m.packets.Add(int64(len(packets)))
	metrics.RecordPacketsSent(len(packets))
	metrics.RecordTelemetryLatency(float64(rtt.Milliseconds()))
	m.observeSend(gen, rtt, len(packets), scores)
	return nil
}

// LogEvent records a discrete game event against the active session.
// Failures are non-fatal to the session.
func (m *Manager) LogEvent(ctx context.Context, eventType, outcome string, meta map[string]any) error {
	sessionID, err := m.activeSession()
	if err != nil {
		return err
	}
	if err := m.gw.LogEvent(ctx, sessionID, eventType, outcome, meta); err != nil {
		m.errors.Add(1)
		m.setLastErr(fmt.Errorf("%w: %v", ErrEventLogging, err))
		metrics.RecordErrorByComponent("session", "event")
		return fmt.Errorf("%w: %v", ErrEventLogging, err)
	}
	return nil
}

// SendCoachingCue dispatches an advisory cue against the active session.
// Failures are non-fatal to the session.
func (m *Manager) SendCoachingCue(ctx context.Context, cue model.CoachingCue) error {
	sessionID, err := m.activeSession()
	if err != nil {
		return err
	}
	if cue.Timestamp.IsZero() {
		cue.Timestamp = time.Now()
	}
	if err := m.gw.SendCoachingCue(ctx, sessionID, cue); err != nil {
		m.errors.Add(1)
		m.setLastErr(fmt.Errorf("%w: %v", ErrCoachingCue, err))
		metrics.RecordErrorByComponent("session", "cue")
		return fmt.Errorf("%w: %v", ErrCoachingCue, err)
	}
	return nil
}

// State returns the current state machine position.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connected reports the latest health-check verdict. False is a warning,
// not a stop: telemetry continues best-effort while disconnected.
func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// CurrentScore returns the latest fused score, treating each ScorePacket
// as "latest known" rather than a reply to a specific packet.
func (m *Manager) CurrentScore() (model.ScorePacket, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.score == nil {
		return model.ScorePacket{}, false
	}
	return *m.score, true
}

// LastError returns the most recent non-fatal error, if any.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

// Stats returns a snapshot of client-side observability counters.
func (m *Manager) Stats() model.SystemStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	var uptime time.Duration
	if m.state == StateActive {
		uptime = time.Since(m.startedAt)
	}
	return model.SystemStats{
		FPS:              m.fps,
		LatencyMS:        m.latencyAvg,
		PacketsProcessed: m.packets.Load(),
		ErrorCount:       m.errors.Load(),
		Uptime:           uptime,
	}
}

func (m *Manager) activeSession() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateActive {
		return "", ErrNoSession
	}
	return m.sessionID, nil
}

func (m *Manager) setLastErr(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

// observeSend folds one successful round-trip into the rolling latency
// average, the fps estimate, and the current score. Results from a
// session that has since been stopped are discarded.
func (m *Manager) observeSend(gen uint64, rtt time.Duration, count int, scores []model.ScorePacket) {
	now := time.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.generation || m.state != StateActive {
		return
	}

	m.latencySamples++
	m.latencyAvg += (float64(rtt.Milliseconds()) - m.latencyAvg) / float64(m.latencySamples)

	since := m.lastSendAt
	if since.IsZero() {
		since = m.startedAt
	}
	if dt := now.Sub(since).Seconds(); dt > 0 {
		inst := float64(count) / dt
		if m.fps == 0 {
			m.fps = inst
		} else {
			m.fps += fpsSmoothing * (inst - m.fps)
		}
	}
	m.lastSendAt = now

	if len(scores) > 0 {
		latest := scores[len(scores)-1]
		m.score = &latest
		metrics.UpdateGritIndex(latest.Grit)
		metrics.UpdateRisk(latest.Risk)
	}
	metrics.UpdateCaptureFPS(m.fps)
}

// pollLoop fetches fused scores on a fixed period for as long as the
// session lives. It is independent of both explicit sends and the health
// loop; overlapping in-flight requests are possible under latency and
// tolerated.
func (m *Manager) pollLoop(ctx context.Context, sessionID string, gen uint64) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			scores, err := m.gw.PollScores(ctx, sessionID)
			if err != nil {
				m.logger.Debug(ctx, "score poll failed", logger.Error(err))
				metrics.RecordErrorByComponent("session", "poll")
				continue
			}
			metrics.RecordScorePoll()

			if len(scores) == 0 {
				continue
			}
			latest := scores[len(scores)-1]

			m.mu.Lock()
			if gen == m.generation && m.state == StateActive {
				m.score = &latest
			}
			m.mu.Unlock()
			metrics.UpdateGritIndex(latest.Grit)
			metrics.UpdateRisk(latest.Risk)
		}
	}
}

// healthLoop pings the gateway on a fixed period. A failure flips the
// connected flag and records the error; it never stops the session or the
// other loop.
func (m *Manager) healthLoop(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(m.healthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := m.gw.HealthCheck(ctx)

			m.mu.Lock()
			stale := gen != m.generation
			m.mu.Unlock()
			if stale {
				return
			}

			if err != nil {
				m.connected.Store(false)
				m.errors.Add(1)
				m.setLastErr(fmt.Errorf("%w: %v", ErrHealthCheck, err))
				metrics.UpdateConnected(false)
				metrics.RecordErrorByComponent("session", "health")
				m.logger.Warn(ctx, "health check failed", logger.Error(err))
				continue
			}
			if !m.connected.Swap(true) {
				m.logger.Info(ctx, "gateway connection restored")
			}
			metrics.UpdateConnected(true)
		}
	}
}

// normalize validates the session config and fills defaults. A config the
// gateway could never accept fails fast with ErrSessionCreation.
func normalize(cfg *model.SessionConfig) error {
	if cfg.PlayerID == "" {
		return fmt.Errorf("%w: player id required", ErrSessionCreation)
	}
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
	}
	if cfg.TargetFPS <= 0 {
		cfg.TargetFPS = defaultTargetFPS
	}
	if cfg.BaselineDurationMS <= 0 {
		cfg.BaselineDurationMS = defaultBaselineMS
	}
	return nil
}
