package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/grit/internal/adapters/capture"
	"github.com/okian/grit/internal/adapters/gateway"
	"github.com/okian/grit/internal/config"
	"github.com/okian/grit/internal/domain/face"
	"github.com/okian/grit/internal/domain/gamecontext"
	"github.com/okian/grit/internal/domain/model"
	"github.com/okian/grit/internal/feedsim"
	"github.com/okian/grit/internal/gatewaytest"
	"github.com/okian/grit/internal/session"
	"github.com/okian/grit/pkg/logger"
	"github.com/okian/grit/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
	statsLogInterval  = 10 * time.Second
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom pipeline metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Initialize logging
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Without a configured gateway, run an in-process mock so the pipeline
	// still has something to talk to.
	gatewayURL := cfg.GatewayURL
	if gatewayURL == "" {
		addr, shutdownMock, err := startMockGateway(ctx, log)
		if err != nil {
			log.Error(ctx, "failed to start in-process mock gateway", logger.Error(err))
			return
		}
		defer shutdownMock()
		gatewayURL = "http://" + addr
		log.Info(ctx, "no gateway configured; using in-process mock", logger.String("url", gatewayURL))
	}

	// Synthetic landmark feed standing in for the camera pipeline.
	feed := feedsim.New(feedsim.WithJitter(cfg.FeedJitter))
	extractor := face.New(feed, face.WithBaselineSamples(cfg.BaselineSamples))
	if err := extractor.Initialize(ctx); err != nil {
		log.Error(ctx, "failed to initialize feature extractor", logger.Error(err))
		return
	}

	engine := gamecontext.New()
	gw := gateway.New(gatewayURL, gateway.WithTimeout(time.Duration(cfg.GatewayTimeoutMS)*time.Millisecond))

	manager := session.New(gw, engine,
		session.WithLogger(log.Named("session")),
		session.WithPollInterval(time.Duration(cfg.PollIntervalMS)*time.Millisecond),
		session.WithHealthInterval(time.Duration(cfg.HealthIntervalMS)*time.Millisecond),
	)

	if err := manager.StartSession(ctx, model.SessionConfig{
		PlayerID:   cfg.PlayerID,
		Sport:      cfg.Sport,
		TargetFPS:  cfg.TargetFPS,
		EnableFace: true,
	}); err != nil {
		log.Error(ctx, "failed to start session", logger.Error(err))
		return
	}

	// Expose the custom registry for scraping.
	metricsSrv := startMetricsServer(ctx, log, cfg.MetricsAddr)

	slot := capture.NewSlot()
	go feed.Stream(ctx, cfg.TargetFPS, slot.Publish)
	go func() {
		runPipeline(ctx, log, slot, extractor, manager, cfg.BatchSize)
	}()
	go logStats(ctx, log, manager)

	// Wait for shutdown signal
	<-ctx.Done()
	log.Info(ctx, "shutting down...")

	slot.Close()

	// The root context is already cancelled; end the session on a fresh one.
	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	manager.StopSession(stopCtx)

	if err := metricsSrv.Shutdown(stopCtx); err != nil {
		log.Error(ctx, "metrics server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "stopped")
}

// runPipeline drains the capture slot, extracts facial features and ships
// batches of packets to the active session.
func runPipeline(ctx context.Context, log logger.Logger, slot *capture.Slot, extractor *face.Extractor, manager *session.Manager, batchSize int) {
	batch := make([]model.FeaturePacket, 0, batchSize)

	for {
		frame, ok := slot.Next(ctx)
		if !ok {
			return
		}

		features, present, err := extractor.ProcessFrame(ctx, frame)
		metrics.RecordFrameProcessed()
		metrics.UpdateFramesDropped(slot.Drops())
		if err != nil {
			log.Error(ctx, "frame processing failed", logger.Error(err))
			metrics.RecordErrorByComponent("pipeline", "process")
			continue
		}
		if !present {
			continue
		}

		metrics.RecordFaceDetected()
		metrics.UpdateBaselineEstablished(extractor.BaselineEstablished())
		metrics.UpdateEyeAspectRatio(features.EyeAR)
		metrics.UpdateAUIntensity("au4", features.AU.AU4)
		metrics.UpdateAUIntensity("au5_7", features.AU.AU5_7)
		metrics.UpdateAUIntensity("au9_10", features.AU.AU9_10)
		metrics.UpdateAUIntensity("au14", features.AU.AU14)
		metrics.UpdateAUIntensity("au17_23_24", features.AU.AU17_23_24)

		fc := features
		batch = append(batch, model.FeaturePacket{
			Timestamp: frame.Timestamp,
			Face:      &fc,
		})
		if len(batch) < batchSize {
			continue
		}

		if err := manager.SendTelemetry(ctx, batch); err != nil {
			log.Warn(ctx, "telemetry batch failed", logger.Error(err), logger.Int("packets", len(batch)))
		}
		batch = batch[:0]
	}
}

// startMetricsServer serves the Prometheus registry on /metrics.
func startMetricsServer(ctx context.Context, log logger.Logger, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting metrics server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "metrics server failed", logger.Error(err))
		}
	}()

	return srv
}

// startMockGateway binds a loopback listener for the in-process mock and
// returns its address plus a shutdown func.
func startMockGateway(ctx context.Context, log logger.Logger) (string, func(), error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return "", nil, err
	}

	srv := &http.Server{
		Handler:           gatewaytest.New().Handler(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Error(ctx, "mock gateway failed", logger.Error(err))
		}
	}()

	shutdown := func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
	return ln.Addr().String(), shutdown, nil
}

// logStats periodically reports pipeline throughput.
func logStats(ctx context.Context, log logger.Logger, manager *session.Manager) {
	ticker := time.NewTicker(statsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := manager.Stats()
			fields := []logger.Field{
				logger.Float64("fps", stats.FPS),
				logger.Float64("latency_ms", stats.LatencyMS),
				logger.Int64("packets", stats.PacketsProcessed),
				logger.Int64("errors", stats.ErrorCount),
				logger.Bool("connected", manager.Connected()),
			}
			if score, ok := manager.CurrentScore(); ok {
				fields = append(fields, logger.Float64("grit", score.Grit), logger.Float64("risk", score.Risk))
			}
			log.Info(ctx, "pipeline stats", fields...)
		}
	}
}
