package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	servernet "navwalk/internal/net"
	"navwalk/internal/net/ws"
	"navwalk/internal/observability"
	"navwalk/internal/sim"
	"navwalk/internal/telemetry"
	"navwalk/internal/world"
	"navwalk/logging"
	loggingSinks "navwalk/logging/sinks"
)

const (
	DefaultAddr         = ":8080"
	DefaultStepInterval = sim.DefaultStepInterval
	shutdownTimeout     = 5 * time.Second
)

type Config struct {
	Logger        telemetry.Logger
	Observability observability.Config

	Addr             string
	StepInterval     time.Duration
	DecisionInterval time.Duration
	DecisionJitter   time.Duration
	World            world.Config
	// RosterPath points at a JSON roster; the embedded roster is used when
	// empty.
	RosterPath string
	// JSONLogPath adds a JSON sink writing to the given file.
	JSONLogPath string
	MinSeverity logging.Severity
}

func DefaultConfig() Config {
	return Config{
		Addr:             DefaultAddr,
		StepInterval:     DefaultStepInterval,
		DecisionInterval: sim.DefaultDecisionInterval,
		DecisionJitter:   sim.DefaultDecisionJitter,
		World:            world.DefaultConfig(),
		MinSeverity:      logging.SeverityInfo,
	}
}

// ApplyEnv overrides cfg from NAVWALK_* variables read through getenv.
// Invalid values are reported to logger and ignored.
func ApplyEnv(cfg Config, getenv func(string) string, logger telemetry.Logger) Config {
	if getenv == nil {
		getenv = os.Getenv
	}
	if logger == nil {
		logger = telemetry.LoggerFunc(nil)
	}

	if raw := getenv("NAVWALK_ADDR"); raw != "" {
		cfg.Addr = raw
	}
	durations := []struct {
		name   string
		target *time.Duration
	}{
		{"NAVWALK_STEP_INTERVAL", &cfg.StepInterval},
		{"NAVWALK_TICK_INTERVAL", &cfg.DecisionInterval},
		{"NAVWALK_TICK_JITTER", &cfg.DecisionJitter},
	}
	for _, d := range durations {
		raw := getenv(d.name)
		if raw == "" {
			continue
		}
		value, err := time.ParseDuration(raw)
		if err != nil || value < 0 {
			logger.Printf("invalid %s=%q: %v", d.name, raw, err)
			continue
		}
		*d.target = value
	}
	if raw := getenv("NAVWALK_SEED"); raw != "" {
		cfg.World.Seed = raw
	}
	for name, target := range map[string]*float64{"NAVWALK_WIDTH": &cfg.World.Width, "NAVWALK_DEPTH": &cfg.World.Depth} {
		raw := getenv(name)
		if raw == "" {
			continue
		}
		value, err := strconv.ParseFloat(raw, 64)
		if err != nil || value <= 0 {
			logger.Printf("invalid %s=%q: %v", name, raw, err)
			continue
		}
		*target = value
	}
	if raw := getenv("NAVWALK_ROSTER"); raw != "" {
		cfg.RosterPath = raw
	}
	if raw := getenv("NAVWALK_LOG_JSON"); raw != "" {
		cfg.JSONLogPath = raw
	}
	if raw := getenv("NAVWALK_LOG_LEVEL"); raw != "" {
		cfg.MinSeverity = logging.ParseSeverity(strings.ToLower(raw))
	}
	if raw := getenv("ENABLE_PPROF_TRACE"); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.Observability.EnablePprofTrace = value
		} else {
			logger.Printf("invalid ENABLE_PPROF_TRACE=%q: %v", raw, err)
		}
	}
	return cfg
}

func loadDefinitions(path string) (sim.Definitions, error) {
	if path == "" {
		return sim.DefaultDefinitions(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	return sim.ParseDefinitions(data)
}

func Run(ctx context.Context, cfg Config) error {
	telemetryLogger := cfg.Logger
	if telemetryLogger == nil {
		telemetryLogger = telemetry.WrapLogger(log.Default())
	}

	fallbackLogger := log.Default()
	if provider, ok := telemetryLogger.(interface{ StandardLogger() *log.Logger }); ok {
		if candidate := provider.StandardLogger(); candidate != nil {
			fallbackLogger = candidate
		}
	}

	logConfig := logging.DefaultConfig()
	logConfig.MinimumSeverity = cfg.MinSeverity
	logConfig.Fields = map[string]any{"seed": cfg.World.Normalized().Seed}
	sinks := map[string]logging.Sink{
		"console": loggingSinks.NewConsole(os.Stdout),
	}
	logConfig.EnabledSinks = []string{"console"}
	logConfig.JSON.FilePath = cfg.JSONLogPath
	if logConfig.JSON.FilePath != "" {
		file, err := os.OpenFile(logConfig.JSON.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open json log: %w", err)
		}
		sinks["json"] = loggingSinks.NewJSON(file, logConfig.JSON.FlushInterval)
		logConfig.EnabledSinks = append(logConfig.EnabledSinks, "json")
		defer file.Close()
	}

	router, err := logging.NewRouter(logConfig, logging.SystemClock{}, fallbackLogger, sinks)
	if err != nil {
		return fmt.Errorf("failed to construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			telemetryLogger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	definitions, err := loadDefinitions(cfg.RosterPath)
	if err != nil {
		return err
	}

	metrics := &logging.Metrics{}
	simulation, err := sim.New(sim.Config{
		World:            cfg.World,
		DecisionInterval: cfg.DecisionInterval,
		DecisionJitter:   cfg.DecisionJitter,
		Definitions:      definitions,
	}, sim.Deps{
		Publisher: router,
		Metrics:   telemetry.WrapMetrics(metrics),
		Logger:    telemetryLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to construct simulation: %w", err)
	}

	hub := ws.NewHub(simulation, telemetryLogger, telemetry.WrapMetrics(metrics))
	handler := servernet.NewHTTPHandler(simulation, servernet.HTTPHandlerConfig{
		Logger:        telemetryLogger,
		Metrics:       metrics,
		Hub:           hub,
		Observability: cfg.Observability,
	})

	addr := cfg.Addr
	if addr == "" {
		addr = DefaultAddr
	}
	srv := &http.Server{Addr: addr, Handler: handler}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		simulation.Run(runCtx, cfg.StepInterval, hub.Broadcast)
	}()

	serveErr := make(chan error, 1)
	go func() {
		telemetryLogger.Printf("server listening on %s", srv.Addr)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		stop()
		<-loopDone
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	stop()
	<-loopDone
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	telemetryLogger.Printf("server stopped")
	return nil
}
