package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	app "github.com/showkit/showrunner"
	"github.com/showkit/showrunner/internal/archive"
	"github.com/showkit/showrunner/internal/client"
	"github.com/showkit/showrunner/internal/config"
	"github.com/showkit/showrunner/internal/engine"
	"github.com/showkit/showrunner/internal/journal"
	"github.com/showkit/showrunner/internal/run"
	"github.com/showkit/showrunner/internal/server"
	"github.com/showkit/showrunner/pkg/log"
)

type showrunner struct {
	cfg        *config.Config
	redis      *redis.Client
	journal    *journal.Journal
	archiver   *archive.Archiver
	hub        *run.Hub
	runner     *run.Runner
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var (
	ErrConnectRedis = errors.New("failed to connect to redis")
	ErrOpenArchive  = errors.New("failed to open archive bucket")
	ErrCreateRunner = errors.New("failed to create runner")
)

var logLevels = map[string]slog.Level{
	"debug": slog.LevelDebug,
	"info":  slog.LevelInfo,
	"warn":  slog.LevelWarn,
	"error": slog.LevelError,
}

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &showrunner{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *showrunner) run() error {
	if err := s.initializeStores(); err != nil {
		return err
	}
	if err := s.initializeRunner(); err != nil {
		return err
	}
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *showrunner) setupLogging() {
	level, ok := logLevels[s.cfg.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}

	env := os.Getenv("ENV")
	logger := log.NewWithLevel(app.Name, env, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Showrunner starting",
		slog.String("log_level", s.cfg.LogLevel),
		slog.String("redis_addr", s.cfg.RedisAddr),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *showrunner) initializeStores() error {
	s.redis = redis.NewClient(&redis.Options{
		Addr:     s.cfg.RedisAddr,
		Password: s.cfg.RedisPassword,
		DB:       s.cfg.RedisDB,
	})
	if err := s.redis.Ping(context.Background()).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectRedis, err)
	}
	s.journal = journal.New(s.redis, s.cfg.RedisPrefix, s.cfg.JournalTTL)

	if s.cfg.ArchiveBucketURL != "" {
		arch, err := archive.New(
			context.Background(),
			s.cfg.ArchiveBucketURL, s.cfg.ArchivePrefix,
		)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOpenArchive, err)
		}
		s.archiver = arch
	}
	return nil
}

func (s *showrunner) initializeRunner() error {
	caller := client.NewHTTPCaller(s.cfg.StepTimeout)
	s.hub = run.NewHub()

	deps := run.Dependencies{
		Executor: engine.NewExecutor(caller),
		Hub:      s.hub,
		Journal:  s.journal,
	}
	if s.archiver != nil {
		deps.Archiver = s.archiver
	}

	runner, err := run.NewRunner(deps)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateRunner, err)
	}
	s.runner = runner
	return nil
}

func (s *showrunner) startServer() {
	s.apiServer = server.NewServer(s.runner, s.journal, s.hub)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.cfg.APIHost, s.cfg.APIPort),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *showrunner) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()
	s.runner.Stop()
	s.hub.Close()

	if s.archiver != nil {
		_ = s.archiver.Close()
	}
	_ = s.redis.Close()

	slog.Info("Server exited")
}
