package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/priyankbansal/ollamachat/internal/ai"
	"github.com/priyankbansal/ollamachat/internal/config"
	"github.com/priyankbansal/ollamachat/internal/core"
	transporthttp "github.com/priyankbansal/ollamachat/internal/transport/http"
)

// App wires together the relay core, inference client and transport.
type App struct {
	server          *stdhttp.Server
	hub             *core.Hub
	ai              *ai.Client
	shutdownTimeout time.Duration
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	aiClient := ai.New(cfg.OllamaURL, cfg.Model, logger)

	hub := core.NewHub(logger, core.NewDetector(cfg.AIMarker), aiClient, core.HubOptions{
		Assistant:        cfg.AssistantName,
		InferenceTimeout: cfg.InferenceTimeout,
		MaxMessageBytes:  cfg.MaxMessageBytes,
	})

	server := transporthttp.NewServer(hub, aiClient, cfg, logger)

	return &App{
		server:          server,
		hub:             hub,
		ai:              aiClient,
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}
}

// Run starts the relay and blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	a.warmInference(ctx)

	go a.hub.Run(ctx)

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return <-serverErr
	}
}

// warmInference waits for the inference backend and makes sure the model is
// present. Both steps are best-effort: the relay serves chat either way and
// AI requests surface failures as in-room notices.
func (a *App) warmInference(ctx context.Context) {
	if !a.ai.WaitReady(ctx, 10, 2*time.Second) {
		a.log.Warn().Msg("inference backend not reachable, starting without AI replies")
		return
	}
	a.log.Info().Str("model", a.ai.Model()).Msg("inference backend ready")

	pullCtx, cancel := context.WithTimeout(ctx, 10*time.Minute)
	defer cancel()
	if err := a.ai.EnsureModel(pullCtx); err != nil {
		a.log.Warn().Err(err).Str("model", a.ai.Model()).Msg("failed to ensure model, AI replies may fail")
	}
}
