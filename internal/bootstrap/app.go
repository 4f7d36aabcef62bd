package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/yanqian/contract-assistant/internal/domain/assistant"
	"github.com/yanqian/contract-assistant/internal/infra/config"
)

const shutdownTimeout = 10 * time.Second

// App encapsulates the HTTP server lifecycle.
type App struct {
	cfg    *config.Config
	svc    assistant.Service
	logger *slog.Logger
	server *http.Server
}

// NewApp is used by Wire to build the runnable app.
func NewApp(cfg *config.Config, svc assistant.Service, logger *slog.Logger, server *http.Server) *App {
	return &App{cfg: cfg, svc: svc, logger: logger.With("component", "bootstrap"), server: server}
}

// Run starts the HTTP server and blocks until ctx is cancelled or the server
// fails. In-flight requests get shutdownTimeout to drain.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logStartup()
		if err := a.server.ListenAndServe(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutdown signal received")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) logStartup() {
	a.logger.Info("http server starting",
		"address", a.cfg.HTTP.Address,
		"debug", a.cfg.Debug,
		"provider", a.svc.Provider(),
		"model", a.svc.Model(),
		"endpoints", []string{"GET /api/health", "GET /api/info", "POST /api/ask"},
	)
	if a.svc.Provider() == assistant.ProviderMock {
		a.logger.Info("running in mock mode; set AI_API_KEY and AI_PROVIDER=live to enable the ai service")
	}
}
