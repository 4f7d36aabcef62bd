package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/contract-assistant/internal/infra/config"
	"github.com/yanqian/contract-assistant/pkg/metrics"
)

// NewRouter wires up the HTTP handlers and returns a configured server. A nil
// prom disables both HTTP metrics and the scrape endpoint.
func NewRouter(cfg *config.Config, handler *Handler, prom *metrics.Prometheus) *http.Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var recorder metrics.Recorder = metrics.Nop{}
	if prom != nil {
		recorder = prom
	}

	router := gin.New()
	router.Use(
		requestIDMiddleware(),
		tracingMiddleware(),
		requestLogger(handler.logger),
		metricsMiddleware(recorder),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		errorHandlingMiddleware(handler.logger),
		recoveryMiddleware(handler.logger),
	)

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/info", handler.Info)
		api.POST("/ask", apiKeyGuard(cfg.Auth.AppAPIKey), handler.Ask)
	}

	if prom != nil && cfg.Metrics.Enabled {
		router.GET(cfg.Metrics.Path, gin.WrapH(prom.Handler()))
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}
