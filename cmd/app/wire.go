//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/contract-assistant/internal/bootstrap"
	"github.com/yanqian/contract-assistant/internal/domain/assistant"
	"github.com/yanqian/contract-assistant/internal/infra/config"
	httpiface "github.com/yanqian/contract-assistant/internal/interface/http"
	"github.com/yanqian/contract-assistant/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		provideLogger,
		provideAssistantConfig,
		provideKnowledgeBase,
		provideChatClient,
		metrics.NewPrometheus,
		wire.Bind(new(metrics.Recorder), new(*metrics.Prometheus)),
		assistant.NewService,
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
