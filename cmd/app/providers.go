package main

import (
	"log/slog"
	"strings"

	"github.com/yanqian/contract-assistant/internal/domain/assistant"
	"github.com/yanqian/contract-assistant/internal/infra/config"
	"github.com/yanqian/contract-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/contract-assistant/pkg/logger"
)

func provideLogger(cfg *config.Config) *slog.Logger {
	return logger.New(cfg.Debug)
}

func provideAssistantConfig(cfg *config.Config) assistant.Config {
	return assistant.Config{
		Provider:     cfg.LLM.Provider,
		Model:        cfg.LLM.Model,
		SystemPrompt: cfg.LLM.SystemPrompt,
		MaxTokens:    cfg.LLM.MaxTokens,
		Temperature:  cfg.LLM.Temperature,
		Timeout:      cfg.LLM.Timeout,
	}
}

func provideKnowledgeBase(cfg *config.Config) *assistant.KnowledgeBase {
	return assistant.NewKnowledgeBase(cfg.Fallback.Latency)
}

// provideChatClient returns a nil client whenever live mode cannot be served;
// the assistant service then runs in mock mode.
func provideChatClient(cfg *config.Config, logger *slog.Logger) assistant.ChatClient {
	if cfg.LLM.Provider != config.ProviderLive {
		return nil
	}
	if strings.TrimSpace(cfg.LLM.APIKey) == "" {
		logger.Warn("AI_API_KEY not set, using mock mode")
		return nil
	}
	client, err := chatgpt.NewClient(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.LLM.Timeout)
	if err != nil {
		logger.Error("failed to initialize ai client, using mock mode", "error", err)
		return nil
	}
	logger.Info("ai client initialized", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)
	return client
}
