package assistant

import (
	"time"

	"github.com/yanqian/contract-assistant/pkg/metrics"
)

// Provider modes. The effective mode is fixed when the service is built.
const (
	ProviderLive = "live"
	ProviderMock = "mock"
)

// Answer sources reported to callers.
const (
	SourceAIService = "ai_service"
	SourceMock      = "mock"
)

// CodeInvalidInput marks caller mistakes such as an empty question.
const CodeInvalidInput = "invalid_input"

// Config is the immutable gateway configuration resolved at startup.
type Config struct {
	Provider     string
	Model        string
	SystemPrompt string
	MaxTokens    int
	Temperature  float32
	Timeout      time.Duration
}

// AnswerResult is produced fresh for every question.
type AnswerResult struct {
	Answer     string
	Model      string
	TokensUsed int
	Source     string
	Usage      metrics.TokenUsage
}
