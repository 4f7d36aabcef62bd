package assistant

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/yanqian/contract-assistant/internal/infra/llm/chatgpt"
	apperrors "github.com/yanqian/contract-assistant/pkg/errors"
	"github.com/yanqian/contract-assistant/pkg/metrics"
)

const tracerName = "github.com/yanqian/contract-assistant/internal/domain/assistant"

var errNoChoices = errors.New("chat completion returned no choices")

// Service answers smart-contract questions, live or from the knowledge base.
type Service interface {
	Ask(ctx context.Context, question string) (AnswerResult, error)
	// Provider is the effective mode after startup resolution.
	Provider() string
	// Model is the configured upstream model, empty in mock mode.
	Model() string
}

// ChatClient is the outbound OpenAI-compatible API.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

type service struct {
	cfg      Config
	provider string
	client   ChatClient
	fallback *KnowledgeBase
	recorder metrics.Recorder
	tracer   trace.Tracer
	logger   *slog.Logger
	now      func() time.Time
}

// NewService is a wire provider for the gateway. A nil client forces mock mode
// whatever the configured provider says.
func NewService(cfg Config, client ChatClient, fallback *KnowledgeBase, recorder metrics.Recorder, logger *slog.Logger) Service {
	logger = logger.With("component", "assistant.service")
	provider := cfg.Provider
	switch {
	case provider != ProviderLive && provider != ProviderMock:
		logger.Warn("unknown ai provider, using mock mode", "provider", provider)
		provider = ProviderMock
	case provider == ProviderLive && client == nil:
		logger.Warn("no ai client available, using mock mode")
		provider = ProviderMock
	}
	if provider == ProviderMock {
		client = nil
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &service{
		cfg:      cfg,
		provider: provider,
		client:   client,
		fallback: fallback,
		recorder: recorder,
		tracer:   otel.Tracer(tracerName),
		logger:   logger,
		now:      time.Now,
	}
}

func (s *service) Provider() string {
	return s.provider
}

func (s *service) Model() string {
	if s.provider == ProviderMock {
		return ""
	}
	return s.cfg.Model
}

func (s *service) Ask(ctx context.Context, question string) (AnswerResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return AnswerResult{}, apperrors.Wrap(CodeInvalidInput, "empty question", nil)
	}

	start := s.now()
	if s.client == nil {
		result := s.fallback.Answer(ctx, question, nil)
		s.recorder.ObserveFallback("mock_mode")
		s.recorder.ObserveAnswer(result.Source, result.Model, result.Usage, s.now().Sub(start))
		return result, nil
	}

	result, err := s.complete(ctx, question)
	if err != nil {
		s.logger.Warn("ai service call failed, serving knowledge base answer", "model", s.cfg.Model, "error", err)
		result = s.fallback.Answer(ctx, question, err)
		s.recorder.ObserveFallback("upstream_error")
	}
	s.recorder.ObserveAnswer(result.Source, result.Model, result.Usage, s.now().Sub(start))
	return result, nil
}

// complete performs exactly one upstream call. It is detached from the
// caller's cancellation and bounded only by the configured timeout.
func (s *service) complete(ctx context.Context, question string) (AnswerResult, error) {
	ctx = context.WithoutCancel(ctx)
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	ctx, span := s.tracer.Start(ctx, "assistant.chat_completion",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("llm.model", s.cfg.Model)),
	)
	defer span.End()

	resp, err := s.client.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    s.buildMessages(question),
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err == nil && len(resp.Choices) == 0 {
		err = errNoChoices
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "chat completion failed")
		return AnswerResult{}, err
	}

	model := resp.Model
	if model == "" {
		model = s.cfg.Model
	}
	usage := metrics.TokenUsage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	span.SetAttributes(
		attribute.String("llm.response_model", model),
		attribute.Int("llm.tokens.total", usage.TotalTokens),
	)
	s.logger.Debug("ai service answered", "model", model, "tokens_used", usage.TotalTokens)

	return AnswerResult{
		Answer:     resp.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: usage.TotalTokens,
		Source:     SourceAIService,
		Usage:      usage,
	}, nil
}

func (s *service) buildMessages(question string) []chatgpt.Message {
	return []chatgpt.Message{
		{Role: "system", Content: s.cfg.SystemPrompt},
		{Role: "user", Content: question},
	}
}
