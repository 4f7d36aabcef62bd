package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/contract-assistant/internal/domain/assistant"
	"github.com/yanqian/contract-assistant/internal/infra/config"
	"github.com/yanqian/contract-assistant/internal/infra/llm/chatgpt"
	"github.com/yanqian/contract-assistant/pkg/metrics"
)

const testAPIKey = "test-secret"

func TestRouter_Health(t *testing.T) {
	svc := &stubAssistant{provider: assistant.ProviderLive, model: "qwen-plus"}
	handler := NewHandler(svc, newTestLogger())
	ticks := []time.Time{
		time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 19, 8, 0, 1, 500, time.UTC),
	}
	handler.now = func() time.Time {
		next := ticks[0]
		ticks = ticks[1:]
		return next
	}
	server := newRouterUnderTest(t, handler, nil)

	first := decodeBody(t, performRequest(t, server, http.MethodGet, "/api/health", "", nil), http.StatusOK)
	second := decodeBody(t, performRequest(t, server, http.MethodGet, "/api/health", "", nil), http.StatusOK)

	require.Equal(t, "healthy", first["status"])
	require.Equal(t, "smart_contract_assistant", first["service"])
	require.Equal(t, "live", first["provider"])
	require.Equal(t, "qwen-plus", first["model"])

	ts, err := time.Parse(time.RFC3339Nano, first["timestamp"].(string))
	require.NoError(t, err)
	require.Equal(t, time.UTC, ts.Location())
	require.NotEqual(t, first["timestamp"], second["timestamp"])
}

func TestRouter_HealthMockModelIsNull(t *testing.T) {
	svc := &stubAssistant{provider: assistant.ProviderMock}
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodGet, "/api/health", "", nil), http.StatusOK)
	model, present := body["model"]
	require.True(t, present)
	require.Nil(t, model)
	require.Equal(t, "mock", body["provider"])
}

func TestRouter_Info(t *testing.T) {
	cases := []struct {
		name     string
		svc      *stubAssistant
		model    string
		status   string
		provider string
	}{
		{name: "live", svc: &stubAssistant{provider: "live", model: "qwen-plus"}, model: "qwen-plus", status: "active", provider: "live"},
		{name: "mock", svc: &stubAssistant{provider: "mock"}, model: "local_knowledge_base", status: "mock_mode", provider: "mock"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := newRouterUnderTest(t, NewHandler(tc.svc, newTestLogger()), nil)
			body := decodeBody(t, performRequest(t, server, http.MethodGet, "/api/info", "", nil), http.StatusOK)
			require.Equal(t, "智能合约问答助手", body["service_name"])
			require.Equal(t, "2.0", body["version"])
			require.Equal(t, tc.provider, body["provider"])
			require.Equal(t, tc.model, body["model"])
			require.Equal(t, tc.status, body["status"])
			require.Equal(t, true, body["requires_api_key"])
		})
	}
}

func TestRouter_AskRequiresAPIKey(t *testing.T) {
	svc := &stubAssistant{provider: "mock"}
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	for _, payload := range []string{`{"question":"什么是ERC20"}`, `{"question":""}`, ``, `not json`} {
		body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", payload, nil), http.StatusUnauthorized)
		require.Equal(t, "missing API key", body["error"])
		require.Equal(t, false, body["success"])
	}

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"ERC20"}`, map[string]string{APIKeyHeader: "wrong"}), http.StatusUnauthorized)
	require.Equal(t, "invalid API key", body["error"])
	require.Equal(t, "invalid_api_key", body["code"])
	require.Zero(t, svc.calls)
}

func TestRouter_AskValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload string
		status  int
		message string
	}{
		{name: "empty body", payload: "", status: http.StatusBadRequest, message: "missing question parameter"},
		{name: "no field", payload: `{"text":"ERC20"}`, status: http.StatusBadRequest, message: "missing question parameter"},
		{name: "json null", payload: `null`, status: http.StatusBadRequest, message: "missing question parameter"},
		{name: "json array", payload: `["question"]`, status: http.StatusBadRequest, message: "missing question parameter"},
		{name: "empty question", payload: `{"question":""}`, status: http.StatusBadRequest, message: "empty question"},
		{name: "blank question", payload: `{"question":"  \n "}`, status: http.StatusBadRequest, message: "empty question"},
		{name: "malformed json", payload: `{"question":`, status: http.StatusInternalServerError, message: "internal server error: malformed JSON request body"},
		{name: "non-string question", payload: `{"question":42}`, status: http.StatusInternalServerError, message: "internal server error: question must be a string"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubAssistant{provider: "mock"}
			server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

			body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", tc.payload, authHeader()), tc.status)
			require.Equal(t, tc.message, body["error"])
			require.Equal(t, false, body["success"])
			require.Zero(t, svc.calls)
		})
	}
}

func TestRouter_AskSuccess(t *testing.T) {
	svc := &stubAssistant{
		provider: "live",
		model:    "qwen-plus",
		askFn: func(ctx context.Context, question string) (assistant.AnswerResult, error) {
			require.Equal(t, "What is a reentrancy attack?", question)
			return assistant.AnswerResult{Answer: "A reentrancy attack...", Model: "qwen-plus-2025", TokensUsed: 321, Source: assistant.SourceAIService}, nil
		},
	}
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"  What is a reentrancy attack? "}`, authHeader()), http.StatusOK)
	require.Equal(t, map[string]any{
		"success":     true,
		"question":    "What is a reentrancy attack?",
		"answer":      "A reentrancy attack...",
		"model":       "qwen-plus-2025",
		"tokens_used": float64(321),
		"source":      "ai_service",
	}, body)
}

func TestRouter_AskMockModeEndToEnd(t *testing.T) {
	svc := assistant.NewService(assistant.Config{Provider: assistant.ProviderMock, Model: "qwen-plus"}, nil, assistant.NewKnowledgeBase(0), nil, newTestLogger())
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"什么是ERC20"}`, authHeader()), http.StatusOK)
	require.Equal(t, true, body["success"])
	require.Equal(t, "mock", body["source"])
	require.Equal(t, float64(0), body["tokens_used"])
	require.Equal(t, "local_knowledge_base", body["model"])
	require.Contains(t, body["answer"], "ERC20是以太坊上同质化代币的标准接口")
}

func TestRouter_AskUpstreamFailureDegrades(t *testing.T) {
	client := &failingChatClient{err: errors.New("request chat completion: dial tcp 10.0.0.1:443: i/o timeout")}
	svc := assistant.NewService(assistant.Config{Provider: assistant.ProviderLive, Model: "qwen-plus", SystemPrompt: "expert", MaxTokens: 1000, Timeout: time.Second}, client, assistant.NewKnowledgeBase(0), nil, newTestLogger())
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"Solidity 是什么"}`, authHeader()), http.StatusOK)
	require.Equal(t, "mock", body["source"])
	require.Contains(t, body["answer"], "AI服务暂时不可用 (AI服务调用失败: request chat completion")
	require.Contains(t, body["answer"], "Solidity是用于编写以太坊智能合约的主流面向对象语言")
	require.Equal(t, 1, client.calls)
}

func TestRouter_AskInternalErrorIsTruncated(t *testing.T) {
	svc := &stubAssistant{
		provider: "live",
		askFn: func(ctx context.Context, question string) (assistant.AnswerResult, error) {
			return assistant.AnswerResult{}, errors.New(strings.Repeat("x", 300))
		},
	}
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"ERC20"}`, authHeader()), http.StatusInternalServerError)
	message := body["error"].(string)
	require.True(t, strings.HasPrefix(message, "internal server error: "))
	require.Equal(t, internalErrorLimit, utf8.RuneCountInString(strings.TrimPrefix(message, "internal server error: ")))
	require.Equal(t, false, body["success"])
}

func TestRouter_AskPanicIsRecovered(t *testing.T) {
	svc := &stubAssistant{
		provider: "live",
		askFn: func(ctx context.Context, question string) (assistant.AnswerResult, error) {
			panic("nil map write")
		},
	}
	server := newRouterUnderTest(t, NewHandler(svc, newTestLogger()), nil)

	body := decodeBody(t, performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"ERC20"}`, authHeader()), http.StatusInternalServerError)
	require.Equal(t, "internal server error: nil map write", body["error"])
}

func TestRouter_CORSPreflight(t *testing.T) {
	server := newRouterUnderTest(t, NewHandler(&stubAssistant{provider: "mock"}, newTestLogger()), nil)

	rec := performRequest(t, server, http.MethodOptions, "/api/ask", "", map[string]string{"Origin": "http://localhost:3000"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), APIKeyHeader)
}

func TestRouter_RequestIDPropagation(t *testing.T) {
	server := newRouterUnderTest(t, NewHandler(&stubAssistant{provider: "mock"}, newTestLogger()), nil)

	rec := performRequest(t, server, http.MethodGet, "/api/info", "", map[string]string{requestIDHeader: "req-123"})
	require.Equal(t, "req-123", rec.Header().Get(requestIDHeader))

	rec = performRequest(t, server, http.MethodGet, "/api/info", "", nil)
	require.Len(t, rec.Header().Get(requestIDHeader), 36)
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	prom := metrics.NewPrometheus()
	server := newRouterUnderTest(t, NewHandler(&stubAssistant{provider: "mock"}, newTestLogger()), prom)

	performRequest(t, server, http.MethodPost, "/api/ask", `{"question":"ERC20"}`, nil)

	rec := performRequest(t, server, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `assistant_http_requests_total{method="POST",route="/api/ask",status="401"} 1`)
}

func performRequest(t *testing.T, server *http.Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, req)
	return rec
}

func newRouterUnderTest(t *testing.T, handler *Handler, prom *metrics.Prometheus) *http.Server {
	t.Helper()
	cfg := &config.Config{
		HTTP: config.HTTPConfig{
			Address:      ":0",
			ReadTimeout:  time.Second,
			WriteTimeout: time.Second,
		},
		Auth:    config.AuthConfig{AppAPIKey: testAPIKey},
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	return NewRouter(cfg, handler, prom)
}

func authHeader() map[string]string {
	return map[string]string{APIKeyHeader: testAPIKey}
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

type stubAssistant struct {
	provider string
	model    string
	askFn    func(ctx context.Context, question string) (assistant.AnswerResult, error)
	calls    int
}

func (s *stubAssistant) Ask(ctx context.Context, question string) (assistant.AnswerResult, error) {
	s.calls++
	if s.askFn != nil {
		return s.askFn(ctx, question)
	}
	return assistant.AnswerResult{}, nil
}

func (s *stubAssistant) Provider() string { return s.provider }
func (s *stubAssistant) Model() string    { return s.model }

type failingChatClient struct {
	err   error
	calls int
}

func (f *failingChatClient) CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	f.calls++
	return chatgpt.ChatCompletionResponse{}, f.err
}
