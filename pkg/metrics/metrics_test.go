package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusObserveAnswer(t *testing.T) {
	p := NewPrometheus()
	p.ObserveAnswer("ai_service", "qwen", TokenUsage{PromptTokens: 12, CompletionTokens: 30, TotalTokens: 42}, 300*time.Millisecond)
	p.ObserveAnswer("mock", "local_knowledge_base", TokenUsage{}, time.Millisecond)

	require.Equal(t, 1.0, testutil.ToFloat64(p.answers.WithLabelValues("ai_service", "qwen")))
	require.Equal(t, 12.0, testutil.ToFloat64(p.tokens.WithLabelValues("qwen", "prompt")))
	require.Equal(t, 30.0, testutil.ToFloat64(p.tokens.WithLabelValues("qwen", "completion")))
	require.Equal(t, 2, testutil.CollectAndCount(p.tokens))
}

func TestPrometheusHandlerServesRegistry(t *testing.T) {
	p := NewPrometheus()
	p.ObserveFallback("upstream_error")
	p.ObserveHTTP("/api/ask", http.MethodPost, http.StatusUnauthorized)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `assistant_fallbacks_total{reason="upstream_error"} 1`)
	require.Contains(t, string(body), `assistant_http_requests_total{method="POST",route="/api/ask",status="401"} 1`)
}

func TestTokenUsageIsZero(t *testing.T) {
	require.True(t, TokenUsage{}.IsZero())
	require.False(t, TokenUsage{TotalTokens: 1}.IsZero())
}
