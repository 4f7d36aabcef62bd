package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenUsage captures LLM token counts reported for a single answer.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Recorder receives the observations emitted by the gateway and HTTP layer.
type Recorder interface {
	ObserveAnswer(source, model string, usage TokenUsage, elapsed time.Duration)
	ObserveFallback(reason string)
	ObserveHTTP(route, method string, status int)
}

// Prometheus implements Recorder on a private registry so tests and multiple
// routers never collide on global registration.
type Prometheus struct {
	registry     *prometheus.Registry
	answers      *prometheus.CounterVec
	fallbacks    *prometheus.CounterVec
	tokens       *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	httpRequests *prometheus.CounterVec
}

// NewPrometheus creates and registers all collectors.
func NewPrometheus() *Prometheus {
	registry := prometheus.NewRegistry()
	p := &Prometheus{
		registry: registry,
		answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_answers_total",
			Help: "Answers returned, partitioned by source and model.",
		}, []string{"source", "model"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_fallbacks_total",
			Help: "Answers served by the local knowledge base, partitioned by reason.",
		}, []string{"reason"}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_tokens_total",
			Help: "Token usage reported by the upstream model.",
		}, []string{"model", "direction"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "assistant_answer_duration_seconds",
			Help:    "Time spent producing an answer.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"source"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "HTTP requests handled, partitioned by route, method and status.",
		}, []string{"route", "method", "status"}),
	}
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		p.answers,
		p.fallbacks,
		p.tokens,
		p.latency,
		p.httpRequests,
	)
	return p
}

// Handler exposes the registry in the Prometheus text format.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// ObserveAnswer implements Recorder.
func (p *Prometheus) ObserveAnswer(source, model string, usage TokenUsage, elapsed time.Duration) {
	p.answers.WithLabelValues(source, model).Inc()
	p.latency.WithLabelValues(source).Observe(elapsed.Seconds())
	if usage.PromptTokens > 0 {
		p.tokens.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	}
	if usage.CompletionTokens > 0 {
		p.tokens.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
	}
}

// ObserveFallback implements Recorder.
func (p *Prometheus) ObserveFallback(reason string) {
	p.fallbacks.WithLabelValues(reason).Inc()
}

// ObserveHTTP implements Recorder.
func (p *Prometheus) ObserveHTTP(route, method string, status int) {
	p.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveAnswer(string, string, TokenUsage, time.Duration) {}
func (Nop) ObserveFallback(string)                                  {}
func (Nop) ObserveHTTP(string, string, int)                         {}

var (
	_ Recorder = (*Prometheus)(nil)
	_ Recorder = Nop{}
)
