package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/contract-assistant/internal/domain/assistant"
	apperrors "github.com/yanqian/contract-assistant/pkg/errors"
	"github.com/yanqian/contract-assistant/pkg/util"
)

const (
	serviceID      = "smart_contract_assistant"
	serviceName    = "智能合约问答助手"
	serviceVersion = "2.0"
	maxBodyBytes   = 1 << 20
)

var errMissingQuestion = errors.New("missing question parameter")

// Handler wires the HTTP transport to the assistant gateway.
type Handler struct {
	svc    assistant.Service
	now    func() time.Time
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc assistant.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		now:    util.NowUTC,
		logger: logger.With("component", "http.handler"),
	}
}

type healthResponse struct {
	Status    string  `json:"status"`
	Service   string  `json:"service"`
	Timestamp string  `json:"timestamp"`
	Provider  string  `json:"provider"`
	Model     *string `json:"model"`
}

type infoResponse struct {
	ServiceName    string `json:"service_name"`
	Version        string `json:"version"`
	Provider       string `json:"provider"`
	Model          string `json:"model"`
	Status         string `json:"status"`
	RequiresAPIKey bool   `json:"requires_api_key"`
}

type askResponse struct {
	Success    bool   `json:"success"`
	Question   string `json:"question"`
	Answer     string `json:"answer"`
	Model      string `json:"model"`
	TokensUsed int    `json:"tokens_used"`
	Source     string `json:"source"`
}

// Health reports liveness plus the resolved provider.
func (h *Handler) Health(c *gin.Context) {
	resp := healthResponse{
		Status:    "healthy",
		Service:   serviceID,
		Timestamp: util.ISO8601(h.now()),
		Provider:  h.svc.Provider(),
	}
	if model := h.svc.Model(); model != "" {
		resp.Model = &model
	}
	c.JSON(http.StatusOK, resp)
}

// Info describes the service and its operating mode.
func (h *Handler) Info(c *gin.Context) {
	resp := infoResponse{
		ServiceName:    serviceName,
		Version:        serviceVersion,
		Provider:       h.svc.Provider(),
		Model:          assistant.MockModel,
		Status:         "mock_mode",
		RequiresAPIKey: true,
	}
	if h.svc.Provider() != assistant.ProviderMock {
		resp.Model = h.svc.Model()
		resp.Status = "active"
	}
	c.JSON(http.StatusOK, resp)
}

// Ask answers a single question. Upstream model failures never surface here;
// the gateway degrades to the knowledge base instead.
func (h *Handler) Ask(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		abortWithError(c, newInternalError(err))
		return
	}

	question, err := parseQuestion(body)
	if err != nil {
		if errors.Is(err, errMissingQuestion) {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, codeMissingQuestion, err.Error(), nil))
			return
		}
		abortWithError(c, newInternalError(err))
		return
	}

	question = strings.TrimSpace(question)
	if question == "" {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, codeInvalidInput, "empty question", nil))
		return
	}

	result, err := h.svc.Ask(c.Request.Context(), question)
	if err != nil {
		if apperrors.IsCode(err, assistant.CodeInvalidInput) {
			abortWithError(c, NewHTTPError(http.StatusBadRequest, codeInvalidInput, "empty question", err))
			return
		}
		abortWithError(c, newInternalError(err))
		return
	}

	c.JSON(http.StatusOK, askResponse{
		Success:    true,
		Question:   question,
		Answer:     result.Answer,
		Model:      result.Model,
		TokensUsed: result.TokensUsed,
		Source:     result.Source,
	})
}

// parseQuestion extracts the question field. An absent body, a JSON value that
// is not an object, or an object without the field all count as missing.
// Malformed JSON and a non-string question are unexpected and surface as-is.
func parseQuestion(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", errMissingQuestion
	}
	if !json.Valid(body) {
		return "", errors.New("malformed JSON request body")
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", errMissingQuestion
	}
	raw, ok := payload["question"]
	if !ok {
		return "", errMissingQuestion
	}
	var question string
	if err := json.Unmarshal(raw, &question); err != nil || bytes.Equal(raw, []byte("null")) {
		return "", errors.New("question must be a string")
	}
	return question, nil
}
