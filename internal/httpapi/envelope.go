package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/hupe1980/agentgraph/core"
	"github.com/hupe1980/agentgraph/engine"
)

// Envelope is the body of every response.
type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data"`
	Message string     `json:"message,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// ErrorBody describes a failed request. Code repeats the HTTP status.
type ErrorBody struct {
	Code    int          `json:"code"`
	Message string       `json:"message"`
	Details ErrorDetails `json:"details"`
}

// ErrorDetails lets clients tell "try again" from "cannot be processed".
type ErrorDetails struct {
	Kind      string `json:"kind"`
	Retryable bool   `json:"retryable"`
	Reason    string `json:"reason,omitempty"`
	Attempts  int    `json:"attempts,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// Error kinds.
const (
	KindValidation   = "validation"
	KindNotFound     = "not_found"
	KindUnknownModel = "unknown_model"
	KindThreadBusy   = "thread_busy"
	KindMalformed    = "malformed_analysis"
	KindProvider     = "provider"
	KindDeadline     = "deadline_exceeded"
	KindCancelled    = "cancelled"
	KindInternal     = "internal"
)

func success(c echo.Context, status int, data any, message string) error {
	return c.JSON(status, Envelope{Success: true, Data: data, Message: message})
}

func failure(c echo.Context, status int, message string, details ErrorDetails) error {
	return c.JSON(status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: status, Message: message, Details: details},
	})
}

// classify maps an engine error to status, message and details.
func classify(err error) (int, string, ErrorDetails) {
	d := ErrorDetails{Retryable: core.IsRetryable(err), Reason: err.Error()}

	var (
		malformed *core.MalformedAnalysisError
		provider  *core.ProviderError
	)

	switch {
	case errors.Is(err, engine.ErrEmptyMessage):
		d.Kind = KindValidation
		return http.StatusUnprocessableEntity, "message must not be empty", d
	case errors.Is(err, core.ErrAgentNotFound):
		d.Kind = KindNotFound
		return http.StatusNotFound, "agent not found", d
	case errors.Is(err, engine.ErrRunNotFound):
		d.Kind = KindNotFound
		return http.StatusNotFound, "run not found", d
	case errors.Is(err, core.ErrUnknownModel):
		d.Kind = KindUnknownModel
		return http.StatusBadRequest, "unknown model", d
	case errors.Is(err, core.ErrThreadBusy):
		d.Kind = KindThreadBusy
		return http.StatusConflict, "thread is busy, retry later", d
	case errors.As(err, &malformed):
		d.Kind = KindMalformed
		d.Reason = malformed.Reason
		d.Attempts = malformed.Attempts
		return http.StatusUnprocessableEntity, "transcript could not be analyzed", d
	case errors.As(err, &provider):
		d.Kind = KindProvider
		d.Provider = provider.Provider
		return providerStatus(provider.Kind), "model provider error", d
	case errors.Is(err, core.ErrDeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		d.Kind = KindDeadline
		d.Retryable = true
		return http.StatusGatewayTimeout, "deadline exceeded", d
	case errors.Is(err, context.Canceled):
		d.Kind = KindCancelled
		return http.StatusServiceUnavailable, "request cancelled", d
	default:
		d.Kind = KindInternal
		return http.StatusInternalServerError, "unexpected error", d
	}
}

func providerStatus(kind core.ProviderErrorKind) int {
	switch kind {
	case core.ProviderErrorQuota:
		return http.StatusTooManyRequests
	case core.ProviderErrorTimeout:
		return http.StatusGatewayTimeout
	case core.ProviderErrorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(c echo.Context, err error) error {
	status, message, details := classify(err)

	if details.Retryable {
		c.Response().Header().Set("Retry-After", strconv.Itoa(1))
	}

	if status >= http.StatusInternalServerError {
		s.logger.Error("http.request.error", "path", c.Path(), "status", status, "kind", details.Kind, "error", err.Error())
	} else {
		s.logger.Warn("http.request.rejected", "path", c.Path(), "status", status, "kind", details.Kind, "error", err.Error())
	}

	return failure(c, status, message, details)
}
