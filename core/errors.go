package core

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrRecursionLimitExceeded is reported when a run would enter deciding
	// more often than the configured recursion limit allows. The graph turns
	// it into a truncated result rather than a failure.
	ErrRecursionLimitExceeded = errors.New("recursion limit exceeded")

	// ErrThreadBusy signals that another execution currently owns the thread.
	// Callers should retry later.
	ErrThreadBusy = errors.New("thread busy")

	// ErrAgentNotFound is returned by registry lookups for unknown ids.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrUnknownModel is returned when a requested model identifier is not
	// part of the model catalogue.
	ErrUnknownModel = errors.New("unknown model")

	// ErrDeadlineExceeded is returned when the caller's wall-clock deadline
	// expires; the run stops at the next state-machine boundary.
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrNoInterrupt is returned when resuming a thread without a pending interrupt.
	ErrNoInterrupt = errors.New("no pending interrupt")
)

// ProviderErrorKind classifies live model failures.
type ProviderErrorKind string

const (
	ProviderErrorAuth        ProviderErrorKind = "auth"
	ProviderErrorQuota       ProviderErrorKind = "quota"
	ProviderErrorTimeout     ProviderErrorKind = "timeout"
	ProviderErrorUnavailable ProviderErrorKind = "unavailable"
	ProviderErrorBadResponse ProviderErrorKind = "bad_response"
)

// ProviderError is fatal for the current invocation. The loop never fails
// over to another provider mid-run.
type ProviderError struct {
	Provider string
	Model    string
	Kind     ProviderErrorKind
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s (%s) %s error: %v", e.Provider, e.Model, e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// NewProviderError builds a ProviderError, classifying context deadline
// errors as timeouts when kind is empty.
func NewProviderError(provider, model string, kind ProviderErrorKind, err error) *ProviderError {
	if kind == "" {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			kind = ProviderErrorTimeout
		default:
			kind = ProviderErrorUnavailable
		}
	}
	return &ProviderError{Provider: provider, Model: model, Kind: kind, Err: err}
}

// ProviderErrorKindForStatus maps an HTTP status code from a provider API
// to an error kind.
func ProviderErrorKindForStatus(status int) ProviderErrorKind {
	switch {
	case status == 401 || status == 403:
		return ProviderErrorAuth
	case status == 429:
		return ProviderErrorQuota
	case status == 408 || status == 504:
		return ProviderErrorTimeout
	case status >= 500:
		return ProviderErrorUnavailable
	default:
		return ProviderErrorBadResponse
	}
}

// MalformedAnalysisError reports that the transcript pipeline could not
// produce a valid summary. The input cannot be processed as-is.
type MalformedAnalysisError struct {
	Attempts int
	Reason   string
	Raw      string
}

func (e *MalformedAnalysisError) Error() string {
	return fmt.Sprintf("malformed analysis after %d attempt(s): %s", e.Attempts, e.Reason)
}

// IsRetryable reports whether err describes a transient condition the caller
// may retry: a busy thread, an expired deadline, or a provider timeout/quota.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrThreadBusy) || errors.Is(err, ErrDeadlineExceeded) {
		return true
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == ProviderErrorTimeout || pe.Kind == ProviderErrorQuota || pe.Kind == ProviderErrorUnavailable
	}

	return false
}
