package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/hupe1980/agentgraph/engine"
)

// InvokeBody is the body of the invoke endpoints.
type InvokeBody struct {
	Message  string `json:"message"`
	Model    string `json:"model,omitempty"`
	ThreadID string `json:"thread_id,omitempty"`
}

// Health reports liveness and whether calls run on the offline model.
// GET /health
func (s *Server) Health(c echo.Context) error {
	return success(c, http.StatusOK, map[string]any{
		"status":        "healthy",
		"mock":          s.engine.Mock(),
		"active":        s.engine.Active(),
		"default_agent": s.engine.DefaultAgentID(),
	}, "")
}

// ListAgents lists the registered agents.
// GET /api/v1/agents
func (s *Server) ListAgents(c echo.Context) error {
	return success(c, http.StatusOK, s.engine.ListAgents(), "Available agents retrieved successfully")
}

// ListModels lists model identifiers usable with the configured credentials.
// GET /api/v1/models
func (s *Server) ListModels(c echo.Context) error {
	return success(c, http.StatusOK, s.engine.Models(), "")
}

// Invoke runs an agent turn. The agent comes from the path or defaults.
// POST /api/v1/agents/invoke
// POST /api/v1/agents/:agent_id/invoke
func (s *Server) Invoke(c echo.Context) error {
	var body InvokeBody
	if err := c.Bind(&body); err != nil {
		return failure(c, http.StatusBadRequest, "invalid request body", ErrorDetails{Kind: KindValidation, Reason: err.Error()})
	}

	req := engine.InvokeRequest{
		AgentID:  c.Param("agent_id"),
		Message:  body.Message,
		Model:    strings.TrimSpace(body.Model),
		ThreadID: strings.TrimSpace(body.ThreadID),
	}

	if s.opts.RequestTimeout > 0 {
		req.Deadline = time.Now().Add(s.opts.RequestTimeout)
	}

	res, err := s.engine.InvokeAgent(c.Request().Context(), req)
	if err != nil {
		return s.fail(c, err)
	}

	message := "Agent invoked successfully"
	switch {
	case res.Interrupted:
		message = "Agent is waiting for input"
	case res.Truncated:
		message = "Agent stopped before completing the request"
	}

	return success(c, http.StatusOK, res, message)
}

// AnalyzeTranscript returns a structured transcript summary.
// POST /api/v1/transcripts/analyze
func (s *Server) AnalyzeTranscript(c echo.Context) error {
	var req engine.TranscriptRequest
	if err := c.Bind(&req); err != nil {
		return failure(c, http.StatusBadRequest, "invalid request body", ErrorDetails{Kind: KindValidation, Reason: err.Error()})
	}

	ctx := c.Request().Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	summary, err := s.engine.AnalyzeTranscript(ctx, req)
	if err != nil {
		return s.fail(c, err)
	}

	return success(c, http.StatusOK, summary, "Transcript analyzed successfully")
}

// GetThread returns the stored conversation.
// GET /api/v1/threads/:thread_id
func (s *Server) GetThread(c echo.Context) error {
	state, ok := s.engine.Thread(c.Param("thread_id"))
	if !ok {
		return failure(c, http.StatusNotFound, "thread not found", ErrorDetails{Kind: KindNotFound})
	}

	return success(c, http.StatusOK, state, "")
}

// DeleteThread forgets a conversation.
// DELETE /api/v1/threads/:thread_id
func (s *Server) DeleteThread(c echo.Context) error {
	if err := s.engine.ClearThread(c.Param("thread_id")); err != nil {
		return s.fail(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}

// CancelRun cancels an in-flight invocation.
// DELETE /api/v1/runs/:run_id
func (s *Server) CancelRun(c echo.Context) error {
	if err := s.engine.CancelRun(c.Param("run_id")); err != nil {
		return s.fail(c, err)
	}

	return success(c, http.StatusAccepted, nil, "Run cancellation requested")
}
