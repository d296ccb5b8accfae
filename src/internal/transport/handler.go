// FILE: zkpauth/src/internal/transport/handler.go
package transport

import (
	"encoding/json"
	"errors"
	"sync/atomic"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/limit"

	"github.com/lixenwraith/log"
)

// Handler decodes one command, applies the request guard and calls the service.
// Both servers share a single Handler.
type Handler struct {
	svc    auth.Service
	guard  *limit.Guard
	logger *log.Logger

	// Statistics
	totalRequests   atomic.Uint64
	limitedRequests atomic.Uint64
	failedRequests  atomic.Uint64
}

// NewHandler creates a handler. guard may be nil.
func NewHandler(svc auth.Service, guard *limit.Guard, logger *log.Logger) *Handler {
	return &Handler{
		svc:    svc,
		guard:  guard,
		logger: logger,
	}
}

// Handle executes cmd with its JSON payload on behalf of remoteAddr.
func (h *Handler) Handle(remoteAddr, cmd string, payload []byte) (any, error) {
	h.totalRequests.Add(1)

	if err := h.guard.Allow(remoteAddr); err != nil {
		h.limitedRequests.Add(1)
		return nil, auth.Errorf(auth.CodeUnavailable, "%v", err)
	}

	resp, err := h.dispatch(cmd, payload)
	if err != nil {
		h.failedRequests.Add(1)
		h.logger.Debug("msg", "Request failed",
			"component", "transport",
			"remote_addr", remoteAddr,
			"command", cmd,
			"code", auth.CodeOf(err).String())
	}

	if cmd == CmdAnswer {
		switch auth.CodeOf(err) {
		case auth.CodeOK:
			h.guard.RecordSuccess(remoteAddr)
		case auth.CodePermissionDenied, auth.CodeNotFound:
			h.guard.RecordFailure(remoteAddr)
		}
	}

	return resp, err
}

func (h *Handler) dispatch(cmd string, payload []byte) (any, error) {
	switch cmd {
	case CmdRegister:
		var req auth.RegisterRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return h.svc.Register(&req)

	case CmdChallenge:
		var req auth.ChallengeRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return h.svc.CreateChallenge(&req)

	case CmdAnswer:
		var req auth.AnswerRequest
		if err := decode(payload, &req); err != nil {
			return nil, err
		}
		return h.svc.VerifyAnswer(&req)

	default:
		return nil, auth.Errorf(auth.CodeInvalidArgument, "unknown command: %s", cmd)
	}
}

func decode(payload []byte, v any) error {
	if len(payload) == 0 {
		return auth.Errorf(auth.CodeInvalidArgument, "empty request body")
	}
	if err := json.Unmarshal(payload, v); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return auth.Errorf(auth.CodeInvalidArgument, "malformed JSON at offset %d", syntaxErr.Offset)
		}
		return auth.Errorf(auth.CodeInvalidArgument, "malformed request: %v", err)
	}
	return nil
}

// GetStats returns request counters, the guard state, and the service
// statistics when the service exposes them.
func (h *Handler) GetStats() map[string]any {
	stats := map[string]any{
		"total_requests":   h.totalRequests.Load(),
		"limited_requests": h.limitedRequests.Load(),
		"failed_requests":  h.failedRequests.Load(),
		"guard":            h.guard.GetStats(),
	}
	if sp, ok := h.svc.(interface{ GetStats() map[string]any }); ok {
		stats["auth"] = sp.GetStats()
	}
	return stats
}

// Shutdown stops the guard's background cleanup.
func (h *Handler) Shutdown() {
	h.guard.Shutdown()
}
