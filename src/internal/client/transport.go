// FILE: zkpauth/src/internal/client/transport.go
package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/config"

	"github.com/lixenwraith/log"
)

// Transport carries the three protocol calls to a server.
type Transport interface {
	Register(ctx context.Context, req *auth.RegisterRequest) (*auth.RegisterResponse, error)
	CreateChallenge(ctx context.Context, req *auth.ChallengeRequest) (*auth.ChallengeResponse, error)
	VerifyAnswer(ctx context.Context, req *auth.AnswerRequest) (*auth.AnswerResponse, error)
	Close() error
}

// NewTransport builds the transport selected by cfg.
func NewTransport(ctx context.Context, cfg config.ClientConfig, logger *log.Logger) (Transport, error) {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	switch strings.ToLower(cfg.Transport) {
	case "tcp":
		return DialTCP(ctx, cfg.Address, timeout, logger)
	case "http":
		return NewHTTPTransport(cfg.Address, cfg.PathPrefix, timeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown transport: %s", cfg.Transport)
	}
}

// Local calls an in-process service directly.
type Local struct {
	svc auth.Service
}

// NewLocal wraps svc as a Transport.
func NewLocal(svc auth.Service) *Local {
	return &Local{svc: svc}
}

func (l *Local) Register(ctx context.Context, req *auth.RegisterRequest) (*auth.RegisterResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.Register(req)
}

func (l *Local) CreateChallenge(ctx context.Context, req *auth.ChallengeRequest) (*auth.ChallengeResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.CreateChallenge(req)
}

func (l *Local) VerifyAnswer(ctx context.Context, req *auth.AnswerRequest) (*auth.AnswerResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return l.svc.VerifyAnswer(req)
}

func (l *Local) Close() error { return nil }
