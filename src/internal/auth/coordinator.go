// FILE: zkpauth/src/internal/auth/coordinator.go
package auth

import (
	"errors"
	"math/big"
	"strings"
	"sync/atomic"
	"time"

	"zkpauth/src/internal/core"
	"zkpauth/src/internal/store"
	"zkpauth/src/internal/zkp"

	"github.com/lixenwraith/log"
)

// Options tunes coordinator behavior beyond the protocol defaults.
type Options struct {
	// ConsumeOnVerify removes an auth id after its first verification attempt.
	ConsumeOnVerify bool
}

// Coordinator implements Service over a store.Ledger.
type Coordinator struct {
	group   *zkp.Group
	ledger  *store.Ledger
	options Options
	logger  *log.Logger

	// Statistics
	registrations atomic.Uint64
	challenges    atomic.Uint64
	accepted      atomic.Uint64
	rejected      atomic.Uint64
}

var _ Service = (*Coordinator)(nil)

// NewCoordinator creates a coordinator. The ledger is owned by the caller so
// tests can inspect it and each instance starts from isolated state.
func NewCoordinator(group *zkp.Group, ledger *store.Ledger, opts Options, logger *log.Logger) *Coordinator {
	return &Coordinator{
		group:   group,
		ledger:  ledger,
		options: opts,
		logger:  logger,
	}
}

// Register stores (y1, y2) for the user, overwriting any previous registration
// and clearing challenge state. No ownership check is made on overwrite.
func (c *Coordinator) Register(req *RegisterRequest) (*RegisterResponse, error) {
	if req == nil || strings.TrimSpace(req.User) == "" {
		return nil, Errorf(CodeInvalidArgument, "username cannot be empty")
	}
	if len(req.Y1) == 0 || len(req.Y2) == 0 {
		return nil, Errorf(CodeInvalidArgument, "public keys cannot be empty")
	}

	c.logger.Debug("msg", "Processing registration",
		"component", "auth",
		"username", req.User)

	replaced := c.ledger.Credentials.Upsert(req.User, &store.UserRecord{
		Y1:           new(big.Int).SetBytes(req.Y1),
		Y2:           new(big.Int).SetBytes(req.Y2),
		RegisteredAt: time.Now(),
	})
	c.registrations.Add(1)

	if replaced {
		c.logger.Warn("msg", "Overwriting existing registration",
			"component", "auth",
			"username", req.User)
	}
	c.logger.Info("msg", "Registration complete",
		"component", "auth",
		"username", req.User)

	return &RegisterResponse{}, nil
}

// CreateChallenge records (r1, r2) with a fresh challenge c for the user and
// returns a new auth id. Any earlier in-flight challenge for the user is replaced.
func (c *Coordinator) CreateChallenge(req *ChallengeRequest) (*ChallengeResponse, error) {
	if req == nil || strings.TrimSpace(req.User) == "" {
		return nil, Errorf(CodeInvalidArgument, "username cannot be empty")
	}
	if len(req.R1) == 0 || len(req.R2) == 0 {
		return nil, Errorf(CodeInvalidArgument, "commitments for challenge cannot be empty")
	}

	c.logger.Debug("msg", "Processing challenge request",
		"component", "auth",
		"username", req.User)

	challenge := zkp.SampleBelow(c.group.Q)
	authID := zkp.RandomIdentifier(core.AuthIDLength)
	r1 := new(big.Int).SetBytes(req.R1)
	r2 := new(big.Int).SetBytes(req.R2)
	now := time.Now()

	err := c.ledger.IssueChallenge(req.User, store.AuthSession{AuthID: authID, CreatedAt: now}, func(rec *store.UserRecord) {
		rec.R1 = r1
		rec.R2 = r2
		rec.C = new(big.Int).Set(challenge)
		rec.S = nil
		rec.ChallengedAt = now
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, Errorf(CodeNotFound, "user %s not found", req.User)
		}
		return nil, Errorf(CodeInternal, "issue challenge: %v", err)
	}
	c.challenges.Add(1)

	c.logger.Info("msg", "Challenge issued",
		"component", "auth",
		"username", req.User,
		"auth_id", authID)

	return &ChallengeResponse{
		AuthID: authID,
		C:      challenge.Bytes(),
	}, nil
}

// VerifyAnswer checks s against the challenge state recorded for the auth id.
// A failed attempt leaves the challenge in place unless ConsumeOnVerify is set,
// in which case the auth id is taken before the answer is checked.
func (c *Coordinator) VerifyAnswer(req *AnswerRequest) (*AnswerResponse, error) {
	if req == nil {
		return nil, Errorf(CodeInvalidArgument, "empty request")
	}

	c.logger.Debug("msg", "Processing challenge answer",
		"component", "auth",
		"auth_id", req.AuthID)

	s := new(big.Int).SetBytes(req.S)

	// Snapshot under the credential lock, verify outside of it
	var snapshot *store.UserRecord
	session, err := c.ledger.ResolveChallenge(req.AuthID, c.options.ConsumeOnVerify, func(rec *store.UserRecord) {
		rec.S = new(big.Int).Set(s)
		snapshot = rec.Clone()
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOrphanedSession):
			c.logger.Error("msg", "Auth id resolves to unregistered user",
				"component", "auth",
				"auth_id", req.AuthID,
				"username", session.Username)
			return nil, Errorf(CodeInternal, "auth id %s has no user record", req.AuthID)
		case errors.Is(err, store.ErrNotFound):
			return nil, Errorf(CodeNotFound, "auth id %s not found", req.AuthID)
		default:
			return nil, Errorf(CodeInternal, "resolve challenge: %v", err)
		}
	}

	if !c.group.Verify(snapshot.R1, snapshot.R2, snapshot.Y1, snapshot.Y2, snapshot.C, snapshot.S) {
		c.rejected.Add(1)
		c.logger.Warn("msg", "Challenge answer rejected",
			"component", "auth",
			"auth_id", req.AuthID,
			"username", session.Username)
		return nil, Errorf(CodePermissionDenied, "auth id %s: bad solution to the challenge", req.AuthID)
	}

	c.accepted.Add(1)
	sessionID := zkp.RandomIdentifier(core.SessionIDLength)
	c.logger.Info("msg", "Challenge answer accepted",
		"component", "auth",
		"auth_id", req.AuthID,
		"username", session.Username)

	return &AnswerResponse{SessionID: sessionID}, nil
}

// GetStats returns coordinator statistics
func (c *Coordinator) GetStats() map[string]any {
	return map[string]any{
		"group":              c.group.Name,
		"registered_users":   c.ledger.Credentials.Len(),
		"live_auth_sessions": c.ledger.Challenges.Len(),
		"registrations":      c.registrations.Load(),
		"challenges_issued":  c.challenges.Load(),
		"answers_accepted":   c.accepted.Load(),
		"answers_rejected":   c.rejected.Load(),
		"consume_on_verify":  c.options.ConsumeOnVerify,
	}
}
