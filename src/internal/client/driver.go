// FILE: zkpauth/src/internal/client/driver.go

// Package client is the prover side of the login protocol. Driver derives the
// secret from a password, registers its commitments and answers challenges
// over any Transport.
package client

import (
	"context"
	"fmt"
	"math/big"

	"zkpauth/src/internal/auth"
	"zkpauth/src/internal/zkp"

	"github.com/lixenwraith/log"
)

// Driver runs registration and login against one server.
type Driver struct {
	group      *zkp.Group
	transport  Transport
	derivation zkp.Derivation
	logger     *log.Logger
}

// NewDriver creates a driver. The group and derivation must match the server
// and the registration respectively.
func NewDriver(group *zkp.Group, transport Transport, derivation zkp.Derivation, logger *log.Logger) *Driver {
	return &Driver{
		group:      group,
		transport:  transport,
		derivation: derivation,
		logger:     logger,
	}
}

// Register publishes (alpha^x, beta^x) for user.
func (d *Driver) Register(ctx context.Context, user, password string) error {
	x := d.secret(user, password)
	y1, y2 := d.group.Commit(x)

	d.logger.Debug("msg", "Registering user",
		"component", "client",
		"username", user,
		"derivation", d.derivation.String())

	if _, err := d.transport.Register(ctx, &auth.RegisterRequest{
		User: user,
		Y1:   y1.Bytes(),
		Y2:   y2.Bytes(),
	}); err != nil {
		return fmt.Errorf("register %s: %w", user, err)
	}

	d.logger.Info("msg", "Registration complete", "component", "client", "username", user)
	return nil
}

// Login proves knowledge of the password and returns the session id.
func (d *Driver) Login(ctx context.Context, user, password string) (string, error) {
	x := d.secret(user, password)

	// Fresh nonce per attempt
	k := zkp.SampleBelow(d.group.Q)
	r1, r2 := d.group.Commit(k)

	challenge, err := d.transport.CreateChallenge(ctx, &auth.ChallengeRequest{
		User: user,
		R1:   r1.Bytes(),
		R2:   r2.Bytes(),
	})
	if err != nil {
		return "", fmt.Errorf("challenge %s: %w", user, err)
	}

	d.logger.Debug("msg", "Challenge received",
		"component", "client",
		"username", user,
		"auth_id", challenge.AuthID)

	c := new(big.Int).SetBytes(challenge.C)
	s := d.group.Respond(k, c, x)

	answer, err := d.transport.VerifyAnswer(ctx, &auth.AnswerRequest{
		AuthID: challenge.AuthID,
		S:      s.Bytes(),
	})
	if err != nil {
		return "", fmt.Errorf("answer %s: %w", challenge.AuthID, err)
	}

	d.logger.Info("msg", "Login successful",
		"component", "client",
		"username", user,
		"auth_id", challenge.AuthID)
	return answer.SessionID, nil
}

// RegisterAndLogin registers user and logs in with the same password.
func (d *Driver) RegisterAndLogin(ctx context.Context, user, password string) (string, error) {
	if err := d.Register(ctx, user, password); err != nil {
		return "", err
	}
	return d.Login(ctx, user, password)
}

func (d *Driver) secret(user, password string) *big.Int {
	return d.group.DeriveSecret(d.derivation, user, []byte(password))
}
