// FILE: zkpauth/src/internal/store/ledger.go
package store

import (
	"errors"
	"fmt"
)

// Ledger pairs the two stores and is the only place where both are locked at
// the same time, always credentials first.
type Ledger struct {
	Credentials *CredentialStore
	Challenges  *ChallengeRegistry
}

// NewLedger wires a fresh credential store and challenge registry.
func NewLedger(shards int, opts RegistryOptions) *Ledger {
	return &Ledger{
		Credentials: NewCredentialStore(shards),
		Challenges:  NewChallengeRegistry(opts),
	}
}

// IssueChallenge applies fn to the user's record and registers session under
// the same credential lock, so the record update and the new auth id become
// visible together. Returns ErrNotFound if the user is not registered.
func (l *Ledger) IssueChallenge(username string, session AuthSession, fn func(rec *UserRecord)) error {
	return l.Credentials.withRecord(username, func(rec *UserRecord) error {
		fn(rec)
		session.Username = username
		l.Challenges.Upsert(session.AuthID, session)
		return nil
	})
}

// ResolveChallenge looks up authID, releases the registry lock, then applies
// fn to the owning user's record under its credential lock. The two lookups
// are never nested in registry-first order. With consume set the auth id is
// taken out of the registry atomically, so concurrent resolves of the same id
// see it at most once. A missing auth id yields ErrNotFound; a missing record
// yields ErrOrphanedSession.
func (l *Ledger) ResolveChallenge(authID string, consume bool, fn func(rec *UserRecord)) (AuthSession, error) {
	var session AuthSession
	var exists bool
	if consume {
		session, exists = l.Challenges.Take(authID)
	} else {
		session, exists = l.Challenges.Get(authID)
	}
	if !exists {
		return AuthSession{}, fmt.Errorf("auth id %q: %w", authID, ErrNotFound)
	}

	if err := l.Credentials.Update(session.Username, fn); err != nil {
		if errors.Is(err, ErrNotFound) {
			return session, fmt.Errorf("auth id %q user %q: %w", authID, session.Username, ErrOrphanedSession)
		}
		return session, err
	}
	return session, nil
}
