// FILE: zkpauth/src/internal/store/registry.go
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// AuthSession maps an issued auth id to the username it was issued for.
type AuthSession struct {
	AuthID    string
	Username  string
	CreatedAt time.Time
}

// RegistryOptions controls eviction of auth sessions. The zero value keeps
// every entry forever.
type RegistryOptions struct {
	// TTL evicts entries older than this duration. Zero disables expiry.
	TTL time.Duration
	// MaxEntries bounds the registry when TTL is set; the oldest entries are
	// dropped first. Zero means unbounded.
	MaxEntries int
}

// ChallengeRegistry is a concurrent map from auth id to AuthSession.
type ChallengeRegistry struct {
	mu       sync.RWMutex
	sessions map[string]AuthSession
	lru      *expirable.LRU[string, AuthSession]
}

// NewChallengeRegistry creates a registry. With a TTL configured, entries are
// kept in an expiring LRU instead of a plain map.
func NewChallengeRegistry(opts RegistryOptions) *ChallengeRegistry {
	r := &ChallengeRegistry{}
	if opts.TTL > 0 {
		r.lru = expirable.NewLRU[string, AuthSession](opts.MaxEntries, nil, opts.TTL)
	} else {
		r.sessions = make(map[string]AuthSession)
	}
	return r
}

// Get returns the session for authID.
func (r *ChallengeRegistry) Get(authID string) (AuthSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.get(authID)
}

func (r *ChallengeRegistry) get(authID string) (AuthSession, bool) {
	if r.lru != nil {
		return r.lru.Get(authID)
	}
	session, exists := r.sessions[authID]
	return session, exists
}

// Upsert inserts or replaces the session for authID.
func (r *ChallengeRegistry) Upsert(authID string, session AuthSession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.put(authID, session)
}

func (r *ChallengeRegistry) put(authID string, session AuthSession) {
	session.AuthID = authID
	if r.lru != nil {
		r.lru.Add(authID, session)
		return
	}
	r.sessions[authID] = session
}

// Update applies fn to a copy of the stored session and writes it back.
func (r *ChallengeRegistry) Update(authID string, fn func(session *AuthSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.get(authID)
	if !exists {
		return fmt.Errorf("auth id %q: %w", authID, ErrNotFound)
	}
	fn(&session)
	r.put(authID, session)
	return nil
}

// Remove deletes authID and reports whether it was present.
func (r *ChallengeRegistry) Remove(authID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lru != nil {
		return r.lru.Remove(authID)
	}
	_, exists := r.sessions[authID]
	delete(r.sessions, authID)
	return exists
}

// Take returns the session for authID and deletes it in one step, so at most
// one caller ever receives a given session.
func (r *ChallengeRegistry) Take(authID string) (AuthSession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, exists := r.get(authID)
	if !exists {
		return AuthSession{}, false
	}
	if r.lru != nil {
		r.lru.Remove(authID)
	} else {
		delete(r.sessions, authID)
	}
	return session, true
}

// Len returns the number of live auth sessions.
func (r *ChallengeRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.lru != nil {
		return r.lru.Len()
	}
	return len(r.sessions)
}
