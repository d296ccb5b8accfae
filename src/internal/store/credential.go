// FILE: zkpauth/src/internal/store/credential.go
package store

import (
	"fmt"
	"math/big"
	"sync"
	"time"
)

// UserRecord holds a user's registered commitments and the state of the most
// recent challenge. Challenge fields are nil until the first challenge.
type UserRecord struct {
	Username string

	// Registered public commitments
	Y1 *big.Int
	Y2 *big.Int

	// In-flight challenge
	R1 *big.Int
	R2 *big.Int
	C  *big.Int
	S  *big.Int

	RegisteredAt time.Time
	ChallengedAt time.Time
}

// Clone returns a deep copy so callers never share big.Int values with the store.
func (r *UserRecord) Clone() *UserRecord {
	if r == nil {
		return nil
	}
	return &UserRecord{
		Username:     r.Username,
		Y1:           cloneInt(r.Y1),
		Y2:           cloneInt(r.Y2),
		R1:           cloneInt(r.R1),
		R2:           cloneInt(r.R2),
		C:            cloneInt(r.C),
		S:            cloneInt(r.S),
		RegisteredAt: r.RegisteredAt,
		ChallengedAt: r.ChallengedAt,
	}
}

func cloneInt(n *big.Int) *big.Int {
	if n == nil {
		return nil
	}
	return new(big.Int).Set(n)
}

type credentialShard struct {
	mu      sync.RWMutex
	records map[string]*UserRecord
}

// CredentialStore is a concurrent map from username to UserRecord. Keys are
// spread over independently locked shards so different users do not contend.
type CredentialStore struct {
	shards []*credentialShard
}

// NewCredentialStore creates a store with the given number of shards.
// A non-positive count selects the default.
func NewCredentialStore(shards int) *CredentialStore {
	if shards <= 0 {
		shards = defaultShards
	}
	s := &CredentialStore{shards: make([]*credentialShard, shards)}
	for i := range s.shards {
		s.shards[i] = &credentialShard{records: make(map[string]*UserRecord)}
	}
	return s
}

func (s *CredentialStore) shard(username string) *credentialShard {
	return s.shards[shardIndex(username, len(s.shards))]
}

// Get returns a copy of the record for username.
func (s *CredentialStore) Get(username string) (*UserRecord, bool) {
	sh := s.shard(username)
	sh.mu.RLock()
	defer sh.mu.RUnlock()

	rec, exists := sh.records[username]
	if !exists {
		return nil, false
	}
	return rec.Clone(), true
}

// Upsert inserts or replaces the record for username and reports whether a
// previous record was overwritten.
func (s *CredentialStore) Upsert(username string, rec *UserRecord) (replaced bool) {
	stored := rec.Clone()
	stored.Username = username

	sh := s.shard(username)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	_, replaced = sh.records[username]
	sh.records[username] = stored
	return replaced
}

// Update applies fn to the stored record under the shard's write lock.
func (s *CredentialStore) Update(username string, fn func(rec *UserRecord)) error {
	return s.withRecord(username, func(rec *UserRecord) error {
		fn(rec)
		return nil
	})
}

// withRecord runs fn with the shard write lock held. Ledger uses it to nest
// the registry lock inside the credential lock.
func (s *CredentialStore) withRecord(username string, fn func(rec *UserRecord) error) error {
	sh := s.shard(username)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, exists := sh.records[username]
	if !exists {
		return fmt.Errorf("user %q: %w", username, ErrNotFound)
	}
	return fn(rec)
}

// Len returns the number of registered users.
func (s *CredentialStore) Len() int {
	total := 0
	for _, sh := range s.shards {
		sh.mu.RLock()
		total += len(sh.records)
		sh.mu.RUnlock()
	}
	return total
}
