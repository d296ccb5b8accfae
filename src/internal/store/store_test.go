// FILE: zkpauth/src/internal/store/store_test.go
package store

import (
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCredentialStore(t *testing.T) {
	t.Run("GetMissing", func(t *testing.T) {
		s := NewCredentialStore(4)
		rec, exists := s.Get("alice")
		assert.False(t, exists)
		assert.Nil(t, rec)
	})

	t.Run("UpsertAndOverwrite", func(t *testing.T) {
		s := NewCredentialStore(4)
		replaced := s.Upsert("alice", &UserRecord{Y1: big.NewInt(8), Y2: big.NewInt(4)})
		assert.False(t, replaced)

		replaced = s.Upsert("alice", &UserRecord{Y1: big.NewInt(3), Y2: big.NewInt(6)})
		assert.True(t, replaced)

		rec, exists := s.Get("alice")
		require.True(t, exists)
		assert.Equal(t, "alice", rec.Username)
		assert.Equal(t, int64(3), rec.Y1.Int64())
		assert.Nil(t, rec.C)
		assert.Equal(t, 1, s.Len())
	})

	t.Run("GetReturnsCopy", func(t *testing.T) {
		s := NewCredentialStore(4)
		original := &UserRecord{Y1: big.NewInt(8), Y2: big.NewInt(4)}
		s.Upsert("alice", original)
		original.Y1.SetInt64(99)

		rec, _ := s.Get("alice")
		rec.Y2.SetInt64(77)

		again, _ := s.Get("alice")
		assert.Equal(t, int64(8), again.Y1.Int64())
		assert.Equal(t, int64(4), again.Y2.Int64())
	})

	t.Run("Update", func(t *testing.T) {
		s := NewCredentialStore(4)
		s.Upsert("alice", &UserRecord{Y1: big.NewInt(8), Y2: big.NewInt(4)})

		err := s.Update("alice", func(rec *UserRecord) {
			rec.C = big.NewInt(5)
		})
		require.NoError(t, err)

		rec, _ := s.Get("alice")
		assert.Equal(t, int64(5), rec.C.Int64())

		err = s.Update("bob", func(rec *UserRecord) {})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("DefaultShards", func(t *testing.T) {
		s := NewCredentialStore(0)
		assert.Len(t, s.shards, defaultShards)
	})
}

func TestChallengeRegistry(t *testing.T) {
	modes := []struct {
		name string
		opts RegistryOptions
	}{
		{name: "Map", opts: RegistryOptions{}},
		{name: "ExpiringLRU", opts: RegistryOptions{TTL: time.Hour}},
	}

	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			r := NewChallengeRegistry(mode.opts)

			_, exists := r.Get("missing")
			assert.False(t, exists)

			r.Upsert("auth1", AuthSession{Username: "alice"})
			session, exists := r.Get("auth1")
			require.True(t, exists)
			assert.Equal(t, "auth1", session.AuthID)
			assert.Equal(t, "alice", session.Username)

			err := r.Update("auth1", func(s *AuthSession) { s.Username = "bob" })
			require.NoError(t, err)
			session, _ = r.Get("auth1")
			assert.Equal(t, "bob", session.Username)

			err = r.Update("missing", func(s *AuthSession) {})
			assert.ErrorIs(t, err, ErrNotFound)

			assert.Equal(t, 1, r.Len())
			assert.True(t, r.Remove("auth1"))
			assert.False(t, r.Remove("auth1"))
			assert.Equal(t, 0, r.Len())

			r.Upsert("auth2", AuthSession{Username: "carol"})
			session, exists = r.Take("auth2")
			require.True(t, exists)
			assert.Equal(t, "carol", session.Username)
			_, exists = r.Take("auth2")
			assert.False(t, exists)
			assert.Equal(t, 0, r.Len())
		})
	}

	t.Run("TTLExpiry", func(t *testing.T) {
		r := NewChallengeRegistry(RegistryOptions{TTL: 50 * time.Millisecond})
		r.Upsert("auth1", AuthSession{Username: "alice"})
		time.Sleep(150 * time.Millisecond)

		_, exists := r.Get("auth1")
		assert.False(t, exists)
	})

	t.Run("MaxEntriesEvictsOldest", func(t *testing.T) {
		r := NewChallengeRegistry(RegistryOptions{TTL: time.Hour, MaxEntries: 2})
		r.Upsert("auth1", AuthSession{Username: "alice"})
		r.Upsert("auth2", AuthSession{Username: "alice"})
		r.Upsert("auth3", AuthSession{Username: "alice"})

		_, exists := r.Get("auth1")
		assert.False(t, exists)
		_, exists = r.Get("auth3")
		assert.True(t, exists)
		assert.Equal(t, 2, r.Len())
	})
}

func TestLedger(t *testing.T) {
	t.Run("IssueChallengeUnknownUser", func(t *testing.T) {
		l := NewLedger(4, RegistryOptions{})
		err := l.IssueChallenge("alice", AuthSession{AuthID: "auth1"}, func(rec *UserRecord) {})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, l.Challenges.Len())
	})

	t.Run("IssueAndResolve", func(t *testing.T) {
		l := NewLedger(4, RegistryOptions{})
		l.Credentials.Upsert("alice", &UserRecord{Y1: big.NewInt(8), Y2: big.NewInt(4)})

		err := l.IssueChallenge("alice", AuthSession{AuthID: "auth1"}, func(rec *UserRecord) {
			rec.C = big.NewInt(5)
		})
		require.NoError(t, err)

		var snapshot *UserRecord
		session, err := l.ResolveChallenge("auth1", false, func(rec *UserRecord) {
			rec.S = big.NewInt(1)
			snapshot = rec.Clone()
		})
		require.NoError(t, err)
		assert.Equal(t, "alice", session.Username)
		assert.Equal(t, int64(5), snapshot.C.Int64())
		assert.Equal(t, int64(1), snapshot.S.Int64())
	})

	t.Run("ResolveUnknownAuthID", func(t *testing.T) {
		l := NewLedger(4, RegistryOptions{})
		_, err := l.ResolveChallenge("nope", false, func(rec *UserRecord) {})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NotErrorIs(t, err, ErrOrphanedSession)
	})

	t.Run("ResolveConsumes", func(t *testing.T) {
		l := NewLedger(4, RegistryOptions{})
		l.Credentials.Upsert("alice", &UserRecord{Y1: big.NewInt(8), Y2: big.NewInt(4)})
		require.NoError(t, l.IssueChallenge("alice", AuthSession{AuthID: "auth1"}, func(rec *UserRecord) {}))

		_, err := l.ResolveChallenge("auth1", true, func(rec *UserRecord) {})
		require.NoError(t, err)
		_, err = l.ResolveChallenge("auth1", true, func(rec *UserRecord) {})
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Equal(t, 0, l.Challenges.Len())
	})

	t.Run("ResolveOrphanedSession", func(t *testing.T) {
		l := NewLedger(4, RegistryOptions{})
		l.Challenges.Upsert("auth1", AuthSession{Username: "ghost"})
		_, err := l.ResolveChallenge("auth1", false, func(rec *UserRecord) {})
		assert.ErrorIs(t, err, ErrOrphanedSession)
	})
}

// Issue and resolve interleave across and within users; the test fails by
// timeout if the lock order ever inverts.
func TestLedgerConcurrentAccess(t *testing.T) {
	l := NewLedger(4, RegistryOptions{})
	const users = 8
	const perUser = 50

	for u := 0; u < users; u++ {
		l.Credentials.Upsert(fmt.Sprintf("user%d", u), &UserRecord{Y1: big.NewInt(1), Y2: big.NewInt(1)})
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		var wg sync.WaitGroup
		for u := 0; u < users; u++ {
			username := fmt.Sprintf("user%d", u)
			for i := 0; i < perUser; i++ {
				authID := fmt.Sprintf("%s-%d", username, i)
				wg.Add(2)
				go func() {
					defer wg.Done()
					_ = l.IssueChallenge(username, AuthSession{AuthID: authID}, func(rec *UserRecord) {
						rec.C = big.NewInt(int64(i))
					})
				}()
				go func() {
					defer wg.Done()
					_, _ = l.ResolveChallenge(authID, i%2 == 0, func(rec *UserRecord) {
						rec.S = big.NewInt(int64(i))
					})
				}()
			}
		}
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("ledger operations did not complete")
	}

	assert.Equal(t, users*perUser, l.Challenges.Len())
}
