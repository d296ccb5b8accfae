// FILE: zkpauth/src/internal/store/store.go

// Package store holds the in-memory state of the authentication server: the
// credential records keyed by username and the registry of issued auth ids.
//
// Lock ordering: any code path that holds locks of both stores acquires a
// credential shard lock first and the registry lock second. Only Ledger holds
// both at once. Nothing acquires a credential lock while holding the registry lock.
package store

import (
	"errors"
	"hash/fnv"
)

var (
	// ErrNotFound is returned when a key has no entry.
	ErrNotFound = errors.New("not found")
	// ErrOrphanedSession means an auth id resolves to a username without a
	// credential record. Records are never deleted, so this indicates a bug.
	ErrOrphanedSession = errors.New("auth session has no credential record")
)

const defaultShards = 32

func shardIndex(key string, n int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % uint32(n))
}
