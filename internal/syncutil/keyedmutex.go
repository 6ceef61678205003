// Package syncutil provides the per-account locking primitive used to
// serialize profile writes.
package syncutil

import (
	"context"
	"hash/fnv"
)

const shardCount = 128

// KeyedMutex is a fixed pool of channel-based mutexes keyed by string,
// supporting context cancellation while waiting. Memory is bounded
// regardless of key cardinality; distinct keys hashing to the same shard
// contend with each other, which is acceptable for short critical sections.
type KeyedMutex struct {
	shards [shardCount]chan struct{}
}

// NewKeyedMutex returns a KeyedMutex with all shards unlocked.
func NewKeyedMutex() *KeyedMutex {
	m := &KeyedMutex{}
	for i := range m.shards {
		m.shards[i] = make(chan struct{}, 1)
		m.shards[i] <- struct{}{}
	}
	return m
}

// Lock acquires the mutex for key, honoring ctx while waiting. On success
// it returns an unlock function the caller must invoke; on cancellation it
// returns nil and the context error.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	shard := m.shards[m.index(key)]
	select {
	case <-shard:
		return func() { shard <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) index(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % shardCount
}
