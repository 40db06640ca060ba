package application

import (
	"sync"

	"github.com/google/uuid"
)

const lockShards = 32

// keyLock serializes mutations per identity without a global mutex. Shards
// are picked off the first identity byte; identities landing on different
// shards never contend. The count is a power of two.
type keyLock struct {
	shards [lockShards]sync.Mutex
}

func (l *keyLock) lock(id uuid.UUID) *sync.Mutex {
	m := &l.shards[id[0]&(lockShards-1)]
	m.Lock()
	return m
}
