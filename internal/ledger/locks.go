package ledger

import (
	"sort"
	"sync"
)

// keyedLocks serializes operations per entity id. Concurrent actions on the
// same record or wallet take the same mutex; actions on different entities
// proceed independently.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedLocks) lockFor(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()

	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Acquire locks every key and returns the release function. Keys are
// deduplicated and acquired in sorted order so that two multi-entity
// operations can never deadlock against each other.
func (k *keyedLocks) Acquire(keys ...string) func() {
	uniq := make(map[string]bool, len(keys))
	ordered := make([]string, 0, len(keys))
	for _, key := range keys {
		if key == "" || uniq[key] {
			continue
		}
		uniq[key] = true
		ordered = append(ordered, key)
	}
	sort.Strings(ordered)

	held := make([]*sync.Mutex, 0, len(ordered))
	for _, key := range ordered {
		m := k.lockFor(key)
		m.Lock()
		held = append(held, m)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].Unlock()
		}
	}
}
