package snippet

import (
	"sync"

	"github.com/codemem/codemem/core"
)

// keyedMutex serializes writes per document id: at most one in-flight write
// per natural key, while writes to different keys proceed concurrently.
// Entries are removed once no writer holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[core.ID]*keyEntry
}

type keyEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[core.ID]*keyEntry)}
}

func (k *keyedMutex) lock(id core.ID) {
	k.mu.Lock()
	entry := k.locks[id]
	if entry == nil {
		entry = &keyEntry{}
		k.locks[id] = entry
	}
	entry.refs++
	k.mu.Unlock()

	entry.mu.Lock()
}

func (k *keyedMutex) unlock(id core.ID) {
	k.mu.Lock()
	entry := k.locks[id]
	entry.refs--
	if entry.refs == 0 {
		delete(k.locks, id)
	}
	k.mu.Unlock()

	entry.mu.Unlock()
}
