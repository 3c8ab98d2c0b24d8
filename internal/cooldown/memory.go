package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/orderbot/pkg/enums"
)

type memoryKey struct {
	userID int64
	kind   enums.CooldownKind
}

// MemoryStore keeps cooldown timestamps in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	last map[memoryKey]time.Time
}

// NewMemoryStore builds an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{last: make(map[memoryKey]time.Time)}
}

func (m *MemoryStore) Last(_ context.Context, userID int64, kind enums.CooldownKind) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	at, ok := m.last[memoryKey{userID: userID, kind: kind}]
	return at, ok, nil
}

func (m *MemoryStore) Record(_ context.Context, userID int64, kind enums.CooldownKind, at time.Time, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last[memoryKey{userID: userID, kind: kind}] = at
	return nil
}

func (m *MemoryStore) Clear(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, kind := range enums.CooldownKinds() {
		delete(m.last, memoryKey{userID: userID, kind: kind})
	}
	return nil
}
