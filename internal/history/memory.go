package history

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/crystaldolphin/orchestrator/internal/schema"
)

const defaultMemoryLimit = 1000

// MemoryStore keeps the most recent entries in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	limit   int
	entries []schema.HistoryEntry
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore keeps at most limit entries (1000 if limit <= 0), dropping
// the oldest first.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = defaultMemoryLimit
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) Record(_ context.Context, e schema.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
	if over := len(s.entries) - s.limit; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	return nil
}

func (s *MemoryStore) Since(_ context.Context, since time.Time) ([]schema.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]schema.HistoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.StartedAt.Before(since) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
