package jobs

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory job store for tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewMemoryStore creates an in-memory job store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Create(ctx context.Context, record *Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New().String()
	record.ID = id
	stored := cloneRecord(record)
	s.records[id] = stored
	return id, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *MemoryStore) List(ctx context.Context) ([]*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, cloneRecord(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt > out[j].StartedAt })
	return out, nil
}

func (s *MemoryStore) Update(ctx context.Context, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[record.ID]
	if !ok {
		return ErrNotFound
	}
	existing.Status = record.Status
	existing.TranslatedCount = record.TranslatedCount
	existing.CurrentChapter = record.CurrentChapter
	existing.Log = append([]LogEntry(nil), record.Log...)
	existing.Error = record.Error
	existing.UpdatedAt = record.UpdatedAt
	return nil
}

func (s *MemoryStore) SetStatus(ctx context.Context, id string, status Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return ErrNotFound
	}
	record.Status = status
	return nil
}

func cloneRecord(r *Record) *Record {
	copied := *r
	copied.ChapterNumbers = append([]int(nil), r.ChapterNumbers...)
	copied.APIKeys = append([]string(nil), r.APIKeys...)
	copied.Log = append([]LogEntry(nil), r.Log...)
	return &copied
}

// Verify interface
var _ Store = (*MemoryStore)(nil)
var _ Store = (*DefraStore)(nil)
