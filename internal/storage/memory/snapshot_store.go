package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// SnapshotExampleStore is an in-memory implementation of storage.SnapshotExampleStore.
type SnapshotExampleStore struct {
	mu   sync.RWMutex
	data map[string]*domain.SnapshotExample // keyed by (account_id, snapshot_date)
}

// NewSnapshotExampleStore creates a new in-memory snapshot example store.
func NewSnapshotExampleStore() *SnapshotExampleStore {
	return &SnapshotExampleStore{data: make(map[string]*domain.SnapshotExample)}
}

func exampleKey(accountID string, snapshotDate int64) string {
	return fmt.Sprintf("%s|%d", accountID, snapshotDate)
}

// InsertBulk adds multiple examples. Fails entire batch on duplicate.
func (s *SnapshotExampleStore) InsertBulk(_ context.Context, examples []*domain.SnapshotExample) error {
	if len(examples) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(examples))
	for _, e := range examples {
		if e == nil || e.AccountID == "" {
			return storage.ErrInvalidInput
		}
		key := exampleKey(e.AccountID, e.SnapshotDate.Unix())
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, e := range examples {
		exampleCopy := *e
		s.data[exampleKey(e.AccountID, e.SnapshotDate.Unix())] = &exampleCopy
	}
	return nil
}

// GetByAccount retrieves all examples for an account, ordered by snapshot_date ASC.
func (s *SnapshotExampleStore) GetByAccount(_ context.Context, accountID string) ([]*domain.SnapshotExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.SnapshotExample
	for _, e := range s.data {
		if e.AccountID == accountID {
			exampleCopy := *e
			result = append(result, &exampleCopy)
		}
	}
	sortExamples(result)
	return result, nil
}

// GetAll retrieves every example, ordered by (account_id, snapshot_date) ASC.
func (s *SnapshotExampleStore) GetAll(_ context.Context) ([]*domain.SnapshotExample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.SnapshotExample, 0, len(s.data))
	for _, e := range s.data {
		exampleCopy := *e
		result = append(result, &exampleCopy)
	}
	sortExamples(result)
	return result, nil
}

func sortExamples(examples []*domain.SnapshotExample) {
	sort.Slice(examples, func(i, j int) bool {
		if examples[i].AccountID != examples[j].AccountID {
			return examples[i].AccountID < examples[j].AccountID
		}
		return examples[i].SnapshotDate.Before(examples[j].SnapshotDate)
	})
}

var _ storage.SnapshotExampleStore = (*SnapshotExampleStore)(nil)
