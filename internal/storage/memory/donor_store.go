package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// DonorStore is an in-memory implementation of storage.DonorStore.
type DonorStore struct {
	mu   sync.RWMutex
	data map[string]*domain.DonorProfile // keyed by account_id
}

// NewDonorStore creates a new in-memory donor store.
func NewDonorStore() *DonorStore {
	return &DonorStore{data: make(map[string]*domain.DonorProfile)}
}

// Insert adds a profile. Returns ErrDuplicateKey if account_id exists.
func (s *DonorStore) Insert(_ context.Context, p *domain.DonorProfile) error {
	if p == nil || p.AccountID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[p.AccountID]; exists {
		return storage.ErrDuplicateKey
	}
	profileCopy := *p
	s.data[p.AccountID] = &profileCopy
	return nil
}

// InsertBulk adds multiple profiles atomically. Fails entire batch on any duplicate.
func (s *DonorStore) InsertBulk(_ context.Context, profiles []*domain.DonorProfile) error {
	if len(profiles) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(profiles))
	for _, p := range profiles {
		if p == nil || p.AccountID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[p.AccountID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[p.AccountID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[p.AccountID] = struct{}{}
	}

	for _, p := range profiles {
		profileCopy := *p
		s.data[p.AccountID] = &profileCopy
	}
	return nil
}

// GetByAccount retrieves a profile. Returns ErrNotFound if not exists.
func (s *DonorStore) GetByAccount(_ context.Context, accountID string) (*domain.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[accountID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	profileCopy := *p
	return &profileCopy, nil
}

// GetAll retrieves every profile, ordered by account_id ASC.
func (s *DonorStore) GetAll(_ context.Context) ([]*domain.DonorProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.DonorProfile, 0, len(s.data))
	for _, p := range s.data {
		profileCopy := *p
		result = append(result, &profileCopy)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].AccountID < result[j].AccountID
	})
	return result, nil
}

var _ storage.DonorStore = (*DonorStore)(nil)
