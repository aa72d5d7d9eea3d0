package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// TransactionStore is an in-memory implementation of storage.TransactionStore.
type TransactionStore struct {
	mu     sync.RWMutex
	nextID int64
	data   []*domain.Transaction
}

// NewTransactionStore creates a new in-memory transaction store.
func NewTransactionStore() *TransactionStore {
	return &TransactionStore{nextID: 1}
}

// InsertBulk adds multiple transactions atomically.
func (s *TransactionStore) InsertBulk(_ context.Context, txns []*domain.Transaction) error {
	if len(txns) == 0 {
		return nil
	}

	for _, t := range txns {
		if t == nil || t.AccountID == "" {
			return storage.ErrInvalidInput
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, t := range txns {
		txCopy := *t
		txCopy.ID = s.nextID
		txCopy.CreatedAt = now
		s.nextID++
		s.data = append(s.data, &txCopy)
	}
	return nil
}

// GetAll retrieves every transaction, ordered by (account_id, date) ASC.
func (s *TransactionStore) GetAll(_ context.Context) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Transaction, 0, len(s.data))
	for _, t := range s.data {
		txCopy := *t
		result = append(result, &txCopy)
	}
	sortTransactions(result)
	return result, nil
}

// GetByAccount retrieves all transactions for an account, ordered by date ASC.
func (s *TransactionStore) GetByAccount(_ context.Context, accountID string) ([]*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Transaction
	for _, t := range s.data {
		if t.AccountID == accountID {
			txCopy := *t
			result = append(result, &txCopy)
		}
	}
	sortTransactions(result)
	return result, nil
}

// GetDateRange returns the global min and max transaction date.
func (s *TransactionStore) GetDateRange(_ context.Context) (time.Time, time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.data) == 0 {
		return time.Time{}, time.Time{}, storage.ErrEmpty
	}

	min, max := s.data[0].Date, s.data[0].Date
	for _, t := range s.data {
		if t.Date.Before(min) {
			min = t.Date
		}
		if t.Date.After(max) {
			max = t.Date
		}
	}
	return min, max, nil
}

func sortTransactions(txns []*domain.Transaction) {
	sort.Slice(txns, func(i, j int) bool {
		if txns[i].AccountID != txns[j].AccountID {
			return txns[i].AccountID < txns[j].AccountID
		}
		if !txns[i].Date.Equal(txns[j].Date) {
			return txns[i].Date.Before(txns[j].Date)
		}
		return txns[i].ID < txns[j].ID
	})
}

var _ storage.TransactionStore = (*TransactionStore)(nil)
