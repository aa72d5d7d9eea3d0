package storage

import (
	"context"
	"time"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
)

// TransactionStore provides access to the donation ledger.
type TransactionStore interface {
	// InsertBulk adds multiple transactions atomically.
	InsertBulk(ctx context.Context, txns []*domain.Transaction) error

	// GetAll retrieves every transaction, ordered by (account_id, date) ASC.
	GetAll(ctx context.Context) ([]*domain.Transaction, error)

	// GetByAccount retrieves all transactions for an account, ordered by date ASC.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error)

	// GetDateRange returns the ledger's global min and max transaction date.
	// Returns ErrEmpty when the ledger has no rows.
	GetDateRange(ctx context.Context) (min, max time.Time, err error)
}

// DonorStore provides access to donor demographic profiles.
type DonorStore interface {
	// Insert adds a profile. Returns ErrDuplicateKey if account_id exists.
	Insert(ctx context.Context, p *domain.DonorProfile) error

	// InsertBulk adds multiple profiles atomically. Fails entire batch on any duplicate.
	InsertBulk(ctx context.Context, profiles []*domain.DonorProfile) error

	// GetByAccount retrieves a profile. Returns ErrNotFound if not exists.
	GetByAccount(ctx context.Context, accountID string) (*domain.DonorProfile, error)

	// GetAll retrieves every profile, ordered by account_id ASC.
	GetAll(ctx context.Context) ([]*domain.DonorProfile, error)
}

// SnapshotExampleStore persists generated training examples.
type SnapshotExampleStore interface {
	// InsertBulk adds multiple examples. Fails entire batch on duplicate
	// (account_id, snapshot_date).
	InsertBulk(ctx context.Context, examples []*domain.SnapshotExample) error

	// GetByAccount retrieves all examples for an account, ordered by snapshot_date ASC.
	GetByAccount(ctx context.Context, accountID string) ([]*domain.SnapshotExample, error)

	// GetAll retrieves every example, ordered by (account_id, snapshot_date) ASC.
	GetAll(ctx context.Context) ([]*domain.SnapshotExample, error)
}
