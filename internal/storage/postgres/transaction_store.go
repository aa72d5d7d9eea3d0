package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// TransactionStore implements storage.TransactionStore using PostgreSQL.
type TransactionStore struct {
	pool *Pool
}

// NewTransactionStore creates a new TransactionStore.
func NewTransactionStore(pool *Pool) *TransactionStore {
	return &TransactionStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TransactionStore = (*TransactionStore)(nil)

// InsertBulk adds multiple transactions atomically.
func (s *TransactionStore) InsertBulk(ctx context.Context, txns []*domain.Transaction) (err error) {
	if len(txns) == 0 {
		return nil
	}
	for _, t := range txns {
		if t == nil || t.AccountID == "" {
			return storage.ErrInvalidInput
		}
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("postgres", "insert_transactions", time.Since(started).Seconds(), err)
	}()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO transactions (account_id, date, amount)
		VALUES ($1, $2, $3)
	`

	for _, t := range txns {
		if _, err := tx.Exec(ctx, query, t.AccountID, t.Date, t.Amount); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert transaction in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves every transaction, ordered by (account_id, date) ASC.
func (s *TransactionStore) GetAll(ctx context.Context) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, date, amount, created_at
		FROM transactions
		ORDER BY account_id ASC, date ASC, id ASC
	`

	started := time.Now()
	rows, err := s.pool.Query(ctx, query)
	observability.RecordDBQuery("postgres", "get_all_transactions", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("get all transactions: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetByAccount retrieves all transactions for an account, ordered by date ASC.
func (s *TransactionStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.Transaction, error) {
	query := `
		SELECT id, account_id, date, amount, created_at
		FROM transactions
		WHERE account_id = $1
		ORDER BY date ASC, id ASC
	`

	rows, err := s.pool.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get transactions by account: %w", err)
	}
	defer rows.Close()

	return scanTransactions(rows)
}

// GetDateRange returns the ledger's global min and max transaction date.
func (s *TransactionStore) GetDateRange(ctx context.Context) (time.Time, time.Time, error) {
	query := `SELECT MIN(date), MAX(date) FROM transactions`

	var min, max *time.Time
	if err := s.pool.QueryRow(ctx, query).Scan(&min, &max); err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("get date range: %w", err)
	}
	if min == nil || max == nil {
		return time.Time{}, time.Time{}, storage.ErrEmpty
	}
	return min.UTC(), max.UTC(), nil
}

// scanTransactions scans multiple rows into a slice of Transaction.
func scanTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	var txns []*domain.Transaction

	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.Date, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan transaction row: %w", err)
		}
		t.Date = t.Date.UTC()
		txns = append(txns, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transaction rows: %w", err)
	}
	return txns, nil
}
