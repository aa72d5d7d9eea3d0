package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// SnapshotExampleStore implements storage.SnapshotExampleStore using
// ClickHouse. The dataset is append-heavy and read back whole for training,
// which suits a MergeTree table far better than a row store.
type SnapshotExampleStore struct {
	conn *Conn
}

// NewSnapshotExampleStore creates a new SnapshotExampleStore.
func NewSnapshotExampleStore(conn *Conn) *SnapshotExampleStore {
	return &SnapshotExampleStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotExampleStore = (*SnapshotExampleStore)(nil)

const exampleColumns = `
	account_id, snapshot_date, first_tx_date, last_tx_date,
	tenure_days, recency_days, n_txn_past,
	sum_amt_past, avg_amt_past, std_amt_past, churn_label,
	state, zip, gender, employer, groups
`

// InsertBulk adds multiple examples. MergeTree does not enforce uniqueness,
// so duplicates are rejected by explicit checks before the batch is sent.
func (s *SnapshotExampleStore) InsertBulk(ctx context.Context, examples []*domain.SnapshotExample) (err error) {
	if len(examples) == 0 {
		return nil
	}

	started := time.Now()
	defer func() {
		observability.RecordDBQuery("clickhouse", "insert_examples", time.Since(started).Seconds(), err)
	}()

	type key struct {
		accountID string
		snapshot  int64
	}
	seen := make(map[key]struct{}, len(examples))
	for _, e := range examples {
		if e == nil || e.AccountID == "" {
			return storage.ErrInvalidInput
		}
		k := key{e.AccountID, e.SnapshotDate.Unix()}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	for _, e := range examples {
		exists, err := s.exists(ctx, e.AccountID, e.SnapshotDate)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, "INSERT INTO snapshot_examples ("+exampleColumns+")")
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range examples {
		err = batch.Append(
			e.AccountID, e.SnapshotDate, e.FirstTxDate, e.LastTxDate,
			int32(e.TenureDays), int32(e.RecencyDays), int32(e.NTxnPast),
			e.SumAmtPast, e.AvgAmtPast, e.StdAmtPast, uint8(e.ChurnLabel),
			e.State, e.Zip, e.Gender, e.Employer, e.Groups,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// GetByAccount retrieves all examples for an account, ordered by snapshot_date ASC.
func (s *SnapshotExampleStore) GetByAccount(ctx context.Context, accountID string) ([]*domain.SnapshotExample, error) {
	query := `
		SELECT ` + exampleColumns + `
		FROM snapshot_examples
		WHERE account_id = ?
		ORDER BY snapshot_date ASC
	`

	rows, err := s.conn.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("query examples by account: %w", err)
	}
	defer rows.Close()

	return scanExamples(rows)
}

// GetAll retrieves every example, ordered by (account_id, snapshot_date) ASC.
func (s *SnapshotExampleStore) GetAll(ctx context.Context) ([]*domain.SnapshotExample, error) {
	query := `
		SELECT ` + exampleColumns + `
		FROM snapshot_examples
		ORDER BY account_id ASC, snapshot_date ASC
	`

	started := time.Now()
	rows, err := s.conn.Query(ctx, query)
	observability.RecordDBQuery("clickhouse", "get_all_examples", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("query all examples: %w", err)
	}
	defer rows.Close()

	return scanExamples(rows)
}

func (s *SnapshotExampleStore) exists(ctx context.Context, accountID string, snapshotDate time.Time) (bool, error) {
	query := `
		SELECT count() FROM snapshot_examples
		WHERE account_id = ? AND snapshot_date = ?
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, accountID, snapshotDate).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanExamples scans multiple rows into a slice of SnapshotExample.
func scanExamples(rows driver.Rows) ([]*domain.SnapshotExample, error) {
	var examples []*domain.SnapshotExample

	for rows.Next() {
		var (
			e                     domain.SnapshotExample
			tenure, recency, nTxn int32
			churn                 uint8
			snap, firstTx, lastTx time.Time
		)
		err := rows.Scan(
			&e.AccountID, &snap, &firstTx, &lastTx,
			&tenure, &recency, &nTxn,
			&e.SumAmtPast, &e.AvgAmtPast, &e.StdAmtPast, &churn,
			&e.State, &e.Zip, &e.Gender, &e.Employer, &e.Groups,
		)
		if err != nil {
			return nil, fmt.Errorf("scan example row: %w", err)
		}
		e.SnapshotDate = snap.UTC()
		e.FirstTxDate = firstTx.UTC()
		e.LastTxDate = lastTx.UTC()
		e.TenureDays = int(tenure)
		e.RecencyDays = int(recency)
		e.NTxnPast = int(nTxn)
		e.ChurnLabel = int(churn)
		examples = append(examples, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate example rows: %w", err)
	}
	return examples, nil
}
