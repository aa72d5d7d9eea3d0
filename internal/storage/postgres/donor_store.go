package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// DonorStore implements storage.DonorStore using PostgreSQL.
type DonorStore struct {
	pool *Pool
}

// NewDonorStore creates a new DonorStore.
func NewDonorStore(pool *Pool) *DonorStore {
	return &DonorStore{pool: pool}
}

// Compile-time interface check.
var _ storage.DonorStore = (*DonorStore)(nil)

const insertDonorQuery = `
	INSERT INTO donors (account_id, state, zip, gender, employer, groups, birth_year)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

// Insert adds a profile. Returns ErrDuplicateKey if account_id exists.
func (s *DonorStore) Insert(ctx context.Context, p *domain.DonorProfile) error {
	if p == nil || p.AccountID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, insertDonorQuery,
		p.AccountID, p.State, p.Zip, p.Gender, p.Employer, p.Groups, p.BirthYear)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert donor: %w", err)
	}
	return nil
}

// InsertBulk adds multiple profiles atomically. Fails entire batch on any duplicate.
func (s *DonorStore) InsertBulk(ctx context.Context, profiles []*domain.DonorProfile) error {
	if len(profiles) == 0 {
		return nil
	}
	for _, p := range profiles {
		if p == nil || p.AccountID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, p := range profiles {
		_, err := tx.Exec(ctx, insertDonorQuery,
			p.AccountID, p.State, p.Zip, p.Gender, p.Employer, p.Groups, p.BirthYear)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert donor in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByAccount retrieves a profile. Returns ErrNotFound if not exists.
func (s *DonorStore) GetByAccount(ctx context.Context, accountID string) (*domain.DonorProfile, error) {
	query := `
		SELECT account_id, state, zip, gender, employer, groups, birth_year
		FROM donors
		WHERE account_id = $1
	`

	var p domain.DonorProfile
	err := s.pool.QueryRow(ctx, query, accountID).Scan(
		&p.AccountID, &p.State, &p.Zip, &p.Gender, &p.Employer, &p.Groups, &p.BirthYear)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get donor by account: %w", err)
	}
	return &p, nil
}

// GetAll retrieves every profile, ordered by account_id ASC.
func (s *DonorStore) GetAll(ctx context.Context) ([]*domain.DonorProfile, error) {
	query := `
		SELECT account_id, state, zip, gender, employer, groups, birth_year
		FROM donors
		ORDER BY account_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all donors: %w", err)
	}
	defer rows.Close()

	return scanDonors(rows)
}

// scanDonors scans multiple rows into a slice of DonorProfile.
func scanDonors(rows pgx.Rows) ([]*domain.DonorProfile, error) {
	var profiles []*domain.DonorProfile

	for rows.Next() {
		var p domain.DonorProfile
		err := rows.Scan(&p.AccountID, &p.State, &p.Zip, &p.Gender, &p.Employer, &p.Groups, &p.BirthYear)
		if err != nil {
			return nil, fmt.Errorf("scan donor row: %w", err)
		}
		profiles = append(profiles, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate donor rows: %w", err)
	}
	return profiles, nil
}
