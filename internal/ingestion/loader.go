package ingestion

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// Loader reads CSV exports from disk into the ledger and donor stores.
type Loader struct {
	txStore    storage.TransactionStore
	donorStore storage.DonorStore
	logger     *log.Logger
}

// NewLoader creates a Loader. donorStore may be nil when only the ledger is
// being loaded.
func NewLoader(txStore storage.TransactionStore, donorStore storage.DonorStore, logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.Default()
	}
	return &Loader{txStore: txStore, donorStore: donorStore, logger: logger}
}

// LoadTransactions ingests the ledger export at path.
func (l *Loader) LoadTransactions(ctx context.Context, path string) ([]*domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions: %w", err)
	}
	defer f.Close()

	txns, stats, err := ReadTransactions(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if dropped := stats.Total(); dropped > 0 {
		l.logger.Printf("[ingestion] %s: dropped %d rows (%d bad date, %d bad amount, %d no account)",
			path, dropped, stats.BadDate, stats.BadAmount, stats.NoAccount)
	}

	if err := l.txStore.InsertBulk(ctx, txns); err != nil {
		return nil, fmt.Errorf("store transactions: %w", err)
	}
	observability.RecordRowsIngested(len(txns), 0)
	l.logger.Printf("[ingestion] %s: loaded %d transactions", path, len(txns))
	return txns, nil
}

// LoadDonors ingests the donor profile export at path.
func (l *Loader) LoadDonors(ctx context.Context, path string) ([]*domain.DonorProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open donors: %w", err)
	}
	defer f.Close()

	donors, stats, err := ReadDonors(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if dropped := stats.Total(); dropped > 0 {
		l.logger.Printf("[ingestion] %s: dropped %d rows (%d no account, %d duplicate)",
			path, dropped, stats.NoAccount, stats.Duplicates)
	}

	if err := l.donorStore.InsertBulk(ctx, donors); err != nil {
		return nil, fmt.Errorf("store donors: %w", err)
	}
	observability.RecordRowsIngested(0, len(donors))
	l.logger.Printf("[ingestion] %s: loaded %d donor profiles", path, len(donors))
	return donors, nil
}
