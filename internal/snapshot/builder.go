package snapshot

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

// Params configure the snapshot dataset builder.
type Params struct {
	// PredictionWindowDays is the forward-looking label window.
	PredictionWindowDays int
	// SnapshotFreq is the cadence between snapshot dates.
	SnapshotFreq Frequency
	// MinHistoryDays offsets the first snapshot from the ledger's earliest date.
	MinHistoryDays int
	// ActiveRecencyMax filters snapshots where the account was already cold:
	// examples with recency_days above this value are not emitted.
	ActiveRecencyMax int
	// Workers bounds per-account parallelism. 0 means GOMAXPROCS.
	Workers int
}

// DefaultParams mirror a quarterly churn definition with monthly snapshots.
func DefaultParams() Params {
	return Params{
		PredictionWindowDays: 90,
		SnapshotFreq:         Frequency{Days: 30},
		MinHistoryDays:       90,
		ActiveRecencyMax:     90,
	}
}

// Builder generates the leakage-free snapshot dataset: one example per
// (account, snapshot date) pair meeting eligibility, features from
// transactions at or before the snapshot date, label from the window
// strictly after it.
//
// An account that has gone cold at snapshot T is filtered at T but still
// contributes examples at its earlier, still-eligible snapshots; those may
// carry a negative label. That asymmetry is intentional: dormant accounts
// are churned by construction and carry no signal at T, while the earlier
// snapshots record the behavior that led there.
type Builder struct {
	txStore    storage.TransactionStore
	donorStore storage.DonorStore
	params     Params
}

// NewBuilder creates a Builder. donorStore may be nil, in which case
// examples carry no demographics.
func NewBuilder(txStore storage.TransactionStore, donorStore storage.DonorStore, params Params) *Builder {
	return &Builder{txStore: txStore, donorStore: donorStore, params: params}
}

// Build walks every account's history at the configured cadence and emits
// the snapshot example table. Transactions are assumed date-resolved;
// ingestion drops unparseable rows before they reach the ledger store.
//
// Returns ErrInsufficientSpan when the snapshot range is empty or inverted
// and ErrNoExamples when filtering removes every candidate. Output order is
// (account, snapshot date) ascending, but consumers must not rely on it.
func (b *Builder) Build(ctx context.Context) ([]*domain.SnapshotExample, error) {
	txns, err := b.txStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("load transactions: %w", storage.ErrEmpty)
	}

	minDate, maxDate := txns[0].Date, txns[0].Date
	for _, t := range txns {
		if t.Date.Before(minDate) {
			minDate = t.Date
		}
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
	}

	start := minDate.AddDate(0, 0, b.params.MinHistoryDays)
	end := maxDate.AddDate(0, 0, -b.params.PredictionWindowDays)
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: ledger spans %s..%s, snapshot range %s..%s",
			ErrInsufficientSpan,
			minDate.Format("2006-01-02"), maxDate.Format("2006-01-02"),
			start.Format("2006-01-02"), end.Format("2006-01-02"))
	}
	dates := b.params.SnapshotFreq.Dates(start, end)

	accounts := groupByAccount(txns)

	workers := b.params.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// Accounts are independent: no cross-account state, each slot written
	// by exactly one goroutine.
	results := make([][]*domain.SnapshotExample, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range accounts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = buildAccountExamples(accounts[i], dates, b.params)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var examples []*domain.SnapshotExample
	for _, r := range results {
		examples = append(examples, r...)
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}

	if b.donorStore != nil {
		if err := b.attachDemographics(ctx, examples); err != nil {
			return nil, err
		}
	}
	return examples, nil
}

// BuildAt computes features for every account as of a single date, for
// scoring rather than training. Labels are meaningless without a complete
// forward window and are zeroed. Accounts cold at asOf are filtered the
// same way Build filters them.
func (b *Builder) BuildAt(ctx context.Context, asOf time.Time) ([]*domain.SnapshotExample, error) {
	txns, err := b.txStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load transactions: %w", err)
	}
	if len(txns) == 0 {
		return nil, fmt.Errorf("load transactions: %w", storage.ErrEmpty)
	}

	dates := []time.Time{asOf}
	var examples []*domain.SnapshotExample
	for _, acc := range groupByAccount(txns) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		examples = append(examples, buildAccountExamples(acc, dates, b.params)...)
	}
	if len(examples) == 0 {
		return nil, ErrNoExamples
	}
	for _, e := range examples {
		e.ChurnLabel = 0
	}

	if b.donorStore != nil {
		if err := b.attachDemographics(ctx, examples); err != nil {
			return nil, err
		}
	}
	return examples, nil
}

// accountHistory holds one account's transactions, date ascending.
type accountHistory struct {
	accountID string
	txns      []*domain.Transaction
}

// groupByAccount splits the (account, date)-sorted ledger into per-account runs.
func groupByAccount(txns []*domain.Transaction) []accountHistory {
	var accounts []accountHistory
	start := 0
	for i := 1; i <= len(txns); i++ {
		if i == len(txns) || txns[i].AccountID != txns[start].AccountID {
			accounts = append(accounts, accountHistory{
				accountID: txns[start].AccountID,
				txns:      txns[start:i],
			})
			start = i
		}
	}
	return accounts
}

// buildAccountExamples runs the forward fold for one account: transactions
// are consumed once, in date order, maintaining running count/sum/sum-of-
// squares; an example is emitted whenever the cursor passes an eligible
// snapshot date. Nothing dated after the snapshot ever enters the running
// aggregates.
func buildAccountExamples(acc accountHistory, dates []time.Time, p Params) []*domain.SnapshotExample {
	if len(acc.txns) == 0 {
		return nil
	}
	first := acc.txns[0].Date

	var (
		out    []*domain.SnapshotExample
		n      int
		sum    float64
		sumSq  float64
		last   time.Time
		cursor int
	)

	for _, snap := range dates {
		// No history yet at this snapshot.
		if first.After(snap) {
			continue
		}

		for cursor < len(acc.txns) && !acc.txns[cursor].Date.After(snap) {
			amt := acc.txns[cursor].Amount
			n++
			sum += amt
			sumSq += amt * amt
			last = acc.txns[cursor].Date
			cursor++
		}
		if n == 0 {
			continue
		}

		recency := daysBetween(last, snap)
		if recency > p.ActiveRecencyMax {
			continue
		}

		mean := sum / float64(n)
		std := 0.0
		if n > 1 {
			// Population variance; clamp tiny negatives from float error.
			if v := sumSq/float64(n) - mean*mean; v > 0 {
				std = math.Sqrt(v)
			}
		}

		// Boundary is exclusive-left, inclusive-right: a transaction on the
		// snapshot date is past; one exactly at snap+window means no churn.
		churn := 1
		if cursor < len(acc.txns) {
			windowEnd := snap.AddDate(0, 0, p.PredictionWindowDays)
			if !acc.txns[cursor].Date.After(windowEnd) {
				churn = 0
			}
		}

		out = append(out, &domain.SnapshotExample{
			AccountID:    acc.accountID,
			SnapshotDate: snap,
			FirstTxDate:  first,
			LastTxDate:   last,
			TenureDays:   daysBetween(first, snap),
			RecencyDays:  recency,
			NTxnPast:     n,
			SumAmtPast:   sum,
			AvgAmtPast:   mean,
			StdAmtPast:   std,
			ChurnLabel:   churn,
		})
	}
	return out
}

// attachDemographics left-joins donor profiles onto the examples by account
// id. Accounts missing from the donor source keep nil demographics.
func (b *Builder) attachDemographics(ctx context.Context, examples []*domain.SnapshotExample) error {
	profiles, err := b.donorStore.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("load donor profiles: %w", err)
	}

	byAccount := make(map[string]*domain.DonorProfile, len(profiles))
	for _, p := range profiles {
		byAccount[p.AccountID] = p
	}

	for _, e := range examples {
		p, ok := byAccount[e.AccountID]
		if !ok {
			continue
		}
		e.State = p.State
		e.Zip = p.Zip
		e.Gender = p.Gender
		e.Employer = p.Employer
		e.Groups = p.Groups
	}
	return nil
}

// daysBetween returns whole days from a to b. Dates are UTC midnights, so
// the division is exact.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}
