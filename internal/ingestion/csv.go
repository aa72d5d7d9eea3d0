package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/observability"
)

// Expected column headers in the raw exports.
const (
	colAccount  = "Account Number"
	colDate     = "Date"
	colAmount   = "Amount"
	colState    = "Primary State"
	colZip      = "Zip"
	colGender   = "Gender"
	colEmployer = "Employer"
	colGroups   = "Groups"
	colBirth    = "Birth Year"
)

// ErrMissingColumn is returned when a required header is absent.
var ErrMissingColumn = errors.New("ingestion: missing column")

// DropStats counts rows removed during cleaning, by reason.
type DropStats struct {
	BadDate    int
	BadAmount  int
	NoAccount  int
	Duplicates int
}

// Total is the number of rows dropped.
func (d DropStats) Total() int {
	return d.BadDate + d.BadAmount + d.NoAccount + d.Duplicates
}

// headerIndex maps trimmed header names to column positions.
func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func cell(record []string, idx map[string]int, name string) string {
	i, ok := idx[name]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

// ReadTransactions parses the donation ledger export. Rows with a missing
// account, unparseable date, or unparseable amount are dropped and counted.
func ReadTransactions(r io.Reader) ([]*domain.Transaction, DropStats, error) {
	var stats DropStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read transaction header: %w", err)
	}
	idx := headerIndex(header)
	for _, required := range []string{colAccount, colDate, colAmount} {
		if _, ok := idx[required]; !ok {
			return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var txns []*domain.Transaction
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read transaction row: %w", err)
		}

		account := strings.TrimSpace(cell(record, idx, colAccount))
		if account == "" {
			stats.NoAccount++
			observability.RecordRowDropped("transactions", "no_account")
			continue
		}
		date, err := CleanDate(cell(record, idx, colDate))
		if err != nil {
			stats.BadDate++
			observability.RecordRowDropped("transactions", "bad_date")
			continue
		}
		amount, err := CleanMoney(cell(record, idx, colAmount))
		if err != nil {
			stats.BadAmount++
			observability.RecordRowDropped("transactions", "bad_amount")
			continue
		}

		txns = append(txns, &domain.Transaction{
			AccountID: account,
			Date:      date,
			Amount:    amount,
		})
	}
	return txns, stats, nil
}

// ReadDonors parses the donor profile export. One profile per account; later
// rows for an already-seen account are dropped as duplicates. Demographic
// cells are optional and blank maps to nil.
func ReadDonors(r io.Reader) ([]*domain.DonorProfile, DropStats, error) {
	var stats DropStats

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, stats, fmt.Errorf("read donor header: %w", err)
	}
	idx := headerIndex(header)
	if _, ok := idx[colAccount]; !ok {
		return nil, stats, fmt.Errorf("%w: %s", ErrMissingColumn, colAccount)
	}

	seen := make(map[string]struct{})
	var donors []*domain.DonorProfile
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, fmt.Errorf("read donor row: %w", err)
		}

		account := strings.TrimSpace(cell(record, idx, colAccount))
		if account == "" {
			stats.NoAccount++
			observability.RecordRowDropped("donors", "no_account")
			continue
		}
		if _, dup := seen[account]; dup {
			stats.Duplicates++
			observability.RecordRowDropped("donors", "duplicate")
			continue
		}
		seen[account] = struct{}{}

		p := &domain.DonorProfile{
			AccountID: account,
			State:     optionalString(cell(record, idx, colState)),
			Gender:    optionalString(cell(record, idx, colGender)),
			Employer:  optionalString(cell(record, idx, colEmployer)),
			Groups:    optionalString(cell(record, idx, colGroups)),
		}
		if zip := Zip5(cell(record, idx, colZip)); zip != "" {
			p.Zip = &zip
		}
		if year, err := CleanBirthYear(cell(record, idx, colBirth)); err == nil {
			p.BirthYear = &year
		}
		donors = append(donors, p)
	}
	return donors, stats, nil
}
