package ingestion

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/memory"
)

func TestCleanMoney(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"$1,234.56", 1234.56},
		{"1234.56", 1234.56},
		{" $50 ", 50},
		{"($50.00)", -50},
		{"-25", -25},
		{"$0.01", 0.01},
	}
	for _, tt := range tests {
		got, err := CleanMoney(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	for _, in := range []string{"", "abc", "$", "12..3"} {
		_, err := CleanMoney(in)
		assert.Error(t, err, in)
	}
}

func TestCleanDate(t *testing.T) {
	want := time.Date(2023, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, in := range []string{"2023-03-05", "3/5/2023", "03/05/2023", "3/5/23", "2023-03-05 14:30:00"} {
		got, err := CleanDate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "not a date", "13/45/2023"} {
		_, err := CleanDate(in)
		assert.Error(t, err, in)
	}
}

func TestZip5(t *testing.T) {
	assert.Equal(t, "90210", Zip5("90210-1234"))
	assert.Equal(t, "90210", Zip5("90210"))
	assert.Equal(t, "", Zip5("9021x"))
	assert.Equal(t, "", Zip5(""))
	// Fewer than five consecutive digits is not a ZIP.
	assert.Equal(t, "", Zip5(" 123 "))
	assert.Equal(t, "", Zip5("9021-1234"))
	// The run may start anywhere in the value.
	assert.Equal(t, "63122", Zip5("MO 63122-4001"))
	assert.Equal(t, "12345", Zip5("1234567"))
}

func TestCleanBirthYear(t *testing.T) {
	got, err := CleanBirthYear("1975")
	require.NoError(t, err)
	assert.Equal(t, 1975.0, got)

	got, err = CleanBirthYear("1975.0")
	require.NoError(t, err)
	assert.Equal(t, 1975.0, got)

	for _, in := range []string{"", "abc", "1776", "3000"} {
		_, err := CleanBirthYear(in)
		assert.Error(t, err, in)
	}
}

func TestReadTransactions(t *testing.T) {
	input := strings.Join([]string{
		"Account Number,Date,Amount",
		"A001,2023-01-15,$100.00",
		`A002,1/20/2023,"$1,250.50"`,
		"A003,not-a-date,$10.00",
		"A004,2023-02-01,garbage",
		",2023-02-01,$5.00",
		"A005,2023-03-01,($25.00)",
	}, "\n")

	txns, stats, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	assert.Equal(t, "A001", txns[0].AccountID)
	assert.Equal(t, time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC), txns[0].Date)
	assert.Equal(t, 100.0, txns[0].Amount)
	assert.Equal(t, 1250.50, txns[1].Amount)
	assert.Equal(t, -25.0, txns[2].Amount)

	assert.Equal(t, 1, stats.BadDate)
	assert.Equal(t, 1, stats.BadAmount)
	assert.Equal(t, 1, stats.NoAccount)
	assert.Equal(t, 3, stats.Total())
}

func TestReadTransactions_MissingColumn(t *testing.T) {
	_, _, err := ReadTransactions(strings.NewReader("Account Number,Amount\nA1,$5"))
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadTransactions_HeaderWhitespace(t *testing.T) {
	input := " Account Number , Date , Amount \nA1,2023-01-01,$5"
	txns, _, err := ReadTransactions(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, "A1", txns[0].AccountID)
}

func TestReadDonors(t *testing.T) {
	input := strings.Join([]string{
		"Account Number,Primary State,Zip,Gender,Employer,Groups,Birth Year",
		"A001,CA,90210-1234,F,Acme,Board,1975.0",
		"A002,,,,,,",
		"A001,NY,10001,M,Other,,1980",
		",TX,,,,,",
	}, "\n")

	donors, stats, err := ReadDonors(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, donors, 2)

	p := donors[0]
	assert.Equal(t, "A001", p.AccountID)
	require.NotNil(t, p.State)
	assert.Equal(t, "CA", *p.State) // first row wins over the duplicate
	require.NotNil(t, p.Zip)
	assert.Equal(t, "90210", *p.Zip)
	require.NotNil(t, p.BirthYear)
	assert.Equal(t, 1975.0, *p.BirthYear)

	// Blank demographics stay nil.
	p = donors[1]
	assert.Equal(t, "A002", p.AccountID)
	assert.Nil(t, p.State)
	assert.Nil(t, p.Zip)
	assert.Nil(t, p.Gender)
	assert.Nil(t, p.BirthYear)

	assert.Equal(t, 1, stats.Duplicates)
	assert.Equal(t, 1, stats.NoAccount)
}

func TestLoader_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	txPath := filepath.Join(dir, "transactions.csv")
	donorPath := filepath.Join(dir, "donors.csv")

	require.NoError(t, os.WriteFile(txPath, []byte(
		"Account Number,Date,Amount\nA1,2023-01-01,$100\nA1,2023-02-01,$50\nbad,,\n"), 0o644))
	require.NoError(t, os.WriteFile(donorPath, []byte(
		"Account Number,Primary State\nA1,CA\n"), 0o644))

	ctx := context.Background()
	txStore := memory.NewTransactionStore()
	donorStore := memory.NewDonorStore()
	loader := NewLoader(txStore, donorStore, nil)

	txns, err := loader.LoadTransactions(ctx, txPath)
	require.NoError(t, err)
	assert.Len(t, txns, 2)

	stored, err := txStore.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	donors, err := loader.LoadDonors(ctx, donorPath)
	require.NoError(t, err)
	require.Len(t, donors, 1)

	p, err := donorStore.GetByAccount(ctx, "A1")
	require.NoError(t, err)
	assert.Equal(t, "CA", *p.State)
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(memory.NewTransactionStore(), memory.NewDonorStore(), nil)
	_, err := loader.LoadTransactions(context.Background(), "/nonexistent/file.csv")
	assert.Error(t, err)
}
