package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string { return &s }

func TestTransactionStore_InsertAndOrder(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{AccountID: "b", Date: day(2023, 2, 1), Amount: 20},
		{AccountID: "a", Date: day(2023, 3, 1), Amount: 30},
		{AccountID: "a", Date: day(2023, 1, 1), Amount: 10},
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a", all[0].AccountID)
	assert.Equal(t, day(2023, 1, 1), all[0].Date)
	assert.Equal(t, "a", all[1].AccountID)
	assert.Equal(t, day(2023, 3, 1), all[1].Date)
	assert.Equal(t, "b", all[2].AccountID)

	// IDs are assigned by the store.
	assert.NotZero(t, all[0].ID)
	assert.False(t, all[0].CreatedAt.IsZero())

	byAccount, err := store.GetByAccount(ctx, "a")
	require.NoError(t, err)
	require.Len(t, byAccount, 2)
	assert.True(t, byAccount[0].Date.Before(byAccount[1].Date))
}

func TestTransactionStore_GetDateRange(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	_, _, err := store.GetDateRange(ctx)
	assert.ErrorIs(t, err, storage.ErrEmpty)

	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{AccountID: "a", Date: day(2023, 5, 1), Amount: 1},
		{AccountID: "b", Date: day(2023, 1, 15), Amount: 1},
		{AccountID: "c", Date: day(2023, 9, 30), Amount: 1},
	}))

	min, max, err := store.GetDateRange(ctx)
	require.NoError(t, err)
	assert.Equal(t, day(2023, 1, 15), min)
	assert.Equal(t, day(2023, 9, 30), max)
}

func TestTransactionStore_InvalidInput(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()

	err := store.InsertBulk(ctx, []*domain.Transaction{{Date: day(2023, 1, 1)}})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestTransactionStore_CopyOnRead(t *testing.T) {
	ctx := context.Background()
	store := NewTransactionStore()
	require.NoError(t, store.InsertBulk(ctx, []*domain.Transaction{
		{AccountID: "a", Date: day(2023, 1, 1), Amount: 10},
	}))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	all[0].Amount = 999

	again, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10.0, again[0].Amount)
}

func TestDonorStore_InsertAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewDonorStore()

	p := &domain.DonorProfile{AccountID: "a1", State: strPtr("CA"), Employer: strPtr("Acme")}
	require.NoError(t, store.Insert(ctx, p))

	got, err := store.GetByAccount(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, "CA", *got.State)

	_, err = store.GetByAccount(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	assert.ErrorIs(t, store.Insert(ctx, p), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Insert(ctx, nil), storage.ErrInvalidInput)
	assert.ErrorIs(t, store.Insert(ctx, &domain.DonorProfile{}), storage.ErrInvalidInput)
}

func TestDonorStore_InsertBulkAtomic(t *testing.T) {
	ctx := context.Background()
	store := NewDonorStore()
	require.NoError(t, store.Insert(ctx, &domain.DonorProfile{AccountID: "a1"}))

	// Batch containing an existing key fails whole.
	err := store.InsertBulk(ctx, []*domain.DonorProfile{
		{AccountID: "b2"},
		{AccountID: "a1"},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
	_, err = store.GetByAccount(ctx, "b2")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Intra-batch duplicate also fails whole.
	err = store.InsertBulk(ctx, []*domain.DonorProfile{
		{AccountID: "c3"},
		{AccountID: "c3"},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	require.NoError(t, store.InsertBulk(ctx, []*domain.DonorProfile{
		{AccountID: "z9"},
		{AccountID: "b2"},
	}))
	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a1", all[0].AccountID)
	assert.Equal(t, "b2", all[1].AccountID)
	assert.Equal(t, "z9", all[2].AccountID)
}

func TestSnapshotExampleStore(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotExampleStore()

	examples := []*domain.SnapshotExample{
		{AccountID: "a1", SnapshotDate: day(2023, 3, 1), ChurnLabel: 1},
		{AccountID: "a1", SnapshotDate: day(2023, 2, 1), ChurnLabel: 0},
		{AccountID: "b2", SnapshotDate: day(2023, 2, 1), ChurnLabel: 0},
	}
	require.NoError(t, store.InsertBulk(ctx, examples))

	// Same (account, snapshot date) cannot land twice.
	err := store.InsertBulk(ctx, []*domain.SnapshotExample{
		{AccountID: "a1", SnapshotDate: day(2023, 3, 1)},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	byAccount, err := store.GetByAccount(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, byAccount, 2)
	assert.Equal(t, day(2023, 2, 1), byAccount[0].SnapshotDate)
	assert.Equal(t, day(2023, 3, 1), byAccount[1].SnapshotDate)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "a1", all[0].AccountID)
	assert.Equal(t, "b2", all[2].AccountID)
}

func TestSnapshotExampleStore_IntraBatchDuplicate(t *testing.T) {
	ctx := context.Background()
	store := NewSnapshotExampleStore()

	err := store.InsertBulk(ctx, []*domain.SnapshotExample{
		{AccountID: "a1", SnapshotDate: day(2023, 1, 1)},
		{AccountID: "a1", SnapshotDate: day(2023, 1, 1)},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
