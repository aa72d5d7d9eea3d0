package clickhouse_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/will-brgs/EiC-HomeSweetHome/internal/domain"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage"
	chstore "github.com/will-brgs/EiC-HomeSweetHome/internal/storage/clickhouse"
	"github.com/will-brgs/EiC-HomeSweetHome/internal/storage/migrations"
)

// setupTestDB creates a ClickHouse container, applies the embedded
// migrations, and returns a connection to the test database.
func setupTestDB(t *testing.T) (*chstore.Conn, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "clickhouse/clickhouse-server:24.1-alpine",
		ExposedPorts: []string{"9000/tcp", "8123/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForLog("Application: Ready for connections").
				WithStartupTimeout(60*time.Second),
			wait.ForListeningPort("9000/tcp"),
		),
		Env: map[string]string{
			"CLICKHOUSE_DB":       "test",
			"CLICKHOUSE_USER":     "default",
			"CLICKHOUSE_PASSWORD": "",
		},
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9000")
	require.NoError(t, err)

	dsn := fmt.Sprintf("clickhouse://%s:%s/test", host, port.Port())

	conn, err := migrations.RunClickhouseMigrations(ctx, dsn)
	require.NoError(t, err)

	cleanup := func() {
		conn.Close()
		_ = container.Terminate(ctx)
	}

	return conn, cleanup
}

func ptr[T any](v T) *T {
	return &v
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func sampleExample(account string, snap time.Time, churn int) *domain.SnapshotExample {
	return &domain.SnapshotExample{
		AccountID:    account,
		SnapshotDate: snap,
		FirstTxDate:  day(2022, 1, 1),
		LastTxDate:   snap,
		TenureDays:   365,
		RecencyDays:  0,
		NTxnPast:     5,
		SumAmtPast:   500,
		AvgAmtPast:   100,
		StdAmtPast:   12.5,
		ChurnLabel:   churn,
		State:        ptr("CA"),
		Employer:     ptr("Acme"),
	}
}

func TestSnapshotExampleStore_InsertBulkAndGetAll(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewSnapshotExampleStore(conn)

	examples := []*domain.SnapshotExample{
		sampleExample("b2", day(2023, 3, 1), 0),
		sampleExample("a1", day(2023, 3, 1), 1),
		sampleExample("a1", day(2023, 2, 1), 0),
	}
	require.NoError(t, store.InsertBulk(ctx, examples))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	assert.Equal(t, "a1", all[0].AccountID)
	assert.Equal(t, day(2023, 2, 1), all[0].SnapshotDate)
	assert.Equal(t, "a1", all[1].AccountID)
	assert.Equal(t, day(2023, 3, 1), all[1].SnapshotDate)
	assert.Equal(t, 1, all[1].ChurnLabel)
	assert.Equal(t, "b2", all[2].AccountID)

	e := all[1]
	assert.Equal(t, 365, e.TenureDays)
	assert.Equal(t, 5, e.NTxnPast)
	assert.InDelta(t, 12.5, e.StdAmtPast, 0.0001)
	require.NotNil(t, e.State)
	assert.Equal(t, "CA", *e.State)
	assert.Nil(t, e.Gender)
}

func TestSnapshotExampleStore_GetByAccount(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewSnapshotExampleStore(conn)

	require.NoError(t, store.InsertBulk(ctx, []*domain.SnapshotExample{
		sampleExample("a1", day(2023, 3, 1), 1),
		sampleExample("a1", day(2023, 1, 1), 0),
		sampleExample("b2", day(2023, 1, 1), 0),
	}))

	examples, err := store.GetByAccount(ctx, "a1")
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, day(2023, 1, 1), examples[0].SnapshotDate)
	assert.Equal(t, day(2023, 3, 1), examples[1].SnapshotDate)

	none, err := store.GetByAccount(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestSnapshotExampleStore_Duplicates(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := chstore.NewSnapshotExampleStore(conn)

	// Intra-batch duplicate.
	err := store.InsertBulk(ctx, []*domain.SnapshotExample{
		sampleExample("a1", day(2023, 1, 1), 0),
		sampleExample("a1", day(2023, 1, 1), 1),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	// Duplicate against stored rows.
	require.NoError(t, store.InsertBulk(ctx, []*domain.SnapshotExample{
		sampleExample("a1", day(2023, 1, 1), 0),
	}))
	err = store.InsertBulk(ctx, []*domain.SnapshotExample{
		sampleExample("a1", day(2023, 1, 1), 0),
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestSnapshotExampleStore_InvalidInput(t *testing.T) {
	conn, cleanup := setupTestDB(t)
	defer cleanup()

	store := chstore.NewSnapshotExampleStore(conn)
	err := store.InsertBulk(context.Background(), []*domain.SnapshotExample{
		{SnapshotDate: day(2023, 1, 1)},
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}
