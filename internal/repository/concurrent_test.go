package repository

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newConcurrentTestDB creates a file-backed SQLite database in a temp directory.
// Unlike :memory:, a file-backed DB shares state across all connections in the
// pool, which is required to test real concurrent access with WAL mode.
func newConcurrentTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "concurrent_test.db")
	database, err := db.OpenDB(dbPath)
	require.NoError(t, err, "failed to create concurrent test database")
	t.Cleanup(func() { database.Close() })
	return database
}

func retryTx(fn func() error) error {
	const maxRetries = 10
	for attempt := 0; attempt < maxRetries; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		if attempt == maxRetries-1 {
			return err
		}
		time.Sleep(time.Millisecond * time.Duration(1<<attempt))
	}
	return nil
}

// TestConcurrentAccess_OriginalBaseline_SingleRow races many writers at the
// version-1 snapshot for the same milestone. Exactly one insert may land;
// the rest must come back created=false without an error.
func TestConcurrentAccess_OriginalBaseline_SingleRow(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(database)
	msRepo := NewSQLiteMilestoneRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	proj := testutil.NewTestProject("Seq Concurrency")
	require.NoError(t, projRepo.Create(ctx, proj))

	signedAt := time.Date(2026, 3, 15, 9, 0, 0, 0, time.UTC)
	ms := testutil.NewTestMilestone(proj.ID, "Go Live",
		testutil.WithBaselineWindow(
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			50000,
		),
		testutil.WithSignatures(
			testutil.NewTestSignature("usr-1", "Dana Velt", signedAt),
			testutil.NewTestSignature("usr-2", "Omar Hale", signedAt),
		))
	require.NoError(t, msRepo.Create(ctx, ms))

	const workers = 20
	var wg sync.WaitGroup
	var createdCount atomic.Int64
	errCh := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := retryTx(func() error {
				return uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
					txVersions := NewSQLiteBaselineVersionRepo(tx)
					v := domain.SnapshotOriginal(uuid.New().String(), ms, signedAt.Add(time.Duration(i)*time.Millisecond))
					created, err := txVersions.CreateOriginal(ctx, v)
					if err != nil {
						return err
					}
					if created {
						createdCount.Add(1)
					}
					return nil
				})
			})
			if err != nil {
				errCh <- fmt.Errorf("worker %d: %w", i, err)
			}
		}(i)
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), createdCount.Load(), "exactly one writer should win the version-1 insert")

	versionRepo := NewSQLiteBaselineVersionRepo(database)
	versions, err := versionRepo.ListByMilestone(ctx, ms.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1)
}

// TestConcurrentAccess_ReadDuringSoftDelete verifies that reverse-link
// lookups stay consistent while a writer is soft-deleting nodes.
func TestConcurrentAccess_ReadDuringSoftDelete(t *testing.T) {
	database := newConcurrentTestDB(t)
	ctx := context.Background()

	projRepo := NewSQLiteProjectRepo(database)
	msRepo := NewSQLiteMilestoneRepo(database)
	nodeRepo := NewSQLitePlanNodeRepo(database)

	proj := testutil.NewTestProject("ReadWrite")
	require.NoError(t, projRepo.Create(ctx, proj))
	ms := testutil.NewTestMilestone(proj.ID, "Go Live")
	require.NoError(t, msRepo.Create(ctx, ms))

	const nodeCount = 20
	nodes := make([]*domain.PlanNode, 0, nodeCount)
	for i := 0; i < nodeCount; i++ {
		n := testutil.NewTestNode(proj.ID, fmt.Sprintf("Node-%d", i),
			testutil.WithLink(domain.MilestoneLink(ms.ID)))
		require.NoError(t, nodeRepo.Create(ctx, n))
		nodes = append(nodes, n)
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		at := time.Now().UTC()
		for _, n := range nodes {
			err := retryTx(func() error {
				return nodeRepo.SoftDelete(ctx, n.ID, "actor-1", at)
			})
			if err != nil {
				t.Errorf("writer: soft delete %s: %v", n.ID, err)
				return
			}
		}
	}()

	for r := 0; r < 5; r++ {
		wg.Add(1)
		go func(reader int) {
			defer wg.Done()
			for i := 0; i < 10; i++ {
				visible, err := nodeRepo.ListByLink(ctx, domain.LinkMilestone, ms.ID)
				if err != nil {
					t.Errorf("reader %d: list by link: %v", reader, err)
					return
				}
				for _, n := range visible {
					if n.IsDeleted {
						t.Errorf("reader %d: deleted node %s surfaced in link lookup", reader, n.ID)
					}
				}
			}
		}(r)
	}

	wg.Wait()

	remaining, err := nodeRepo.ListByLink(ctx, domain.LinkMilestone, ms.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}
