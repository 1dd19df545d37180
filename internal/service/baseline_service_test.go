package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mfalkner/trackline/internal/db"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/mfalkner/trackline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type baselineFixture struct {
	ctx      context.Context
	database *sql.DB
	msRepo   *repository.SQLiteMilestoneRepo
	verRepo  *repository.SQLiteBaselineVersionRepo
	svc      BaselineService
	ms       *domain.Milestone
}

func newBaselineFixture(t *testing.T, opts ...testutil.MilestoneOption) *baselineFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := repository.NewSQLiteProjectRepo(database)
	msRepo := repository.NewSQLiteMilestoneRepo(database)
	verRepo := repository.NewSQLiteBaselineVersionRepo(database)

	proj := testutil.NewTestProject("Rollout")
	require.NoError(t, projRepo.Create(ctx, proj))

	defaults := []testutil.MilestoneOption{
		testutil.WithBaselineWindow(
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			50000,
		),
	}
	ms := testutil.NewTestMilestone(proj.ID, "Go Live", append(defaults, opts...)...)
	require.NoError(t, msRepo.Create(ctx, ms))

	svc := NewBaselineService(msRepo, verRepo, db.NewSQLiteUnitOfWork(database))
	return &baselineFixture{ctx: ctx, database: database, msRepo: msRepo, verRepo: verRepo, svc: svc, ms: ms}
}

func TestBaselineService_Sign_SingleSignatureDoesNotLock(t *testing.T) {
	f := newBaselineFixture(t)

	m, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	assert.Equal(t, domain.StateSupplierOnly, m.SignatureState())
	assert.False(t, m.Locked)

	versions, err := f.svc.Versions(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.Empty(t, versions, "no audit record before the pair completes")
}

func TestBaselineService_Sign_PairCompletionLocksAndSnapshots(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	m, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleCustomer, "usr-2", "Omar Hale")
	require.NoError(t, err)

	assert.Equal(t, domain.StateLocked, m.SignatureState())
	assert.True(t, m.Locked)

	versions, err := f.svc.Versions(f.ctx, f.ms.ID)
	require.NoError(t, err)
	require.Len(t, versions, 1)
	v := versions[0]
	assert.Equal(t, domain.OriginalBaselineVersion, v.Version)
	assert.Equal(t, "Dana Velt", v.SupplierSignature.SignerName)
	assert.Equal(t, "Omar Hale", v.CustomerSignature.SignerName)
	require.NotNil(t, v.BaselineBillable)
	assert.Equal(t, float64(50000), *v.BaselineBillable)
}

func TestBaselineService_Sign_CustomerFirstOrder(t *testing.T) {
	f := newBaselineFixture(t)

	m, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleCustomer, "usr-2", "Omar Hale")
	require.NoError(t, err)
	assert.Equal(t, domain.StateCustomerOnly, m.SignatureState())
	assert.False(t, m.Locked)

	m, err = f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	assert.True(t, m.Locked)
}

func TestBaselineService_Sign_RepeatSignatureOverwritesSameRole(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	m, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-3", "Priya Nand")
	require.NoError(t, err)

	assert.Equal(t, domain.StateSupplierOnly, m.SignatureState())
	require.NotNil(t, m.SupplierSignature)
	assert.Equal(t, "Priya Nand", m.SupplierSignature.SignerName)
	assert.False(t, m.Locked)
}

func TestBaselineService_Sign_InvalidRole(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.SignerRole("auditor"), "usr-9", "Nobody")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestBaselineService_Sign_DeletedMilestone(t *testing.T) {
	f := newBaselineFixture(t)
	require.NoError(t, f.msRepo.SoftDelete(f.ctx, f.ms.ID, "actor-1", time.Now().UTC()))

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBaselineService_Reset_ClearsSignaturesKeepsAudit(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	_, err = f.svc.Sign(f.ctx, f.ms.ID, domain.RoleCustomer, "usr-2", "Omar Hale")
	require.NoError(t, err)

	m, err := f.svc.Reset(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnsigned, m.SignatureState())
	assert.False(t, m.Locked)

	locked, err := f.svc.IsLocked(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.False(t, locked)

	versions, err := f.svc.Versions(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "reset must never destroy the audit trail")
}

func TestBaselineService_Reset_UnsignedIsNoOp(t *testing.T) {
	f := newBaselineFixture(t)

	before, err := f.msRepo.GetByID(f.ctx, f.ms.ID)
	require.NoError(t, err)

	m, err := f.svc.Reset(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateUnsigned, m.SignatureState())
	assert.Equal(t, before.UpdatedAt, m.UpdatedAt, "no-op reset must not restamp")
}

func TestBaselineService_ResignAfterReset_NoSecondOriginal(t *testing.T) {
	f := newBaselineFixture(t)

	_, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	_, err = f.svc.Sign(f.ctx, f.ms.ID, domain.RoleCustomer, "usr-2", "Omar Hale")
	require.NoError(t, err)
	_, err = f.svc.Reset(f.ctx, f.ms.ID)
	require.NoError(t, err)

	// Second full signing cycle after the administrative reset.
	_, err = f.svc.Sign(f.ctx, f.ms.ID, domain.RoleSupplier, "usr-1", "Dana Velt")
	require.NoError(t, err)
	m, err := f.svc.Sign(f.ctx, f.ms.ID, domain.RoleCustomer, "usr-2", "Omar Hale")
	require.NoError(t, err)
	assert.True(t, m.Locked)

	versions, err := f.svc.Versions(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "the original commitment snapshot is one-time, ever")
}

func TestBaselineService_IsLocked_DeletedMilestoneHoldsNoLock(t *testing.T) {
	f := newBaselineFixture(t, testutil.WithSignatures(
		testutil.NewTestSignature("usr-1", "Dana Velt", time.Now().UTC()),
		testutil.NewTestSignature("usr-2", "Omar Hale", time.Now().UTC()),
	))
	require.NoError(t, f.msRepo.SoftDelete(f.ctx, f.ms.ID, "actor-1", time.Now().UTC()))

	locked, err := f.svc.IsLocked(f.ctx, f.ms.ID)
	require.NoError(t, err)
	assert.False(t, locked)
}

// TestBaselineService_ConcurrentPairCompletion races two signers whose
// writes both complete the pair. Whatever the interleaving, the milestone
// ends locked with exactly one version-1 audit record.
func TestBaselineService_ConcurrentPairCompletion(t *testing.T) {
	dir := t.TempDir()
	database, err := db.OpenDB(filepath.Join(dir, "baseline_race.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	ctx := context.Background()

	projRepo := repository.NewSQLiteProjectRepo(database)
	msRepo := repository.NewSQLiteMilestoneRepo(database)
	verRepo := repository.NewSQLiteBaselineVersionRepo(database)
	svc := NewBaselineService(msRepo, verRepo, db.NewSQLiteUnitOfWork(database))

	proj := testutil.NewTestProject("Race")
	require.NoError(t, projRepo.Create(ctx, proj))
	ms := testutil.NewTestMilestone(proj.ID, "Go Live",
		testutil.WithBaselineWindow(
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			50000,
		))
	require.NoError(t, msRepo.Create(ctx, ms))

	sign := func(role domain.SignerRole, signerID, signerName string) error {
		const maxRetries = 10
		var err error
		for attempt := 0; attempt < maxRetries; attempt++ {
			_, err = svc.Sign(ctx, ms.ID, role, signerID, signerName)
			if err == nil {
				return nil
			}
			time.Sleep(time.Millisecond * time.Duration(1<<attempt))
		}
		return err
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := sign(domain.RoleSupplier, "usr-1", "Dana Velt"); err != nil {
			errCh <- err
		}
	}()
	go func() {
		defer wg.Done()
		if err := sign(domain.RoleCustomer, "usr-2", "Omar Hale"); err != nil {
			errCh <- err
		}
	}()
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	m, err := msRepo.GetByID(ctx, ms.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StateLocked, m.SignatureState())

	versions, err := verRepo.ListByMilestone(ctx, ms.ID)
	require.NoError(t, err)
	assert.Len(t, versions, 1, "concurrent pair completion must yield exactly one audit record")
}
