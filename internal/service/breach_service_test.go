package service

import (
	"context"
	"testing"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/mfalkner/trackline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type breachFixture struct {
	ctx     context.Context
	msRepo  *repository.SQLiteMilestoneRepo
	delRepo *repository.SQLiteDeliverableRepo
	svc     BreachService
	proj    *domain.Project
}

func newBreachFixture(t *testing.T) *breachFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := repository.NewSQLiteProjectRepo(database)
	msRepo := repository.NewSQLiteMilestoneRepo(database)
	delRepo := repository.NewSQLiteDeliverableRepo(database)

	proj := testutil.NewTestProject("Rollout")
	require.NoError(t, projRepo.Create(ctx, proj))

	return &breachFixture{
		ctx:     ctx,
		msRepo:  msRepo,
		delRepo: delRepo,
		svc:     NewBreachService(msRepo, delRepo),
		proj:    proj,
	}
}

func TestBreachService_Check_EndDatePrecedence(t *testing.T) {
	f := newBreachFixture(t)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	baselineEnd := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
	forecast := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		opts []testutil.MilestoneOption
		want time.Time
	}{
		{
			name: "forecast wins over baseline and end",
			opts: []testutil.MilestoneOption{
				testutil.WithEndDate(end),
				testutil.WithBaselineWindow(end.AddDate(0, -6, 0), baselineEnd, 1000),
				testutil.WithForecastEnd(forecast),
			},
			want: forecast,
		},
		{
			name: "baseline end wins over end date",
			opts: []testutil.MilestoneOption{
				testutil.WithEndDate(end),
				testutil.WithBaselineWindow(end.AddDate(0, -6, 0), baselineEnd, 1000),
			},
			want: baselineEnd,
		},
		{
			name: "end date is the fallback",
			opts: []testutil.MilestoneOption{testutil.WithEndDate(end)},
			want: end,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ms := testutil.NewTestMilestone(f.proj.ID, "Window", tt.opts...)
			require.NoError(t, f.msRepo.Create(f.ctx, ms))

			check, err := f.svc.Check(f.ctx, ms.ID, tt.want.AddDate(0, 0, 1))
			require.NoError(t, err)
			assert.True(t, check.WouldBreach)
			require.NotNil(t, check.MilestoneEnd)
			assert.Equal(t, tt.want, *check.MilestoneEnd)

			check, err = f.svc.Check(f.ctx, ms.ID, tt.want)
			require.NoError(t, err)
			assert.False(t, check.WouldBreach, "landing exactly on the end date is not a breach")
		})
	}
}

func TestBreachService_Check_NoEndDate(t *testing.T) {
	f := newBreachFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Open Ended")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))

	check, err := f.svc.Check(f.ctx, ms.ID, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.False(t, check.WouldBreach, "no end date means nothing to violate")
	assert.Nil(t, check.MilestoneEnd)
}

func TestBreachService_Check_DoesNotMutate(t *testing.T) {
	f := newBreachFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Window",
		testutil.WithEndDate(time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, f.msRepo.Create(f.ctx, ms))

	check, err := f.svc.Check(f.ctx, ms.ID, time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.True(t, check.WouldBreach)

	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Breached)
}

func TestBreachService_RecordAndClear(t *testing.T) {
	f := newBreachFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Window")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))

	require.NoError(t, f.svc.Record(f.ctx, ms.ID, "slipped past end", "usr-1"))
	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Breached)
	assert.Equal(t, "slipped past end", fetched.BreachReason)
	assert.Equal(t, "usr-1", fetched.BreachedBy)
	require.NotNil(t, fetched.BreachedAt)

	// A later record overwrites reason and actor.
	require.NoError(t, f.svc.Record(f.ctx, ms.ID, "slipped further", "usr-2"))
	fetched, err = f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.Equal(t, "slipped further", fetched.BreachReason)
	assert.Equal(t, "usr-2", fetched.BreachedBy)

	require.NoError(t, f.svc.Clear(f.ctx, ms.ID))
	fetched, err = f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Breached)
	assert.Empty(t, fetched.BreachReason)
	assert.Nil(t, fetched.BreachedAt)
	assert.Empty(t, fetched.BreachedBy)
}

func TestBreachService_Clear_NotBreachedIsNoOp(t *testing.T) {
	f := newBreachFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Window")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	before, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.Clear(f.ctx, ms.ID))
	after, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
}

func TestBreachService_Reconcile_ClearsWhenNoDeliverableViolates(t *testing.T) {
	f := newBreachFixture(t)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	ms := testutil.NewTestMilestone(f.proj.ID, "Window", testutil.WithEndDate(end))
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	require.NoError(t, f.svc.Record(f.ctx, ms.ID, "slipped", "usr-1"))

	d := testutil.NewTestDeliverable(f.proj.ID, ms.ID, "Design Pack",
		testutil.WithTargetDateDeliverable(end.AddDate(0, 0, -5)))
	require.NoError(t, f.delRepo.Create(f.ctx, d))

	require.NoError(t, f.svc.Reconcile(f.ctx, ms.ID))
	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Breached)
}

func TestBreachService_Reconcile_KeepsBreachWhileViolationStands(t *testing.T) {
	f := newBreachFixture(t)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	ms := testutil.NewTestMilestone(f.proj.ID, "Window", testutil.WithEndDate(end))
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	require.NoError(t, f.svc.Record(f.ctx, ms.ID, "slipped", "usr-1"))

	d := testutil.NewTestDeliverable(f.proj.ID, ms.ID, "Design Pack",
		testutil.WithTargetDateDeliverable(end.AddDate(0, 1, 0)))
	require.NoError(t, f.delRepo.Create(f.ctx, d))

	require.NoError(t, f.svc.Reconcile(f.ctx, ms.ID))
	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.True(t, fetched.Breached)
	assert.Equal(t, "slipped", fetched.BreachReason, "a standing breach keeps its original reason")
}

func TestBreachService_Reconcile_IgnoresDeletedDeliverables(t *testing.T) {
	f := newBreachFixture(t)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	ms := testutil.NewTestMilestone(f.proj.ID, "Window", testutil.WithEndDate(end))
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	require.NoError(t, f.svc.Record(f.ctx, ms.ID, "slipped", "usr-1"))

	late := testutil.NewTestDeliverable(f.proj.ID, ms.ID, "Late One",
		testutil.WithTargetDateDeliverable(end.AddDate(0, 1, 0)))
	require.NoError(t, f.delRepo.Create(f.ctx, late))
	require.NoError(t, f.delRepo.SoftDelete(f.ctx, late.ID, "actor-1", time.Now().UTC()))

	require.NoError(t, f.svc.Reconcile(f.ctx, ms.ID))
	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Breached, "deleted deliverables cannot hold a breach open")
}

func TestBreachService_Reconcile_NeverSets(t *testing.T) {
	f := newBreachFixture(t)

	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	ms := testutil.NewTestMilestone(f.proj.ID, "Window", testutil.WithEndDate(end))
	require.NoError(t, f.msRepo.Create(f.ctx, ms))

	// A violating deliverable exists but no breach was ever recorded.
	d := testutil.NewTestDeliverable(f.proj.ID, ms.ID, "Late One",
		testutil.WithTargetDateDeliverable(end.AddDate(0, 1, 0)))
	require.NoError(t, f.delRepo.Create(f.ctx, d))

	require.NoError(t, f.svc.Reconcile(f.ctx, ms.ID))
	fetched, err := f.msRepo.GetByID(f.ctx, ms.ID)
	require.NoError(t, err)
	assert.False(t, fetched.Breached, "reconcile only clears, it never raises")
}
