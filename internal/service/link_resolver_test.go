package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/repository"
	"github.com/mfalkner/trackline/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFixture struct {
	ctx      context.Context
	nodeRepo *repository.SQLitePlanNodeRepo
	msRepo   *repository.SQLiteMilestoneRepo
	delRepo  *repository.SQLiteDeliverableRepo
	svc      LinkResolver
	proj     *domain.Project
}

func newResolverFixture(t *testing.T) *resolverFixture {
	t.Helper()
	database := testutil.NewTestDB(t)
	ctx := context.Background()

	projRepo := repository.NewSQLiteProjectRepo(database)
	f := &resolverFixture{
		ctx:      ctx,
		nodeRepo: repository.NewSQLitePlanNodeRepo(database),
		msRepo:   repository.NewSQLiteMilestoneRepo(database),
		delRepo:  repository.NewSQLiteDeliverableRepo(database),
	}
	f.svc = NewLinkResolver(f.nodeRepo, f.msRepo, f.delRepo)

	f.proj = testutil.NewTestProject("Rollout")
	require.NoError(t, projRepo.Create(ctx, f.proj))
	return f
}

func TestLinkResolver_Resolve_Unlinked(t *testing.T) {
	f := newResolverFixture(t)

	node := testutil.NewTestNode(f.proj.ID, "Scratch")
	require.NoError(t, f.nodeRepo.Create(f.ctx, node))

	target, err := f.svc.Resolve(f.ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkNone, target.Kind)
	assert.Empty(t, target.EntityID)
	assert.Empty(t, target.OwnerMilestoneID)
}

func TestLinkResolver_Resolve_MilestoneLink(t *testing.T) {
	f := newResolverFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Go Live")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	node := testutil.NewTestNode(f.proj.ID, "Go Live",
		testutil.WithLink(domain.MilestoneLink(ms.ID)))
	require.NoError(t, f.nodeRepo.Create(f.ctx, node))

	target, err := f.svc.Resolve(f.ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkMilestone, target.Kind)
	assert.Equal(t, ms.ID, target.EntityID)
	assert.Equal(t, ms.ID, target.OwnerMilestoneID)
}

func TestLinkResolver_Resolve_DeliverableLink_OwnerIsMilestone(t *testing.T) {
	f := newResolverFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Go Live")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	d := testutil.NewTestDeliverable(f.proj.ID, ms.ID, "Design Pack")
	require.NoError(t, f.delRepo.Create(f.ctx, d))
	node := testutil.NewTestNode(f.proj.ID, "Design Pack",
		testutil.WithLink(domain.DeliverableLink(d.ID)))
	require.NoError(t, f.nodeRepo.Create(f.ctx, node))

	target, err := f.svc.Resolve(f.ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkDeliverable, target.Kind)
	assert.Equal(t, d.ID, target.EntityID)
	assert.Equal(t, ms.ID, target.OwnerMilestoneID)
}

func TestLinkResolver_Resolve_DeletedMilestoneHasNoOwner(t *testing.T) {
	f := newResolverFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Go Live")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	node := testutil.NewTestNode(f.proj.ID, "Go Live",
		testutil.WithLink(domain.MilestoneLink(ms.ID)))
	require.NoError(t, f.nodeRepo.Create(f.ctx, node))
	require.NoError(t, f.msRepo.SoftDelete(f.ctx, ms.ID, "actor-1", time.Now().UTC()))

	target, err := f.svc.Resolve(f.ctx, node.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LinkMilestone, target.Kind)
	assert.Empty(t, target.OwnerMilestoneID, "a deleted milestone governs nothing")
}

// flakyMilestoneRepo fails every GetByID with a fixed error, standing in for
// a transient storage fault such as a busy database.
type flakyMilestoneRepo struct {
	repository.MilestoneRepo
	err error
}

func (r *flakyMilestoneRepo) GetByID(ctx context.Context, id string) (*domain.Milestone, error) {
	return nil, r.err
}

func TestLinkResolver_Resolve_MilestoneReadFailurePropagates(t *testing.T) {
	f := newResolverFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Go Live")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))
	node := testutil.NewTestNode(f.proj.ID, "Go Live",
		testutil.WithLink(domain.MilestoneLink(ms.ID)))
	require.NoError(t, f.nodeRepo.Create(f.ctx, node))

	transient := errors.New("database is locked")
	flaky := NewLinkResolver(f.nodeRepo,
		&flakyMilestoneRepo{MilestoneRepo: f.msRepo, err: transient}, f.delRepo)

	_, err := flaky.Resolve(f.ctx, node.ID)
	assert.ErrorIs(t, err, transient,
		"a failed milestone read must not resolve as ownerless")
}

func TestLinkResolver_Resolve_NodeNotFound(t *testing.T) {
	f := newResolverFixture(t)

	_, err := f.svc.Resolve(f.ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLinkResolver_LinkedNodes(t *testing.T) {
	f := newResolverFixture(t)

	ms := testutil.NewTestMilestone(f.proj.ID, "Go Live")
	require.NoError(t, f.msRepo.Create(f.ctx, ms))

	a := testutil.NewTestNode(f.proj.ID, "View A",
		testutil.WithLink(domain.MilestoneLink(ms.ID)))
	b := testutil.NewTestNode(f.proj.ID, "View B",
		testutil.WithLink(domain.MilestoneLink(ms.ID)))
	require.NoError(t, f.nodeRepo.Create(f.ctx, a))
	require.NoError(t, f.nodeRepo.Create(f.ctx, b))

	nodes, err := f.svc.LinkedNodes(f.ctx, domain.LinkMilestone, ms.ID)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}
