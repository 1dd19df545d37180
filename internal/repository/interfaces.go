package repository

import (
	"context"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	GetByShortID(ctx context.Context, shortID string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
}

// PlanNodeRepo stores the authored planning tree. GetByID returns rows
// regardless of deletion state (the link resolver needs them); list
// operations exclude soft-deleted rows.
type PlanNodeRepo interface {
	Create(ctx context.Context, n *domain.PlanNode) error
	GetByID(ctx context.Context, id string) (*domain.PlanNode, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanNode, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.PlanNode, error)
	ListByLink(ctx context.Context, kind domain.LinkKind, entityID string) ([]*domain.PlanNode, error)
	Update(ctx context.Context, n *domain.PlanNode) error
	SoftDelete(ctx context.Context, id, actorID string, at time.Time) error
}

type MilestoneRepo interface {
	Create(ctx context.Context, m *domain.Milestone) error
	GetByID(ctx context.Context, id string) (*domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	Update(ctx context.Context, m *domain.Milestone) error
	SoftDelete(ctx context.Context, id, actorID string, at time.Time) error
}

type DeliverableRepo interface {
	Create(ctx context.Context, d *domain.Deliverable) error
	GetByID(ctx context.Context, id string) (*domain.Deliverable, error)
	ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.Deliverable, error)
	Update(ctx context.Context, d *domain.Deliverable) error
	SoftDelete(ctx context.Context, id, actorID string, at time.Time) error
}

// BaselineVersionRepo stores permanent audit snapshots. Rows are never
// updated or deleted.
type BaselineVersionRepo interface {
	// CreateOriginal inserts the version-1 snapshot for a milestone using a
	// conditional insert backed by the unique (milestone_id, version) index.
	// Returns false when a version-1 row already exists, which callers treat
	// as the idempotent no-op path.
	CreateOriginal(ctx context.Context, v *domain.BaselineVersion) (bool, error)
	GetOriginal(ctx context.Context, milestoneID string) (*domain.BaselineVersion, error)
	ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.BaselineVersion, error)
}
