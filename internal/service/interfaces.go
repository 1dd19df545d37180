package service

import (
	"context"
	"time"

	"github.com/mfalkner/trackline/internal/domain"
)

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, includeArchived bool) ([]*domain.Project, error)
	Update(ctx context.Context, p *domain.Project) error
	Archive(ctx context.Context, id string) error
}

// PlanService authors the planning tree: node creation, reordering and
// publishing (linking a node to a tracked milestone or deliverable).
// Node destruction is owned by DeletionService, not here.
type PlanService interface {
	Create(ctx context.Context, n *domain.PlanNode) error
	GetByID(ctx context.Context, id string) (*domain.PlanNode, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.PlanNode, error)
	ListChildren(ctx context.Context, parentID string) ([]*domain.PlanNode, error)
	Update(ctx context.Context, n *domain.PlanNode) error
	// PublishMilestone creates a tracked milestone from the node and links
	// the node to it. Fails when the node already carries a link.
	PublishMilestone(ctx context.Context, nodeID string) (*domain.Milestone, error)
	// PublishDeliverable creates a tracked deliverable under the given
	// milestone and links the node to it.
	PublishDeliverable(ctx context.Context, nodeID, milestoneID string) (*domain.Deliverable, error)
}

type MilestoneService interface {
	Create(ctx context.Context, m *domain.Milestone) error
	GetByID(ctx context.Context, id string) (*domain.Milestone, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Milestone, error)
	Update(ctx context.Context, m *domain.Milestone) error
}

type DeliverableService interface {
	Create(ctx context.Context, d *domain.Deliverable) error
	GetByID(ctx context.Context, id string) (*domain.Deliverable, error)
	ListByMilestone(ctx context.Context, milestoneID string) ([]*domain.Deliverable, error)
	// SetTargetDate commits a new target date. A date for a deliverable of
	// a locked milestone is refused; a date past the owning milestone's
	// effective end records a breach with the caller's reason captured at
	// the moment of violation, and a corrected date triggers reconciliation.
	SetTargetDate(ctx context.Context, id string, target time.Time, actorID string) (*BreachCheck, error)
}

// LinkTarget is the resolved tracked counterpart of a plan node.
// OwnerMilestoneID is empty when the node is unlinked or the governing
// milestone is itself soft-deleted (a deleted milestone holds no lock).
type LinkTarget struct {
	Kind             domain.LinkKind
	EntityID         string
	OwnerMilestoneID string
}

// LinkResolver resolves the link between a planning node and its tracked
// counterpart, and the reverse lookup. Read-only.
type LinkResolver interface {
	Resolve(ctx context.Context, planNodeID string) (LinkTarget, error)
	LinkedNodes(ctx context.Context, kind domain.LinkKind, entityID string) ([]*domain.PlanNode, error)
}

// BaselineService owns the per-milestone dual-signature state machine and
// the one-time original-commitment snapshot.
type BaselineService interface {
	Sign(ctx context.Context, milestoneID string, role domain.SignerRole, signerID, signerName string) (*domain.Milestone, error)
	// Reset clears both signatures and the lock. Administrative only; audit
	// history is untouched. Safe no-op when already unsigned.
	Reset(ctx context.Context, milestoneID string) (*domain.Milestone, error)
	IsLocked(ctx context.Context, milestoneID string) (bool, error)
	Versions(ctx context.Context, milestoneID string) ([]*domain.BaselineVersion, error)
}

// BreachCheck is the outcome of judging a proposed date against a
// milestone's effective end date.
type BreachCheck struct {
	WouldBreach  bool
	IsBaselined  bool
	MilestoneEnd *time.Time
}

// BreachService detects and clears violations of a milestone's completion
// window.
type BreachService interface {
	Check(ctx context.Context, milestoneID string, proposedDate time.Time) (*BreachCheck, error)
	Record(ctx context.Context, milestoneID, reason, actorID string) error
	Clear(ctx context.Context, milestoneID string) error
	// Reconcile re-evaluates all live deliverables and clears the breach
	// flag when none still violates. It never sets a breach: only a caller
	// observing an explicit violating write does that, so the reason and
	// actor capture intent at the moment of violation.
	Reconcile(ctx context.Context, milestoneID string) error
}

// DeleteResult reports a deletion attempt. When Allowed is false, Reason
// names the blocking milestone. Synced is false when the primary delete
// landed but linked-side propagation did not; re-invoking the delete is
// always safe.
type DeleteResult struct {
	Allowed bool
	Reason  string
	Synced  bool
	Count   int
}

// DeletionService is the sole authority for destroying plan nodes and
// tracked entities. A locked baseline and everything published to it is
// undeletable from either representation until an explicit reset.
type DeletionService interface {
	DeletePlanNode(ctx context.Context, id, actorID string) (*DeleteResult, error)
	DeleteMilestone(ctx context.Context, id, actorID string) (*DeleteResult, error)
	DeleteDeliverable(ctx context.Context, id, actorID string) (*DeleteResult, error)
}
