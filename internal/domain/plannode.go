package domain

import "time"

// PlanNode is one row of the authored planning tree. Nodes of type
// milestone or deliverable may be published to a tracked entity, recorded
// in Link. Destruction goes through the deletion coordinator only.
type PlanNode struct {
	ID          string
	ProjectID   string
	ParentID    *string
	Title       string
	ItemType    ItemType
	Link        EntityLink
	OrderIndex  int
	IndentLevel int

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarkDeleted stamps the soft-delete triple. Calling it on an already
// deleted node is a no-op so cascades stay idempotent.
func (n *PlanNode) MarkDeleted(actorID string, at time.Time) {
	if n.IsDeleted {
		return
	}
	n.IsDeleted = true
	n.DeletedAt = &at
	n.DeletedBy = actorID
}
