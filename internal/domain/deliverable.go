package domain

import "time"

// Deliverable is a tracked commitment entity owned by a milestone.
// Lock and breach semantics are scoped to the owning milestone.
type Deliverable struct {
	ID          string
	ProjectID   string
	MilestoneID string
	Name        string
	TargetDate  *time.Time

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarkDeleted stamps the soft-delete triple; no-op when already deleted.
func (d *Deliverable) MarkDeleted(actorID string, at time.Time) {
	if d.IsDeleted {
		return
	}
	d.IsDeleted = true
	d.DeletedAt = &at
	d.DeletedBy = actorID
}
