package domain

import "time"

// OriginalBaselineVersion is the version number of the one-time snapshot
// taken when a milestone first locks. For any milestone at most one row
// with this version may ever exist.
const OriginalBaselineVersion = 1

// BaselineVersion is a permanent audit record of a signed baseline window.
// Rows are created exactly once and never mutated or deleted. VariationID
// is populated only on later versions, which trackline does not write.
type BaselineVersion struct {
	ID          string
	MilestoneID string
	Version     int

	BaselineStart    *time.Time
	BaselineEnd      *time.Time
	BaselineBillable *float64

	SupplierSignature Signature
	CustomerSignature Signature

	VariationID *string
	CreatedAt   time.Time
}

// SnapshotOriginal builds the version-1 audit record from a milestone whose
// signature pair has just completed. Both signatures must be present.
func SnapshotOriginal(id string, m *Milestone, at time.Time) *BaselineVersion {
	return &BaselineVersion{
		ID:                id,
		MilestoneID:       m.ID,
		Version:           OriginalBaselineVersion,
		BaselineStart:     m.BaselineStart,
		BaselineEnd:       m.BaselineEnd,
		BaselineBillable:  m.BaselineBillable,
		SupplierSignature: *m.SupplierSignature,
		CustomerSignature: *m.CustomerSignature,
		CreatedAt:         at,
	}
}
