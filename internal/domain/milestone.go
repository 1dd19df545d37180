package domain

import "time"

// Signature records one party's sign-off on a milestone baseline.
type Signature struct {
	SignerID   string
	SignerName string
	SignedAt   time.Time
}

// Milestone is a tracked commitment entity. Locked is a cached flag derived
// from the two signatures, kept so reads at the exact transition instant do
// not recompute it; the signature timestamps remain the source of truth.
type Milestone struct {
	ID        string
	ProjectID string
	Name      string

	StartDate   *time.Time
	EndDate     *time.Time
	ForecastEnd *time.Time

	BaselineStart    *time.Time
	BaselineEnd      *time.Time
	BaselineBillable *float64

	SupplierSignature *Signature
	CustomerSignature *Signature
	Locked            bool

	Breached     bool
	BreachReason string
	BreachedAt   *time.Time
	BreachedBy   string

	IsDeleted bool
	DeletedAt *time.Time
	DeletedBy string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// SignatureState derives the dual-signature state from the signatures
// actually present, independent of the cached Locked flag.
func (m *Milestone) SignatureState() SignatureState {
	switch {
	case m.SupplierSignature != nil && m.CustomerSignature != nil:
		return StateLocked
	case m.SupplierSignature != nil:
		return StateSupplierOnly
	case m.CustomerSignature != nil:
		return StateCustomerOnly
	default:
		return StateUnsigned
	}
}

// SetSignature writes one role's signature, overwriting any previous
// signature for the same role. Returns false for an unknown role.
func (m *Milestone) SetSignature(role SignerRole, sig Signature) bool {
	switch role {
	case RoleSupplier:
		m.SupplierSignature = &sig
	case RoleCustomer:
		m.CustomerSignature = &sig
	default:
		return false
	}
	return true
}

// ClearSignatures removes both signatures and drops the cached lock.
// Baseline version history is never touched here.
func (m *Milestone) ClearSignatures() {
	m.SupplierSignature = nil
	m.CustomerSignature = nil
	m.Locked = false
}

// EffectiveEnd resolves the end date a proposed deliverable date is judged
// against, with precedence forecastEnd, then baselineEnd, then endDate.
// Returns nil when the milestone carries no usable end date.
func (m *Milestone) EffectiveEnd() *time.Time {
	if m.ForecastEnd != nil {
		return m.ForecastEnd
	}
	if m.BaselineEnd != nil {
		return m.BaselineEnd
	}
	return m.EndDate
}

// MarkDeleted stamps the soft-delete triple; no-op when already deleted.
func (m *Milestone) MarkDeleted(actorID string, at time.Time) {
	if m.IsDeleted {
		return
	}
	m.IsDeleted = true
	m.DeletedAt = &at
	m.DeletedBy = actorID
}
