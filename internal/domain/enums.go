package domain

type ProjectStatus string

const (
	ProjectActive   ProjectStatus = "active"
	ProjectPaused   ProjectStatus = "paused"
	ProjectDone     ProjectStatus = "done"
	ProjectArchived ProjectStatus = "archived"
)

type ItemType string

const (
	ItemTask        ItemType = "task"
	ItemMilestone   ItemType = "milestone"
	ItemDeliverable ItemType = "deliverable"
)

// ValidItemTypes is the canonical set of accepted plan item type strings.
var ValidItemTypes = map[string]bool{
	"task": true, "milestone": true, "deliverable": true,
}

type LinkKind string

const (
	LinkNone        LinkKind = "none"
	LinkMilestone   LinkKind = "milestone"
	LinkDeliverable LinkKind = "deliverable"
)

type SignerRole string

const (
	RoleSupplier SignerRole = "supplier"
	RoleCustomer SignerRole = "customer"
)

// ValidSignerRoles is the canonical set of accepted signer role strings.
var ValidSignerRoles = map[string]bool{
	"supplier": true, "customer": true,
}

// SignatureState describes where a milestone sits in the dual-signature
// state machine: unsigned -> {supplier_only | customer_only} -> locked.
type SignatureState string

const (
	StateUnsigned     SignatureState = "unsigned"
	StateSupplierOnly SignatureState = "supplier_only"
	StateCustomerOnly SignatureState = "customer_only"
	StateLocked       SignatureState = "locked"
)
