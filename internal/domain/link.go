package domain

// EntityLink connects a plan node to its tracked counterpart. The zero
// value means "not published". The store keeps two nullable foreign keys;
// repositories collapse them into this single discriminated value so that
// "at most one link" holds by construction.
type EntityLink struct {
	Kind     LinkKind
	EntityID string
}

// NoLink is the unpublished state.
var NoLink = EntityLink{Kind: LinkNone}

// MilestoneLink returns a link to a tracked milestone.
func MilestoneLink(id string) EntityLink {
	return EntityLink{Kind: LinkMilestone, EntityID: id}
}

// DeliverableLink returns a link to a tracked deliverable.
func DeliverableLink(id string) EntityLink {
	return EntityLink{Kind: LinkDeliverable, EntityID: id}
}

// IsLinked reports whether the node has been published to a tracked entity.
func (l EntityLink) IsLinked() bool {
	return l.Kind == LinkMilestone || l.Kind == LinkDeliverable
}
