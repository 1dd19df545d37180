package formatter

import (
	"github.com/mfalkner/trackline/internal/domain"
)

// FormatPlanTree renders root nodes and their children as a tree. Published
// nodes carry a badge showing their tracked counterpart's state; milestones
// resolves link badges for milestone-published nodes.
func FormatPlanTree(roots []*domain.PlanNode, childMap map[string][]*domain.PlanNode, milestones map[string]*domain.Milestone) string {
	var items []TreeItem

	var walk func(nodes []*domain.PlanNode, level int)
	walk = func(nodes []*domain.PlanNode, level int) {
		for i, n := range nodes {
			items = append(items, TreeItem{
				Title:  n.Title,
				Level:  level,
				IsLast: i == len(nodes)-1,
				Marker: itemTypeMarker(n.ItemType),
				Badge:  linkBadge(n, milestones),
			})
			if children := childMap[n.ID]; len(children) > 0 {
				walk(children, level+1)
			}
		}
	}
	walk(roots, 0)

	return RenderTree(items)
}

func itemTypeMarker(t domain.ItemType) string {
	switch t {
	case domain.ItemMilestone:
		return StylePurple.Render("◆")
	case domain.ItemDeliverable:
		return StyleBlue.Render("▹")
	default:
		return StyleDim.Render("·")
	}
}

// linkBadge summarizes a node's publish state. Unpublished milestone or
// deliverable nodes get a dim "draft" so the gap is visible at a glance.
func linkBadge(n *domain.PlanNode, milestones map[string]*domain.Milestone) string {
	switch n.Link.Kind {
	case domain.LinkMilestone:
		if m, ok := milestones[n.Link.EntityID]; ok {
			badge := BaselineIndicator(m.SignatureState())
			if m.Breached {
				badge += "  " + BreachIndicator(true)
			}
			return badge
		}
		return StyleGreen.Render("published")
	case domain.LinkDeliverable:
		return StyleGreen.Render("published")
	default:
		if n.ItemType == domain.ItemMilestone || n.ItemType == domain.ItemDeliverable {
			return StyleDim.Render("draft")
		}
		return ""
	}
}
