package formatter

import (
	"testing"

	"github.com/mfalkner/trackline/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestFormatPlanTree_NestingAndBadges(t *testing.T) {
	parent := &domain.PlanNode{ID: "n1", Title: "Phase 1", ItemType: domain.ItemTask, Link: domain.NoLink}
	draft := &domain.PlanNode{ID: "n2", Title: "Go Live", ItemType: domain.ItemMilestone, Link: domain.NoLink}
	published := &domain.PlanNode{ID: "n3", Title: "Design Pack", ItemType: domain.ItemDeliverable, Link: domain.DeliverableLink("d1")}

	childMap := map[string][]*domain.PlanNode{
		"n1": {draft, published},
	}

	out := FormatPlanTree([]*domain.PlanNode{parent}, childMap, nil)

	assert.Contains(t, out, "Phase 1")
	assert.Contains(t, out, "Go Live")
	assert.Contains(t, out, "draft", "unpublished milestone node shows the gap")
	assert.Contains(t, out, "published")
	assert.Contains(t, out, "└─", "last child uses a corner connector")
}

func TestFormatPlanTree_MilestoneBadgeShowsLockState(t *testing.T) {
	node := &domain.PlanNode{ID: "n1", Title: "Go Live", ItemType: domain.ItemMilestone, Link: domain.MilestoneLink("ms-1")}
	ms := &domain.Milestone{ID: "ms-1", Name: "Go Live", Locked: true}
	ms.SupplierSignature = &domain.Signature{SignerID: "u1"}
	ms.CustomerSignature = &domain.Signature{SignerID: "u2"}

	out := FormatPlanTree([]*domain.PlanNode{node}, nil, map[string]*domain.Milestone{"ms-1": ms})

	assert.Contains(t, out, "LOCKED")
}

func TestFormatPlanTree_Empty(t *testing.T) {
	assert.Empty(t, FormatPlanTree(nil, nil, nil))
}
