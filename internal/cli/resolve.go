package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/mfalkner/trackline/internal/domain"
)

func resolveProjectID(ctx context.Context, app *App, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("project ID is required")
	}

	projects, err := app.Projects.List(ctx, true)
	if err != nil {
		return "", err
	}

	// 1. Exact short ID match (case-insensitive)
	for _, p := range projects {
		if strings.EqualFold(p.ShortID, input) {
			return p.ID, nil
		}
	}

	// 2. Exact UUID match
	for _, p := range projects {
		if p.ID == input {
			return p.ID, nil
		}
	}

	// 3. UUID prefix match
	var matches []string
	for _, p := range projects {
		if strings.HasPrefix(p.ID, input) {
			matches = append(matches, p.ID)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("project not found: %q", input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("project ID prefix %q is ambiguous (%d matches)", input, len(matches))
	}
}

// resolveMilestoneID matches by UUID, UUID prefix, or case-insensitive
// name within the given project.
func resolveMilestoneID(ctx context.Context, app *App, projectID, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("milestone ID is required")
	}

	milestones, err := app.Milestones.ListByProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return matchOne(input, "milestone", func(yield func(id, name string)) {
		for _, m := range milestones {
			yield(m.ID, m.Name)
		}
	})
}

// resolveDeliverableID matches by UUID, UUID prefix, or case-insensitive
// name within the given milestone.
func resolveDeliverableID(ctx context.Context, app *App, milestoneID, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("deliverable ID is required")
	}

	deliverables, err := app.Deliverables.ListByMilestone(ctx, milestoneID)
	if err != nil {
		return "", err
	}
	return matchOne(input, "deliverable", func(yield func(id, name string)) {
		for _, d := range deliverables {
			yield(d.ID, d.Name)
		}
	})
}

// resolveNodeID matches a plan node by UUID, UUID prefix, or title within
// the given project.
func resolveNodeID(ctx context.Context, app *App, projectID, input string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("node ID is required")
	}

	nodes, err := app.Plans.ListByProject(ctx, projectID)
	if err != nil {
		return "", err
	}
	return matchOne(input, "node", func(yield func(id, name string)) {
		for _, n := range nodes {
			yield(n.ID, n.Title)
		}
	})
}

// matchOne applies the shared resolution order: exact ID, then exact name
// (case-insensitive), then ID prefix.
func matchOne(input, kind string, each func(yield func(id, name string))) (string, error) {
	var exactID, exactName string
	var prefixMatches []string

	each(func(id, name string) {
		if id == input {
			exactID = id
		}
		if strings.EqualFold(name, input) && exactName == "" {
			exactName = id
		}
		if strings.HasPrefix(id, input) {
			prefixMatches = append(prefixMatches, id)
		}
	})

	if exactID != "" {
		return exactID, nil
	}
	if exactName != "" {
		return exactName, nil
	}
	switch len(prefixMatches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", kind, input)
	case 1:
		return prefixMatches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", kind, input, len(prefixMatches))
	}
}

// buildChildMap groups nodes under their parents and returns the roots.
func buildChildMap(nodes []*domain.PlanNode) ([]*domain.PlanNode, map[string][]*domain.PlanNode) {
	var roots []*domain.PlanNode
	childMap := make(map[string][]*domain.PlanNode)
	for _, n := range nodes {
		if n.ParentID == nil {
			roots = append(roots, n)
		} else {
			childMap[*n.ParentID] = append(childMap[*n.ParentID], n)
		}
	}
	return roots, childMap
}
