package formatter

import (
	"fmt"
	"strings"

	"github.com/mfalkner/trackline/internal/domain"
)

// FormatProjectList renders projects as an aligned table.
func FormatProjectList(projects []*domain.Project) string {
	headers := []string{"ID", "NAME", "STATUS", "START", "TARGET"}
	rows := make([][]string, 0, len(projects))
	for _, p := range projects {
		rows = append(rows, []string{
			StyleBlue.Render(p.DisplayID()),
			p.Name,
			projectStatusCell(p.Status),
			p.StartDate.Format("2006-01-02"),
			FormatDate(p.TargetDate),
		})
	}
	return RenderTable(headers, rows)
}

func projectStatusCell(s domain.ProjectStatus) string {
	switch s {
	case domain.ProjectActive:
		return StyleGreen.Render(string(s))
	case domain.ProjectPaused:
		return StyleYellow.Render(string(s))
	case domain.ProjectArchived:
		return StyleDim.Render(string(s))
	default:
		return string(s)
	}
}

// ProjectInspectData bundles everything the inspect view renders.
type ProjectInspectData struct {
	Project    *domain.Project
	Nodes      []*domain.PlanNode
	ChildMap   map[string][]*domain.PlanNode
	Milestones map[string]*domain.Milestone // keyed by milestone ID, for link badges
}

// FormatProjectInspect renders a project header plus its plan tree with
// publish-state badges.
func FormatProjectInspect(data ProjectInspectData) string {
	p := data.Project

	var b strings.Builder
	b.WriteString(Header(fmt.Sprintf("%s  %s", p.DisplayID(), p.Name)))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("%s %s", Dim("Status:"), projectStatusCell(p.Status)))
	b.WriteString(fmt.Sprintf("   %s %s", Dim("Start:"), p.StartDate.Format("2006-01-02")))
	if p.TargetDate != nil {
		b.WriteString(fmt.Sprintf("   %s %s (%s)", Dim("Target:"), p.TargetDate.Format("2006-01-02"), RelativeDate(*p.TargetDate)))
	}
	b.WriteString("\n\n")

	tree := FormatPlanTree(data.Nodes, data.ChildMap, data.Milestones)
	if tree == "" {
		b.WriteString(Dim("No plan nodes yet."))
	} else {
		b.WriteString(tree)
	}
	return b.String()
}
