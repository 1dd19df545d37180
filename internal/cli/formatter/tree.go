package formatter

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TreeItem represents a single node in a tree display.
type TreeItem struct {
	Title  string
	Level  int
	IsLast bool
	Marker string // styled type/state marker rendered before the title
	Badge  string // styled badge right-aligned after the title
}

const (
	treeBranch = "├─ "
	treeCorner = "└─ "
	treePipe   = "│  "
)

// RenderTree renders TreeItems as an indented tree using box-drawing
// connectors. Badges are right-aligned past the widest line.
func RenderTree(items []TreeItem) string {
	if len(items) == 0 {
		return ""
	}

	type lineInfo struct {
		content string
		badge   string
	}

	lines := make([]lineInfo, len(items))
	maxContentWidth := 0

	for idx, item := range items {
		var prefix string
		if item.Level > 0 {
			for i := 1; i < item.Level; i++ {
				prefix += treePipe
			}
			if item.IsLast {
				prefix += treeCorner
			} else {
				prefix += treeBranch
			}
		}

		content := StyleDim.Render(prefix)
		if item.Marker != "" {
			content += item.Marker + " "
		}
		content += item.Title

		lines[idx] = lineInfo{content: content, badge: item.Badge}
		if w := lipgloss.Width(content); w > maxContentWidth {
			maxContentWidth = w
		}
	}

	var b strings.Builder
	for idx, line := range lines {
		b.WriteString(line.content)
		if line.badge != "" {
			pad := maxContentWidth - lipgloss.Width(line.content) + 2
			b.WriteString(strings.Repeat(" ", pad))
			b.WriteString(line.badge)
		}
		if idx < len(lines)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
