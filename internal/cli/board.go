package cli

import (
	"context"
	"fmt"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

// boardKeys are the board view keybindings.
type boardKeys struct {
	Refresh key.Binding
	Quit    key.Binding
}

var defaultBoardKeys = boardKeys{
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Quit:    key.NewBinding(key.WithKeys("q", "esc", "ctrl+c"), key.WithHelp("q", "quit")),
}

type boardLoadedMsg struct {
	project    *domain.Project
	milestones []*domain.Milestone
	err        error
}

// boardModel is a read-only live view over one project's milestones with
// their lock and breach state.
type boardModel struct {
	app       *App
	projectID string
	keys      boardKeys
	viewport  viewport.Model
	project   *domain.Project
	rows      []*domain.Milestone
	err       error
	ready     bool
}

func newBoardModel(app *App, projectID string) boardModel {
	return boardModel{
		app:       app,
		projectID: projectID,
		keys:      defaultBoardKeys,
	}
}

func (m boardModel) load() tea.Msg {
	ctx := context.Background()
	p, err := m.app.Projects.GetByID(ctx, m.projectID)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	milestones, err := m.app.Milestones.ListByProject(ctx, m.projectID)
	if err != nil {
		return boardLoadedMsg{err: err}
	}
	return boardLoadedMsg{project: p, milestones: milestones}
}

func (m boardModel) Init() tea.Cmd {
	return m.load
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			return m, m.load
		}

	case tea.WindowSizeMsg:
		headerHeight := 4
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight
		}
		m.viewport.SetContent(m.content())

	case boardLoadedMsg:
		m.err = msg.err
		m.project = msg.project
		m.rows = msg.milestones
		if m.ready {
			m.viewport.SetContent(m.content())
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m boardModel) content() string {
	if m.err != nil {
		return formatter.StyleRed.Render(fmt.Sprintf("Error: %v", m.err))
	}
	if len(m.rows) == 0 {
		return formatter.Dim("No milestones yet.")
	}
	return formatter.FormatMilestoneList(m.rows)
}

func (m boardModel) View() string {
	title := "Milestone Board"
	if m.project != nil {
		title = fmt.Sprintf("%s — Milestone Board", m.project.Name)
	}
	header := formatter.Header(title)
	help := formatter.Dim("r refresh · q quit")

	if !m.ready {
		return header + "\n" + m.content() + "\n" + help
	}
	return header + "\n" + m.viewport.View() + "\n" + help
}

func newBoardCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "board PROJECT",
		Short: "Live milestone board with lock and breach status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if !app.interactive() {
				// Non-interactive fallback: print the table once.
				milestones, err := app.Milestones.ListByProject(ctx, projectID)
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", formatter.FormatMilestoneList(milestones))
				return nil
			}

			p := tea.NewProgram(newBoardModel(app, projectID), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
}
