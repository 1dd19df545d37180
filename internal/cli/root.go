package cli

import (
	"github.com/mfalkner/trackline/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands,
// plus the acting user identity stamped onto destructive operations.
type App struct {
	Projects     service.ProjectService
	Plans        service.PlanService
	Milestones   service.MilestoneService
	Deliverables service.DeliverableService
	Baselines    service.BaselineService
	Breaches     service.BreachService
	Deletions    service.DeletionService
	Resolver     service.LinkResolver

	// ActorID identifies who performs deletes and breach records.
	ActorID string

	// IsInteractive reports whether stdin is a terminal; confirmation
	// prompts are skipped when it is not.
	IsInteractive func() bool
}

func (app *App) interactive() bool {
	return app.IsInteractive != nil && app.IsInteractive()
}

// NewRootCmd creates the top-level "trackline" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:   "trackline",
		Short: "Project delivery tracker with baseline integrity",
	}

	root.AddCommand(
		newProjectCmd(app),
		newPlanCmd(app),
		newMilestoneCmd(app),
		newDeliverableCmd(app),
		newBaselineCmd(app),
		newBreachCmd(app),
		newBoardCmd(app),
	)

	return root
}
