package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/spf13/cobra"
)

func newDeliverableCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deliverable",
		Short: "Manage tracked deliverables",
	}

	cmd.AddCommand(
		newDeliverableAddCmd(app),
		newDeliverableListCmd(app),
		newDeliverableSetDateCmd(app),
		newDeliverableRemoveCmd(app),
	)

	return cmd
}

// milestoneScope resolves the --project / --milestone flag pair shared by
// deliverable subcommands.
func milestoneScope(ctx context.Context, app *App, project, milestone string) (string, error) {
	projectID, err := resolveProjectID(ctx, app, project)
	if err != nil {
		return "", err
	}
	return resolveMilestoneID(ctx, app, projectID, milestone)
}

func newDeliverableAddCmd(app *App) *cobra.Command {
	var project, milestone, name, target string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a tracked deliverable directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			milestoneID, err := milestoneScope(ctx, app, project, milestone)
			if err != nil {
				return err
			}
			m, err := app.Milestones.GetByID(ctx, milestoneID)
			if err != nil {
				return err
			}

			d := &domain.Deliverable{
				ProjectID:   m.ProjectID,
				MilestoneID: milestoneID,
				Name:        name,
			}
			if d.TargetDate, err = parseDateFlag(cmd, "target", target); err != nil {
				return err
			}

			if err := app.Deliverables.Create(ctx, d); err != nil {
				return err
			}
			fmt.Printf("Created deliverable %q under %q\n", d.Name, m.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&milestone, "milestone", "", "Owning milestone")
	cmd.Flags().StringVar(&name, "name", "", "Deliverable name")
	cmd.Flags().StringVar(&target, "target", "", "Target date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("milestone")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newDeliverableListCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "list MILESTONE",
		Short: "List a milestone's deliverables",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			milestoneID, err := milestoneScope(ctx, app, project, args[0])
			if err != nil {
				return err
			}
			deliverables, err := app.Deliverables.ListByMilestone(ctx, milestoneID)
			if err != nil {
				return err
			}
			if len(deliverables) == 0 {
				fmt.Println("No deliverables found.")
				return nil
			}

			rows := make([][]string, 0, len(deliverables))
			for _, d := range deliverables {
				rows = append(rows, []string{
					formatter.Dim(d.ID[:8]),
					d.Name,
					formatter.FormatDate(d.TargetDate),
				})
			}
			fmt.Printf("%s\n", formatter.RenderTable([]string{"ID", "NAME", "TARGET"}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newDeliverableSetDateCmd(app *App) *cobra.Command {
	var project, milestone, target string

	cmd := &cobra.Command{
		Use:   "set-date DELIVERABLE",
		Short: "Set a deliverable's target date",
		Long: "Sets the target date. A date past the owning milestone's end date " +
			"is committed but recorded as a breach; correcting the date clears a " +
			"stale breach once nothing else violates.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			milestoneID, err := milestoneScope(ctx, app, project, milestone)
			if err != nil {
				return err
			}
			deliverableID, err := resolveDeliverableID(ctx, app, milestoneID, args[0])
			if err != nil {
				return err
			}
			date, err := time.Parse("2006-01-02", target)
			if err != nil {
				return fmt.Errorf("invalid target date %q: %w", target, err)
			}

			check, err := app.Deliverables.SetTargetDate(ctx, deliverableID, date, app.ActorID)
			if err != nil {
				return err
			}

			fmt.Printf("Target date set to %s.\n", date.Format("2006-01-02"))
			if check.WouldBreach && check.MilestoneEnd != nil {
				fmt.Printf("%s milestone end %s exceeded; breach recorded.\n",
					formatter.StyleRed.Render("Warning:"), check.MilestoneEnd.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&milestone, "milestone", "", "Owning milestone")
	cmd.Flags().StringVar(&target, "target", "", "Target date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("milestone")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func newDeliverableRemoveCmd(app *App) *cobra.Command {
	var project, milestone string

	cmd := &cobra.Command{
		Use:   "remove DELIVERABLE",
		Short: "Delete a deliverable and plan nodes linked to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			milestoneID, err := milestoneScope(ctx, app, project, milestone)
			if err != nil {
				return err
			}
			deliverableID, err := resolveDeliverableID(ctx, app, milestoneID, args[0])
			if err != nil {
				return err
			}

			res, err := app.Deletions.DeleteDeliverable(ctx, deliverableID, app.ActorID)
			if err != nil {
				return err
			}
			printDeleteResult(res, "deliverable")
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&milestone, "milestone", "", "Owning milestone")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("milestone")

	return cmd
}
