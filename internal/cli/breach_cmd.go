package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newBreachCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "breach",
		Short: "Inspect and reconcile milestone breaches",
	}

	cmd.AddCommand(
		newBreachListCmd(app),
		newBreachCheckCmd(app),
		newBreachReconcileCmd(app),
	)

	return cmd
}

func newBreachListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List breached milestones",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			milestones, err := app.Milestones.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}

			rows := make([][]string, 0)
			for _, m := range milestones {
				if !m.Breached {
					continue
				}
				recorded := ""
				if m.BreachedAt != nil {
					recorded = m.BreachedAt.Format("2006-01-02")
				}
				rows = append(rows, []string{
					formatter.Dim(m.ID[:8]),
					m.Name,
					m.BreachReason,
					recorded,
					m.BreachedBy,
				})
			}
			if len(rows) == 0 {
				fmt.Println("No breached milestones.")
				return nil
			}
			fmt.Printf("%s\n", formatter.RenderTable(
				[]string{"ID", "NAME", "REASON", "RECORDED", "BY"}, rows))
			return nil
		},
	}
}

func newBreachCheckCmd(app *App) *cobra.Command {
	var project, date string

	cmd := &cobra.Command{
		Use:   "check MILESTONE",
		Short: "Judge a proposed date against a milestone's end",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			milestoneID, err := resolveMilestoneID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			proposed, err := time.Parse("2006-01-02", date)
			if err != nil {
				return fmt.Errorf("invalid date %q: %w", date, err)
			}

			check, err := app.Breaches.Check(ctx, milestoneID, proposed)
			if err != nil {
				return err
			}

			if check.MilestoneEnd == nil {
				fmt.Println("Milestone has no end date; nothing to violate.")
				return nil
			}
			if check.WouldBreach {
				fmt.Printf("%s %s is past the milestone end %s.\n",
					formatter.StyleRed.Render("Would breach:"),
					proposed.Format("2006-01-02"),
					check.MilestoneEnd.Format("2006-01-02"))
			} else {
				fmt.Printf("%s %s is within the milestone end %s.\n",
					formatter.StyleGreen.Render("OK:"),
					proposed.Format("2006-01-02"),
					check.MilestoneEnd.Format("2006-01-02"))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&date, "date", "", "Proposed date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("date")

	return cmd
}

func newBreachReconcileCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "reconcile MILESTONE",
		Short: "Clear a stale breach once no deliverable violates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			milestoneID, err := resolveMilestoneID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			if err := app.Breaches.Reconcile(ctx, milestoneID); err != nil {
				return err
			}

			m, err := app.Milestones.GetByID(ctx, milestoneID)
			if err != nil {
				return err
			}
			if m.Breached {
				fmt.Println("Breach stands: a deliverable still violates the end date.")
			} else {
				fmt.Println("No standing breach.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
