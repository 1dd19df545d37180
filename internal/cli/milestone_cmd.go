package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/spf13/cobra"
)

func newMilestoneCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "milestone",
		Short: "Manage tracked milestones",
	}

	cmd.AddCommand(
		newMilestoneAddCmd(app),
		newMilestoneListCmd(app),
		newMilestoneInspectCmd(app),
		newMilestoneUpdateCmd(app),
		newMilestoneRemoveCmd(app),
	)

	return cmd
}

func parseDateFlag(cmd *cobra.Command, flag, value string) (*time.Time, error) {
	if !cmd.Flags().Changed(flag) {
		return nil, nil
	}
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s date %q: %w", flag, value, err)
	}
	return &d, nil
}

func newMilestoneAddCmd(app *App) *cobra.Command {
	var project, name, start, end string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a tracked milestone directly",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}

			m := &domain.Milestone{ProjectID: projectID, Name: name}
			if m.StartDate, err = parseDateFlag(cmd, "start", start); err != nil {
				return err
			}
			if m.EndDate, err = parseDateFlag(cmd, "end", end); err != nil {
				return err
			}

			if err := app.Milestones.Create(ctx, m); err != nil {
				return err
			}
			fmt.Printf("Created milestone %q (%s)\n", m.Name, m.ID[:8])
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&name, "name", "", "Milestone name")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newMilestoneListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list PROJECT",
		Short: "List a project's milestones",
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
			if len(milestones) == 0 {
				fmt.Println("No milestones found.")
				return nil
			}
			fmt.Printf("%s\n", formatter.FormatMilestoneList(milestones))
			return nil
		},
	}
}

func newMilestoneInspectCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "inspect MILESTONE",
		Short: "Show milestone details, signatures, and deliverables",
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
			m, err := app.Milestones.GetByID(ctx, milestoneID)
			if err != nil {
				return err
			}
			deliverables, err := app.Deliverables.ListByMilestone(ctx, milestoneID)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatMilestoneInspect(m, deliverables))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newMilestoneUpdateCmd(app *App) *cobra.Command {
	var project, name, start, end, forecast, baselineStart, baselineEnd string
	var billable float64

	cmd := &cobra.Command{
		Use:   "update MILESTONE",
		Short: "Update a milestone",
		Long: "Updates milestone fields. Baseline window fields (--baseline-start, " +
			"--baseline-end, --billable) are frozen while the baseline is locked.",
		Args: cobra.ExactArgs(1),
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
			m, err := app.Milestones.GetByID(ctx, milestoneID)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("name") {
				m.Name = name
			}
			if d, err := parseDateFlag(cmd, "start", start); err != nil {
				return err
			} else if d != nil {
				m.StartDate = d
			}
			if d, err := parseDateFlag(cmd, "end", end); err != nil {
				return err
			} else if d != nil {
				m.EndDate = d
			}
			if d, err := parseDateFlag(cmd, "forecast", forecast); err != nil {
				return err
			} else if d != nil {
				m.ForecastEnd = d
			}
			if d, err := parseDateFlag(cmd, "baseline-start", baselineStart); err != nil {
				return err
			} else if d != nil {
				m.BaselineStart = d
			}
			if d, err := parseDateFlag(cmd, "baseline-end", baselineEnd); err != nil {
				return err
			} else if d != nil {
				m.BaselineEnd = d
			}
			if cmd.Flags().Changed("billable") {
				m.BaselineBillable = &billable
			}

			if err := app.Milestones.Update(ctx, m); err != nil {
				return err
			}
			fmt.Printf("Updated milestone %q\n", m.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&name, "name", "", "Milestone name")
	cmd.Flags().StringVar(&start, "start", "", "Start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "End date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&forecast, "forecast", "", "Forecast end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&baselineStart, "baseline-start", "", "Baseline window start (YYYY-MM-DD)")
	cmd.Flags().StringVar(&baselineEnd, "baseline-end", "", "Baseline window end (YYYY-MM-DD)")
	cmd.Flags().Float64Var(&billable, "billable", 0, "Baseline billable amount")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newMilestoneRemoveCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "remove MILESTONE",
		Short: "Delete a milestone and all plan nodes linked to it",
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

			res, err := app.Deletions.DeleteMilestone(ctx, milestoneID, app.ActorID)
			if err != nil {
				return err
			}
			printDeleteResult(res, "milestone")
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
