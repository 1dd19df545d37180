package cli

import (
	"context"
	"fmt"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/mfalkner/trackline/internal/service"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Author the planning tree",
	}

	cmd.AddCommand(
		newPlanAddCmd(app),
		newPlanTreeCmd(app),
		newPlanUpdateCmd(app),
		newPlanPublishCmd(app),
		newPlanRemoveCmd(app),
	)

	return cmd
}

func newPlanAddCmd(app *App) *cobra.Command {
	var project, title, itemType, parent string
	var order int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a plan node",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			if !domain.ValidItemTypes[itemType] {
				return fmt.Errorf("invalid item type %q (want task, milestone, or deliverable)", itemType)
			}

			n := &domain.PlanNode{
				ProjectID:  projectID,
				Title:      title,
				ItemType:   domain.ItemType(itemType),
				Link:       domain.NoLink,
				OrderIndex: order,
			}
			if cmd.Flags().Changed("parent") {
				parentID, err := resolveNodeID(ctx, app, projectID, parent)
				if err != nil {
					return err
				}
				n.ParentID = &parentID
			}

			if err := app.Plans.Create(ctx, n); err != nil {
				return err
			}
			fmt.Printf("Created %s node %q\n", n.ItemType, n.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&title, "title", "", "Node title")
	cmd.Flags().StringVar(&itemType, "type", "task", "Item type (task|milestone|deliverable)")
	cmd.Flags().StringVar(&parent, "parent", "", "Parent node ID or title")
	cmd.Flags().IntVar(&order, "order", 0, "Sibling order index")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func newPlanTreeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "tree PROJECT",
		Short: "Show the plan tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, args[0])
			if err != nil {
				return err
			}
			nodes, err := app.Plans.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}
			if len(nodes) == 0 {
				fmt.Println("No plan nodes yet.")
				return nil
			}
			roots, childMap := buildChildMap(nodes)

			milestones := make(map[string]*domain.Milestone)
			listed, err := app.Milestones.ListByProject(ctx, projectID)
			if err != nil {
				return err
			}
			for _, m := range listed {
				milestones[m.ID] = m
			}

			fmt.Printf("%s\n", formatter.FormatPlanTree(roots, childMap, milestones))
			return nil
		},
	}
}

func newPlanUpdateCmd(app *App) *cobra.Command {
	var project, title string
	var order int

	cmd := &cobra.Command{
		Use:   "update NODE",
		Short: "Update a plan node",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}
			n, err := app.Plans.GetByID(ctx, nodeID)
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("title") {
				n.Title = title
			}
			if cmd.Flags().Changed("order") {
				n.OrderIndex = order
			}

			if err := app.Plans.Update(ctx, n); err != nil {
				return err
			}
			fmt.Printf("Updated node %q\n", n.Title)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().IntVar(&order, "order", 0, "Sibling order index")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newPlanPublishCmd(app *App) *cobra.Command {
	var project, milestone string

	cmd := &cobra.Command{
		Use:   "publish NODE",
		Short: "Publish a node to a tracked milestone or deliverable",
		Long: "Publishing creates the tracked counterpart of a plan node and links " +
			"the two. Without --milestone the node becomes a tracked milestone; " +
			"with --milestone it becomes a deliverable under that milestone.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			if milestone == "" {
				m, err := app.Plans.PublishMilestone(ctx, nodeID)
				if err != nil {
					return err
				}
				fmt.Printf("Published milestone %q (%s)\n", m.Name, m.ID[:8])
				return nil
			}

			milestoneID, err := resolveMilestoneID(ctx, app, projectID, milestone)
			if err != nil {
				return err
			}
			d, err := app.Plans.PublishDeliverable(ctx, nodeID, milestoneID)
			if err != nil {
				return err
			}
			fmt.Printf("Published deliverable %q (%s)\n", d.Name, d.ID[:8])
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&milestone, "milestone", "", "Owning milestone (publishes a deliverable)")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newPlanRemoveCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "remove NODE",
		Short: "Delete a plan node and its tracked counterpart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			projectID, err := resolveProjectID(ctx, app, project)
			if err != nil {
				return err
			}
			nodeID, err := resolveNodeID(ctx, app, projectID, args[0])
			if err != nil {
				return err
			}

			res, err := app.Deletions.DeletePlanNode(ctx, nodeID, app.ActorID)
			if err != nil {
				return err
			}
			printDeleteResult(res, "node")
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

// printDeleteResult renders a DeleteResult uniformly across delete commands.
func printDeleteResult(res *service.DeleteResult, what string) {
	if !res.Allowed {
		fmt.Printf("Refused: %s\n", res.Reason)
		return
	}
	if res.Count > 0 {
		fmt.Printf("Deleted %s and %d linked plan node(s).\n", what, res.Count)
		return
	}
	fmt.Printf("Deleted %s.\n", what)
}
