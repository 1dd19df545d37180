package cli

import (
	"context"
	"fmt"

	"github.com/mfalkner/trackline/internal/cli/formatter"
	"github.com/mfalkner/trackline/internal/domain"
	"github.com/spf13/cobra"
)

func newBaselineCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Sign, inspect, and reset milestone baselines",
	}

	cmd.AddCommand(
		newBaselineSignCmd(app),
		newBaselineStatusCmd(app),
		newBaselineVersionsCmd(app),
		newBaselineResetCmd(app),
	)

	return cmd
}

func newBaselineSignCmd(app *App) *cobra.Command {
	var project, role, signerID, signerName string

	cmd := &cobra.Command{
		Use:   "sign MILESTONE",
		Short: "Record one party's signature on a baseline",
		Long: "Records a supplier or customer signature. When the second of the " +
			"pair lands the baseline locks and the original commitment is " +
			"snapshotted permanently.",
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
			if signerID == "" {
				signerID = app.ActorID
			}
			if signerName == "" {
				signerName = signerID
			}

			m, err := app.Baselines.Sign(ctx, milestoneID, domain.SignerRole(role), signerID, signerName)
			if err != nil {
				return err
			}

			fmt.Printf("Signed %q as %s.\n", m.Name, role)
			fmt.Printf("%s\n", formatter.BaselineIndicator(m.SignatureState()))
			if m.Locked {
				fmt.Println("Baseline locked; original commitment recorded.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().StringVar(&role, "role", "", "Signing role (supplier|customer)")
	cmd.Flags().StringVar(&signerID, "signer-id", "", "Signer identity (defaults to current actor)")
	cmd.Flags().StringVar(&signerName, "signer-name", "", "Signer display name")
	_ = cmd.MarkFlagRequired("project")
	_ = cmd.MarkFlagRequired("role")

	return cmd
}

func newBaselineStatusCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "status MILESTONE",
		Short: "Show a milestone's signing state",
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
			fmt.Printf("%s\n", formatter.FormatMilestoneInspect(m, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newBaselineVersionsCmd(app *App) *cobra.Command {
	var project string

	cmd := &cobra.Command{
		Use:   "versions MILESTONE",
		Short: "Show the permanent baseline audit trail",
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
			versions, err := app.Baselines.Versions(ctx, milestoneID)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", formatter.FormatBaselineVersions(versions))
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}

func newBaselineResetCmd(app *App) *cobra.Command {
	var project string
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset MILESTONE",
		Short: "Clear both signatures and unlock the baseline",
		Long: "Administrative unlock: clears both signatures so the baseline can " +
			"be renegotiated. The recorded audit trail is never touched.",
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

			if !yes {
				ok, err := confirm(app,
					fmt.Sprintf("Reset the baseline for %q? Both signatures will be cleared.", m.Name),
					false)
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Aborted.")
					return nil
				}
			}

			m, err = app.Baselines.Reset(ctx, milestoneID)
			if err != nil {
				return err
			}
			fmt.Printf("Baseline for %q reset.\n", m.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&project, "project", "", "Project ID or short ID")
	cmd.Flags().BoolVar(&yes, "yes", false, "Skip the confirmation prompt")
	_ = cmd.MarkFlagRequired("project")

	return cmd
}
