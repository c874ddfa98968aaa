package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newProvisionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Create default activation records for every catalog module without one",
		Long: `Seed activation records for the whole module catalog.

Modules flagged as the first of their course start active, every other
module starts inactive. Modules that already have a record are skipped,
so the command is safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Provisioning == nil {
				return fmt.Errorf("provisioning service is not configured")
			}

			result, err := app.Provisioning.Run(cmd.Context())
			if err != nil {
				return fmt.Errorf("provisioning catalog: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %d created, %d skipped\n",
				StyleHeader.Render("Provisioned"), len(result.Created), len(result.Skipped))
			if len(result.Created) > 0 {
				fmt.Fprintf(out, "  created: %s\n", strings.Join(result.Created, ", "))
			}
			return nil
		},
	}
}
