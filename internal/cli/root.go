package cli

import (
	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

// App holds the services used by operator commands.
type App struct {
	Activations  service.ModuleActivationService
	Provisioning service.ProvisioningService
	Catalog      service.CatalogService
}

// NewRootCmd creates the top-level "curriculumctl" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "curriculumctl",
		Short:         "Operator tooling for curriculum module activation",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCatalogCmd(app),
		newProvisionCmd(app),
		newStatusCmd(app),
	)

	return root
}
