package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/noah-isme/gema-curriculum-api/internal/dto"
	"github.com/noah-isme/gema-curriculum-api/internal/service"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the module catalog",
	}

	cmd.AddCommand(newCatalogImportCmd(app))
	return cmd
}

func newCatalogImportCmd(app *App) *cobra.Command {
	var actor string

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Insert or update catalog modules from a JSON file",
		Long: `Import catalog modules from a JSON file of the form

  {"modules": [{"module_id": "web-intro", "course_id": "web",
                "title": "Intro to the Web", "sequence": 1, "is_first": true}]}

Existing modules are updated in place. Activation records are not touched;
run "provision" afterwards to seed records for new modules.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Catalog == nil {
				return fmt.Errorf("catalog service is not configured")
			}

			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading catalog file: %w", err)
			}

			var req dto.CatalogImportRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("parsing catalog file: %w", err)
			}

			result, err := app.Catalog.Import(cmd.Context(), service.ActivityActor{ID: actor, Role: "operator"}, req)
			if err != nil {
				return fmt.Errorf("importing catalog: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s %d modules across %s\n",
				StyleHeader.Render("Imported"), len(req.Modules), strings.Join(result.Courses, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&actor, "actor", "curriculumctl", "Actor recorded in the audit trail")

	return cmd
}
