package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatusCmd(app *App) *cobra.Command {
	var courseID string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the evaluated availability of each module",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Activations == nil {
				return fmt.Errorf("module activation service is not configured")
			}

			listing, err := app.Activations.List(cmd.Context(), courseID)
			if err != nil {
				return fmt.Errorf("listing module activations: %w", err)
			}

			out := cmd.OutOrStdout()
			if len(listing.Items) == 0 {
				fmt.Fprintln(out, StyleDim.Render("No modules found."))
				return nil
			}

			rows := make([][]string, 0, len(listing.Items))
			for _, item := range listing.Items {
				rows = append(rows, []string{
					item.CourseID,
					strconv.Itoa(item.Sequence),
					item.ModuleID,
					StatusStyle(item.Status.Status).Render(item.Status.Status),
					item.Status.Message,
				})
			}

			fmt.Fprint(out, RenderTable([]string{"COURSE", "SEQ", "MODULE", "STATUS", "MESSAGE"}, rows))
			fmt.Fprintf(out, "%s\n", StyleDim.Render("evaluated at "+listing.EvaluatedAt.Format("2006-01-02 15:04 MST")))
			return nil
		},
	}

	cmd.Flags().StringVar(&courseID, "course", "", "Course ID (all courses when empty)")

	return cmd
}
