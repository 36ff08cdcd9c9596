package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/effort-cli/internal/model"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "Inspect the project listing",
}

// -- projects list --

var projectsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		limit, _ := cmd.Flags().GetInt("limit")

		list, err := st.List(ctx, limit)
		if err != nil {
			return eris.Wrap(err, "projects list")
		}

		if len(list) == 0 {
			fmt.Fprintln(os.Stderr, "No projects found.")
			return nil
		}

		formatProjectsList(os.Stdout, list)
		return nil
	},
}

func init() {
	projectsListCmd.Flags().Int("limit", 50, "max number of projects to display")

	projectsCmd.AddCommand(projectsListCmd)
	rootCmd.AddCommand(projectsCmd)
}

func formatProjectsList(out io.Writer, list []model.Project) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tCREATED\tSIZE\tMULTIPLIER\tEFFORT_PM\tTIME_MONTHS")
	_, _ = fmt.Fprintln(w, "----\t-------\t----\t----------\t---------\t-----------")

	for _, p := range list {
		name := p.ProjectName
		if runes := []rune(name); len(runes) > 30 {
			name = string(runes[:27]) + "..."
		}
		r := p.EstimationResults
		_, _ = fmt.Fprintf(w, "%s\t%s\t%.0f\t%.3f\t%.1f\t%.1f\n",
			name,
			p.DateCreated.Format("2006-01-02"),
			r.ProjectSize,
			r.EffortMultiplier,
			r.DevelopmentEffort,
			r.DevelopmentTime,
		)
	}
	_ = w.Flush()
}
