package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

func newRunsCommand(o *globalOptions) *cobra.Command {
	var className string

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "list stored coverage runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, cfg, err := o.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			// Without the flag, the configured class is listed
			if !cmd.Flags().Changed("class") {
				className = cfg.Class
			}

			runs, err := b.ListClassRuns(cmd.Context(), className)
			if err != nil {
				return fmt.Errorf("listing runs: %w", err)
			}

			if len(runs) == 0 {
				fmt.Fprintln(o.stdout, "no runs")
				return nil
			}

			t := table.New().
				Border(lipgloss.HiddenBorder()).
				Headers("ID", "CLASS", "CREATED", "METHODS")

			for _, run := range runs {
				t.Row(run.ID, run.ClassName, run.CreatedAt.Local().Format(time.RFC3339), strconv.Itoa(run.MethodCount))
			}

			fmt.Fprintln(o.stdout, t.Render())

			return nil
		},
	}

	cmd.Flags().StringVar(&className, "class", "", "only list runs of this test class, all classes if empty")

	return cmd
}
