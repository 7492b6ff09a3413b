package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newStatsCommand(o *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "print statistics about the stored runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := o.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			s, err := b.GetStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("loading stats: %w", err)
			}

			fmt.Fprintf(o.stdout, "runs:    %d\n", s.ClassRuns)
			fmt.Fprintf(o.stdout, "classes: %d\n", s.Classes)

			latest := "-"
			if !s.LatestRun.IsZero() {
				latest = s.LatestRun.Local().Format(time.RFC3339)
			}
			fmt.Fprintf(o.stdout, "latest:  %s\n", latest)

			return nil
		},
	}
}
