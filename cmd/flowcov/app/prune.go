package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/spf13/cobra"
)

var errNothingToPrune = errors.New("pass --older-than, --keep, or --all")

func newPruneCommand(o *globalOptions) *cobra.Command {
	var (
		className string
		olderThan time.Duration
		keep      int
		all       bool
	)

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "remove stored coverage runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if olderThan <= 0 && keep <= 0 && !all {
				return errNothingToPrune
			}

			b, _, err := o.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			opts := []backend.RemovalOption{backend.RemoveClass(className)}
			if olderThan > 0 {
				opts = append(opts, backend.RemoveCreatedBefore(time.Now().Add(-olderThan)))
			}
			if keep > 0 {
				opts = append(opts, backend.KeepLatest(keep))
			}

			n, err := b.RemoveClassRuns(cmd.Context(), opts...)
			if err != nil {
				return fmt.Errorf("removing runs: %w", err)
			}

			fmt.Fprintf(o.stdout, "removed %d runs\n", n)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&className, "class", "", "only remove runs of this test class")
	flags.DurationVar(&olderThan, "older-than", 0, "remove runs created longer ago than this")
	flags.IntVar(&keep, "keep", 0, "keep the newest runs of every class")
	flags.BoolVar(&all, "all", false, "remove all runs matching --class")

	return cmd
}
