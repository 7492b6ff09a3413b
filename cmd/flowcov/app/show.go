package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/diag"
	"github.com/spf13/cobra"
)

var headingStyle = lipgloss.NewStyle().Bold(true)

type showOptions struct {
	process string
	method  string
	json    bool
}

func newShowCommand(o *globalOptions) *cobra.Command {
	var so showOptions

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "print the elements covered by a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, _, err := o.openBackend()
			if err != nil {
				return err
			}
			defer b.Close()

			run, err := b.GetClassRun(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, backend.ErrRunNotFound) {
					return fmt.Errorf("run %s not found", args[0])
				}

				return fmt.Errorf("loading run: %w", err)
			}

			if so.json {
				enc := json.NewEncoder(o.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(run)
			}

			report, err := diag.NewRunReport(run, so.method)
			if err != nil {
				return err
			}

			printReport(o.stdout, report, so.process)

			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&so.process, "process", "", "only print the process with this definition key")
	flags.StringVar(&so.method, "method", "", "only print the coverage of this test method")
	flags.BoolVar(&so.json, "json", false, "print the stored run as JSON")

	return cmd
}

func printReport(w io.Writer, report *diag.RunReport, process string) {
	fmt.Fprintf(w, "%s %s (%s, %s, %d methods)\n",
		headingStyle.Render("Run"), report.ID, report.ClassName, report.CreatedAt.Local().Format(time.RFC3339), report.MethodCount)

	if report.TestMethodName != "" {
		fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Method"), report.TestMethodName)
	}

	for _, p := range report.Processes {
		if process != "" && p.Key != process {
			continue
		}

		fmt.Fprintf(w, "\n%s %s\n", headingStyle.Render("Process"), p.Key)

		fmt.Fprintln(w, "  Flow nodes:")
		for _, n := range p.FlowNodes {
			fmt.Fprintf(w, "    %s (%s)\n", n.ElementID, n.ElementType)
		}

		fmt.Fprintln(w, "  Sequence flows:")
		for _, f := range p.SequenceFlows {
			fmt.Fprintf(w, "    %s\n", f)
		}
	}

	if process != "" {
		return
	}

	for _, d := range report.Decisions {
		fmt.Fprintf(w, "\n%s %s\n", headingStyle.Render("Decision"), d.Key)

		fmt.Fprintln(w, "  Rules:")
		for _, r := range d.Rules {
			fmt.Fprintf(w, "    %s\n", r)
		}
	}
}
