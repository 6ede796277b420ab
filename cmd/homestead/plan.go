package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [agent...]",
		Short: "Show the plan each goal would get right now, without executing it",
		Long: `Loads the scenario, senses the initial state, and runs the planner once for
every runnable goal of the named settlers (all settlers when none are named).
Nothing is adopted, executed, or journaled.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.build(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			names := args
			if len(names) == 0 {
				for _, ag := range s.agents {
					names = append(names, ag.Name())
				}
			}

			out := cmd.OutOrStdout()
			for _, name := range names {
				ag, err := s.agent(name)
				if err != nil {
					return err
				}
				previews := ag.Preview()
				fmt.Fprintf(out, "%s  state: %s\n", name, ag.Controller().State())
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "  GOAL\tPRIORITY\tRUNNABLE\tPLAN\tCOST\tNODES")
				for _, p := range previews {
					plan, cost, nodes := "-", "-", "-"
					switch {
					case p.Plan != nil:
						plan = strings.Join(p.Plan.Names(), " -> ")
						cost = fmt.Sprintf("%.2f", p.Plan.Cost)
					case p.Runnable:
						plan = "(no plan)"
					}
					if p.Runnable {
						nodes = fmt.Sprintf("%d", p.Search.Generated)
						if p.Search.Truncated {
							nodes += " (truncated)"
						}
					}
					fmt.Fprintf(tw, "  %s\t%d\t%t\t%s\t%s\t%s\n", p.Goal, p.Priority, p.Runnable, plan, cost, nodes)
				}
				tw.Flush()
			}
			return nil
		},
	}
}
