package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/homestead/internal/homestead"
	"github.com/cory-johannsen/homestead/internal/journal"
)

func newSimulateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run the scenario and print each settler's final state",
		Long: `Runs every settler in the scenario. With simulation.ticks > 0 the run is
headless: ticks execute back to back and the command exits. With ticks = 0 the
simulation runs on simulation.tick_interval until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			s, err := a.build(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			if every, _ := cmd.Flags().GetInt("status-every"); every > 0 {
				out := cmd.OutOrStdout()
				s.sim.OnTick(func(tick int64) {
					if tick%int64(every) == 0 {
						fmt.Fprintf(out, "-- tick %d\n", tick)
						printStatus(out, snapshot(s.agents))
					}
				})
			}

			if n := a.cfg.Simulation.Ticks; n > 0 {
				s.sim.RunTicks(ctx, n)
			} else {
				<-s.sim.Start(ctx)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "scenario %s after %d ticks\n", s.scenario.Name, s.sim.Ticks())
			printStatus(out, s.sim.Snapshot())
			printTally(out, s.tally)
			return nil
		},
	}
	cmd.Flags().Int("ticks", 0, "number of ticks to run headless (overrides simulation.ticks)")
	cmd.Flags().Int("status-every", 0, "print settler status every N ticks (0 = only at the end)")
	mustBind(a.v, "simulation.ticks", cmd.Flags().Lookup("ticks"))
	return cmd
}

// snapshot reads agent status without the simulation lock; only for use from
// an OnTick callback, where the lock is already held.
func snapshot(agents []*homestead.Agent) []homestead.Status {
	out := make([]homestead.Status, len(agents))
	for i, a := range agents {
		out[i] = a.Status()
	}
	return out
}

func printStatus(w io.Writer, statuses []homestead.Status) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "AGENT\tPOSITION\tFOOD\tWATER\tCARRIED\tGOAL\tPLAN\tFLAGS")
	for _, s := range statuses {
		var carried []string
		for kind, amount := range s.Carried {
			if amount > 0 {
				carried = append(carried, fmt.Sprintf("%s=%.1f", kind, amount))
			}
		}
		sort.Strings(carried)
		fmt.Fprintf(tw, "%s\t(%.1f, %.1f, %.1f)\t%.2f\t%.2f\t%s\t%s\t%s\t%s\n",
			s.Name, s.Position.X, s.Position.Y, s.Position.Z,
			s.Food, s.Water,
			dash(strings.Join(carried, " ")),
			dash(s.Goal),
			dash(strings.Join(s.Plan, " -> ")),
			dash(s.Flags),
		)
	}
	tw.Flush()
}

func printTally(w io.Writer, t tally) {
	var parts []string
	for _, kind := range journal.Kinds {
		if n := t[kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", kind, n))
		}
	}
	fmt.Fprintf(w, "events: %s\n", dash(strings.Join(parts, " ")))
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
