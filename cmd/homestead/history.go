package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history <agent>",
		Short: "List an agent's journaled plan events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openJournal(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer b.close()
			if b.reader == nil {
				return errors.New("journal.driver is none: nothing is recorded")
			}

			events, err := b.reader.ListByAgent(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TICK\tEVENT\tGOAL\tPLAN\tCOST")
			for _, e := range events {
				plan, cost := "-", "-"
				if len(e.Actions) > 0 {
					plan = strings.Join(e.Actions, " -> ")
					cost = fmt.Sprintf("%.2f", e.Cost)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.Tick, e.Kind, e.Goal, plan, cost)
			}
			return tw.Flush()
		},
	}
}
