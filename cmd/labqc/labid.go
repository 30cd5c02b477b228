package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"labqc/pkg/core/bulk"
	"labqc/pkg/core/labid"
)

func labidCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labid",
		Short: "Lab identifier arithmetic",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "next <id>",
		Short: "Print the successor of an id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), labid.Next(args[0]))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "prev <id>",
		Short: "Print the predecessor of an id",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), labid.Prev(args[0]))
		},
	})

	var countOnly bool
	rangeCmd := &cobra.Command{
		Use:   "range <start> <end>",
		Short: "Print every id from start to end",
		Args:  cobra.ExactArgs(2),
		Run: func(cmd *cobra.Command, args []string) {
			ids := labid.Range(args[0], args[1])
			out := cmd.OutOrStdout()
			if !countOnly {
				for _, id := range ids {
					fmt.Fprintln(out, id)
				}
			}
			fmt.Fprintf(out, "%d ids, about %s\n", len(ids), bulk.EstimateRemaining(len(ids)))
		},
	}
	rangeCmd.Flags().BoolVar(&countOnly, "count", false, "print only the count")
	cmd.AddCommand(rangeCmd)

	return cmd
}
