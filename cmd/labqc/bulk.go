package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"labqc/pkg/core/bulk"
	"labqc/pkg/core/labid"
)

func bulkCmd() *cobra.Command {
	var (
		start, end string
		force      bool
	)
	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Analyze a range of lab ids and print a summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sigs := make(chan os.Signal, 2)
			signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
			defer signal.Stop(sigs)

			flag := &bulk.Flag{}
			done := make(chan struct{})
			defer close(done)
			go interruptBatch(sigs, done, flag, cancel, cmd.ErrOrStderr())

			return runBulk(ctx, cmd, start, end, force, flag)
		},
	}
	cmd.Flags().StringVar(&start, "start", "", "first lab id")
	cmd.Flags().StringVar(&end, "end", "", "last lab id")
	cmd.Flags().BoolVar(&force, "force", false, "ignore archived analyses")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

// interruptBatch raises flag on the first signal, letting the report in
// flight finish, and cancels the batch context on the second.
func interruptBatch(sigs <-chan os.Signal, done <-chan struct{}, flag *bulk.Flag, cancel context.CancelFunc, out io.Writer) {
	for {
		select {
		case <-done:
			return
		case <-sigs:
			if flag.Raised() {
				fmt.Fprintln(out, "Aborting.")
				cancel()
				return
			}
			flag.Raise()
			fmt.Fprintln(out, "Stopping after the current report. Interrupt again to abort.")
		}
	}
}

func runBulk(ctx context.Context, cmd *cobra.Command, start, end string, force bool, flag *bulk.Flag) error {
	ids := labid.Range(start, end)
	if len(ids) == 0 {
		return bulk.ErrEmptyRange
	}

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.settings.Snapshot()
	active := snap.ActivePrompt()
	pacer := bulk.NewPacer(a.cfg.PaceDelay, a.cfg.PaceRPS, a.cfg.PaceBurst)
	orch := bulk.NewOrchestrator(a.source, a.gateway, a.manager, pacer, a.logger, a.metrics)

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Processing %d reports with %s/%s (prompt %s), about %s\n",
		len(ids), snap.AI.Provider, snap.AI.Model, active.ID, bulk.EstimateRemaining(len(ids)))

	summary, err := orch.Run(ctx, bulk.Request{
		StartID:         start,
		EndID:           end,
		Settings:        snap.AI,
		PromptTemplate:  active.Content,
		PromptID:        active.ID,
		ForceRegenerate: force,
	}, flag)
	if err != nil {
		return err
	}

	jobs := orch.Snapshot()
	rows := make([][]string, 0, len(jobs))
	for i, j := range jobs {
		rows = append(rows, []string{strconv.Itoa(i + 1), j.LabID, string(j.Status), j.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Lab ID", "Status", "Error"}, rows, 1))

	fmt.Fprintln(out, renderTable(
		[]string{"Total", "Completed", "Skipped", "Failed", "Pending", "Elapsed"},
		[][]string{{
			strconv.Itoa(summary.Total),
			strconv.Itoa(summary.Counts[bulk.StatusCompleted]),
			strconv.Itoa(summary.Counts[bulk.StatusSkipped]),
			strconv.Itoa(summary.Counts[bulk.StatusFailed]),
			strconv.Itoa(summary.Counts[bulk.StatusPending]),
			summary.Elapsed.Round(time.Millisecond).String(),
		}},
		1, 2, 3, 4, 5,
	))
	if summary.Cancelled {
		fmt.Fprintln(out, "Stopped before the end of the range.")
	}
	return nil
}
