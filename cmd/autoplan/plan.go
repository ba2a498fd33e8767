package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"autoplan/internal/app"
)

func planCmd() *cobra.Command {
	var (
		doApply bool
		asJSON  bool
		at      string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Compute a schedule for all open tasks",
		Long: "Computes a schedule for all open tasks. By default this is a dry run;\n" +
			"pass --apply to split tasks into blocks and persist the slots.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				parsed, err := time.ParseInLocation("2006-01-02 15:04", at, time.Local)
				if err != nil {
					return fmt.Errorf("invalid --at %q, expected \"YYYY-MM-DD HH:MM\": %w", at, err)
				}
				now = parsed
			}

			a, err := app.New(cfgPath, logger())
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.RunPlan(cmd.Context(), now, doApply)
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(sum)
			}
			printSummary(sum)
			return nil
		},
	}

	cmd.Flags().BoolVar(&doApply, "apply", false, "persist splits and slots to the task store")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	cmd.Flags().StringVar(&at, "at", "", "plan as if started at this time (YYYY-MM-DD HH:MM)")
	return cmd
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(sum *app.Summary) {
	for _, e := range sum.Result.Entries {
		fmt.Printf("%s - %s  [%s]  %s (%d/%d)  urgency %.2f\n",
			e.Start.Format("Mon 2006-01-02 15:04"),
			e.End.Format("15:04"),
			e.MapID,
			e.Block.TaskID,
			e.Block.Index+1, e.Block.Total,
			e.Score.Total)
	}
	fmt.Printf("\n%d blocks scheduled, %d unscheduled\n",
		len(sum.Result.Entries), len(sum.Result.Unscheduled))
	if sum.Attempts > 1 {
		fmt.Printf("auto-adjust: %d attempts, urgency weight %.1f, deadline weight %.1f\n",
			sum.Attempts, sum.UrgencyWeight, sum.DeadlineWeight)
	}

	if len(sum.Misses) > 0 {
		fmt.Printf("\ndeadline misses:\n")
		for _, m := range sum.Misses {
			fmt.Printf("  %s  due %s", m.Title, m.Due.Format("2006-01-02"))
			switch {
			case m.OverageDays != nil:
				fmt.Printf("  %.1f days over\n", *m.OverageDays)
			case m.UnscheduledBlocks > 0:
				fmt.Printf("  %d blocks unscheduled\n", m.UnscheduledBlocks)
			default:
				fmt.Println()
			}
		}
	}

	if sum.Applied {
		fmt.Printf("\napplied: %d created, %d updated, %d deleted, %d errors\n",
			len(sum.PlanReport.Created)+len(sum.MergeReport.Created),
			sum.PlanReport.Updated+sum.MergeReport.Updated,
			sum.MergeReport.Deleted,
			len(sum.PlanReport.Errors)+len(sum.MergeReport.Errors))
	}
}
