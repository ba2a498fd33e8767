package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"autoplan/internal/app"
)

func mergeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "merge",
		Short: "Fold previously split blocks back into single tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.New(cfgPath, logger())
			if err != nil {
				return err
			}
			defer a.Close()

			rep, err := a.RunMerge(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Printf("merged: %d updated, %d deleted, %d errors\n",
				rep.Updated, rep.Deleted, len(rep.Errors))
			for _, e := range rep.Errors {
				fmt.Printf("  %s %s: %v\n", e.Op, e.TaskID, e.Err)
			}
			return nil
		},
	}
}
