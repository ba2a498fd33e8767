package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"autoplan/internal/app"
	"autoplan/internal/services/daemon"
)

func daemonCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Run in the background, re-planning on a schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger()
			a, err := app.New(cfgPath, log)
			if err != nil {
				return err
			}
			defer a.Close()

			dcfg := daemon.Config{PlanOnStart: true, WatchConfig: true}
			if c := a.Config(); c != nil && c.Daemon != nil {
				dcfg = daemon.Config{
					Enabled:     c.Daemon.Enabled,
					Schedule:    c.Daemon.Schedule,
					Timezone:    c.Daemon.Timezone,
					WatchConfig: c.Daemon.WatchConfig,
					PlanOnStart: c.Daemon.PlanOnStart,
				}
			}

			svc := daemon.New(dcfg, a.ConfigManager(), func(ctx context.Context, now time.Time) error {
				_, err := a.RunPlan(ctx, now, true)
				return err
			}, log)

			err = svc.Run(cmd.Context())
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
}
