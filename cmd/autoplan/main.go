package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autoplan/pkg/logx"
)

var (
	cfgPath  string
	logLevel string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := &cobra.Command{
		Use:           "autoplan",
		Short:         "Deadline-aware automatic task planner",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", defaultConfigPath(), "path to config file (yaml or json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug|info|warn|error)")

	rootCmd.AddCommand(planCmd())
	rootCmd.AddCommand(mergeCmd())
	rootCmd.AddCommand(tasksCmd())
	rootCmd.AddCommand(daemonCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func defaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return home + "/.autoplan/config.yaml"
}

func logger() logx.Logger {
	return logx.NewConsole(logLevel)
}
