package main

import (
	"context"

	"github.com/spf13/cobra"

	"feedsense/internal/app"
	"feedsense/internal/config"
	"feedsense/internal/logging"
)

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "feedsense",
		Short:         "FeedSense - AI powered feed reader",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newAddCommand())
	rootCmd.AddCommand(newFeedsCommand())
	rootCmd.AddCommand(newFetchCommand())
	rootCmd.AddCommand(newAnalyzeCommand())
	rootCmd.AddCommand(newReportCommand())
	rootCmd.AddCommand(newDailyCommand())
	rootCmd.AddCommand(newStatsCommand())

	return rootCmd
}

// withApp loads configuration, builds the application, and tears it down
// after the command body returns.
func withApp(run func(ctx context.Context, application *app.Application, args []string) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := logging.New(cfg.Logging.Level)

		application, err := app.New(cfg, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		return run(cmd.Context(), application, args)
	}
}
