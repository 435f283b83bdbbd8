package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"feedsense/internal/app"
)

func newFetchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "fetch",
		Short: "Fetch latest articles from all feeds",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			result, err := application.Ingestor.Sweep(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("Finished. Total new articles: %d (skipped %d known", result.Inserted, result.Skipped)
			if result.FailedFeeds > 0 {
				fmt.Printf(", %d feeds failed", result.FailedFeeds)
			}
			fmt.Println(")")
			return nil
		}),
	}
}

func newAnalyzeCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze pending articles using AI",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			count, err := application.Scorer.ProcessPending(ctx, limit)
			if err != nil {
				return err
			}
			fmt.Printf("Finished. Analyzed %d articles.\n", count)
			return nil
		}),
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of articles to analyze")
	return cmd
}
