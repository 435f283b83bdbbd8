package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"feedsense/internal/app"
	"feedsense/internal/domain"
)

func newInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize the database",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			// Opening the store creates the schema; nothing more to do.
			fmt.Println("System initialized.")
			return nil
		}),
	}
}

func newAddCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <url>",
		Short: "Add a new feed URL",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			feed, err := application.Ingestor.Register(ctx, args[0])
			if err != nil {
				if errors.Is(err, domain.ErrDuplicateFeed) {
					return fmt.Errorf("feed %s is already registered", args[0])
				}
				return err
			}
			fmt.Printf("Added feed: %s\n", feed.Name)
			return nil
		}),
	}
}

func newFeedsCommand() *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "feeds",
		Short: "List all subscriptions",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			feeds, err := application.Store.ListFeeds(ctx, activeOnly)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(feeds))
			for _, feed := range feeds {
				lastFetched := ""
				if !feed.LastFetched.IsZero() {
					lastFetched = feed.LastFetched.Local().Format("2006-01-02 15:04")
				}
				rows = append(rows, []string{
					strconv.FormatInt(feed.ID, 10),
					feed.Name,
					feed.URL,
					strconv.FormatBool(feed.IsActive),
					lastFetched,
				})
			}

			fmt.Println(renderTable(
				[]string{"ID", "Name", "URL", "Active", "Last Fetched"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Show active feeds only")
	return cmd
}
