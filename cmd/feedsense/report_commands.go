package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"feedsense/internal/app"
	"feedsense/internal/domain"
)

func newReportCommand() *cobra.Command {
	var (
		top      int
		scoreMin int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show top rated articles",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			articles, err := application.Ranker.Top(ctx, scoreMin, top)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				fmt.Printf("No articles found with score >= %d\n", scoreMin)
				return nil
			}

			fmt.Printf("Top Articles (Min Score: %d)\n", scoreMin)
			fmt.Println(renderRankedTable(articles))
			fmt.Printf("Total: %d articles\n", len(articles))
			return nil
		}),
	}

	cmd.Flags().IntVar(&top, "top", 20, "Maximum number of articles to show")
	cmd.Flags().IntVar(&scoreMin, "score-min", 0, "Minimum score")
	return cmd
}

func newDailyCommand() *cobra.Command {
	var (
		dateFlag string
		scoreMin int
	)

	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Show articles from a specific date (YYYY-MM-DD), default today",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			date := time.Now()
			if dateFlag != "" {
				parsed, err := time.ParseInLocation("2006-01-02", dateFlag, time.Local)
				if err != nil {
					return fmt.Errorf("invalid date %q, use YYYY-MM-DD", dateFlag)
				}
				date = parsed
			}

			articles, err := application.Ranker.Daily(ctx, date, scoreMin)
			if err != nil {
				return err
			}
			if len(articles) == 0 {
				fmt.Printf("No articles found for %s with score >= %d\n", date.Format("2006-01-02"), scoreMin)
				return nil
			}

			fmt.Printf("Daily Digest: %s (Min Score: %d)\n", date.Format("2006-01-02"), scoreMin)
			fmt.Println(renderRankedTable(articles))
			fmt.Printf("Total: %d articles\n", len(articles))
			return nil
		}),
	}

	cmd.Flags().StringVar(&dateFlag, "date", "", "Date to show (YYYY-MM-DD)")
	cmd.Flags().IntVar(&scoreMin, "score-min", 5, "Minimum score")
	return cmd
}

func newStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show statistics about feeds and articles",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, application *app.Application, args []string) error {
			stats, err := application.Ranker.Stats(ctx)
			if err != nil {
				return err
			}

			fmt.Println("FeedSense Statistics")
			fmt.Println()
			fmt.Printf("Feeds: %d active\n", stats.ActiveFeeds)
			fmt.Printf("Articles: %d total\n", stats.TotalArticles)
			fmt.Printf("  Analyzed: %d\n", stats.Analyzed)
			fmt.Printf("  Pending:  %d\n", stats.Pending)
			fmt.Printf("  Today:    %d\n", stats.Today)
			fmt.Println()
			fmt.Println("Quality Distribution:")
			fmt.Printf("  High (7-10):  %d\n", stats.HighScore)
			fmt.Printf("  Medium (4-6): %d\n", stats.MidScore)
			fmt.Printf("  Low (1-3):    %d\n", stats.LowScore)
			return nil
		}),
	}
}

func renderRankedTable(articles []domain.RankedArticle) string {
	rows := make([][]string, 0, len(articles))
	for _, article := range articles {
		rows = append(rows, []string{
			strconv.Itoa(article.Score),
			article.Title,
			article.Category,
			article.FeedName,
			article.Analysis,
			article.Link,
		})
	}

	return renderTable(
		[]string{"Score", "Title", "Category", "Feed", "AI Reason", "Link"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}
