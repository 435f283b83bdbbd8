package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"feedsense/internal/domain"
	"feedsense/internal/ports"
)

// SweepResult summarizes one ingestion sweep across all active feeds.
type SweepResult struct {
	Inserted    int
	Skipped     int
	FailedFeeds int
}

// Ingestor fetches entries from all active feeds and persists the unseen
// ones. Feeds are processed with bounded parallelism and in isolation: one
// feed's failure is logged and counted, never propagated to its siblings.
type Ingestor struct {
	source       ports.FeedSource
	store        ports.ArticleStore
	logger       *slog.Logger
	workers      int
	fetchTimeout time.Duration
}

// NewIngestor constructs the sweep orchestrator.
func NewIngestor(source ports.FeedSource, store ports.ArticleStore, logger *slog.Logger, workers int, fetchTimeout time.Duration) *Ingestor {
	if workers <= 0 {
		workers = 1
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 20 * time.Second
	}
	return &Ingestor{
		source:       source,
		store:        store,
		logger:       logger,
		workers:      workers,
		fetchTimeout: fetchTimeout,
	}
}

// Register parses the feed once to discover its title and stores the
// subscription. Parse trouble is only a warning; the URL stands in for a
// missing title. A duplicate URL surfaces domain.ErrDuplicateFeed.
func (ing *Ingestor) Register(ctx context.Context, url string) (domain.Feed, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, ing.fetchTimeout)
	defer cancel()

	name := url
	snapshot, err := ing.source.Fetch(fetchCtx, url)
	switch {
	case err != nil:
		ing.logger.Warn("could not fetch feed for title, registering anyway", "url", url, "error", err)
	case snapshot.Degraded:
		ing.logger.Warn("trouble parsing feed, but continuing", "url", url)
	}
	if snapshot.Title != "" {
		name = snapshot.Title
	}

	feed, err := ing.store.RegisterFeed(ctx, name, url)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateFeed) {
			return domain.Feed{}, err
		}
		return domain.Feed{}, fmt.Errorf("register feed: %w", err)
	}
	return feed, nil
}

// Sweep runs one ingestion pass over every active feed and returns the
// totals. Articles from one feed land in insertion order; no order is
// guaranteed across feeds.
func (ing *Ingestor) Sweep(ctx context.Context) (SweepResult, error) {
	feeds, err := ing.store.ListFeeds(ctx, true)
	if err != nil {
		return SweepResult{}, fmt.Errorf("list active feeds: %w", err)
	}

	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		total SweepResult
	)
	sem := make(chan struct{}, ing.workers)

	for _, feed := range feeds {
		wg.Add(1)
		go func(feed domain.Feed) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			inserted, skipped, err := ing.sweepFeed(ctx, feed)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				total.FailedFeeds++
				ing.logger.Warn("feed sweep failed", "feed", feed.Name, "url", feed.URL, "error", err)
				return
			}
			total.Inserted += inserted
			total.Skipped += skipped
		}(feed)
	}
	wg.Wait()

	ing.logger.Info("sweep finished",
		"feeds", len(feeds),
		"inserted", total.Inserted,
		"skipped", total.Skipped,
		"failed_feeds", total.FailedFeeds,
	)
	return total, nil
}

func (ing *Ingestor) sweepFeed(ctx context.Context, feed domain.Feed) (inserted, skipped int, err error) {
	fetchCtx, cancel := context.WithTimeout(ctx, ing.fetchTimeout)
	defer cancel()

	snapshot, err := ing.source.Fetch(fetchCtx, feed.URL)
	if err != nil {
		return 0, 0, fmt.Errorf("fetch %s: %w", feed.URL, err)
	}
	if snapshot.Degraded {
		ing.logger.Warn("feed parsed with errors, continuing with partial entries",
			"feed", feed.Name, "entries", len(snapshot.Entries))
	}

	batch := make([]domain.Article, 0, len(snapshot.Entries))
	for _, entry := range snapshot.Entries {
		exists, err := ing.store.ArticleExists(ctx, entry.Link)
		if err != nil {
			return 0, 0, fmt.Errorf("check %s: %w", entry.Link, err)
		}
		if exists {
			skipped++
			continue
		}

		batch = append(batch, domain.Article{
			FeedID:    feed.ID,
			Title:     entry.Title,
			Link:      entry.Link,
			Published: entry.Published,
			Summary:   entry.Summary,
			Content:   entry.Content,
			Status:    domain.StatusNew,
		})
	}

	// The store's unique link constraint settles races with concurrent
	// sweeps; conflicting rows are dropped from the batch, not errors.
	inserted, err = ing.store.InsertArticles(ctx, batch)
	if err != nil {
		return 0, 0, fmt.Errorf("insert batch for %s: %w", feed.Name, err)
	}

	if err := ing.store.TouchFeed(ctx, feed.ID, time.Now()); err != nil {
		ing.logger.Warn("could not update last_fetched", "feed", feed.Name, "error", err)
	}

	ing.logger.Debug("feed swept", "feed", feed.Name, "inserted", inserted, "skipped", skipped)
	return inserted, skipped, nil
}
