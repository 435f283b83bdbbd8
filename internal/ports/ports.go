package ports

import (
	"context"
	"time"

	"feedsense/internal/domain"
)

// FeedSource fetches and normalizes entries from a single feed URL.
// A malformed document degrades to a partial snapshot, it never errors;
// errors are reserved for request-level failures (network, bad status).
type FeedSource interface {
	Fetch(ctx context.Context, url string) (domain.FeedSnapshot, error)
}

// ArticleStore persists feeds and articles and enforces link uniqueness.
type ArticleStore interface {
	RegisterFeed(ctx context.Context, name, url string) (domain.Feed, error)
	ListFeeds(ctx context.Context, activeOnly bool) ([]domain.Feed, error)
	TouchFeed(ctx context.Context, id int64, fetched time.Time) error

	ArticleExists(ctx context.Context, link string) (bool, error)
	InsertArticles(ctx context.Context, articles []domain.Article) (int, error)
	FetchPending(ctx context.Context, limit int) ([]domain.Article, error)
	MarkAnalyzed(ctx context.Context, id int64, verdict domain.Verdict) error
	MarkError(ctx context.Context, id int64) error

	QueryTop(ctx context.Context, scoreMin, limit int) ([]domain.RankedArticle, error)
	QueryDateRange(ctx context.Context, scoreMin int, start, end time.Time) ([]domain.RankedArticle, error)
	Stats(ctx context.Context) (domain.Stats, error)
}

// Judge sends an article to the external scoring service and returns its
// structured verdict. Call failures and unparseable responses are both
// surfaced as errors; the caller does not distinguish them.
type Judge interface {
	Review(ctx context.Context, article domain.Article) (domain.Verdict, error)
}
