package usecase

import (
	"context"
	"time"

	"feedsense/internal/domain"
	"feedsense/internal/ports"
)

// Ranker exposes read-only projections over the scored corpus. It never
// mutates the store and only ever surfaces analyzed articles.
type Ranker struct {
	store ports.ArticleStore
}

// NewRanker constructs the query service.
func NewRanker(store ports.ArticleStore) *Ranker {
	return &Ranker{store: store}
}

// Top returns analyzed articles with score >= scoreMin, best first.
func (r *Ranker) Top(ctx context.Context, scoreMin, limit int) ([]domain.RankedArticle, error) {
	return r.store.QueryTop(ctx, scoreMin, limit)
}

// Daily returns analyzed articles published on the given date, windowed to
// [start of day, start of next day).
func (r *Ranker) Daily(ctx context.Context, date time.Time, scoreMin int) ([]domain.RankedArticle, error) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	return r.store.QueryDateRange(ctx, scoreMin, start, end)
}

// Stats returns aggregate corpus counters.
func (r *Ranker) Stats(ctx context.Context) (domain.Stats, error) {
	return r.store.Stats(ctx)
}
