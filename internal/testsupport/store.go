package testsupport

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"feedsense/internal/domain"
	"feedsense/internal/infrastructure/storage"
)

// MustOpenStore opens a sqlite store in a temp dir and registers cleanup.
func MustOpenStore(t testing.TB) *storage.Store {
	t.Helper()

	store, err := storage.Open(filepath.Join(t.TempDir(), "feedsense.db"))
	if err != nil {
		t.Fatalf("storage.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustRegisterFeed registers a feed for tests using the provided store.
func MustRegisterFeed(t testing.TB, store *storage.Store, name, url string) domain.Feed {
	t.Helper()

	feed, err := store.RegisterFeed(context.Background(), name, url)
	if err != nil {
		t.Fatalf("store.RegisterFeed: %v", err)
	}
	return feed
}

// MustInsertArticle inserts a single new article and returns it re-read from
// the pending set.
func MustInsertArticle(t testing.TB, store *storage.Store, feedID int64, title, link string, published time.Time) domain.Article {
	t.Helper()

	ctx := context.Background()
	_, err := store.InsertArticles(ctx, []domain.Article{{
		FeedID:    feedID,
		Title:     title,
		Link:      link,
		Published: published,
		Status:    domain.StatusNew,
	}})
	if err != nil {
		t.Fatalf("store.InsertArticles: %v", err)
	}

	pending, err := store.FetchPending(ctx, 1000)
	if err != nil {
		t.Fatalf("store.FetchPending: %v", err)
	}
	for _, article := range pending {
		if article.Link == link {
			return article
		}
	}
	t.Fatalf("inserted article %s not found in pending set", link)
	return domain.Article{}
}
