package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"feedsense/internal/domain"
	"feedsense/internal/infrastructure/feed"
	"feedsense/internal/testsupport"
)

const threeEntryRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>X</title>
    <item>
      <title>First</title>
      <link>http://x/1</link>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
      <description>first entry</description>
    </item>
    <item>
      <title>Second</title>
      <link>http://x/2</link>
      <pubDate>Mon, 02 Mar 2026 11:00:00 GMT</pubDate>
      <description>second entry</description>
    </item>
    <item>
      <title>Linkless</title>
      <description>never stored</description>
    </item>
  </channel>
</rss>`

type stubSource struct {
	snapshots map[string]domain.FeedSnapshot
	errs      map[string]error
}

func (s *stubSource) Fetch(ctx context.Context, url string) (domain.FeedSnapshot, error) {
	if err := s.errs[url]; err != nil {
		return domain.FeedSnapshot{}, err
	}
	return s.snapshots[url], nil
}

func discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func TestSweepDedupIdempotence(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(threeEntryRSS))
	}))
	defer server.Close()

	store := testsupport.MustOpenStore(t)
	source := feed.New(server.Client(), discard())
	ingestor := NewIngestor(source, store, discard(), 2, 5*time.Second)

	ctx := context.Background()
	registered, err := ingestor.Register(ctx, server.URL)
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Name != "X" {
		t.Fatalf("expected feed title X, got %q", registered.Name)
	}

	first, err := ingestor.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if first.Inserted != 2 {
		t.Fatalf("expected 2 new articles (link-less entry dropped), got %d", first.Inserted)
	}

	second, err := ingestor.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if second.Inserted != 0 {
		t.Fatalf("re-ingesting identical entries inserted %d articles", second.Inserted)
	}
	if second.Skipped != 2 {
		t.Fatalf("expected skip count 2, got %d", second.Skipped)
	}

	pending, err := store.FetchPending(ctx, 10)
	if err != nil {
		t.Fatalf("FetchPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending articles, got %d", len(pending))
	}

	// Registering the same URL again is rejected, not absorbed.
	if _, err := ingestor.Register(ctx, server.URL); !errors.Is(err, domain.ErrDuplicateFeed) {
		t.Fatalf("expected ErrDuplicateFeed, got %v", err)
	}
}

func TestSweepIsolatesFeedFailure(t *testing.T) {
	t.Parallel()

	store := testsupport.MustOpenStore(t)
	testsupport.MustRegisterFeed(t, store, "good", "http://good/feed")
	testsupport.MustRegisterFeed(t, store, "broken", "http://broken/feed")

	source := &stubSource{
		snapshots: map[string]domain.FeedSnapshot{
			"http://good/feed": {
				Title: "good",
				Entries: []domain.Entry{
					{Title: "a", Link: "http://good/a", Published: time.Now()},
				},
			},
		},
		errs: map[string]error{
			"http://broken/feed": errors.New("connection refused"),
		},
	}

	ingestor := NewIngestor(source, store, discard(), 2, 5*time.Second)
	result, err := ingestor.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if result.Inserted != 1 {
		t.Fatalf("healthy feed should still insert, got %d", result.Inserted)
	}
	if result.FailedFeeds != 1 {
		t.Fatalf("expected 1 failed feed, got %d", result.FailedFeeds)
	}

	exists, err := store.ArticleExists(context.Background(), "http://good/a")
	if err != nil || !exists {
		t.Fatalf("article from healthy feed missing: %v, %v", exists, err)
	}
}

func TestSweepFetchesEachActiveFeedOnce(t *testing.T) {
	t.Parallel()

	store := testsupport.MustOpenStore(t)
	testsupport.MustRegisterFeed(t, store, "only", "http://only/feed")

	calls := 0
	source := &countingSource{inner: &stubSource{
		snapshots: map[string]domain.FeedSnapshot{
			"http://only/feed": {Title: "only"},
		},
	}, calls: &calls}

	ingestor := NewIngestor(source, store, discard(), 1, 5*time.Second)
	if _, err := ingestor.Sweep(context.Background()); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one fetch, got %d", calls)
	}
}

func TestRegisterDegradedFeedFallsBackToURL(t *testing.T) {
	t.Parallel()

	store := testsupport.MustOpenStore(t)
	source := &stubSource{
		snapshots: map[string]domain.FeedSnapshot{
			"http://mangled/feed": {Degraded: true},
		},
	}

	ingestor := NewIngestor(source, store, discard(), 1, 5*time.Second)
	registered, err := ingestor.Register(context.Background(), "http://mangled/feed")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if registered.Name != "http://mangled/feed" {
		t.Fatalf("expected URL fallback name, got %q", registered.Name)
	}
}

type countingSource struct {
	inner *stubSource
	calls *int
}

func (c *countingSource) Fetch(ctx context.Context, url string) (domain.FeedSnapshot, error) {
	*c.calls++
	return c.inner.Fetch(ctx, url)
}
