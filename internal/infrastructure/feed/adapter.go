package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"feedsense/internal/domain"
	"feedsense/internal/ports"
)

const defaultTitle = "No Title"

// Adapter fetches feed documents over HTTP and normalizes their entries.
// Parse failures degrade to an empty snapshot with the Degraded flag set;
// only request-level failures (network, non-200 status) return errors, so a
// broken document never aborts a sweep.
type Adapter struct {
	client *http.Client
	logger *slog.Logger
}

var _ ports.FeedSource = (*Adapter)(nil)

// New wires an HTTP client; a nil client gets a 20s-timeout default.
func New(client *http.Client, logger *slog.Logger) *Adapter {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Adapter{client: client, logger: logger}
}

// Fetch downloads and parses the feed at url.
func (a *Adapter) Fetch(ctx context.Context, url string) (domain.FeedSnapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return domain.FeedSnapshot{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "feedsense/1.0")

	resp, err := a.client.Do(req)
	if err != nil {
		return domain.FeedSnapshot{}, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.FeedSnapshot{}, fmt.Errorf("feed returned %s", resp.Status)
	}

	parsed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		a.debug("feed document not parseable", "url", url, "error", err)
		return domain.FeedSnapshot{Degraded: true}, nil
	}

	snapshot := domain.FeedSnapshot{Title: strings.TrimSpace(parsed.Title)}
	now := time.Now()
	for _, item := range parsed.Items {
		entry, ok := normalizeItem(item, now)
		if !ok {
			continue
		}
		snapshot.Entries = append(snapshot.Entries, entry)
	}

	return snapshot, nil
}

// normalizeItem applies the entry defaults once, at this boundary. Items
// without a link cannot be deduplicated and are dropped.
func normalizeItem(item *gofeed.Item, now time.Time) (domain.Entry, bool) {
	if item == nil {
		return domain.Entry{}, false
	}

	link := strings.TrimSpace(item.Link)
	if link == "" {
		return domain.Entry{}, false
	}

	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = defaultTitle
	}

	published := now
	if item.PublishedParsed != nil {
		published = *item.PublishedParsed
	} else if item.UpdatedParsed != nil {
		published = *item.UpdatedParsed
	}

	return domain.Entry{
		Title:     title,
		Link:      link,
		Summary:   flattenHTML(item.Description),
		Content:   item.Content,
		Published: published,
	}, true
}

// flattenHTML reduces an HTML summary to readable plain text for storage and
// the judge's content preview.
func flattenHTML(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || !strings.Contains(raw, "<") {
		return raw
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(raw))
	if err != nil {
		return raw
	}

	return strings.Join(strings.Fields(doc.Text()), " ")
}

func (a *Adapter) debug(msg string, args ...any) {
	if a.logger != nil {
		a.logger.Debug(msg, args...)
	}
}
