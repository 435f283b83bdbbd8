package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>X</title>
    <link>http://x</link>
    <item>
      <title>Fresh Release</title>
      <link>http://x/fresh</link>
      <pubDate>Mon, 02 Mar 2026 10:00:00 GMT</pubDate>
      <description>&lt;p&gt;A &lt;b&gt;bold&lt;/b&gt; claim.&lt;/p&gt;</description>
    </item>
    <item>
      <link>http://x/untitled</link>
      <description>plain words</description>
    </item>
    <item>
      <title>No Link Here</title>
      <description>cannot be stored</description>
    </item>
  </channel>
</rss>`

func TestFetchNormalizesEntries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(sampleRSS))
	}))
	defer server.Close()

	adapter := New(server.Client(), nil)
	before := time.Now()

	snapshot, err := adapter.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if snapshot.Degraded {
		t.Fatal("well-formed document flagged as degraded")
	}
	if snapshot.Title != "X" {
		t.Fatalf("unexpected feed title: %q", snapshot.Title)
	}
	if len(snapshot.Entries) != 2 {
		t.Fatalf("expected the link-less item dropped, got %d entries", len(snapshot.Entries))
	}

	first := snapshot.Entries[0]
	if first.Title != "Fresh Release" || first.Link != "http://x/fresh" {
		t.Fatalf("unexpected first entry: %+v", first)
	}
	if first.Summary != "A bold claim." {
		t.Fatalf("HTML summary not flattened: %q", first.Summary)
	}
	want := time.Date(2026, time.March, 2, 10, 0, 0, 0, time.UTC)
	if !first.Published.Equal(want) {
		t.Fatalf("unexpected published time: %v", first.Published)
	}

	second := snapshot.Entries[1]
	if second.Title != "No Title" {
		t.Fatalf("missing title not defaulted: %q", second.Title)
	}
	if second.Published.Before(before) {
		t.Fatalf("missing timestamp should fall back to ingestion time, got %v", second.Published)
	}
	if second.Summary != "plain words" {
		t.Fatalf("plain summary altered: %q", second.Summary)
	}
}

func TestFetchMalformedDocumentDegrades(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("this is in no way a feed document"))
	}))
	defer server.Close()

	adapter := New(server.Client(), nil)

	snapshot, err := adapter.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("malformed document must not raise, got %v", err)
	}
	if !snapshot.Degraded {
		t.Fatal("expected degraded snapshot")
	}
	if len(snapshot.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(snapshot.Entries))
	}
}

func TestFetchBadStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusInternalServerError)
	}))
	defer server.Close()

	adapter := New(server.Client(), nil)

	if _, err := adapter.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestFlattenHTML(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"no markup at all", "no markup at all"},
		{"<p>one</p>\n<p>two</p>", "one two"},
		{"<div>spaced   <em>out</em></div>", "spaced out"},
	}
	for _, tc := range cases {
		if got := flattenHTML(tc.in); got != tc.want {
			t.Fatalf("flattenHTML(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
