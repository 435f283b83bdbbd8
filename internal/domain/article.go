package domain

import (
	"errors"
	"time"
)

// ErrDuplicateFeed is returned when a feed URL is already registered.
var ErrDuplicateFeed = errors.New("feed already registered")

// Status tracks an article through the scoring lifecycle. Transitions are
// one-way: new -> analyzed on a successful verdict, new -> error on any
// judge failure. An article never returns to new.
type Status string

const (
	StatusNew      Status = "new"
	StatusAnalyzed Status = "analyzed"
	StatusError    Status = "error"
)

// Feed is a registered source polled during ingestion sweeps.
type Feed struct {
	ID          int64
	Name        string
	URL         string
	LastFetched time.Time
	IsActive    bool
}

// Article is a single ingested item, identified by its source link.
// Score, Analysis and Category are meaningful only when Status is analyzed;
// Score defaults to 0 otherwise and is not a real judgment.
type Article struct {
	ID        int64
	FeedID    int64
	Title     string
	Link      string
	Published time.Time
	Summary   string
	Content   string
	Status    Status
	Score     int
	Analysis  string
	Category  string
	CreatedAt time.Time
}

// RankedArticle joins an analyzed article with its feed name for reports.
type RankedArticle struct {
	Article
	FeedName string
}

// Verdict is the structured judgment returned by the scoring service.
type Verdict struct {
	Score    int    `json:"score"`
	Reason   string `json:"reason"`
	Category string `json:"category"`
}

// Entry is a normalized feed entry. Defaults are applied once at the source
// adapter: missing title becomes "No Title", missing publish time becomes the
// ingestion time, missing summary/content become empty strings. Entries
// without a link never leave the adapter.
type Entry struct {
	Title     string
	Link      string
	Summary   string
	Content   string
	Published time.Time
}

// FeedSnapshot is the result of fetching a single feed URL. Degraded marks a
// document that could not be fully parsed; whatever entries survived are
// still usable.
type FeedSnapshot struct {
	Title    string
	Entries  []Entry
	Degraded bool
}

// Stats aggregates corpus counters for reporting. The score buckets cover
// analyzed scores only; zero (unscored) is excluded from LowScore.
type Stats struct {
	ActiveFeeds   int
	TotalArticles int
	Analyzed      int
	Pending       int
	Today         int
	HighScore     int // score >= 7
	MidScore      int // 4 <= score < 7
	LowScore      int // 0 < score < 4
}
