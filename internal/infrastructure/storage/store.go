package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"feedsense/internal/domain"
	"feedsense/internal/ports"
)

//go:embed schema.sql
var schemaSQL string

// Store persists feeds and articles in SQLite. The UNIQUE constraint on
// articles.link is the authoritative dedup guard; concurrent sweeps may race
// past the existence check and rely on it.
type Store struct {
	db   *sql.DB
	path string
}

var _ ports.ArticleStore = (*Store)(nil)

// Open initializes or connects to the database and ensures the schema.
// Pragmas ride on the DSN so that every pooled connection gets them, not
// just the one that happened to serve the setup statements.
func Open(path string) (*Store, error) {
	dsn := "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// RegisterFeed inserts a new feed and stamps last_fetched. A second
// registration with the same URL fails with domain.ErrDuplicateFeed and
// leaves the store unchanged.
func (s *Store) RegisterFeed(ctx context.Context, name, url string) (domain.Feed, error) {
	now := time.Now().UTC()

	query, args, err := sq.Insert("feeds").
		Columns("name", "url", "last_fetched").
		Values(name, url, fmtTime(now)).
		ToSql()
	if err != nil {
		return domain.Feed{}, fmt.Errorf("build insert feed: %w", err)
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err, "feeds.url") {
			return domain.Feed{}, fmt.Errorf("register feed %s: %w", url, domain.ErrDuplicateFeed)
		}
		return domain.Feed{}, fmt.Errorf("insert feed: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return domain.Feed{}, fmt.Errorf("last insert id: %w", err)
	}

	return domain.Feed{ID: id, Name: name, URL: url, LastFetched: now, IsActive: true}, nil
}

// ListFeeds returns feeds in insertion order.
func (s *Store) ListFeeds(ctx context.Context, activeOnly bool) ([]domain.Feed, error) {
	builder := sq.Select("id", "name", "url", "last_fetched", "is_active").
		From("feeds").
		OrderBy("id")
	if activeOnly {
		builder = builder.Where(sq.Eq{"is_active": 1})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list feeds: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer rows.Close()

	var feeds []domain.Feed
	for rows.Next() {
		var (
			feed        domain.Feed
			lastFetched sql.NullString
			name        sql.NullString
		)
		if err := rows.Scan(&feed.ID, &name, &feed.URL, &lastFetched, &feed.IsActive); err != nil {
			return nil, fmt.Errorf("scan feed: %w", err)
		}
		feed.Name = name.String
		feed.LastFetched = parseTime(lastFetched.String)
		feeds = append(feeds, feed)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return feeds, nil
}

// TouchFeed updates a feed's last_fetched stamp.
func (s *Store) TouchFeed(ctx context.Context, id int64, fetched time.Time) error {
	query, args, err := sq.Update("feeds").
		Set("last_fetched", fmtTime(fetched)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build touch feed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("touch feed %d: %w", id, err)
	}
	return nil
}

// ArticleExists reports whether an article with the given link is stored.
func (s *Store) ArticleExists(ctx context.Context, link string) (bool, error) {
	query, args, err := sq.Select("1").
		From("articles").
		Where(sq.Eq{"link": link}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists: %w", err)
	}

	var one int
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query article exists: %w", err)
	}
	return true, nil
}

// InsertArticles commits a batch of new articles in a single transaction.
// A link conflict inside the batch is treated as already present and skipped,
// not as a failure; the returned count covers rows actually inserted.
func (s *Store) InsertArticles(ctx context.Context, articles []domain.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	inserted := 0
	for _, article := range articles {
		query, args, err := sq.Insert("articles").
			Columns("feed_id", "title", "link", "published", "summary", "content", "status").
			Values(
				article.FeedID,
				article.Title,
				article.Link,
				fmtTime(article.Published),
				article.Summary,
				article.Content,
				string(domain.StatusNew),
			).
			Suffix("ON CONFLICT(link) DO NOTHING").
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("build insert article: %w", err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, fmt.Errorf("insert article %s: %w", article.Link, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("rows affected: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert tx: %w", err)
	}
	return inserted, nil
}

// FetchPending returns up to limit articles in the new state, oldest first,
// so repeated limit-based batches walk the backlog deterministically.
func (s *Store) FetchPending(ctx context.Context, limit int) ([]domain.Article, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("fetch pending: limit must be positive, got %d", limit)
	}

	query, args, err := articleColumns().
		Where(sq.Eq{"status": string(domain.StatusNew)}).
		OrderBy("id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build fetch pending: %w", err)
	}

	return s.queryArticles(ctx, query, args...)
}

// MarkAnalyzed records a successful verdict and moves the article to the
// analyzed state.
func (s *Store) MarkAnalyzed(ctx context.Context, id int64, verdict domain.Verdict) error {
	query, args, err := sq.Update("articles").
		Set("status", string(domain.StatusAnalyzed)).
		Set("score", verdict.Score).
		Set("analysis", verdict.Reason).
		Set("category", verdict.Category).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark analyzed: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark analyzed %d: %w", id, err)
	}
	return nil
}

// MarkError moves the article to the terminal error state. It is never
// re-selected for scoring.
func (s *Store) MarkError(ctx context.Context, id int64) error {
	query, args, err := sq.Update("articles").
		Set("status", string(domain.StatusError)).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark error: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("mark error %d: %w", id, err)
	}
	return nil
}

// QueryTop returns analyzed articles with score >= scoreMin, best first.
func (s *Store) QueryTop(ctx context.Context, scoreMin, limit int) ([]domain.RankedArticle, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("query top: limit must be positive, got %d", limit)
	}

	query, args, err := rankedColumns().
		Where(sq.Eq{"a.status": string(domain.StatusAnalyzed)}).
		Where(sq.GtOrEq{"a.score": scoreMin}).
		OrderBy("a.score DESC", "a.published DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query top: %w", err)
	}

	return s.queryRanked(ctx, query, args...)
}

// QueryDateRange returns analyzed articles published in [start, end).
func (s *Store) QueryDateRange(ctx context.Context, scoreMin int, start, end time.Time) ([]domain.RankedArticle, error) {
	query, args, err := rankedColumns().
		Where(sq.Eq{"a.status": string(domain.StatusAnalyzed)}).
		Where(sq.GtOrEq{"a.score": scoreMin}).
		Where(sq.GtOrEq{"a.published": fmtTime(start)}).
		Where(sq.Lt{"a.published": fmtTime(end)}).
		OrderBy("a.score DESC", "a.published DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query date range: %w", err)
	}

	return s.queryRanked(ctx, query, args...)
}

// Stats aggregates feed and article counters for reporting.
func (s *Store) Stats(ctx context.Context) (domain.Stats, error) {
	todayStart := startOfDay(time.Now())

	var stats domain.Stats
	counters := []struct {
		dest  *int
		query string
		args  []any
	}{
		{&stats.ActiveFeeds, "SELECT COUNT(*) FROM feeds WHERE is_active=1", nil},
		{&stats.TotalArticles, "SELECT COUNT(*) FROM articles", nil},
		{&stats.Analyzed, "SELECT COUNT(*) FROM articles WHERE status=?", []any{string(domain.StatusAnalyzed)}},
		{&stats.Pending, "SELECT COUNT(*) FROM articles WHERE status=?", []any{string(domain.StatusNew)}},
		{&stats.Today, "SELECT COUNT(*) FROM articles WHERE published >= ?", []any{fmtTime(todayStart)}},
		{&stats.HighScore, "SELECT COUNT(*) FROM articles WHERE score >= 7", nil},
		{&stats.MidScore, "SELECT COUNT(*) FROM articles WHERE score >= 4 AND score < 7", nil},
		{&stats.LowScore, "SELECT COUNT(*) FROM articles WHERE score < 4 AND score > 0", nil},
	}

	for _, counter := range counters {
		if err := s.db.QueryRowContext(ctx, counter.query, counter.args...).Scan(counter.dest); err != nil {
			return domain.Stats{}, fmt.Errorf("count stats: %w", err)
		}
	}

	return stats, nil
}

func articleColumns() sq.SelectBuilder {
	return sq.Select(
		"id", "feed_id", "title", "link", "published",
		"summary", "content", "status", "score", "analysis", "category", "created_at",
	).From("articles")
}

func rankedColumns() sq.SelectBuilder {
	return sq.Select(
		"a.id", "a.feed_id", "a.title", "a.link", "a.published",
		"a.summary", "a.content", "a.status", "a.score", "a.analysis", "a.category", "a.created_at",
		"f.name",
	).From("articles a").Join("feeds f ON a.feed_id = f.id")
}

func (s *Store) queryArticles(ctx context.Context, query string, args ...any) ([]domain.Article, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query articles: %w", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		article, err := scanArticle(rows.Scan)
		if err != nil {
			return nil, err
		}
		articles = append(articles, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return articles, nil
}

func (s *Store) queryRanked(ctx context.Context, query string, args ...any) ([]domain.RankedArticle, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ranked articles: %w", err)
	}
	defer rows.Close()

	var ranked []domain.RankedArticle
	for rows.Next() {
		var feedName sql.NullString
		article, err := scanArticle(func(dest ...any) error {
			return rows.Scan(append(dest, &feedName)...)
		})
		if err != nil {
			return nil, err
		}
		ranked = append(ranked, domain.RankedArticle{Article: article, FeedName: feedName.String})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return ranked, nil
}

func scanArticle(scan func(dest ...any) error) (domain.Article, error) {
	var (
		article   domain.Article
		title     sql.NullString
		published sql.NullString
		summary   sql.NullString
		content   sql.NullString
		status    string
		analysis  sql.NullString
		category  sql.NullString
		createdAt sql.NullString
	)

	err := scan(
		&article.ID, &article.FeedID, &title, &article.Link, &published,
		&summary, &content, &status, &article.Score, &analysis, &category, &createdAt,
	)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}

	article.Title = title.String
	article.Published = parseTime(published.String)
	article.Summary = summary.String
	article.Content = content.String
	article.Status = domain.Status(status)
	article.Analysis = analysis.String
	article.Category = category.String
	article.CreatedAt = parseTime(createdAt.String)

	return article, nil
}

// startOfDay returns midnight of t's calendar day in t's location. The
// "today" counter uses the local day, matching the daily digest window.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// fmtTime stores timestamps as second-resolution RFC 3339 in UTC so that
// string comparison in SQL matches chronological order.
func fmtTime(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(time.RFC3339)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	// created_at comes from sqlite's CURRENT_TIMESTAMP default.
	if t, err := time.Parse("2006-01-02 15:04:05", value); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func isUniqueViolation(err error, constraint string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed: "+constraint)
}
