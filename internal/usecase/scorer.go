package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"feedsense/internal/ports"
)

// Scorer drains a bounded batch of pending articles through the judge.
// Calls are serialized to respect the judge provider's rate limits. Every
// selected article leaves the new state: analyzed on a parsed verdict, error
// on any call or parse failure. Failed articles are never retried.
type Scorer struct {
	store       ports.ArticleStore
	judge       ports.Judge
	logger      *slog.Logger
	callTimeout time.Duration
}

// NewScorer constructs the scoring engine.
func NewScorer(store ports.ArticleStore, judge ports.Judge, logger *slog.Logger, callTimeout time.Duration) *Scorer {
	if callTimeout <= 0 {
		callTimeout = 60 * time.Second
	}
	return &Scorer{store: store, judge: judge, logger: logger, callTimeout: callTimeout}
}

// ProcessPending scores up to limit pending articles and returns how many
// reached the analyzed state. A judge failure on one article marks only that
// article and processing continues; store failures abort the batch.
func (s *Scorer) ProcessPending(ctx context.Context, limit int) (int, error) {
	pending, err := s.store.FetchPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch pending: %w", err)
	}

	analyzed := 0
	for _, article := range pending {
		s.logger.Info("analyzing", "id", article.ID, "title", article.Title)

		callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
		verdict, err := s.judge.Review(callCtx, article)
		cancel()

		if err != nil {
			s.logger.Warn("judge failed, marking article as error",
				"id", article.ID, "title", article.Title, "error", err)
			if markErr := s.store.MarkError(ctx, article.ID); markErr != nil {
				return analyzed, fmt.Errorf("mark error %d: %w", article.ID, markErr)
			}
			continue
		}

		if err := s.store.MarkAnalyzed(ctx, article.ID, verdict); err != nil {
			return analyzed, fmt.Errorf("mark analyzed %d: %w", article.ID, err)
		}
		analyzed++
	}

	return analyzed, nil
}
