package app

import (
	"fmt"
	"log/slog"

	"feedsense/internal/config"
	"feedsense/internal/infrastructure/feed"
	"feedsense/internal/infrastructure/llm"
	"feedsense/internal/infrastructure/storage"
	"feedsense/internal/logging"
	"feedsense/internal/usecase"
)

// Application wires configuration into the pipeline components. The CLI
// commands reach the pipeline only through this struct.
type Application struct {
	Store    *storage.Store
	Ingestor *usecase.Ingestor
	Scorer   *usecase.Scorer
	Ranker   *usecase.Ranker
	Logger   *slog.Logger
}

// New builds a runnable application instance from explicit configuration.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	source := feed.New(nil, logger.With("component", "feed"))
	judge := llm.NewJudge(cfg.LLM)

	return &Application{
		Store: store,
		Ingestor: usecase.NewIngestor(
			source, store,
			logger.With("component", "ingestor"),
			cfg.Ingest.Workers,
			cfg.Ingest.FetchTimeout(),
		),
		Scorer: usecase.NewScorer(
			store, judge,
			logger.With("component", "scorer"),
			cfg.Scoring.RequestTimeout(),
		),
		Ranker: usecase.NewRanker(store),
		Logger: logger,
	}, nil
}

// Close releases the store.
func (a *Application) Close() error {
	if a == nil || a.Store == nil {
		return nil
	}
	return a.Store.Close()
}
