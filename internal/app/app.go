package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/djbiega/MFP-Dash-App/internal/config"
	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/logging"
	"github.com/djbiega/MFP-Dash-App/internal/scraper"
	"github.com/djbiega/MFP-Dash-App/internal/storage"
	"github.com/djbiega/MFP-Dash-App/internal/syncer"
)

// Application wires configuration to the scraper, storage, and sync gateway.
type Application struct {
	cfg     config.Config
	logger  *slog.Logger
	store   *storage.Postgres
	fetcher *scraper.Fetcher
	gateway *syncer.Gateway
}

// New validates the configuration, connects storage, and builds the
// scraping pipeline.
func New(cfg config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	store, err := storage.Open(cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("connect storage: %w", err)
	}

	fetcher := scraper.NewFetcher(cfg.Scraper.BaseURL, cfg.Scraper.Timeout(), logger.With("component", "fetcher"))
	aggregator := scraper.NewAggregator(fetcher, logger.With("component", "aggregator"), cfg.Scraper.Concurrency)
	gateway := syncer.NewGateway(store, aggregator, fetcher, logger.With("component", "syncer"), cfg.Sync.HistoryStartDate())

	return &Application{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		fetcher: fetcher,
		gateway: gateway,
	}, nil
}

// Close releases the storage connection.
func (a *Application) Close() error {
	return a.store.Close()
}

// SyncUser performs one incremental sync for the username.
func (a *Application) SyncUser(ctx context.Context, username string) error {
	return a.gateway.Sync(ctx, username)
}

// Query returns stored rows for the username in [start, end] inclusive.
func (a *Application) Query(ctx context.Context, username string, start, end time.Time) ([]domain.Row, error) {
	return a.gateway.Query(ctx, username, start, end)
}

// CheckPublic reports whether the username's diary is scrape-eligible.
func (a *Application) CheckPublic(ctx context.Context, username string) (bool, error) {
	return a.fetcher.IsPublic(ctx, username)
}
