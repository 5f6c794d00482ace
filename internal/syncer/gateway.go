// Package syncer keeps the nutrition store incrementally up to date with
// the source site, one user at a time.
package syncer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/ports"
)

// defaultHistoryStart is the earliest supported diary date: a first sync for
// a new user scrapes from here to today.
var defaultHistoryStart = time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)

// Gateway decides what subset of a user's history must be (re-)scraped and
// upserts the result into storage.
type Gateway struct {
	store        ports.NutritionStore
	aggregator   ports.DiaryAggregator
	fetcher      ports.DiaryFetcher
	logger       *slog.Logger
	historyStart time.Time
	now          func() time.Time
}

// NewGateway wires the gateway. A zero historyStart falls back to the
// earliest supported diary date.
func NewGateway(store ports.NutritionStore, aggregator ports.DiaryAggregator, fetcher ports.DiaryFetcher, logger *slog.Logger, historyStart time.Time) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if historyStart.IsZero() {
		historyStart = defaultHistoryStart
	}
	return &Gateway{
		store:        store,
		aggregator:   aggregator,
		fetcher:      fetcher,
		logger:       logger,
		historyStart: domain.Day(historyStart),
		now:          time.Now,
	}
}

// Sync brings the stored history for username up to date. A user without a
// cursor gets a full-history scrape; a cursor at today or yesterday makes
// the sync a no-op. Row-level storage failures are logged and skipped so
// that later dates still commit, and the cursor only advances across the
// contiguous prefix of successfully committed dates, letting a retried sync
// resume instead of re-scraping from scratch.
func (g *Gateway) Sync(ctx context.Context, username string) error {
	today := domain.Day(g.now())
	start := g.historyStart

	// An already-current user short-circuits before any network access,
	// including the publicness probe.
	cursor, found, err := g.store.Cursor(ctx, username)
	if err != nil {
		return fmt.Errorf("read cursor for %s: %w", username, err)
	}
	if found {
		if !cursor.Before(today.AddDate(0, 0, -1)) {
			g.logger.Info("user already current, skipping",
				"username", username,
				"cursor", cursor.Format(domain.DateLayout))
			return nil
		}
		start = cursor
	}

	public, err := g.fetcher.IsPublic(ctx, username)
	if err != nil {
		return fmt.Errorf("check diary access for %s: %w", username, err)
	}
	if !public {
		return fmt.Errorf("sync %s: %w", username, domain.ErrNotSyncable)
	}

	window, err := g.aggregator.Aggregate(ctx, username, start, today)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", username, err)
	}

	if err := g.store.EnsureUser(ctx, username); err != nil {
		return fmt.Errorf("register %s: %w", username, err)
	}

	committed, failed := 0, 0
	advance := true
	for _, date := range window.Dates() {
		if err := g.store.SaveDay(ctx, username, window.Days[date]); err != nil {
			g.logger.Warn("failed to persist day, skipping",
				"username", username,
				"date", date.Format(domain.DateLayout),
				"error", err)
			failed++
			advance = false
			continue
		}
		committed++
		if advance {
			if err := g.store.SetCursor(ctx, username, date); err != nil {
				g.logger.Warn("failed to advance cursor",
					"username", username,
					"date", date.Format(domain.DateLayout),
					"error", err)
				advance = false
			}
		}
	}

	g.logger.Info("sync finished",
		"username", username,
		"start", window.Start.Format(domain.DateLayout),
		"end", window.End.Format(domain.DateLayout),
		"committed_days", committed,
		"failed_days", failed)
	return nil
}

// Query returns all stored rows for the user in the inclusive range. When
// the range holds rows but every one is a placeholder, a single synthetic
// zero-valued row is substituted so consumers always observe the full
// nutrient column set.
func (g *Gateway) Query(ctx context.Context, username string, start, end time.Time) ([]domain.Row, error) {
	if domain.Day(end).Before(domain.Day(start)) {
		return nil, fmt.Errorf("query %s: %w", username, domain.ErrInvalidRange)
	}

	rows, err := g.store.QueryRange(ctx, username, start, end)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", username, err)
	}
	if len(rows) == 0 {
		return rows, nil
	}

	for _, row := range rows {
		if !row.Placeholder() {
			return rows, nil
		}
	}
	return []domain.Row{domain.ZeroRow(username, start)}, nil
}
