package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/ports"
	"github.com/djbiega/MFP-Dash-App/internal/sampler"
)

// Aggregator orchestrates sampler, fetcher, and extractor across a date
// range for one user. Fetches run concurrently under a bounded group; each
// date is independent and its parse completes before the result is merged.
type Aggregator struct {
	fetcher ports.DiaryFetcher
	logger  *slog.Logger
	workers int
}

var _ ports.DiaryAggregator = (*Aggregator)(nil)

// NewAggregator wires the fetcher. A non-positive workers count defaults to
// available cores minus one.
func NewAggregator(fetcher ports.DiaryFetcher, logger *slog.Logger, workers int) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if workers <= 0 {
		workers = runtime.NumCPU() - 1
		if workers < 1 {
			workers = 1
		}
	}
	return &Aggregator{fetcher: fetcher, logger: logger, workers: workers}
}

// Aggregate scrapes username over [start, end] inclusive. Long ranges are
// probed at monthly anchor days first; months with logged data on any anchor
// are then expanded to their remaining days. Every calendar date in range
// appears in the returned window, with unprobed dates materialized as empty
// diary days.
func (a *Aggregator) Aggregate(ctx context.Context, username string, start, end time.Time) (domain.UserDiaryWindow, error) {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return domain.UserDiaryWindow{}, fmt.Errorf("aggregate %s: %w", username, domain.ErrInvalidRange)
	}

	a.logger.Info("scraping diary",
		"username", username,
		"start", start.Format(domain.DateLayout),
		"end", end.Format(domain.DateLayout))

	probed, err := a.scrapeDates(ctx, username, sampler.Sample(start, end))
	if err != nil {
		return domain.UserDiaryWindow{}, err
	}

	if sampler.Sparse(start, end) {
		expansion := expandDates(probed, start, end)
		more, err := a.scrapeDates(ctx, username, expansion)
		if err != nil {
			return domain.UserDiaryWindow{}, err
		}
		for d, day := range more {
			probed[d] = day
		}
	}

	window := domain.NewWindow(username, start, end)
	for _, d := range window.Dates() {
		if day, ok := probed[d]; ok {
			window.Days[d] = day
		} else {
			window.Days[d] = domain.DiaryDay{Date: d}
		}
	}
	return window, nil
}

// scrapeDates fetches and extracts each date concurrently. Absent documents
// and transport failures resolve to empty days; only context cancellation
// stops the scrape.
func (a *Aggregator) scrapeDates(ctx context.Context, username string, dates []time.Time) (map[time.Time]domain.DiaryDay, error) {
	// Newest first, matching the site's own diary navigation.
	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].After(sorted[j]) })

	results := make(map[time.Time]domain.DiaryDay, len(sorted))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for _, date := range sorted {
		date := date
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			day := a.scrapeDay(ctx, username, date)
			mu.Lock()
			results[date] = day
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("scrape %s: %w", username, err)
	}
	return results, nil
}

func (a *Aggregator) scrapeDay(ctx context.Context, username string, date time.Time) domain.DiaryDay {
	day := domain.DiaryDay{Date: date}

	doc, err := a.fetcher.Fetch(ctx, username, date)
	if err != nil {
		a.logger.Warn("fetch failed, treating as empty day",
			"username", username,
			"date", date.Format(domain.DateLayout),
			"error", err)
		return day
	}
	if doc == nil {
		return day
	}

	day.Items = Extract(doc)
	return day
}

// expandDates lists the unprobed days of every month whose anchor probes
// found logged data, clamped to the requested range. Months where all
// anchors came back empty are assumed unused and contribute nothing.
func expandDates(probed map[time.Time]domain.DiaryDay, start, end time.Time) []time.Time {
	active := make(map[time.Time]bool)
	for d, day := range probed {
		if !day.Empty() {
			active[time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)] = true
		}
	}

	var dates []time.Time
	for month := range active {
		for _, d := range sampler.ExpandMonth(month) {
			if d.Before(start) || d.After(end) {
				continue
			}
			if _, done := probed[d]; done {
				continue
			}
			dates = append(dates, d)
		}
	}
	return dates
}
