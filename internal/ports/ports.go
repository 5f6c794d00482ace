package ports

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
)

// DiaryFetcher retrieves diary pages from the source site over a reused
// session. Fetch returns (nil, nil) when the page is unreachable: callers
// must treat an absent document as "no entries", never as a hard failure.
type DiaryFetcher interface {
	Fetch(ctx context.Context, username string, date time.Time) (*goquery.Document, error)
	IsPublic(ctx context.Context, username string) (bool, error)
}

// DiaryAggregator scrapes one user across a date range and returns a window
// with a DiaryDay for every calendar date, probed or not.
type DiaryAggregator interface {
	Aggregate(ctx context.Context, username string, start, end time.Time) (domain.UserDiaryWindow, error)
}

// NutritionStore persists flattened diary rows and the per-user sync cursor.
type NutritionStore interface {
	EnsureUser(ctx context.Context, username string) error
	// Cursor returns the last date known to be committed for the user;
	// found is false when the user has never been synced.
	Cursor(ctx context.Context, username string) (cursor time.Time, found bool, err error)
	SetCursor(ctx context.Context, username string, date time.Time) error
	// SaveDay replaces all stored rows for (username, date) with the given
	// day's items, or with a placeholder row when the day is empty.
	SaveDay(ctx context.Context, username string, day domain.DiaryDay) error
	QueryRange(ctx context.Context, username string, start, end time.Time) ([]domain.Row, error)
}
