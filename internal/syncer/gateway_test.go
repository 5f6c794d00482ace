package syncer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/storage"
)

type fakeFetcher struct {
	public bool
	err    error
	checks int
}

func (f *fakeFetcher) Fetch(context.Context, string, time.Time) (*goquery.Document, error) {
	return nil, nil
}

func (f *fakeFetcher) IsPublic(context.Context, string) (bool, error) {
	f.checks++
	return f.public, f.err
}

type aggregateCall struct {
	username   string
	start, end time.Time
}

// fakeAggregator materializes a fully gap-filled window, overlaying the
// configured non-empty days.
type fakeAggregator struct {
	calls  []aggregateCall
	logged map[time.Time][]domain.NutritionRecord
	err    error
}

func (f *fakeAggregator) Aggregate(_ context.Context, username string, start, end time.Time) (domain.UserDiaryWindow, error) {
	f.calls = append(f.calls, aggregateCall{username: username, start: domain.Day(start), end: domain.Day(end)})
	if f.err != nil {
		return domain.UserDiaryWindow{}, f.err
	}

	window := domain.NewWindow(username, start, end)
	for _, d := range window.Dates() {
		window.Days[d] = domain.DiaryDay{Date: d, Items: f.logged[d]}
	}
	return window, nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestGateway(store *storage.Memory, agg *fakeAggregator, fetcher *fakeFetcher, today time.Time) *Gateway {
	g := NewGateway(store, agg, fetcher, nil, time.Time{})
	g.now = func() time.Time { return today }
	return g
}

func TestSyncNewUserScrapesFullHistory(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	agg := &fakeAggregator{}
	today := day(2020, time.June, 10)
	g := newTestGateway(store, agg, &fakeFetcher{public: true}, today)

	require.NoError(t, g.Sync(context.Background(), "alice"))

	require.Len(t, agg.calls, 1)
	require.Equal(t, day(2016, time.January, 1), agg.calls[0].start)
	require.Equal(t, today, agg.calls[0].end)

	require.True(t, store.HasUser("alice"))

	cursor, found, err := store.Cursor(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, today, cursor)

	// Every checked-but-empty day is recorded as a placeholder so a future
	// sync never treats it as unknown.
	rows, err := store.QueryRange(context.Background(), "alice", day(2016, time.January, 1), today)
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		require.True(t, row.Placeholder())
	}
}

func TestSyncCurrentUserIsNoop(t *testing.T) {
	t.Parallel()

	today := day(2020, time.June, 10)
	for _, cursor := range []time.Time{today, today.AddDate(0, 0, -1)} {
		store := storage.NewMemory()
		require.NoError(t, store.SetCursor(context.Background(), "alice", cursor))

		agg := &fakeAggregator{}
		fetcher := &fakeFetcher{public: true}
		g := newTestGateway(store, agg, fetcher, today)

		require.NoError(t, g.Sync(context.Background(), "alice"))
		require.Empty(t, agg.calls, "cursor at %v should skip scraping", cursor)
		require.Zero(t, fetcher.checks, "cursor at %v should skip the publicness probe", cursor)
	}
}

func TestSyncResumesFromCursor(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	require.NoError(t, store.SetCursor(context.Background(), "alice", day(2020, time.June, 1)))

	agg := &fakeAggregator{}
	today := day(2020, time.June, 10)
	g := newTestGateway(store, agg, &fakeFetcher{public: true}, today)

	require.NoError(t, g.Sync(context.Background(), "alice"))

	require.Len(t, agg.calls, 1)
	require.Equal(t, day(2020, time.June, 1), agg.calls[0].start)
	require.Equal(t, today, agg.calls[0].end)
}

func TestSyncPrivateUserWritesNothing(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	agg := &fakeAggregator{}
	g := newTestGateway(store, agg, &fakeFetcher{public: false}, day(2020, time.June, 10))

	err := g.Sync(context.Background(), "bob")
	require.ErrorIs(t, err, domain.ErrNotSyncable)
	require.Empty(t, agg.calls)
	require.False(t, store.HasUser("bob"))
}

func TestSyncPersistsItemsAndPlaceholders(t *testing.T) {
	t.Parallel()

	logged := day(2020, time.June, 8)
	store := storage.NewMemory()
	require.NoError(t, store.SetCursor(context.Background(), "alice", day(2020, time.June, 7)))

	agg := &fakeAggregator{logged: map[time.Time][]domain.NutritionRecord{
		logged: {{Item: "Oatmeal", Values: map[domain.Nutrient]float64{
			domain.Calories: 300, domain.Protein: 10,
		}}},
	}}
	today := day(2020, time.June, 10)
	g := newTestGateway(store, agg, &fakeFetcher{public: true}, today)

	require.NoError(t, g.Sync(context.Background(), "alice"))

	rows, err := store.QueryRange(context.Background(), "alice", logged, logged)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Equal(t, "Oatmeal", rows[0].Item)
	require.Equal(t, 300.0, rows[0].Values[domain.Calories])

	empty, err := store.QueryRange(context.Background(), "alice", day(2020, time.June, 9), day(2020, time.June, 9))
	require.NoError(t, err)
	require.Len(t, empty, 1)
	require.True(t, empty[0].Placeholder())
}

func TestSyncPartialFailureHoldsCursor(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	require.NoError(t, store.SetCursor(context.Background(), "alice", day(2020, time.June, 1)))
	failing := day(2020, time.June, 5)
	store.FailDates = map[time.Time]error{failing: errors.New("disk full")}

	agg := &fakeAggregator{}
	today := day(2020, time.June, 10)
	g := newTestGateway(store, agg, &fakeFetcher{public: true}, today)

	// The sync itself succeeds: a bad date is logged and skipped.
	require.NoError(t, g.Sync(context.Background(), "alice"))

	// Dates after the failure still committed...
	rows, err := store.QueryRange(context.Background(), "alice", day(2020, time.June, 6), today)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	// ...but the cursor stops before the failed date so a retry re-covers it.
	cursor, found, err := store.Cursor(context.Background(), "alice")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, day(2020, time.June, 4), cursor)
}

func TestQuerySubstitutesZeroRowForPlaceholderOnlyRange(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	start, end := day(2020, time.June, 1), day(2020, time.June, 3)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		require.NoError(t, store.SaveDay(context.Background(), "alice", domain.DiaryDay{Date: d}))
	}

	g := newTestGateway(store, &fakeAggregator{}, &fakeFetcher{public: true}, end)

	rows, err := g.Query(context.Background(), "alice", start, end)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.Len(t, rows[0].Values, len(domain.Catalog))
	for _, n := range domain.Catalog {
		require.Zero(t, rows[0].Values[n])
	}
}

func TestQueryMixedRowsPassThrough(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	start := day(2020, time.June, 1)
	require.NoError(t, store.SaveDay(context.Background(), "alice", domain.DiaryDay{Date: start}))
	require.NoError(t, store.SaveDay(context.Background(), "alice", domain.DiaryDay{
		Date: start.AddDate(0, 0, 1),
		Items: []domain.NutritionRecord{
			{Item: "Banana", Values: map[domain.Nutrient]float64{domain.Calories: 105}},
		},
	}))

	g := newTestGateway(store, &fakeAggregator{}, &fakeFetcher{public: true}, start)

	rows, err := g.Query(context.Background(), "alice", start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.True(t, rows[0].Placeholder())
	require.Equal(t, "Banana", rows[1].Item)
}

func TestQueryEmptyRangeStaysEmpty(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	g := newTestGateway(store, &fakeAggregator{}, &fakeFetcher{public: true}, day(2020, time.June, 10))

	rows, err := g.Query(context.Background(), "alice", day(2020, time.June, 1), day(2020, time.June, 3))
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestQueryInvalidRange(t *testing.T) {
	t.Parallel()

	g := newTestGateway(storage.NewMemory(), &fakeAggregator{}, &fakeFetcher{public: true}, day(2020, time.June, 10))

	_, err := g.Query(context.Background(), "alice", day(2020, time.June, 2), day(2020, time.June, 1))
	require.ErrorIs(t, err, domain.ErrInvalidRange)
}
