package domain

import (
	"errors"
	"time"
)

// ErrInvalidRange is returned when a requested date range ends before it
// starts. It is raised before any network access.
var ErrInvalidRange = errors.New("date_end must not be before date_start")

// ErrNotSyncable marks a user whose diary is private or nonexistent.
var ErrNotSyncable = errors.New("user diary is not publicly viewable")

// DateLayout is the wire format used by the diary URL and by storage keys.
const DateLayout = "2006-01-02"

// Day truncates t to a calendar date at UTC midnight. All diary dates are
// normalized through this before use as map keys.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DiaryDay is the nutrition state of one user on one date. An empty Items
// slice is a valid state: the user logged nothing that day. It is distinct
// from a date that was never fetched, which has no DiaryDay at all.
type DiaryDay struct {
	Date  time.Time
	Items []NutritionRecord
}

// Empty reports whether no entries were logged on this day.
func (d DiaryDay) Empty() bool {
	return len(d.Items) == 0
}

// Total sums a nutrient across all items for the day. Items without a value
// for the nutrient contribute nothing to the sum.
func (d DiaryDay) Total(n Nutrient) float64 {
	var sum float64
	for _, item := range d.Items {
		if v, ok := item.Values[n]; ok {
			sum += v
		}
	}
	return sum
}

// UserDiaryWindow is the full result of scraping one user over a date range.
// Days covers every calendar date in [Start, End] inclusive with no gaps.
type UserDiaryWindow struct {
	Username string
	Start    time.Time
	End      time.Time
	Days     map[time.Time]DiaryDay
}

// NewWindow allocates a window for the normalized range.
func NewWindow(username string, start, end time.Time) UserDiaryWindow {
	return UserDiaryWindow{
		Username: username,
		Start:    Day(start),
		End:      Day(end),
		Days:     make(map[time.Time]DiaryDay),
	}
}

// Dates returns every calendar date in the window range in ascending order.
func (w UserDiaryWindow) Dates() []time.Time {
	var out []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}
