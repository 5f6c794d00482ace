// Package sampler decides which calendar dates of a range are worth probing.
// Long ranges are thinned to three anchor days per month; a month whose
// anchors turn out non-empty is expanded to its remaining days on a second
// pass driven by the caller.
package sampler

import (
	"time"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
)

// anchorDays are the per-month probe dates used for ranges longer than a
// month. A month where all three come back empty is assumed unused; this is
// a heuristic and can miss a user who only logged on other days.
var anchorDays = [3]int{5, 15, 25}

// denseSpanDays is the largest range, in days, that is sampled exhaustively.
const denseSpanDays = 30

// Sample returns the initial set of dates to probe for [start, end]
// inclusive. Ranges of up to 30 days are enumerated in full; anything longer
// yields only the in-range anchor days of each month touched by the range.
// The result is a set: callers decide fetch order.
func Sample(start, end time.Time) []time.Time {
	start, end = domain.Day(start), domain.Day(end)
	if end.Before(start) {
		return nil
	}
	if !Sparse(start, end) {
		return Dense(start, end)
	}

	var dates []time.Time
	for m := monthOf(start); !m.After(end); m = m.AddDate(0, 1, 0) {
		for _, d := range anchorDays {
			anchor := time.Date(m.Year(), m.Month(), d, 0, 0, 0, 0, time.UTC)
			if !anchor.Before(start) && !anchor.After(end) {
				dates = append(dates, anchor)
			}
		}
	}
	return dates
}

// Sparse reports whether Sample would apply the anchor-day heuristic to the
// range rather than enumerating it.
func Sparse(start, end time.Time) bool {
	return domain.Day(end).Sub(domain.Day(start)) > denseSpanDays*24*time.Hour
}

// Dense enumerates every date in [start, end] inclusive.
func Dense(start, end time.Time) []time.Time {
	var dates []time.Time
	for d := domain.Day(start); !d.After(domain.Day(end)); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// ExpandMonth returns every day of the month containing t except the anchor
// days, which the first pass has already probed.
func ExpandMonth(t time.Time) []time.Time {
	first := monthOf(t)
	next := first.AddDate(0, 1, 0)

	var dates []time.Time
	for d := first; d.Before(next); d = d.AddDate(0, 0, 1) {
		if !isAnchor(d.Day()) {
			dates = append(dates, d)
		}
	}
	return dates
}

// IsAnchor reports whether t falls on one of the monthly probe days.
func IsAnchor(t time.Time) bool {
	return isAnchor(t.Day())
}

func isAnchor(day int) bool {
	for _, a := range anchorDays {
		if day == a {
			return true
		}
	}
	return false
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
