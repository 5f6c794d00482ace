package domain

import "time"

// Row is one flattened storage record: one food item for one user on one
// date, or a placeholder marking a date that was checked and had no entries.
type Row struct {
	Username string
	Date     time.Time
	Item     string
	Values   map[Nutrient]float64
}

// Placeholder reports whether the row carries only its key columns, the
// convention for a "checked, nothing logged" date.
func (r Row) Placeholder() bool {
	return r.Item == "" && len(r.Values) == 0
}

// ZeroRow builds the synthetic substitute returned by the query path when a
// range holds only placeholder days: every catalog nutrient explicitly zero,
// so consumers always see the full column set.
func ZeroRow(username string, date time.Time) Row {
	values := make(map[Nutrient]float64, len(Catalog))
	for _, n := range Catalog {
		values[n] = 0
	}
	return Row{Username: username, Date: Day(date), Values: values}
}

// RowsForDay flattens a diary day into storage rows. An empty day yields a
// single placeholder row.
func RowsForDay(username string, day DiaryDay) []Row {
	if day.Empty() {
		return []Row{{Username: username, Date: Day(day.Date)}}
	}
	rows := make([]Row, 0, len(day.Items))
	for _, item := range day.Items {
		rows = append(rows, Row{
			Username: username,
			Date:     Day(day.Date),
			Item:     item.Item,
			Values:   item.Values,
		})
	}
	return rows
}
