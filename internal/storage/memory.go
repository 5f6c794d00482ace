package storage

import (
	"context"
	"sync"
	"time"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/ports"
)

// Memory is an in-memory NutritionStore used by tests and local runs
// without a database.
type Memory struct {
	mu      sync.RWMutex
	users   map[string]bool
	rows    map[string]map[time.Time][]domain.Row
	cursors map[string]time.Time

	// FailDates makes SaveDay fail for the listed dates, for exercising
	// partial-commit behavior.
	FailDates map[time.Time]error
}

var _ ports.NutritionStore = (*Memory)(nil)

// NewMemory allocates an empty store.
func NewMemory() *Memory {
	return &Memory{
		users:   make(map[string]bool),
		rows:    make(map[string]map[time.Time][]domain.Row),
		cursors: make(map[string]time.Time),
	}
}

func (m *Memory) EnsureUser(_ context.Context, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[username] = true
	return nil
}

// HasUser reports whether the username was registered.
func (m *Memory) HasUser(username string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[username]
}

func (m *Memory) Cursor(_ context.Context, username string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.cursors[username]
	return c, ok, nil
}

func (m *Memory) SetCursor(_ context.Context, username string, date time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursors[username] = domain.Day(date)
	return nil
}

func (m *Memory) SaveDay(_ context.Context, username string, day domain.DiaryDay) error {
	date := domain.Day(day.Date)

	m.mu.Lock()
	defer m.mu.Unlock()
	if err, ok := m.FailDates[date]; ok {
		return err
	}
	if m.rows[username] == nil {
		m.rows[username] = make(map[time.Time][]domain.Row)
	}
	m.rows[username][date] = domain.RowsForDay(username, day)
	return nil
}

func (m *Memory) QueryRange(_ context.Context, username string, start, end time.Time) ([]domain.Row, error) {
	start, end = domain.Day(start), domain.Day(end)

	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []domain.Row
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		out = append(out, m.rows[username][d]...)
	}
	return out, nil
}
