package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/djbiega/MFP-Dash-App/internal/domain"
	"github.com/djbiega/MFP-Dash-App/internal/ports"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres persists flattened diary rows and sync cursors.
type Postgres struct {
	db *sql.DB
}

var _ ports.NutritionStore = (*Postgres)(nil)

// Open connects to Postgres, pings, and creates missing tables.
func Open(dsn string) (*Postgres, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Postgres{db: db}
	if err := p.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgres wraps an existing connection without running migrations.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Close closes the underlying connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

func (p *Postgres) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			username TEXT PRIMARY KEY
		)`,
		`CREATE TABLE IF NOT EXISTS nutrition (
			id BIGSERIAL PRIMARY KEY,
			username TEXT NOT NULL,
			entry_date DATE NOT NULL,
			item TEXT,
			calories DOUBLE PRECISION,
			protein DOUBLE PRECISION,
			carbohydrates DOUBLE PRECISION,
			fat DOUBLE PRECISION,
			fiber DOUBLE PRECISION,
			sugar DOUBLE PRECISION,
			saturated_fat DOUBLE PRECISION,
			polyunsaturated_fat DOUBLE PRECISION,
			monounsaturated_fat DOUBLE PRECISION,
			trans_fat DOUBLE PRECISION,
			cholesterol DOUBLE PRECISION,
			sodium DOUBLE PRECISION,
			potassium DOUBLE PRECISION,
			vitamin_a DOUBLE PRECISION,
			vitamin_c DOUBLE PRECISION,
			calcium DOUBLE PRECISION,
			iron DOUBLE PRECISION
		)`,
		`CREATE INDEX IF NOT EXISTS idx_nutrition_user_date ON nutrition (username, entry_date)`,
		`CREATE TABLE IF NOT EXISTS sync_cursors (
			username TEXT PRIMARY KEY,
			last_date DATE NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := p.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// EnsureUser registers the username, ignoring duplicates.
func (p *Postgres) EnsureUser(ctx context.Context, username string) error {
	query, args, err := psql.Insert("users").
		Columns("username").
		Values(username).
		Suffix("ON CONFLICT (username) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build ensure user: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("ensure user %s: %w", username, err)
	}
	return nil
}

// Cursor returns the last committed date for the user.
func (p *Postgres) Cursor(ctx context.Context, username string) (time.Time, bool, error) {
	query, args, err := psql.Select("last_date").
		From("sync_cursors").
		Where(sq.Eq{"username": username}).
		ToSql()
	if err != nil {
		return time.Time{}, false, fmt.Errorf("build cursor query: %w", err)
	}

	var last time.Time
	err = p.db.QueryRowContext(ctx, query, args...).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("read cursor %s: %w", username, err)
	}
	return domain.Day(last), true, nil
}

// SetCursor records the last committed date for the user.
func (p *Postgres) SetCursor(ctx context.Context, username string, date time.Time) error {
	query, args, err := psql.Insert("sync_cursors").
		Columns("username", "last_date").
		Values(username, domain.Day(date)).
		Suffix("ON CONFLICT (username) DO UPDATE SET last_date = EXCLUDED.last_date").
		ToSql()
	if err != nil {
		return fmt.Errorf("build set cursor: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set cursor %s: %w", username, err)
	}
	return nil
}

// SaveDay replaces the stored rows for (username, date) inside one
// transaction: one row per logged item, or a single placeholder row when the
// day has no entries, so a re-sync never sees the date as unknown.
func (p *Postgres) SaveDay(ctx context.Context, username string, day domain.DiaryDay) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save day: %w", err)
	}
	defer tx.Rollback()

	date := domain.Day(day.Date)

	query, args, err := psql.Delete("nutrition").
		Where(sq.Eq{"username": username, "entry_date": date}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete day: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear day %s@%s: %w", username, date.Format(domain.DateLayout), err)
	}

	for _, row := range domain.RowsForDay(username, day) {
		if err := insertRow(ctx, tx, row); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit day %s@%s: %w", username, date.Format(domain.DateLayout), err)
	}
	return nil
}

func insertRow(ctx context.Context, tx *sql.Tx, row domain.Row) error {
	columns := []string{"username", "entry_date", "item"}
	values := []interface{}{row.Username, row.Date, nullableItem(row.Item)}
	for _, n := range domain.Catalog {
		columns = append(columns, string(n))
		values = append(values, nullableValue(row.Values, n))
	}

	query, args, err := psql.Insert("nutrition").Columns(columns...).Values(values...).ToSql()
	if err != nil {
		return fmt.Errorf("build insert row: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert row %s@%s: %w", row.Username, row.Date.Format(domain.DateLayout), err)
	}
	return nil
}

func nullableItem(item string) sql.NullString {
	return sql.NullString{String: item, Valid: item != ""}
}

func nullableValue(values map[domain.Nutrient]float64, n domain.Nutrient) sql.NullFloat64 {
	v, ok := values[n]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

// QueryRange returns all stored rows for the user within the inclusive
// range, placeholder rows included, ordered by date then insertion order.
func (p *Postgres) QueryRange(ctx context.Context, username string, start, end time.Time) ([]domain.Row, error) {
	columns := []string{"username", "entry_date", "item"}
	for _, n := range domain.Catalog {
		columns = append(columns, string(n))
	}

	query, args, err := psql.Select(columns...).
		From("nutrition").
		Where(sq.Eq{"username": username}).
		Where(sq.GtOrEq{"entry_date": domain.Day(start)}).
		Where(sq.LtOrEq{"entry_date": domain.Day(end)}).
		OrderBy("entry_date", "id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build range query: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query range %s: %w", username, err)
	}
	defer rows.Close()

	var out []domain.Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate range %s: %w", username, err)
	}
	return out, nil
}

func scanRow(rows *sql.Rows) (domain.Row, error) {
	var (
		row      domain.Row
		item     sql.NullString
		nutrient = make([]sql.NullFloat64, len(domain.Catalog))
	)

	dest := []interface{}{&row.Username, &row.Date, &item}
	for i := range nutrient {
		dest = append(dest, &nutrient[i])
	}
	if err := rows.Scan(dest...); err != nil {
		return domain.Row{}, fmt.Errorf("scan row: %w", err)
	}

	row.Date = domain.Day(row.Date)
	row.Item = item.String
	row.Values = make(map[domain.Nutrient]float64)
	for i, n := range domain.Catalog {
		if nutrient[i].Valid {
			row.Values[n] = nutrient[i].Float64
		}
	}
	if len(row.Values) == 0 {
		row.Values = nil
	}
	return row, nil
}
