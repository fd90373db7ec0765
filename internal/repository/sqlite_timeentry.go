package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/alexanderramin/timesflying/internal/db"
	"github.com/alexanderramin/timesflying/internal/domain"
)

const timeEntryColumns = `id, start_time, end_time, description, project_id, is_pinned`

// SQLiteTimeEntryRepo implements TimeEntryRepo using a SQLite database.
type SQLiteTimeEntryRepo struct {
	db db.DBTX
}

// NewSQLiteTimeEntryRepo creates a new SQLiteTimeEntryRepo. Pass a *sql.Tx
// to scope it to a transaction.
func NewSQLiteTimeEntryRepo(db db.DBTX) *SQLiteTimeEntryRepo {
	return &SQLiteTimeEntryRepo{db: db}
}

func (r *SQLiteTimeEntryRepo) Add(ctx context.Context, e *domain.TimeEntry) error {
	query := `INSERT INTO time_entries (id, start_time, end_time, description, project_id, is_pinned, seq)
		VALUES (?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM time_entries))`
	_, err := r.db.ExecContext(ctx, query,
		e.ID,
		formatTime(e.StartTime),
		nullableTimeToString(e.EndTime),
		e.Description,
		e.ProjectID,
		boolToInt(e.IsPinned),
	)
	if err != nil {
		return fmt.Errorf("inserting time entry: %w", err)
	}
	return nil
}

func (r *SQLiteTimeEntryRepo) Get(ctx context.Context, id string) (*domain.TimeEntry, error) {
	query := `SELECT ` + timeEntryColumns + ` FROM time_entries WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return r.scanEntry(row)
}

// Patch reads the entry, applies p and writes the changed columns back.
// Run it inside a UnitOfWork for an atomic read-modify-write.
func (r *SQLiteTimeEntryRepo) Patch(ctx context.Context, id string, p domain.EntryPatch) (*domain.TimeEntry, error) {
	e, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.IsEmpty() {
		return e, nil
	}
	p.Apply(e)

	query := `UPDATE time_entries SET end_time = ?, description = ?, project_id = ?, is_pinned = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		nullableTimeToString(e.EndTime),
		e.Description,
		e.ProjectID,
		boolToInt(e.IsPinned),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating time entry: %w", err)
	}
	if err := requireAffected(res, "time entry"); err != nil {
		return nil, err
	}
	return e, nil
}

func (r *SQLiteTimeEntryRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting time entry: %w", err)
	}
	return requireAffected(res, "time entry")
}

func (r *SQLiteTimeEntryRepo) Query(ctx context.Context, q Query) ([]*domain.TimeEntry, error) {
	stmt, params, err := q.compile(timeEntryColumns)
	if err != nil {
		return nil, fmt.Errorf("compiling time entry query: %w", err)
	}
	rows, err := r.db.QueryContext(ctx, stmt, params...)
	if err != nil {
		return nil, fmt.Errorf("querying time entries: %w", err)
	}
	defer rows.Close()

	entries, err := r.scanEntries(rows)
	if err != nil {
		return nil, err
	}
	return q.applyWindow(entries), nil
}

// First returns the first entry of q, or nil when q matches nothing.
func (r *SQLiteTimeEntryRepo) First(ctx context.Context, q Query) (*domain.TimeEntry, error) {
	entries, err := r.Query(ctx, q.Limit(1))
	if err != nil || len(entries) == 0 {
		return nil, err
	}
	return entries[0], nil
}

// Last returns the last entry of q, or nil when q matches nothing.
func (r *SQLiteTimeEntryRepo) Last(ctx context.Context, q Query) (*domain.TimeEntry, error) {
	return r.First(ctx, q.Reverse().Offset(0))
}

func (r *SQLiteTimeEntryRepo) Count(ctx context.Context, q Query) (int, error) {
	if q.hasMatchFilters() {
		entries, err := r.Query(ctx, q.Offset(0).Limit(0))
		if err != nil {
			return 0, err
		}
		return len(entries), nil
	}
	where, params := q.where()
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM time_entries`+where, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting time entries: %w", err)
	}
	return n, nil
}

// scanEntry scans a single entry from a *sql.Row.
func (r *SQLiteTimeEntryRepo) scanEntry(row *sql.Row) (*domain.TimeEntry, error) {
	var e domain.TimeEntry
	var startStr string
	var endStr sql.NullString
	var pinned int

	err := row.Scan(&e.ID, &startStr, &endStr, &e.Description, &e.ProjectID, &pinned)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("time entry: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("scanning time entry: %w", err)
	}
	return r.populateEntry(&e, startStr, endStr, pinned)
}

// scanEntries scans multiple entries from *sql.Rows.
func (r *SQLiteTimeEntryRepo) scanEntries(rows *sql.Rows) ([]*domain.TimeEntry, error) {
	entries := []*domain.TimeEntry{}
	for rows.Next() {
		var e domain.TimeEntry
		var startStr string
		var endStr sql.NullString
		var pinned int

		if err := rows.Scan(&e.ID, &startStr, &endStr, &e.Description, &e.ProjectID, &pinned); err != nil {
			return nil, fmt.Errorf("scanning time entry row: %w", err)
		}
		entry, err := r.populateEntry(&e, startStr, endStr, pinned)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating time entries: %w", err)
	}
	return entries, nil
}

// populateEntry fills in parsed fields on a TimeEntry after scanning raw columns.
func (r *SQLiteTimeEntryRepo) populateEntry(e *domain.TimeEntry, startStr string, endStr sql.NullString, pinned int) (*domain.TimeEntry, error) {
	var err error
	e.StartTime, err = parseTime(startStr)
	if err != nil {
		return nil, fmt.Errorf("parsing start_time: %w", err)
	}
	e.EndTime, err = parseNullableTime(endStr)
	if err != nil {
		return nil, fmt.Errorf("parsing end_time: %w", err)
	}
	e.IsPinned = intToBool(pinned)
	return e, nil
}
