package faves

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"
)

// TimeLayout is the fixed-width UTC layout used for created_at values, so
// that lexical order matches chronological order on SQLite.
const TimeLayout = "2006-01-02T15:04:05.000000Z"

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLStore is a Store backed by a single relationship table with the columns
// id, user_id, <target column> and created_at, and a unique index on
// (user_id, <target column>).
//
// Queries use ? placeholders rebound for the connection's driver, so the same
// store works on SQLite and PostgreSQL.
type SQLStore struct {
	db     *sqlx.DB
	table  string
	column string
	now    func() time.Time

	insertQ string
	selectQ string
	deleteQ string
	listQ   string
	existsQ string
}

// NewSQLStore returns a store for the given table whose target foreign key
// lives in column.
func NewSQLStore(db *sqlx.DB, table, column string) (*SQLStore, error) {
	if db == nil {
		return nil, errors.New("faves: nil database")
	}
	if !identPattern.MatchString(table) {
		return nil, fmt.Errorf("faves: invalid table name %q", table)
	}
	if !identPattern.MatchString(column) {
		return nil, fmt.Errorf("faves: invalid target column %q", column)
	}

	s := &SQLStore{db: db, table: table, column: column, now: time.Now}
	cols := fmt.Sprintf("id, user_id, %s AS target_id, created_at", column)
	s.insertQ = db.Rebind(fmt.Sprintf(
		`INSERT INTO %s (user_id, %s, created_at) VALUES (?, ?, ?)
		 ON CONFLICT (user_id, %s) DO NOTHING RETURNING id`, table, column, column))
	s.selectQ = db.Rebind(fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = ? AND %s = ?`, cols, table, column))
	s.deleteQ = db.Rebind(fmt.Sprintf(
		`DELETE FROM %s WHERE user_id = ? AND %s = ?`, table, column))
	s.listQ = db.Rebind(fmt.Sprintf(
		`SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at DESC, id DESC`, cols, table))
	s.existsQ = db.Rebind(fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE user_id = ? AND %s = ?`, table, column))
	return s, nil
}

// Table returns the relationship table name.
func (s *SQLStore) Table() string { return s.table }

// GetOrCreate inserts the pair unless it already exists and returns the
// stored record. The insert and the read happen in one transaction.
func (s *SQLStore) GetOrCreate(ctx context.Context, userID, targetID int64) (Record, bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Record{}, false, fmt.Errorf("beginning favorite transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	created := true
	var id int64
	err = tx.QueryRowxContext(ctx, s.insertQ, userID, targetID, s.now().UTC().Format(TimeLayout)).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		created = false
	} else if err != nil {
		return Record{}, false, fmt.Errorf("inserting into %s: %w", s.table, err)
	}

	var row recordRow
	if err := tx.GetContext(ctx, &row, s.selectQ, userID, targetID); err != nil {
		return Record{}, false, fmt.Errorf("reading %s row: %w", s.table, err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, false, fmt.Errorf("committing favorite: %w", err)
	}
	return row.record(), created, nil
}

// Delete removes all records for the pair.
func (s *SQLStore) Delete(ctx context.Context, userID, targetID int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, s.deleteQ, userID, targetID)
	if err != nil {
		return 0, fmt.Errorf("deleting from %s: %w", s.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected in %s: %w", s.table, err)
	}
	return n, nil
}

// ListByUser returns the user's records ordered by created_at descending.
func (s *SQLStore) ListByUser(ctx context.Context, userID int64) ([]Record, error) {
	var rows []recordRow
	if err := s.db.SelectContext(ctx, &rows, s.listQ, userID); err != nil {
		return nil, fmt.Errorf("listing %s: %w", s.table, err)
	}

	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, r.record())
	}
	return records, nil
}

// Exists reports whether a record exists for the pair.
func (s *SQLStore) Exists(ctx context.Context, userID, targetID int64) (bool, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, s.existsQ, userID, targetID); err != nil {
		return false, fmt.Errorf("checking %s: %w", s.table, err)
	}
	return n > 0, nil
}

type recordRow struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	TargetID  int64     `db:"target_id"`
	CreatedAt Timestamp `db:"created_at"`
}

func (r recordRow) record() Record {
	return Record{
		ID:        r.ID,
		UserID:    r.UserID,
		TargetID:  r.TargetID,
		CreatedAt: r.CreatedAt.Time,
	}
}

// Timestamp scans timestamp columns from drivers that return time.Time
// (PostgreSQL) as well as those that return text (SQLite).
type Timestamp struct {
	time.Time
}

var timeLayouts = []string{
	TimeLayout,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// Scan implements sql.Scanner.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	default:
		return fmt.Errorf("faves: cannot scan %T into Timestamp", src)
	}
}

func (t *Timestamp) parse(s string) error {
	for _, layout := range timeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("faves: unrecognized timestamp %q", s)
}
