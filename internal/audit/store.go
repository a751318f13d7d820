package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/knowstore/internal/db"
)

// Store provides append and query operations for the audit log.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a new audit record. If rec.ID is empty a UUID is generated.
func (s *Store) Log(ctx context.Context, rec Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}

	changed, err := json.Marshal(rec.ChangedFields)
	if err != nil {
		return fmt.Errorf("marshalling changed fields: %w", err)
	}
	if rec.ChangedFields == nil {
		changed = []byte("[]")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO audit_log (id, action, entry_id, tool, detail, changed_fields)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID,
		string(rec.Action),
		rec.EntryID,
		rec.Tool,
		rec.Detail,
		string(changed),
	)
	if err != nil {
		return fmt.Errorf("inserting audit record: %w", err)
	}
	return nil
}

// GetByID retrieves a single audit record.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, timestamp, action, entry_id, tool, detail, changed_fields
		FROM audit_log WHERE id = ?`, id)

	return scanInto(row)
}

// QueryFilter controls which audit records are returned by Query.
type QueryFilter struct {
	EntryID string
	Action  Action
	Tool    string
	Since   *time.Time
	Until   *time.Time
	Limit   int
	Offset  int
}

// Query returns audit records matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.EntryID != "" {
		clauses = append(clauses, "entry_id = ?")
		args = append(args, filter.EntryID)
	}
	if filter.Action != "" {
		clauses = append(clauses, "action = ?")
		args = append(args, string(filter.Action))
	}
	if filter.Tool != "" {
		clauses = append(clauses, "tool = ?")
		args = append(args, filter.Tool)
	}
	if filter.Since != nil {
		clauses = append(clauses, "timestamp >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}
	if filter.Until != nil {
		clauses = append(clauses, "timestamp <= ?")
		args = append(args, filter.Until.UTC().Format(time.DateTime))
	}

	query := "SELECT id, timestamp, action, entry_id, tool, detail, changed_fields FROM audit_log"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY timestamp DESC, id"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// DeleteBefore removes all audit records older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM audit_log WHERE timestamp < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old audit records: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Record, error) {
	var (
		rec         Record
		action      string
		ts          string
		changedJSON string
	)

	err := sc.Scan(&rec.ID, &ts, &action, &rec.EntryID, &rec.Tool, &rec.Detail, &changedJSON)
	if err != nil {
		return nil, err
	}

	rec.Action = Action(action)

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		rec.Timestamp = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		rec.Timestamp = t
	}

	if err := json.Unmarshal([]byte(changedJSON), &rec.ChangedFields); err != nil {
		rec.ChangedFields = nil
	}

	return &rec, nil
}
