package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yegors/hamsearch/pkg/logger"
)

// timestampLayout has a fixed width so that text ordering matches time ordering
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteSink stores audit entries in an append-only SQLite table
type SQLiteSink struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewSQLiteSink opens (or creates) the database at path and prepares the schema
func NewSQLiteSink(path string, log *logger.Logger) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	sink := &SQLiteSink{
		db:     db,
		logger: log.Named("audit-sqlite"),
	}

	if err := sink.initDB(); err != nil {
		db.Close()
		return nil, err
	}

	sink.logger.Debug("Audit database ready", logger.String("path", path))
	return sink, nil
}

func (s *SQLiteSink) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS audit_log (
			id TEXT PRIMARY KEY,
			user_name TEXT NOT NULL,
			command TEXT NOT NULL,
			args TEXT NOT NULL, -- JSON array
			timestamp TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create audit_log table: %w", err)
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_audit_log_user ON audit_log(user_name)`,
	}
	for _, indexSQL := range indexes {
		if _, err := s.db.Exec(indexSQL); err != nil {
			return fmt.Errorf("failed to create audit index: %w", err)
		}
	}

	return nil
}

// Write implements Sink
func (s *SQLiteSink) Write(ctx context.Context, entry Entry) error {
	args, err := encodeArgs(entry.Args)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, user_name, command, args, timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.ID,
		entry.User,
		entry.Command,
		args,
		entry.Timestamp.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// Recent returns the newest entries first
func (s *SQLiteSink) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_name, command, args, timestamp
		FROM audit_log
		ORDER BY timestamp DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent audit entries: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// ByUser returns a user's entries, newest first
func (s *SQLiteSink) ByUser(ctx context.Context, user string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_name, command, args, timestamp
		FROM audit_log
		WHERE user_name = ?
		ORDER BY timestamp DESC
		LIMIT ?`,
		user, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit entries by user: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Close implements Sink
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var entry Entry
		var args, timestamp string

		if err := rows.Scan(&entry.ID, &entry.User, &entry.Command, &args, &timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}

		ts, err := time.Parse(timestampLayout, timestamp)
		if err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		entry.Timestamp = ts
		if entry.Args, err = decodeArgs(args); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}

// encodeArgs stores arguments as a JSON array; they are verbatim user input
// and may contain spaces
func encodeArgs(args []string) (string, error) {
	if len(args) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to encode audit args: %w", err)
	}
	return string(data), nil
}

func decodeArgs(data string) ([]string, error) {
	var args []string
	if err := json.Unmarshal([]byte(data), &args); err != nil {
		return nil, fmt.Errorf("failed to decode audit args: %w", err)
	}
	if len(args) == 0 {
		return nil, nil
	}
	return args, nil
}
