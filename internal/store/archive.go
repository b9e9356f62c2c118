// Package store persists completed orders to a local SQLite database.
//
// The archive is append-mostly: each completed order is written once and
// read back for reporting. A single connection with WAL journaling keeps
// concurrent sessions from tripping over each other.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"drivethru/internal/order"
)

// ErrOrderNotArchived is returned by Get when no order exists for the
// session.
var ErrOrderNotArchived = errors.New("order not archived")

// schemaVersion bumps when the orders table layout changes.
const schemaVersion = 1

// Archive stores completed order records in SQLite.
type Archive struct {
	db     *sql.DB
	mu     sync.Mutex
	path   string
	logger *zap.Logger
}

// OpenArchive opens (creating if needed) the order archive at path. The
// parent directory is created if missing. Pass nil for logger to disable
// logging.
func OpenArchive(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating archive directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening archive database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	a := &Archive{db: db, path: path, logger: logger}
	if err := a.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Debug("order archive opened", zap.String("path", path))
	return a, nil
}

func (a *Archive) initialize() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS orders (
		session_id   TEXT PRIMARY KEY,
		completed_at TIMESTAMP NOT NULL,
		total_units  INTEGER NOT NULL,
		items        TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_orders_completed_at ON orders(completed_at);

	CREATE TABLE IF NOT EXISTS schema_versions (
		version    INTEGER PRIMARY KEY,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);`

	if _, err := a.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing archive schema: %w", err)
	}
	if _, err := a.db.Exec(
		"INSERT OR IGNORE INTO schema_versions (version) VALUES (?)", schemaVersion,
	); err != nil {
		return fmt.Errorf("recording schema version: %w", err)
	}
	return nil
}

// Save writes a completed order record. Saving the same session twice
// overwrites the earlier row, which only happens if a session id is
// reused.
func (a *Archive) Save(rec *order.Record) error {
	if rec == nil {
		return errors.New("nil order record")
	}

	items, err := json.Marshal(rec.Items)
	if err != nil {
		return fmt.Errorf("encoding order items: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	tx, err := a.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning archive transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT OR REPLACE INTO orders (session_id, completed_at, total_units, items)
		 VALUES (?, ?, ?, ?)`,
		rec.SessionID, rec.CompletedAt.UTC(), rec.TotalUnits(), string(items),
	); err != nil {
		return fmt.Errorf("saving order %s: %w", rec.SessionID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing order %s: %w", rec.SessionID, err)
	}

	a.logger.Info("order archived",
		zap.String("session_id", rec.SessionID),
		zap.Int("total_units", rec.TotalUnits()))
	return nil
}

// Get returns the archived order for a session.
func (a *Archive) Get(sessionID string) (*order.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	row := a.db.QueryRow(
		"SELECT session_id, completed_at, items FROM orders WHERE session_id = ?",
		sessionID,
	)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrOrderNotArchived, sessionID)
	}
	return rec, err
}

// List returns archived orders, newest first, at most limit (or all when
// limit <= 0).
func (a *Archive) List(limit int) ([]*order.Record, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	query := "SELECT session_id, completed_at, items FROM orders ORDER BY completed_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := a.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing archived orders: %w", err)
	}
	defer rows.Close()

	var records []*order.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Count returns the number of archived orders.
func (a *Archive) Count() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	var n int
	if err := a.db.QueryRow("SELECT COUNT(*) FROM orders").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting archived orders: %w", err)
	}
	return n, nil
}

// Close releases the database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*order.Record, error) {
	var (
		rec       order.Record
		completed time.Time
		itemsJSON string
	)
	if err := row.Scan(&rec.SessionID, &completed, &itemsJSON); err != nil {
		return nil, err
	}
	rec.CompletedAt = completed
	if err := json.Unmarshal([]byte(itemsJSON), &rec.Items); err != nil {
		return nil, fmt.Errorf("decoding order items for %s: %w", rec.SessionID, err)
	}
	return &rec, nil
}
