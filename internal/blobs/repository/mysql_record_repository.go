package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

// MySQLRecordRepository implements record persistence for MySQL.
//
// Database schema requirements:
//   - storage_key: CHAR(64) PRIMARY KEY
//   - record: LONGBLOB
//   - updated_at: DATETIME(6)
type MySQLRecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Get retrieves the record stored under key.
func (m *MySQLRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	query := `SELECT record FROM records WHERE storage_key = ?`

	var record []byte
	if err := m.db.QueryRowContext(ctx, query, key).Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blobsDomain.ErrRecordNotFound
		}
		return nil, unavailable(m.logger, "select record", err)
	}
	return record, nil
}

// Put inserts or replaces the record stored under key in one statement.
func (m *MySQLRecordRepository) Put(ctx context.Context, key string, record []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	query := `INSERT INTO records (storage_key, record, updated_at)
			  VALUES (?, ?, ?)
			  ON DUPLICATE KEY UPDATE record = VALUES(record), updated_at = VALUES(updated_at)`

	if _, err := m.db.ExecContext(ctx, query, key, record, time.Now().UTC()); err != nil {
		return unavailable(m.logger, "upsert record", err)
	}
	return nil
}

// Ping verifies the database connection.
func (m *MySQLRecordRepository) Ping(ctx context.Context) error {
	if err := m.db.PingContext(ctx); err != nil {
		return unavailable(m.logger, "ping database", err)
	}
	return nil
}

// NewMySQLRecordRepository creates a new MySQL record repository.
func NewMySQLRecordRepository(db *sql.DB, logger *slog.Logger) *MySQLRecordRepository {
	return &MySQLRecordRepository{db: db, logger: discardIfNil(logger)}
}
