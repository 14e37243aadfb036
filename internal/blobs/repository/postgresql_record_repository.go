package repository

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	blobsDomain "github.com/allisson/textdrop/internal/blobs/domain"
)

// PostgreSQLRecordRepository implements record persistence for PostgreSQL.
//
// Database schema requirements:
//   - storage_key: VARCHAR(64) PRIMARY KEY
//   - record: BYTEA
//   - updated_at: TIMESTAMP WITH TIME ZONE
type PostgreSQLRecordRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// Get retrieves the record stored under key.
func (p *PostgreSQLRecordRepository) Get(ctx context.Context, key string) ([]byte, error) {
	if err := checkKey(key); err != nil {
		return nil, err
	}

	query := `SELECT record FROM records WHERE storage_key = $1`

	var record []byte
	if err := p.db.QueryRowContext(ctx, query, key).Scan(&record); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, blobsDomain.ErrRecordNotFound
		}
		return nil, unavailable(p.logger, "select record", err)
	}
	return record, nil
}

// Put inserts or replaces the record stored under key in one statement.
func (p *PostgreSQLRecordRepository) Put(ctx context.Context, key string, record []byte) error {
	if err := checkKey(key); err != nil {
		return err
	}

	query := `INSERT INTO records (storage_key, record, updated_at)
			  VALUES ($1, $2, $3)
			  ON CONFLICT (storage_key) DO UPDATE
			  SET record = EXCLUDED.record, updated_at = EXCLUDED.updated_at`

	if _, err := p.db.ExecContext(ctx, query, key, record, time.Now().UTC()); err != nil {
		return unavailable(p.logger, "upsert record", err)
	}
	return nil
}

// Ping verifies the database connection.
func (p *PostgreSQLRecordRepository) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return unavailable(p.logger, "ping database", err)
	}
	return nil
}

// NewPostgreSQLRecordRepository creates a new PostgreSQL record repository.
func NewPostgreSQLRecordRepository(db *sql.DB, logger *slog.Logger) *PostgreSQLRecordRepository {
	return &PostgreSQLRecordRepository{db: db, logger: discardIfNil(logger)}
}
