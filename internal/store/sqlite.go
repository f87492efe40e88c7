package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/shaiso/Conveyor/internal/domain"
)

// SQLiteStore — durable реализация JobStore поверх SQLite.
//
// Состояние сериализуется в JSON целиком: хранилище по контракту
// key-value, отдельные колонки нужны только для выборки
// незавершённых jobs и для диагностики.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id     TEXT PRIMARY KEY,
	status     TEXT NOT NULL,
	step       TEXT NOT NULL,
	state      TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
`

// OpenSQLite открывает (или создаёт) базу по указанному пути
// и применяет схему.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// CreateIfAbsent атомарно создаёт запись через INSERT OR IGNORE.
func (s *SQLiteStore) CreateIfAbsent(ctx context.Context, state *domain.JobState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO jobs (job_id, status, step, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		state.JobID, string(state.Status), state.Step, string(body),
		state.CreatedAt.UTC(), state.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyExists
	}
	return nil
}

// Get возвращает сохранённое состояние или ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, jobID string) (*domain.JobState, error) {
	var body string
	err := s.db.QueryRowContext(ctx,
		`SELECT state FROM jobs WHERE job_id = ?`, jobID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select job: %w", err)
	}

	return unmarshalState(body)
}

// Set перезаписывает состояние job.
func (s *SQLiteStore) Set(ctx context.Context, state *domain.JobState) error {
	body, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO jobs (job_id, status, step, state, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(job_id) DO UPDATE SET
			status = excluded.status,
			step = excluded.step,
			state = excluded.state,
			updated_at = excluded.updated_at`,
		state.JobID, string(state.Status), state.Step, string(body),
		state.CreatedAt.UTC(), state.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert job: %w", err)
	}
	return nil
}

// ListUnfinished возвращает jobs в нетерминальных статусах.
func (s *SQLiteStore) ListUnfinished(ctx context.Context, limit int) ([]domain.JobState, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT state FROM jobs
		WHERE status NOT IN (?, ?)
		ORDER BY created_at ASC
		LIMIT ?`,
		string(domain.JobStatusCompleted), string(domain.JobStatusFailed), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list unfinished: %w", err)
	}
	defer rows.Close()

	var out []domain.JobState
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		state, err := unmarshalState(body)
		if err != nil {
			return nil, err
		}
		out = append(out, *state)
	}
	return out, rows.Err()
}

// Close закрывает базу.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// unmarshalState десериализует JSON-состояние.
func unmarshalState(body string) (*domain.JobState, error) {
	var state domain.JobState
	if err := json.Unmarshal([]byte(body), &state); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	return &state, nil
}
