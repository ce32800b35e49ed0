package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/datapilot/datapilot/internal/memory"
)

// Repository implements memory.Store on Postgres.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping memory db: %w", err)
	}
	return nil
}

func (r *Repository) AppendTrainingRecord(ctx context.Context, in memory.AppendTrainingRecordInput) (memory.TrainingRecord, error) {
	query := `
INSERT INTO training_record (dataset_id, question, sql_text)
VALUES ($1, $2, $3)
RETURNING record_id, created_at`

	record := memory.TrainingRecord{
		DatasetID: in.DatasetID,
		Question:  in.Question,
		SQL:       in.SQL,
	}
	if err := r.db.QueryRowContext(ctx, query, in.DatasetID, in.Question, in.SQL).Scan(&record.ID, &record.CreatedAt); err != nil {
		return memory.TrainingRecord{}, fmt.Errorf("append training record: %w", err)
	}
	return record, nil
}

func (r *Repository) ListTrainingRecords(ctx context.Context, datasetID string, limit int) ([]memory.TrainingRecord, error) {
	query := `
SELECT record_id, dataset_id, question, sql_text, created_at
FROM training_record
WHERE dataset_id = $1
ORDER BY created_at DESC, record_id DESC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list training records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := make([]memory.TrainingRecord, 0)
	for rows.Next() {
		var record memory.TrainingRecord
		if err := rows.Scan(&record.ID, &record.DatasetID, &record.Question, &record.SQL, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan training record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training record rows: %w", err)
	}
	return records, nil
}

func (r *Repository) GetTrainingRecord(ctx context.Context, id int64) (memory.TrainingRecord, error) {
	query := `
SELECT record_id, dataset_id, question, sql_text, created_at
FROM training_record
WHERE record_id = $1`

	var record memory.TrainingRecord
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&record.ID,
		&record.DatasetID,
		&record.Question,
		&record.SQL,
		&record.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return memory.TrainingRecord{}, memory.ErrNotFound
		}
		return memory.TrainingRecord{}, fmt.Errorf("get training record: %w", err)
	}
	return record, nil
}

func (r *Repository) DeleteTrainingRecord(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
DELETE FROM training_record
WHERE record_id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete training record: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete training record rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *Repository) GetSchemaCache(ctx context.Context, datasetID string) ([]byte, time.Time, error) {
	query := `
SELECT payload, stored_at
FROM schema_cache
WHERE dataset_id = $1`

	var payload []byte
	var storedAt time.Time
	if err := r.db.QueryRowContext(ctx, query, datasetID).Scan(&payload, &storedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, time.Time{}, memory.ErrNotFound
		}
		return nil, time.Time{}, fmt.Errorf("get schema cache: %w", err)
	}
	return payload, storedAt, nil
}

func (r *Repository) PutSchemaCache(ctx context.Context, datasetID string, payload []byte) error {
	query := `
INSERT INTO schema_cache (dataset_id, payload, stored_at)
VALUES ($1, $2, NOW())
ON CONFLICT (dataset_id)
DO UPDATE SET payload = EXCLUDED.payload, stored_at = NOW()`

	if _, err := r.db.ExecContext(ctx, query, datasetID, payload); err != nil {
		return fmt.Errorf("put schema cache: %w", err)
	}
	return nil
}

func (r *Repository) AppendQueryHistory(ctx context.Context, in memory.AppendQueryHistoryInput) (memory.QueryHistoryEntry, error) {
	query := `
INSERT INTO query_history (dataset_id, question, sql_text, outcome, attempts, answer)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING history_id, created_at`

	entry := memory.QueryHistoryEntry{
		DatasetID: in.DatasetID,
		Question:  in.Question,
		SQL:       in.SQL,
		Outcome:   in.Outcome,
		Attempts:  in.Attempts,
		Answer:    in.Answer,
	}
	if err := r.db.QueryRowContext(ctx, query, in.DatasetID, in.Question, in.SQL, in.Outcome, in.Attempts, in.Answer).Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return memory.QueryHistoryEntry{}, fmt.Errorf("append query history: %w", err)
	}
	return entry, nil
}

func (r *Repository) ListQueryHistory(ctx context.Context, datasetID string, limit int) ([]memory.QueryHistoryEntry, error) {
	query := `
SELECT history_id, dataset_id, question, sql_text, outcome, attempts, answer, created_at
FROM query_history
WHERE dataset_id = $1
ORDER BY created_at DESC, history_id DESC
LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, datasetID, limit)
	if err != nil {
		return nil, fmt.Errorf("list query history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]memory.QueryHistoryEntry, 0)
	for rows.Next() {
		var entry memory.QueryHistoryEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.DatasetID,
			&entry.Question,
			&entry.SQL,
			&entry.Outcome,
			&entry.Attempts,
			&entry.Answer,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan query history row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate query history rows: %w", err)
	}
	return entries, nil
}

// PruneQueryHistory deletes all but the newest keep entries for a dataset
// and returns the number removed.
func (r *Repository) PruneQueryHistory(ctx context.Context, datasetID string, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	query := `
DELETE FROM query_history
WHERE dataset_id = $1
  AND history_id NOT IN (
    SELECT history_id FROM query_history
    WHERE dataset_id = $1
    ORDER BY created_at DESC, history_id DESC
    LIMIT $2
  )`

	result, err := r.db.ExecContext(ctx, query, datasetID, keep)
	if err != nil {
		return 0, fmt.Errorf("prune query history: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("prune query history rows affected: %w", err)
	}
	return affected, nil
}
