package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"

	"github.com/datapilot/datapilot/internal/memory"
)

func TestAppendTrainingRecord(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
INSERT INTO training_record (dataset_id, question, sql_text)
VALUES ($1, $2, $3)
RETURNING record_id, created_at`)).
		WithArgs("demo", "how many orders", "SELECT count(*) FROM orders").
		WillReturnRows(sqlmock.NewRows([]string{"record_id", "created_at"}).AddRow(int64(7), now))

	record, err := repo.AppendTrainingRecord(context.Background(), memory.AppendTrainingRecordInput{
		DatasetID: "demo",
		Question:  "how many orders",
		SQL:       "SELECT count(*) FROM orders",
	})
	if err != nil {
		t.Fatalf("AppendTrainingRecord() error = %v", err)
	}
	if record.ID != 7 {
		t.Fatalf("ID = %d", record.ID)
	}
	if !record.CreatedAt.Equal(now) {
		t.Fatalf("CreatedAt = %v, want %v", record.CreatedAt, now)
	}
	assertSQLMock(t, mock)
}

func TestListTrainingRecordsNewestFirst(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"record_id", "dataset_id", "question", "sql_text", "created_at"}).
		AddRow(int64(2), "demo", "q2", "SELECT 2", now).
		AddRow(int64(1), "demo", "q1", "SELECT 1", now.Add(-time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT record_id, dataset_id, question, sql_text, created_at
FROM training_record
WHERE dataset_id = $1
ORDER BY created_at DESC, record_id DESC
LIMIT $2`)).
		WithArgs("demo", 500).
		WillReturnRows(rows)

	records, err := repo.ListTrainingRecords(context.Background(), "demo", 500)
	if err != nil {
		t.Fatalf("ListTrainingRecords() error = %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d", len(records))
	}
	if records[0].ID != 2 || records[1].ID != 1 {
		t.Fatalf("order = [%d %d]", records[0].ID, records[1].ID)
	}
	assertSQLMock(t, mock)
}

func TestGetTrainingRecordNotFound(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT record_id, dataset_id, question, sql_text, created_at
FROM training_record
WHERE record_id = $1`)).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetTrainingRecord(context.Background(), 404); err != memory.ErrNotFound {
		t.Fatalf("error = %v, want %v", err, memory.ErrNotFound)
	}
	assertSQLMock(t, mock)
}

func TestDeleteTrainingRecord(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`
DELETE FROM training_record
WHERE record_id = $1`)).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.DeleteTrainingRecord(context.Background(), 7)
	if err != nil {
		t.Fatalf("DeleteTrainingRecord() error = %v", err)
	}
	if !deleted {
		t.Fatal("expected deleted=true")
	}
	assertSQLMock(t, mock)
}

func TestSchemaCacheRoundTrip(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectExec(regexp.QuoteMeta(`
INSERT INTO schema_cache (dataset_id, payload, stored_at)
VALUES ($1, $2, NOW())
ON CONFLICT (dataset_id)
DO UPDATE SET payload = EXCLUDED.payload, stored_at = NOW()`)).
		WithArgs("demo", []byte(`{"tables":[]}`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.PutSchemaCache(context.Background(), "demo", []byte(`{"tables":[]}`)); err != nil {
		t.Fatalf("PutSchemaCache() error = %v", err)
	}

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT payload, stored_at
FROM schema_cache
WHERE dataset_id = $1`)).
		WithArgs("demo").
		WillReturnRows(sqlmock.NewRows([]string{"payload", "stored_at"}).AddRow([]byte(`{"tables":[]}`), now))

	payload, storedAt, err := repo.GetSchemaCache(context.Background(), "demo")
	if err != nil {
		t.Fatalf("GetSchemaCache() error = %v", err)
	}
	if string(payload) != `{"tables":[]}` {
		t.Fatalf("payload = %s", payload)
	}
	if !storedAt.Equal(now) {
		t.Fatalf("storedAt = %v", storedAt)
	}
	assertSQLMock(t, mock)
}

func TestGetSchemaCacheMiss(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`
SELECT payload, stored_at
FROM schema_cache
WHERE dataset_id = $1`)).
		WithArgs("cold").
		WillReturnError(sql.ErrNoRows)

	if _, _, err := repo.GetSchemaCache(context.Background(), "cold"); err != memory.ErrNotFound {
		t.Fatalf("error = %v, want %v", err, memory.ErrNotFound)
	}
	assertSQLMock(t, mock)
}

func TestAppendQueryHistory(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`
INSERT INTO query_history (dataset_id, question, sql_text, outcome, attempts, answer)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING history_id, created_at`)).
		WithArgs("demo", "how many orders", "SELECT count(*) FROM orders", memory.OutcomeDone, 1, "There are 42 orders.").
		WillReturnRows(sqlmock.NewRows([]string{"history_id", "created_at"}).AddRow(int64(11), now))

	entry, err := repo.AppendQueryHistory(context.Background(), memory.AppendQueryHistoryInput{
		DatasetID: "demo",
		Question:  "how many orders",
		SQL:       "SELECT count(*) FROM orders",
		Outcome:   memory.OutcomeDone,
		Attempts:  1,
		Answer:    "There are 42 orders.",
	})
	if err != nil {
		t.Fatalf("AppendQueryHistory() error = %v", err)
	}
	if entry.ID != 11 {
		t.Fatalf("ID = %d", entry.ID)
	}
	assertSQLMock(t, mock)
}

func TestPruneQueryHistory(t *testing.T) {
	db, mock := newSQLMock(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`
DELETE FROM query_history
WHERE dataset_id = $1
  AND history_id NOT IN (
    SELECT history_id FROM query_history
    WHERE dataset_id = $1
    ORDER BY created_at DESC, history_id DESC
    LIMIT $2
  )`)).
		WithArgs("demo", 500).
		WillReturnResult(sqlmock.NewResult(0, 3))

	pruned, err := repo.PruneQueryHistory(context.Background(), "demo", 500)
	if err != nil {
		t.Fatalf("PruneQueryHistory() error = %v", err)
	}
	if pruned != 3 {
		t.Fatalf("pruned = %d", pruned)
	}
	assertSQLMock(t, mock)
}

func newSQLMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func assertSQLMock(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet sql expectations: %v", err)
	}
}
