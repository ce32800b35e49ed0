// Package memory defines the agent's long-lived state: curated
// question/SQL training records used as few-shot examples, a cache of
// dataset schemas, and the per-request query history.
package memory

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("memory: not found")

// Run outcomes recorded in query history.
const (
	OutcomeDone   = "done"
	OutcomeFailed = "failed"
)

// TrainingRecord is a validated question/SQL pair. Records are only written
// for runs that completed successfully, so they are safe to replay as
// few-shot examples.
type TrainingRecord struct {
	ID        int64
	DatasetID string
	Question  string
	SQL       string
	CreatedAt time.Time
}

type QueryHistoryEntry struct {
	ID        int64
	DatasetID string
	Question  string
	SQL       string
	Outcome   string
	Attempts  int
	Answer    string
	CreatedAt time.Time
}

type AppendTrainingRecordInput struct {
	DatasetID string
	Question  string
	SQL       string
}

type AppendQueryHistoryInput struct {
	DatasetID string
	Question  string
	SQL       string
	Outcome   string
	Attempts  int
	Answer    string
}

// Store is the persistence contract. List methods return newest-first and
// never error on empty results.
type Store interface {
	HealthCheck(ctx context.Context) error

	AppendTrainingRecord(ctx context.Context, in AppendTrainingRecordInput) (TrainingRecord, error)
	ListTrainingRecords(ctx context.Context, datasetID string, limit int) ([]TrainingRecord, error)
	GetTrainingRecord(ctx context.Context, id int64) (TrainingRecord, error)
	DeleteTrainingRecord(ctx context.Context, id int64) (bool, error)

	GetSchemaCache(ctx context.Context, datasetID string) (payload []byte, storedAt time.Time, err error)
	PutSchemaCache(ctx context.Context, datasetID string, payload []byte) error

	AppendQueryHistory(ctx context.Context, in AppendQueryHistoryInput) (QueryHistoryEntry, error)
	ListQueryHistory(ctx context.Context, datasetID string, limit int) ([]QueryHistoryEntry, error)
	PruneQueryHistory(ctx context.Context, datasetID string, keep int) (int64, error)
}
