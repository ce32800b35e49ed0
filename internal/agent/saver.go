package agent

import (
	"context"
	"log/slog"

	"github.com/datapilot/datapilot/internal/memory"
	"github.com/datapilot/datapilot/internal/observability"
)

// historyKeep bounds per-dataset query history retention.
const historyKeep = 500

// Saver persists what a finished run learned. Training records are written
// only for successful runs; query history is written for both outcomes.
// Every failure is logged as a PersistenceError and swallowed: a run that
// produced an answer must deliver it even if the memory store is down.
type Saver struct {
	store  memory.Store
	logger *slog.Logger
}

func NewSaver(store memory.Store, logger *slog.Logger) *Saver {
	return &Saver{store: store, logger: logger}
}

func (s *Saver) SaveSuccess(ctx context.Context, entry memory.AppendQueryHistoryInput) {
	if _, err := s.store.AppendTrainingRecord(ctx, memory.AppendTrainingRecordInput{
		DatasetID: entry.DatasetID,
		Question:  entry.Question,
		SQL:       entry.SQL,
	}); err != nil {
		s.logError(&PersistenceError{Op: "append training record", Err: err})
	} else {
		observability.IncrementTrainingRecordSaved()
	}
	s.appendHistory(ctx, entry)
}

func (s *Saver) SaveFailure(ctx context.Context, entry memory.AppendQueryHistoryInput) {
	s.appendHistory(ctx, entry)
}

func (s *Saver) appendHistory(ctx context.Context, entry memory.AppendQueryHistoryInput) {
	if _, err := s.store.AppendQueryHistory(ctx, entry); err != nil {
		s.logError(&PersistenceError{Op: "append query history", Err: err})
		return
	}
	if _, err := s.store.PruneQueryHistory(ctx, entry.DatasetID, historyKeep); err != nil {
		s.logError(&PersistenceError{Op: "prune query history", Err: err})
	}
}

func (s *Saver) logError(err *PersistenceError) {
	s.logger.Warn("persistence failed", "op", err.Op, "error", err.Err)
}
