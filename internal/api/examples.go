package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/datapilot/datapilot/internal/auth"
	"github.com/datapilot/datapilot/internal/memory"
)

const defaultExampleLimit = 100

type exampleEntry struct {
	ID        int64     `json:"id"`
	DatasetID string    `json:"dataset_id"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	CreatedAt time.Time `json:"created_at"`
}

func handleListExamples(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Memory == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "MEMORY_NOT_CONFIGURED", "memory store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsk); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	datasetID := strings.TrimSpace(r.URL.Query().Get("dataset_id"))
	if datasetID == "" {
		datasetID = deps.DefaultDatasetID
	}
	limit, err := parseLimit(r, defaultExampleLimit)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", err.Error(), false, nil)
		return
	}

	records, err := deps.Memory.ListTrainingRecords(r.Context(), datasetID, limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "MEMORY_ERROR", "failed to list training examples", true, map[string]any{"details": err.Error()})
		return
	}

	payload := make([]exampleEntry, 0, len(records))
	for _, record := range records {
		payload = append(payload, toExampleEntry(record))
	}
	writeJSON(w, http.StatusOK, map[string]any{"examples": payload})
}

func handleGetExample(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Memory == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "MEMORY_NOT_CONFIGURED", "memory store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsk); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	id, err := exampleIDFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ID", err.Error(), false, nil)
		return
	}

	record, err := deps.Memory.GetTrainingRecord(r.Context(), id)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "EXAMPLE_NOT_FOUND", "training example was not found", false, map[string]any{"id": id})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "MEMORY_ERROR", "failed to load training example", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toExampleEntry(record))
}

// handleDeleteExample removes a curated example, for when a stored pair
// turns out to be wrong and keeps steering generation off course.
func handleDeleteExample(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Memory == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "MEMORY_NOT_CONFIGURED", "memory store is not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAdmin); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}
	id, err := exampleIDFromRequest(r)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_ID", err.Error(), false, nil)
		return
	}

	deleted, err := deps.Memory.DeleteTrainingRecord(r.Context(), id)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "MEMORY_ERROR", "failed to delete training example", true, map[string]any{"details": err.Error()})
		return
	}
	if !deleted {
		writeError(r.Context(), w, http.StatusNotFound, "EXAMPLE_NOT_FOUND", "training example was not found", false, map[string]any{"id": id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func exampleIDFromRequest(r *http.Request) (int64, error) {
	raw := strings.TrimSpace(r.PathValue("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid example id %q", raw)
	}
	return id, nil
}

func toExampleEntry(record memory.TrainingRecord) exampleEntry {
	return exampleEntry{
		ID:        record.ID,
		DatasetID: record.DatasetID,
		Question:  record.Question,
		SQL:       record.SQL,
		CreatedAt: record.CreatedAt,
	}
}
