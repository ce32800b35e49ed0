package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/datapilot/datapilot/internal/auth"
)

const (
	defaultHistoryLimit = 50
	maxListLimit        = 500
)

type historyEntry struct {
	ID        int64     `json:"id"`
	DatasetID string    `json:"dataset_id"`
	Question  string    `json:"question"`
	SQL       string    `json:"sql"`
	Outcome   string    `json:"outcome"`
	Attempts  int       `json:"attempts"`
	Answer    string    `json:"answer"`
	CreatedAt time.Time `json:"created_at"`
}

func handleListHistory(deps Dependencies, w http.ResponseWriter, r *http.Request) {
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
	limit, err := parseLimit(r, defaultHistoryLimit)
	if err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_LIMIT", err.Error(), false, nil)
		return
	}

	entries, err := deps.Memory.ListQueryHistory(r.Context(), datasetID, limit)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "MEMORY_ERROR", "failed to list query history", true, map[string]any{"details": err.Error()})
		return
	}

	payload := make([]historyEntry, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, historyEntry{
			ID:        entry.ID,
			DatasetID: entry.DatasetID,
			Question:  entry.Question,
			SQL:       entry.SQL,
			Outcome:   entry.Outcome,
			Attempts:  entry.Attempts,
			Answer:    entry.Answer,
			CreatedAt: entry.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": payload})
}

func parseLimit(r *http.Request, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return fallback, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit %q", raw)
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit, nil
}
