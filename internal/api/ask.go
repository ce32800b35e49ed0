package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/datapilot/datapilot/internal/agent"
	"github.com/datapilot/datapilot/internal/auth"
	"github.com/datapilot/datapilot/internal/catalog"
)

type askRequest struct {
	Question  string `json:"question"`
	DatasetID string `json:"dataset_id"`
}

type askResponse struct {
	Status    string   `json:"status"`
	Answer    string   `json:"answer"`
	SQL       string   `json:"sql,omitempty"`
	Attempts  int      `json:"attempts"`
	Truncated bool     `json:"truncated,omitempty"`
	Columns   []string `json:"columns,omitempty"`
	Rows      [][]any  `json:"rows,omitempty"`
}

func handleAsk(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Agent == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "ASK_NOT_CONFIGURED", "ask dependencies are not configured", false, nil)
		return
	}
	if err := requireRole(r, auth.RoleAsk); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	var request askRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&request); err != nil {
		writeError(r.Context(), w, http.StatusBadRequest, "INVALID_JSON", "invalid ask request body", false, map[string]any{"details": err.Error()})
		return
	}
	if strings.TrimSpace(request.Question) == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "QUESTION_REQUIRED", "question is required", false, nil)
		return
	}
	datasetID := strings.TrimSpace(request.DatasetID)
	if datasetID == "" {
		datasetID = deps.DefaultDatasetID
	}
	if datasetID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "DATASET_REQUIRED", "dataset_id is required", false, nil)
		return
	}

	outcome, err := deps.Agent.Ask(r.Context(), datasetID, strings.TrimSpace(request.Question))
	if err != nil {
		var budgetErr *agent.RetryBudgetExceededError
		if errors.As(err, &budgetErr) {
			// The run failed but produced a user-facing explanation; that is
			// a successful response from the API's point of view.
			writeJSON(w, http.StatusOK, askResponse{
				Status:   string(agent.StateFailed),
				Answer:   outcome.Answer,
				SQL:      outcome.SQL,
				Attempts: outcome.Attempts,
			})
			return
		}
		handleAskError(r.Context(), w, datasetID, err)
		return
	}

	writeJSON(w, http.StatusOK, askResponse{
		Status:    string(outcome.State),
		Answer:    outcome.Answer,
		SQL:       outcome.SQL,
		Attempts:  outcome.Attempts,
		Truncated: outcome.Truncated,
		Columns:   outcome.Columns,
		Rows:      outcome.Rows,
	})
}

func handleAskError(ctx context.Context, w http.ResponseWriter, datasetID string, err error) {
	var schemaErr *agent.SchemaResolutionError
	if errors.As(err, &schemaErr) {
		if errors.Is(err, catalog.ErrDatasetNotFound) {
			writeError(ctx, w, http.StatusNotFound, "DATASET_NOT_FOUND", "dataset was not found", false, map[string]any{"dataset_id": datasetID})
			return
		}
		writeError(ctx, w, http.StatusInternalServerError, "SCHEMA_RESOLUTION_FAILED", "failed to resolve dataset schema", true, map[string]any{"details": err.Error()})
		return
	}
	var genErr *agent.GenerationError
	if errors.As(err, &genErr) {
		writeError(ctx, w, http.StatusBadGateway, "GENERATION_FAILED", "the SQL oracle is unavailable", true, map[string]any{"details": err.Error()})
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		writeError(ctx, w, http.StatusGatewayTimeout, "REQUEST_CANCELLED", "the request was cancelled before completing", true, nil)
		return
	}
	writeError(ctx, w, http.StatusInternalServerError, "ASK_FAILED", "ask run failed", true, map[string]any{"details": err.Error()})
}
