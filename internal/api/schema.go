package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/datapilot/datapilot/internal/auth"
	"github.com/datapilot/datapilot/internal/catalog"
)

func handleGetSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Catalog == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "CATALOG_NOT_CONFIGURED", "catalog source is not configured", false, nil)
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
	if datasetID == "" {
		writeError(r.Context(), w, http.StatusBadRequest, "DATASET_REQUIRED", "dataset_id is required", false, nil)
		return
	}

	dataset, err := deps.Catalog.Dataset(r.Context(), datasetID)
	if err != nil {
		if errors.Is(err, catalog.ErrDatasetNotFound) {
			writeError(r.Context(), w, http.StatusNotFound, "DATASET_NOT_FOUND", "dataset was not found", false, map[string]any{"dataset_id": datasetID})
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "CATALOG_ERROR", "failed to load dataset schema", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, dataset)
}
