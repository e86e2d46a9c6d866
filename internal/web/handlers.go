package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/JonMunkholm/ingest/internal/core"
	"github.com/go-chi/chi/v5"
)

// maxBulkBody bounds bulk-update request bodies.
const maxBulkBody = 10 << 20

// handleHealth reports liveness, storage reachability and import capacity.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:   "ok",
		Database: "ok",
		Imports:  s.service.LimiterStatus(),
	}

	status := http.StatusOK
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.Ping(ctx); err != nil {
			resp.Status = "degraded"
			resp.Database = err.Error()
			status = http.StatusServiceUnavailable
		}
	}

	writeJSON(w, status, resp)
}

// handleListDatasets returns every registered dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	all := s.service.Datasets()
	out := make([]DatasetResponse, len(all))
	for i, ds := range all {
		out[i] = toDatasetResponse(ds)
	}
	writeJSON(w, http.StatusOK, out)
}

// handleGetDataset returns one dataset's layout.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.service.Dataset(chi.URLParam(r, "key"))
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, toDatasetResponse(ds))
}

// handleImport parses, validates and loads an uploaded extract.
//
// Query parameters: dry_run, reject_partial (booleans) and
// max_per_category (positive integer).
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	opts := core.ImportOptions{
		DryRun:         parseBoolParam(r, "dry_run"),
		RejectPartial:  parseBoolParam(r, "reject_partial"),
		MaxPerCategory: parseIntParam(r, "max_per_category", 0),
	}
	s.runImport(w, r, opts)
}

// handleValidate is handleImport with dry_run forced on.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	s.runImport(w, r, core.ImportOptions{
		DryRun:         true,
		MaxPerCategory: parseIntParam(r, "max_per_category", 0),
	})
}

func (s *Server) runImport(w http.ResponseWriter, r *http.Request, opts core.ImportOptions) {
	key := chi.URLParam(r, "key")
	if _, err := s.service.Dataset(key); err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	name, data, err := readExtract(w, r, s.cfg.Ingest.MaxFileSize)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, core.NewUserError(errors.New("file too large")), http.StatusRequestEntityTooLarge)
			return
		}
		s.respondError(w, r, core.NewUserError(err), http.StatusBadRequest)
		return
	}

	result, err := s.service.Import(r.Context(), key, name, data, opts)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}

	status := http.StatusOK
	if hasStructuralError(result) {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, result)
}

// handleLoads returns load history for a dataset, newest first.
func (s *Server) handleLoads(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	limit := parseIntParam(r, "limit", 20)

	records, err := s.service.History(r.Context(), key, limit)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	if records == nil {
		records = []core.LoadRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

// handleBulkUpdate applies keyed corrections, best effort per key.
func (s *Server) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var req BulkUpdateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBulkBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Updates) == 0 {
		writeError(w, http.StatusBadRequest, "no rows specified")
		return
	}

	result, err := s.service.BulkUpdate(r.Context(), key, req.Updates)
	if err != nil {
		s.respondError(w, r, err, 0)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImportStatus reports how many imports are running.
func (s *Server) handleImportStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}

// hasStructuralError reports whether the extract was rejected as a whole.
func hasStructuralError(result *core.ImportResult) bool {
	for _, e := range result.Errors {
		if e.Column == core.ColumnFile || e.Column == core.ColumnHeader {
			return true
		}
	}
	return false
}
