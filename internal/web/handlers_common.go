package web

// This file contains request parsing helpers and response shapes shared
// across handlers.

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/JonMunkholm/ingest/internal/core"
)

// multipartOverhead is allowed on top of the file size limit for form
// boundaries and part headers.
const multipartOverhead = 1 << 20

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string                   `json:"status"`
	Database string                   `json:"database"`
	Imports  core.ImportLimiterStatus `json:"imports"`
}

// ColumnResponse describes one dataset column.
type ColumnResponse struct {
	Name     string   `json:"name"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Allowed  []string `json:"allowed,omitempty"`
}

// DatasetResponse describes a registered dataset.
type DatasetResponse struct {
	Key            string           `json:"key"`
	Group          string           `json:"group"`
	Label          string           `json:"label"`
	Table          string           `json:"table"`
	HeaderMode     string           `json:"header_mode"`
	Delimiters     []string         `json:"delimiters"`
	Quote          string           `json:"quote,omitempty"`
	CategoryColumn string           `json:"category_column,omitempty"`
	KeyColumn      string           `json:"key_column,omitempty"`
	Columns        []ColumnResponse `json:"columns"`
}

// BulkUpdateRequest is the body of POST /api/datasets/{key}/bulk-update.
type BulkUpdateRequest struct {
	Updates []core.KeyedUpdate `json:"updates"`
}

func toDatasetResponse(ds *core.Dataset) DatasetResponse {
	resp := DatasetResponse{
		Key:            ds.Key,
		Group:          ds.Group,
		Label:          ds.Label,
		Table:          ds.Table,
		HeaderMode:     ds.HeaderMode.String(),
		CategoryColumn: ds.CategoryColumn,
		KeyColumn:      ds.KeyColumn,
		Columns:        make([]ColumnResponse, len(ds.Columns)),
	}
	for _, d := range ds.CandidateDelimiters() {
		resp.Delimiters = append(resp.Delimiters, string(d))
	}
	if ds.Quote != 0 {
		resp.Quote = string(ds.Quote)
	}
	for i, c := range ds.Columns {
		resp.Columns[i] = ColumnResponse{
			Name:     c.Name,
			Kind:     c.Kind.String(),
			Required: c.Required,
			Allowed:  c.Allowed,
		}
	}
	return resp
}

// parseIntParam parses a positive integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}

// parseBoolParam treats anything strconv.ParseBool rejects as false.
func parseBoolParam(r *http.Request, name string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(name))
	return b
}

// readExtract returns the uploaded file name and contents. Multipart
// requests carry the extract in the "file" field; any other content type
// is read as the raw extract, named by the file_name query parameter.
//
// An oversized body is reported as *http.MaxBytesError.
func readExtract(w http.ResponseWriter, r *http.Request, maxSize int64) (string, []byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	multipart := mediaType == "multipart/form-data"

	if maxSize > 0 {
		limit := maxSize
		if multipart {
			limit += multipartOverhead
		}
		r.Body = http.MaxBytesReader(w, r.Body, limit)
	}

	if !multipart {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return "", nil, bodyError(err, maxSize)
		}
		name := filepath.Base(r.URL.Query().Get("file_name"))
		if name == "." || name == "/" {
			name = "upload"
		}
		return name, data, nil
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, bodyError(err, maxSize)
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, errors.New("no file provided")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return "", nil, fmt.Errorf("unreadable file: %w", err)
	}
	return filepath.Base(header.Filename), data, nil
}

func bodyError(err error, limit int64) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
		return &http.MaxBytesError{Limit: limit}
	}
	return fmt.Errorf("unreadable file: %w", err)
}

// writeError writes a JSON error response for problems detected in the
// handler itself, before the service is involved.
func writeError(w http.ResponseWriter, status int, message string) {
	slog.Warn("http error", "status", status, "message", message)

	msg := core.MapError(errors.New(message))
	writeJSON(w, status, ErrorResponse{
		Error:   message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}
