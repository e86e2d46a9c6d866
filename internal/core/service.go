package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/JonMunkholm/ingest/internal/config"
	"github.com/JonMunkholm/ingest/internal/logging"
	"github.com/JonMunkholm/ingest/internal/metrics"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// ErrUnknownDataset is returned for a dataset key that is not registered.
var ErrUnknownDataset = errors.New("unknown dataset")

// ImportOptions adjusts a single import.
type ImportOptions struct {
	// DryRun parses and validates without touching storage.
	DryRun bool
	// MaxPerCategory overrides the configured reduction cap when positive.
	MaxPerCategory int
	// RejectPartial skips the load when any row failed validation.
	RejectPartial bool
}

// ImportResult is the outcome of one import.
type ImportResult struct {
	LoadID     string            `json:"load_id,omitempty"`
	Dataset    string            `json:"dataset"`
	FileName   string            `json:"file_name"`
	TotalRows  int               `json:"total_rows"`
	Accepted   int               `json:"accepted"`
	Rejected   int               `json:"rejected"`
	Loaded     int               `json:"loaded"`
	Errors     []ValidationError `json:"errors"`
	Reduction  *ReductionStats   `json:"reduction,omitempty"`
	Plan       BatchPlan         `json:"plan"`
	DryRun     bool              `json:"dry_run"`
	Skipped    bool              `json:"skipped"`
	DurationMs int64             `json:"duration_ms"`
}

// Service provides the import pipeline to the HTTP and CLI frontends.
type Service struct {
	store   Store
	cfg     config.IngestConfig
	loader  *Loader
	history *LoadHistory
	limiter *ImportLimiter
	clock   clockwork.Clock
	rnd     func() float64
	logger  *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces the wall clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Service) { s.clock = c }
}

// WithRand replaces the reduction sampler's random source.
func WithRand(rnd func() float64) Option {
	return func(s *Service) { s.rnd = rnd }
}

// WithLogger sets the logger used outside request scope.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// NewService creates a Service over store using the ingest settings of cfg.
func NewService(store Store, cfg *config.Config, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg.Ingest,
		history: NewLoadHistory(store),
		limiter: NewImportLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime),
		clock:   clockwork.NewRealClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.loader = NewLoader(store, LoaderOptions{
		BatchSize:    cfg.Ingest.BatchSize,
		ParamCeiling: cfg.Ingest.ParamCeiling,
		Logger:       s.logger,
		Clock:        s.clock,
	})
	return s
}

// Datasets returns every registered dataset in listing order.
func (s *Service) Datasets() []*Dataset {
	return All()
}

// Dataset looks up one dataset.
func (s *Service) Dataset(key string) (*Dataset, error) {
	ds, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDataset, key)
	}
	return ds, nil
}

// Validate parses data without loading it.
func (s *Service) Validate(ctx context.Context, key, fileName string, data []byte) (*ImportResult, error) {
	return s.Import(ctx, key, fileName, data, ImportOptions{DryRun: true})
}

// Import parses, validates, optionally reduces and loads one extract.
//
// Row-level and structural problems are reported in the result, never as an
// error. The returned error is reserved for unknown datasets, a full import
// queue, and storage failures; a storage failure means nothing was committed.
func (s *Service) Import(ctx context.Context, key, fileName string, data []byte, opts ImportOptions) (*ImportResult, error) {
	ds, err := s.Dataset(key)
	if err != nil {
		return nil, err
	}

	log := logging.WithFields(ctx, "dataset", key, "file", fileName)
	result := &ImportResult{
		Dataset:  key,
		FileName: fileName,
		DryRun:   opts.DryRun,
		Plan:     s.loader.Plan(ds),
		Errors:   []ValidationError{},
	}

	if s.cfg.MaxFileSize > 0 && int64(len(data)) > s.cfg.MaxFileSize {
		result.Errors = append(result.Errors, *fileError(1,
			fmt.Sprintf("file too large: %d bytes exceeds limit of %d", len(data), s.cfg.MaxFileSize)))
		metrics.LoadsTotal.WithLabelValues(key, "rejected").Inc()
		return result, nil
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		metrics.LoadsTotal.WithLabelValues(key, "throttled").Inc()
		return nil, err
	}
	defer s.limiter.Release()

	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := s.clock.Now()
	parsed := Parse(data, ds)
	result.TotalRows = parsed.TotalRows
	result.Accepted = len(parsed.Rows)
	result.Rejected = parsed.RejectedRows()
	result.Errors = append(result.Errors, parsed.Errors...)

	metrics.RowsParsed.WithLabelValues(key).Add(float64(parsed.TotalRows))
	metrics.RowsRejected.WithLabelValues(key).Add(float64(result.Rejected))

	if parsed.Structural() {
		log.Info("extract rejected", "column", parsed.Errors[0].Column, "reason", parsed.Errors[0].Message)
		metrics.LoadsTotal.WithLabelValues(key, "rejected").Inc()
		return result, nil
	}

	rows := parsed.Rows
	if limit := s.reduceLimit(opts); limit > 0 && ds.CategoryColumn != "" {
		reduced := Reduce(rows, ds.CategoryColumn, limit, s.rnd)
		rows = reduced.Rows
		result.Reduction = &reduced.Stats
		metrics.RowsSampledOut.WithLabelValues(key).Add(float64(reduced.Stats.OriginalCount - reduced.Stats.ReducedCount))
	}

	if opts.DryRun {
		result.DurationMs = s.clock.Since(start).Milliseconds()
		metrics.LoadsTotal.WithLabelValues(key, "dry_run").Inc()
		return result, nil
	}

	if (opts.RejectPartial || s.cfg.RejectPartial) && result.Rejected > 0 {
		result.Skipped = true
		result.DurationMs = s.clock.Since(start).Milliseconds()
		log.Info("load skipped, extract has rejected rows", "rejected", result.Rejected)
		metrics.LoadsTotal.WithLabelValues(key, "skipped").Inc()
		return result, nil
	}

	loaded, err := s.loader.Load(ctx, ds, rows)
	if err != nil {
		metrics.LoadsTotal.WithLabelValues(key, "failed").Inc()
		log.Error("load failed", "error", err)
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	result.Loaded = loaded
	result.DurationMs = s.clock.Since(start).Milliseconds()
	metrics.LoadsTotal.WithLabelValues(key, "loaded").Inc()

	if loaded > 0 {
		result.LoadID = uuid.New().String()
		rec := LoadRecord{
			ID:           result.LoadID,
			Dataset:      key,
			FileName:     fileName,
			RowsTotal:    result.TotalRows,
			RowsRejected: result.Rejected,
			RowsReduced:  result.Accepted - len(rows),
			RowsLoaded:   loaded,
			BatchSize:    result.Plan.BatchSize,
			DurationMs:   result.DurationMs,
			LoadedAt:     s.clock.Now().UTC(),
		}
		if err := s.history.Record(ctx, rec); err != nil {
			log.Warn("failed to record load history", "load_id", rec.ID, "error", err)
		}
	}

	log.Info("import completed",
		"load_id", result.LoadID,
		"total", result.TotalRows,
		"accepted", result.Accepted,
		"rejected", result.Rejected,
		"loaded", result.Loaded,
		"duration_ms", result.DurationMs,
	)

	return result, nil
}

func (s *Service) reduceLimit(opts ImportOptions) int {
	if opts.MaxPerCategory > 0 {
		return opts.MaxPerCategory
	}
	return s.cfg.MaxPerCategory
}

// History returns recent loads for a dataset, newest first.
func (s *Service) History(ctx context.Context, key string, limit int) ([]LoadRecord, error) {
	if _, err := s.Dataset(key); err != nil {
		return nil, err
	}
	return s.history.List(ctx, key, limit)
}

// BulkUpdate applies best-effort keyed updates to a dataset's table.
func (s *Service) BulkUpdate(ctx context.Context, key string, updates []KeyedUpdate) (*BulkUpdateResult, error) {
	ds, err := s.Dataset(key)
	if err != nil {
		return nil, err
	}

	result, err := BulkUpdate(ctx, s.store, ds, updates)
	if err != nil {
		return nil, err
	}

	logging.FromContext(ctx).Info("bulk update",
		"dataset", key,
		"updated", len(result.Updated),
		"not_found", len(result.NotFound),
		"failed", len(result.Failed),
	)
	return result, nil
}

// LimiterStatus reports the import limiter state.
func (s *Service) LimiterStatus() ImportLimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
