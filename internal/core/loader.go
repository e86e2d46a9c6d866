package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/JonMunkholm/ingest/internal/metrics"
	"github.com/jonboulle/clockwork"
)

// DefaultBatchSize is the preferred rows per INSERT when none is configured.
const DefaultBatchSize = 500

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	// BatchSize is the preferred rows per statement (default: DefaultBatchSize).
	BatchSize int
	// ParamCeiling overrides the store's parameter ceiling when positive.
	ParamCeiling int
	Logger       *slog.Logger
	Clock        clockwork.Clock
}

// Loader writes accepted rows into a dataset's table inside one transaction.
type Loader struct {
	store        Store
	batchSize    int
	paramCeiling int
	logger       *slog.Logger
	clock        clockwork.Clock
}

// NewLoader creates a Loader bound to store.
func NewLoader(store Store, opts LoaderOptions) *Loader {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	return &Loader{
		store:        store,
		batchSize:    opts.BatchSize,
		paramCeiling: opts.ParamCeiling,
		logger:       opts.Logger,
		clock:        opts.Clock,
	}
}

// ParamCeiling returns the ceiling used for batch planning.
func (l *Loader) ParamCeiling() int {
	if l.paramCeiling > 0 {
		return l.paramCeiling
	}
	return l.store.MaxParams()
}

// Plan returns the batch plan Load would use for ds.
func (l *Loader) Plan(ds *Dataset) BatchPlan {
	return PlanBatch(len(ds.Columns), l.batchSize, l.ParamCeiling())
}

// Load inserts rows into the dataset's table and returns the number of rows
// written. All batches run in one write transaction committed once at the
// end; any failure rolls the whole load back and is returned.
func (l *Loader) Load(ctx context.Context, ds *Dataset, rows []Row) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	if err := l.store.EnsureTable(ctx, ds); err != nil {
		return 0, fmt.Errorf("ensure table %s: %w", ds.Table, err)
	}

	plan := l.Plan(ds)
	if plan.WasReduced {
		metrics.BatchReductions.WithLabelValues(ds.Key).Inc()
		l.logger.Warn("batch size reduced to fit parameter ceiling",
			"dataset", ds.Key,
			"columns", len(ds.Columns),
			"preferred", l.batchSize,
			"batch_size", plan.BatchSize,
			"max_rows_per_statement", plan.MaxRowsPerStatement,
			"attempted_params", len(ds.Columns)*l.batchSize,
			"param_ceiling", l.ParamCeiling(),
		)
	}

	start := l.clock.Now()

	tx, err := l.store.Begin(ctx, TxReadWrite)
	if err != nil {
		return 0, fmt.Errorf("begin load: %w", err)
	}
	defer tx.Close(ctx)

	inserted := 0
	for offset, batchNum := 0, 1; offset < len(rows); offset, batchNum = offset+plan.BatchSize, batchNum+1 {
		end := min(offset+plan.BatchSize, len(rows))
		query, args := buildInsert(l.store, ds, rows[offset:end])

		if _, err := tx.Execute(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert batch %d (rows %d-%d): %w", batchNum, offset+1, end, err)
		}
		metrics.BatchesTotal.WithLabelValues(ds.Key).Inc()
		inserted += end - offset
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit load: %w", err)
	}

	elapsed := l.clock.Since(start)
	metrics.LoadDuration.WithLabelValues(ds.Key).Observe(elapsed.Seconds())
	metrics.RowsLoaded.WithLabelValues(ds.Key).Add(float64(inserted))

	l.logger.Debug("load committed",
		"dataset", ds.Key,
		"rows", inserted,
		"batch_size", plan.BatchSize,
		"duration_ms", elapsed.Milliseconds(),
	)

	return inserted, nil
}

// buildInsert renders one multi-row INSERT with values in schema order.
func buildInsert(d Dialect, ds *Dataset, rows []Row) (string, []any) {
	cols := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = d.QuoteIdent(c.Name)
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(d.QuoteIdent(ds.Table))
	b.WriteString(" (")
	b.WriteString(strings.Join(cols, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(ds.Columns))
	n := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for j, c := range ds.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(d.Placeholder(n))
			n++
			args = append(args, d.BindValue(c, row[c.Name]))
		}
		b.WriteByte(')')
	}

	return b.String(), args
}
