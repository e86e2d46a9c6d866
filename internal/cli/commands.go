package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/ingest/internal/core"
	"github.com/JonMunkholm/ingest/internal/store"
	"github.com/spf13/cobra"
)

func newDatasetsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List registered extract layouts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			all := core.All()
			if opts.output == "json" {
				return renderJSON(cmd.OutOrStdout(), all)
			}
			renderDatasets(cmd.OutOrStdout(), all)
			return nil
		},
	}
}

func newValidateCommand(opts *options) *cobra.Command {
	var maxErrors int

	cmd := &cobra.Command{
		Use:   "validate <dataset> <file>",
		Short: "Check an extract without loading it",
		Long: `Validate parses an extract against its dataset layout and reports every
header and row problem. It does not connect to the database.

Exits non-zero when any problem is found.`,
		Example: `  ingest validate currency_rates rates_20240101.txt`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ds, ok := core.Get(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", core.ErrUnknownDataset, args[0])
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			parsed := core.Parse(data, ds)
			w := cmd.OutOrStdout()
			if opts.output == "json" {
				if err := renderJSON(w, parsed); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(w, "%s: %d rows, %d accepted, %d rejected\n",
					filepath.Base(args[1]), parsed.TotalRows, len(parsed.Rows), parsed.RejectedRows())
				renderErrors(w, parsed.Errors, maxErrors)
			}

			if len(parsed.Errors) > 0 {
				return ErrRejected
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&maxErrors, "max-errors", 50, "Maximum errors to print (0 prints all)")
	return cmd
}

func newLoadCommand(opts *options) *cobra.Command {
	var (
		importOpts core.ImportOptions
		maxErrors  int
	)

	cmd := &cobra.Command{
		Use:   "load <dataset> <file>",
		Short: "Validate an extract and load the accepted rows",
		Long: `Load validates an extract and inserts every accepted row in a single
transaction. Pending migrations are applied first.

Rows that fail validation are reported and skipped unless --reject-partial
is set, in which case nothing is loaded. Exits non-zero when the extract
is rejected as a whole or the load is skipped.`,
		Example: `  ingest load deposits deposits_20240115.txt
  ingest load arrangements arr.txt --max-per-category 100 --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}

			return withService(cmd.Context(), opts, func(_ *store.Backend, svc *core.Service) error {
				result, err := svc.Import(cmd.Context(), args[0], filepath.Base(args[1]), data, importOpts)
				if err != nil {
					return err
				}

				w := cmd.OutOrStdout()
				if opts.output == "json" {
					if err := renderJSON(w, result); err != nil {
						return err
					}
				} else {
					renderImport(w, result)
					renderErrors(w, result.Errors, maxErrors)
				}

				if result.Skipped || (result.Accepted == 0 && len(result.Errors) > 0) {
					return ErrRejected
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&importOpts.DryRun, "dry-run", false, "Validate and plan without loading")
	cmd.Flags().IntVar(&importOpts.MaxPerCategory, "max-per-category", 0, "Sample down to this many rows per category (0 uses config)")
	cmd.Flags().BoolVar(&importOpts.RejectPartial, "reject-partial", false, "Load nothing if any row is rejected")
	cmd.Flags().IntVar(&maxErrors, "max-errors", 50, "Maximum errors to print (0 prints all)")
	return cmd
}

func newHistoryCommand(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <dataset>",
		Short: "Show recent loads of a dataset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd.Context(), opts, func(_ *store.Backend, svc *core.Service) error {
				records, err := svc.History(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if opts.output == "json" {
					if records == nil {
						records = []core.LoadRecord{}
					}
					return renderJSON(cmd.OutOrStdout(), records)
				}
				renderHistory(cmd.OutOrStdout(), records)
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of loads to show")
	return cmd
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending bookkeeping migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd.Context(), opts, func(b *store.Backend, _ *core.Service) error {
				version, err := b.SchemaVersion(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s schema at version %d\n", b.Driver, version)
				return nil
			})
		},
	}
}

// withService opens and migrates the configured database, then calls fn.
func withService(ctx context.Context, opts *options, fn func(*store.Backend, *core.Service) error) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}

	backend, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := backend.Migrate(ctx); err != nil {
		return err
	}

	return fn(backend, core.NewService(backend, cfg))
}
