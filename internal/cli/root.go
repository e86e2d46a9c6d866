// Package cli provides the ingest command-line interface.
package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/ingest/internal/config"
	_ "github.com/JonMunkholm/ingest/internal/core/datasets" // Register all datasets
	"github.com/JonMunkholm/ingest/internal/logging"
	"github.com/spf13/cobra"
)

// ErrRejected is returned when an extract, or some of its rows, failed
// validation. Callers exit non-zero without printing it again.
var ErrRejected = errors.New("extract has validation errors")

type options struct {
	configFile string
	output     string
	verbose    bool

	cfg *config.Config
}

// loadConfig reads configuration once per invocation. Only commands that
// touch the database need it.
func (o *options) loadConfig() (*config.Config, error) {
	if o.cfg != nil {
		return o.cfg, nil
	}
	path := o.configFile
	if path == "" {
		path = os.Getenv(config.FileEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, err
	}
	o.cfg = cfg
	return cfg, nil
}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "ingest",
		Short: "Validate and load deposit extracts",
		Long: `ingest validates pipe-delimited deposit extracts against their registered
layouts and loads the accepted rows into the configured database.

Database settings come from the environment (DATABASE_DRIVER, DATABASE_URL, ...)
layered over an optional YAML file given with --config or INGEST_CONFIG_FILE.`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q (want table or json)", opts.output)
			}

			level := "warn"
			if opts.verbose {
				level = "debug"
			}
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, "text"))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVarP(&opts.output, "output", "o", "table", "Output format (table|json)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Verbose logging")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newDatasetsCommand(opts))
	rootCmd.AddCommand(newValidateCommand(opts))
	rootCmd.AddCommand(newLoadCommand(opts))
	rootCmd.AddCommand(newHistoryCommand(opts))
	rootCmd.AddCommand(newMigrateCommand(opts))

	return rootCmd
}
