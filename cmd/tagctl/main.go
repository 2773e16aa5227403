// Command tagctl previews, validates and generates animal tag numbers from
// the command line. Generation runs against a local SQLite store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"herdbook/internal/config"
	"herdbook/internal/infrastructure/storage/sqlite"
	"herdbook/pkg/logger"
)

// app is the state shared by every subcommand.
type app struct {
	configFile string
	dbPath     string
	logLevel   string
	asJSON     bool

	cfg *config.Config
	log *logger.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "tagctl",
		Short:         "Animal tag number tooling",
		Long:          `Preview, validate and generate animal tag numbers, and encode or decode scan payloads.`,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}

	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (YAML)")
	root.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (defaults to sqlite_path from config)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print results as JSON")

	root.AddCommand(
		a.previewCmd(),
		a.checkDigitCmd(),
		a.validateCmd(),
		a.generateCmd(),
		a.settingsCmd(),
		a.retireCmd(),
		a.payloadCmd(),
		a.tokenCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.SQLitePath = a.dbPath
	}
	a.cfg = cfg

	log, err := logger.New(logger.Config{
		Level:       a.logLevel,
		Development: true,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	a.log = log
	return nil
}

// openStore opens the SQLite store; the caller closes it.
func (a *app) openStore() (*sqlite.Store, error) {
	store, err := sqlite.Open(a.cfg.SQLitePath)
	if err != nil {
		return nil, err
	}
	a.log.Debugw("sqlite store opened", "path", store.Path())
	return store, nil
}

func (a *app) commandContext(cmd *cobra.Command) context.Context {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return logger.WithLogger(ctx, a.log)
}

// print writes v as indented JSON when --json is set, otherwise text.
func (a *app) print(w io.Writer, v any, text string) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	_, err := fmt.Fprintln(w, text)
	return err
}
