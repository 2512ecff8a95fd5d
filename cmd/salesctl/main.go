// Command salesctl administers a sales journal from the terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"salesjournal/internal/backend"
	"salesjournal/internal/catalog"
	"salesjournal/internal/cli"
	"salesjournal/internal/config"
	"salesjournal/internal/journal"
)

// nowFunc is replaced in tests.
var nowFunc = time.Now

type globalFlags struct {
	backend     string
	sqlitePath  string
	dataFile    string
	catalogPath string
	logLevel    string
}

// app is the state shared by every subcommand of one invocation.
type app struct {
	flags  globalFlags
	cfg    *config.Config
	logger *slog.Logger
	data   *backend.BackendResult
	svc    *journal.Service
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "salesctl",
		Short:         "Inspect and edit the sales journal",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	bindGlobalFlags(root.PersistentFlags(), &a.flags)

	root.AddCommand(
		newListCmd(a),
		newRecordCmd(a),
		newDeleteCmd(a),
		newSummaryCmd(a),
		newClearCmd(a),
		newCatalogCmd(a),
		newWatchCmd(a),
	)
	return root
}

func bindGlobalFlags(fs *pflag.FlagSet, f *globalFlags) {
	fs.StringVar(&f.backend, "backend", "", "Data backend: memory, file or sqlite (default $DATA_BACKEND)")
	fs.StringVar(&f.sqlitePath, "sqlite-path", "", "SQLite database path (default $SQLITE_DB_PATH)")
	fs.StringVar(&f.dataFile, "data-file", "", "JSON snapshot path for the file backend (default $DATA_FILE_PATH)")
	fs.StringVar(&f.catalogPath, "catalog", "", "Product catalog file, JSON or YAML (default $CATALOG_PATH)")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn or error (default $LOG_LEVEL)")
}

// setup loads config, applies flag overrides and installs the logger. The
// backend is opened lazily by the commands that need it.
func (a *app) setup(cmd *cobra.Command) error {
	cli.LoadEnvFile()

	cfg := config.Load()
	if a.flags.backend != "" {
		cfg.DataBackend = a.flags.backend
	}
	if a.flags.sqlitePath != "" {
		cfg.SQLiteDBPath = a.flags.sqlitePath
	}
	if a.flags.dataFile != "" {
		cfg.DataFilePath = a.flags.dataFile
	}
	if a.flags.catalogPath != "" {
		cfg.CatalogPath = a.flags.catalogPath
	}
	if a.flags.logLevel != "" {
		cfg.LogLevel = a.flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	handler := log.NewWithOptions(cmd.ErrOrStderr(), log.Options{
		ReportTimestamp: true,
		Prefix:          "salesctl",
		Level:           level,
	})
	a.logger = slog.New(handler)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) catalog() (*catalog.Catalog, error) {
	cat, err := catalog.Load(a.cfg.CatalogPath)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return cat, nil
}

// journal opens the backend and builds the journal service once.
func (a *app) journal(ctx context.Context) (*journal.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	cat, err := a.catalog()
	if err != nil {
		return nil, err
	}

	bcfg, err := backend.FromAppConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	data, err := backend.NewFactory(a.logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}
	a.data = data

	var opts []journal.Option
	if data.Publisher != nil {
		opts = append(opts, journal.WithPublisher(data.Publisher))
	}
	a.svc = journal.NewService(data.Store, cat, opts...)
	return a.svc, nil
}

func (a *app) close() error {
	if a.data == nil {
		return nil
	}
	err := a.data.Cleanup()
	a.data = nil
	a.svc = nil
	return err
}
