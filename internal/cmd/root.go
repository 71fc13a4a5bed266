package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/harrison/everything/internal/catalog"
	"github.com/harrison/everything/internal/config"
	"github.com/harrison/everything/internal/filelock"
	"github.com/harrison/everything/internal/logger"
	"github.com/harrison/everything/internal/store"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// rootOptions holds the persistent flags shared by every subcommand.
type rootOptions struct {
	configPath string
	dbPath     string
	logLevel   string
	logDir     string
}

// NewRootCommand creates and returns the root cobra command for everything
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "everything",
		Short: "Catalog a directory and search it by file name",
		Long: `Everything keeps a SQLite catalog of the entries directly inside one root
directory (name, parent path, size, creation date) and searches it by
name substring or regular expression.

Run "everything reindex" to rebuild the catalog, then "everything search"
to query it.`,
		Version: Version,
		// Silence usage on errors to avoid duplicate help text
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default: $EVERYTHING_HOME/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "Path to the catalog database (default: $EVERYTHING_HOME/catalog.db)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().StringVar(&opts.logDir, "log-dir", "", "Directory for per-run log files")

	cmd.AddCommand(NewReindexCommand(opts))
	cmd.AddCommand(NewSearchCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewStatusCommand(opts))

	return cmd
}

// app bundles what a subcommand needs once configuration is resolved.
type app struct {
	cfg     *config.Config
	log     logger.Logger
	service *catalog.Service
	files   *logger.FileLogger
}

// loadConfig reads the config file and applies persistent flags that were set.
func loadConfig(cmd *cobra.Command, opts *rootOptions) (*config.Config, error) {
	path := opts.configPath
	if path == "" {
		var err error
		path, err = config.GetConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve config path: %w", err)
		}
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var dbPath, logLevel, logDir *string
	if flags.Changed("db-path") {
		dbPath = &opts.dbPath
	}
	if flags.Changed("log-level") {
		logLevel = &opts.logLevel
	}
	if flags.Changed("log-dir") {
		logDir = &opts.logDir
	}
	cfg.MergeWithFlags(nil, dbPath, logLevel, logDir)
	return cfg, nil
}

// openApp loads configuration, lets the subcommand adjust it from its own flags, and
// builds the loggers and the catalog service. The store is opened on first use.
func openApp(cmd *cobra.Command, opts *rootOptions, adjust func(*config.Config)) (*app, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	if adjust != nil {
		adjust(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	dbPath, err := cfg.DBFile()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve db_path: %w", err)
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root path: %w", err)
	}

	a := &app{cfg: cfg}

	console := logger.NewConsoleLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	a.log = console
	if cfg.LogDir != "" {
		logDir, err := config.ResolvePath(cfg.LogDir)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve log_dir: %w", err)
		}
		a.files, err = logger.NewFileLoggerWithLevel(logDir, cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		a.log = logger.NewMultiLogger(console, a.files)
	}

	svcOpts := catalog.Options{
		Root: root,
		Open: func() (catalog.Store, error) {
			db, err := store.Open(dbPath)
			if err != nil {
				return nil, err
			}
			return db, nil
		},
		Logger:  a.log,
		Literal: cfg.Search.Literal,
		Shadow:  cfg.Reindex.Shadow,
	}
	if cfg.Reindex.Lock && dbPath != ":memory:" {
		svcOpts.Lock = filelock.NewFileLock(dbPath + ".lock")
	}
	a.service = catalog.NewService(svcOpts)

	a.log.LogDebug(fmt.Sprintf("Using catalog %s for root %s", dbPath, root))
	return a, nil
}

// Close releases the store handle and the run log.
func (a *app) Close() error {
	err := a.service.Close()
	if a.files != nil {
		if ferr := a.files.Close(); err == nil {
			err = ferr
		}
	}
	return err
}
