package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flowcov/go-flowcov/backend"
	"github.com/flowcov/go-flowcov/config"
	"github.com/flowcov/go-flowcov/log"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	configPath string
	dbPath     string
	verbose    bool

	stdout io.Writer
	stderr io.Writer
}

// NewFlowcovCommand returns the root command for inspecting stored coverage runs.
func NewFlowcovCommand(stdout, stderr io.Writer) *cobra.Command {
	o := &globalOptions{stdout: stdout, stderr: stderr}

	app := &cobra.Command{
		Use:           "flowcov",
		Short:         "inspect flow model coverage recorded by test runs",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	app.SetOut(stdout)
	app.SetErr(stderr)

	flags := app.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "configuration file, defaults to the nearest "+config.FileName)
	flags.StringVar(&o.dbPath, "db", "", "sqlite database, overrides the configured backend")
	flags.BoolVarP(&o.verbose, "verbose", "v", false, "log debug output")

	app.AddCommand(
		newRunsCommand(o),
		newShowCommand(o),
		newPruneCommand(o),
		newStatsCommand(o),
		newServeCommand(o),
	)

	return app
}

func (o *globalOptions) logger() *slog.Logger {
	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(o.stderr, &slog.HandlerOptions{Level: level}))
}

func (o *globalOptions) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		if wd, err := os.Getwd(); err == nil {
			path = config.Find(wd)
		}
	}

	cfg := config.Default()
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if o.dbPath != "" {
		cfg.Backend.Type = config.BackendSQLite
		cfg.Backend.SQLite.Path = o.dbPath
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (o *globalOptions) openBackend() (backend.Backend, *config.Config, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger := o.logger()
	logger.Debug("opening backend", log.BackendKey, cfg.Backend.Type)

	b, err := cfg.OpenBackend(backend.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s backend: %w", cfg.Backend.Type, err)
	}

	return b, cfg, nil
}
