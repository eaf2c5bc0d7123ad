package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/c360/flowkit/config"
	"github.com/c360/flowkit/engine"
)

// app carries what PersistentPreRunE prepares for the subcommands
type app struct {
	flags  GlobalFlags
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   appName,
		Short: "flowkit - dataflow pipelines of pluggable stages",
		Long: `flowkit builds graphs of processing stages, pushes data containers
through them and loads third-party units from module archives.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	registerGlobalFlags(root, &a.flags)

	root.AddCommand(newModulesCmd(a))
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newVersionCmd())
	return root
}

// setup loads the configuration and the logger before any command runs
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" || cmd.Name() == "help" {
		return nil
	}
	if err := validateFlags(&a.flags); err != nil {
		return err
	}

	loader := config.NewLoader()
	if a.flags.ConfigPath != "" {
		loader.AddLayer(a.flags.ConfigPath)
	}
	cfg, err := loader.Load()
	if err != nil {
		return err
	}
	if a.flags.LogLevel != "" {
		cfg.Log.Level = a.flags.LogLevel
	}
	if a.flags.LogFormat != "" {
		cfg.Log.Format = a.flags.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = setupLogger(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(a.logger)
	a.logger.Debug("configuration loaded", "config_path", a.flags.ConfigPath)
	return nil
}

// runtime builds an engine runtime that also scans extraRoots
func (a *app) runtime(ctx context.Context, extraRoots []string) (*engine.Runtime, error) {
	cfg := a.cfg.Clone()
	cfg.Modules.ScanPaths = append(cfg.Modules.ScanPaths, extraRoots...)
	return engine.New(ctx, cfg, engine.WithLogger(a.logger))
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (build %s)\n", appName, Version, BuildTime)
		},
	}
}
