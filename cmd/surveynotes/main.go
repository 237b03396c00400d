package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dusk-indust/surveynotes/internal/config"
	"github.com/dusk-indust/surveynotes/internal/logging"
)

// version is set by goreleaser at build time.
var version = "dev"

// app carries state shared by every subcommand.
type app struct {
	configDir string
	verbose   bool

	cfg    *config.ProjectConfig
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "surveynotes",
		Short: "Incrementally reconcile survey notes from a growing transcript",
		Long: `surveynotes keeps one canonical, deduplicated set of survey-note sections
per session. Each processing pass over the cumulative transcript yields a
candidate set of sections; it is merged into the stored set so that nothing
recorded earlier is lost and near-duplicate text is written only once.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", ".", "directory holding surveynotes.yml and the default store")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newReconcileCmd(a),
		newNewCmd(a),
		newIngestCmd(a),
		newWatchCmd(a),
		newRefreshCmd(a),
		newServeCmd(a),
		newServeMCPCmd(a),
		newStatusCmd(a),
		newExportCmd(a),
		newVersionCmd(),
	)
	return root
}

// init loads the configuration and builds the logger.
func (a *app) init() error {
	cfg, err := config.Load(a.configDir)
	if err != nil {
		return err
	}
	a.cfg = cfg

	level := cfg.LogLevel
	if a.verbose {
		level = "debug"
	}
	logger, err := logging.New(level)
	if err != nil {
		return err
	}
	a.logger = logger
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		},
	}
}
