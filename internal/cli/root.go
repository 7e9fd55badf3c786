// Package cli implements the codefirst command line tool.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/codefirst/compiler/gen"
	"github.com/syssam/codefirst/compiler/load"
	"github.com/syssam/codefirst/internal/model"
)

// options shared by all commands.
type options struct {
	model   string
	verbose bool
	logger  *slog.Logger
}

// NewRootCmd constructs the root command with all subcommands attached.
func NewRootCmd() *cobra.Command {
	opts := &options{logger: slog.Default()}
	cmd := &cobra.Command{
		Use:   "codefirst",
		Short: "codefirst - model time properties in code and migrate them",
		Long: "codefirst reads entity declarations from a YAML model file, applies the model building " +
			"conventions and plans, applies or records the schema changes of the database.",
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.verbose)
		},
	}
	cmd.SilenceUsage = true
	// Execute prints the error.
	cmd.SilenceErrors = true
	cmd.PersistentFlags().StringVarP(&opts.model, "model", "m", "model.yaml", "Path of the YAML model file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging output")
	cmd.AddCommand(newPlanCmd(opts))
	cmd.AddCommand(newApplyCmd(opts))
	cmd.AddCommand(newDiffCmd(opts))
	cmd.AddCommand(newSnapshotCmd(opts))
	cmd.AddCommand(newGraphQLCmd(opts))
	cmd.AddCommand(newWatchCmd(opts))
	return cmd
}

// Execute runs the CLI entrypoint.
func Execute(ctx context.Context) {
	if err := NewRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// graph loads the model file and builds its graph.
func (o *options) graph(opts ...gen.Option) (*gen.Graph, error) {
	f, err := model.ReadFile(o.model)
	if err != nil {
		return nil, err
	}
	schemas, err := f.Schemas()
	if err != nil {
		return nil, err
	}
	loaded, err := load.Load(schemas...)
	if err != nil {
		return nil, err
	}
	cfg, err := gen.NewConfig(opts...)
	if err != nil {
		return nil, err
	}
	g, err := gen.NewGraph(cfg, loaded...)
	if err != nil {
		return nil, err
	}
	o.logger.Debug("model loaded", "path", o.model, "entities", len(g.Nodes))
	return g, nil
}
