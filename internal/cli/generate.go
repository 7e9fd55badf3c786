package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/syssam/codefirst/compiler/gen"
	"github.com/syssam/codefirst/contrib/graphql"
)

func newSnapshotCmd(opts *options) *cobra.Command {
	var (
		out     string
		pkg     string
		workers int
	)
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Generate a Go package recording the tables and columns of the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			genOpts := []gen.Option{gen.WithTarget(out)}
			if pkg != "" {
				genOpts = append(genOpts, gen.WithPackage(pkg))
			}
			if workers > 0 {
				genOpts = append(genOpts, gen.WithWorkers(workers))
			}
			g, err := opts.graph(genOpts...)
			if err != nil {
				return err
			}
			if err := g.WriteSnapshot(cmd.Context()); err != nil {
				return err
			}
			opts.logger.Info("snapshot written", "dir", out, "types", len(g.Nodes))
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "model", "Output directory of the generated package")
	cmd.Flags().StringVar(&pkg, "package", "", "Import path of the generated package (default package name model)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of files written in parallel (default GOMAXPROCS)")
	return cmd
}

func newGraphQLCmd(opts *options) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "graphql",
		Short: "Print the GraphQL object types of the model",
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := opts.graph()
			if err != nil {
				return err
			}
			sdl, err := graphql.Schema(g)
			if err != nil {
				return err
			}
			if out == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), sdl)
				return err
			}
			if err := os.WriteFile(out, []byte(sdl), 0o644); err != nil {
				return fmt.Errorf("write graphql schema: %w", err)
			}
			opts.logger.Info("graphql schema written", "path", out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write the schema to this file instead of stdout")
	return cmd
}
