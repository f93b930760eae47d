package main

import (
	"context"
	"fmt"
	"os"

	"github.com/madbrain/recette-lsp/src/rlsp/app"
	"github.com/madbrain/recette-lsp/src/rlsp/internal/core"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

func opts(flags core.Flags) fx.Option {
	return fx.Options(
		fx.Supply(flags),
		app.Module,
	)
}

func newRootCmd() *cobra.Command {
	var flags core.Flags

	cmd := &cobra.Command{
		Use:          "recette-lsp",
		Short:        "Language server for recette documents",
		Version:      core.Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.ConfigDir, "config-dir", "", "directory holding meta.yaml and the files it lists")
	cmd.Flags().BoolVar(&flags.Stdio, "stdio", false, "serve a single editor over stdin and stdout")
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "serve editors over tcp on the given address")
	cmd.MarkFlagsMutuallyExclusive("stdio", "listen")

	return cmd
}

// run blocks until the server is asked to stop, either by a signal or once its editors are gone.
func run(ctx context.Context, flags core.Flags) error {
	a := fx.New(opts(flags))
	if err := a.Err(); err != nil {
		return err
	}

	if err := a.Start(ctx); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}

	signal := <-a.Wait()

	stopCtx, cancel := context.WithTimeout(context.Background(), a.StopTimeout())
	defer cancel()
	if err := a.Stop(stopCtx); err != nil {
		return fmt.Errorf("stopping server: %w", err)
	}

	if signal.ExitCode != 0 {
		return fmt.Errorf("server exited with code %d", signal.ExitCode)
	}
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
