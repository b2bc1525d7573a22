package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/pipeline"
)

func newRerunAnnotationCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "rerun-annotation <notebook>",
		Short: "Retry referee commentary for a notebook's latest voice dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if _, err := os.Stat(path); err != nil {
				return withExitCode(2, fmt.Errorf("notebook not found: %s", path))
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			orch, err := ctx.newOrchestrator(store, logger)
			if err != nil {
				return err
			}
			outcome, err := orch.RerunAnnotation(runContext(cmd), path, force)
			if errors.Is(err, pipeline.ErrNoVoiceDump) {
				return withExitCode(2, err)
			}
			if err != nil {
				return fmt.Errorf("referee failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if !outcome.Appended {
				fmt.Fprintf(out, "Nothing to do: %s (use --force to append anyway)\n", outcome.Reason)
				return nil
			}
			fmt.Fprintf(out, "Commentary appended to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Append commentary even if the latest dump already has some")
	return cmd
}
