package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/pipeline"
)

func newProcessCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "process <file>",
		Short: "Ingest a single recording now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
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
			outcome, err := orch.Process(runContext(cmd), path, force)
			var transformErr *pipeline.TransformError
			if errors.As(err, &transformErr) {
				return withExitCode(1, fmt.Errorf("transcription failed for %s: %w", path, transformErr.Err))
			}
			if err != nil {
				if outcome.FailedAt != "" {
					return fmt.Errorf("%s failed after %s: %w", path, outcome.FailedAt, err)
				}
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case outcome.Skipped():
				fmt.Fprintf(out, "Skipped %s (%s)\n", path, outcome.SkipReason)
			case outcome.Duplicate:
				fmt.Fprintf(out, "%s (already contained this recording)\n", outcome.Destination)
			default:
				fmt.Fprintln(out, outcome.Destination)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Reprocess even if the ledger or notebook already has this recording")
	return cmd
}
