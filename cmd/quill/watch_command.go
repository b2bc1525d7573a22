package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/logging"
	"quill/internal/preflight"
	"quill/internal/watcher"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the inbox and ingest recordings once they settle",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			signalCtx, cancel := signal.NotifyContext(runContext(cmd), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logReadiness(logger, cfg)

			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			orch, err := ctx.newOrchestrator(store, logger)
			if err != nil {
				return err
			}
			w := watcher.New(cfg, store, orch, logger)

			if !once {
				return w.Run(signalCtx)
			}
			report, err := w.Once(signalCtx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Processed %d, skipped %d, failed %d (of %d candidates)\n",
				report.Processed, report.Skipped, report.Failed, report.Candidates)
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Run a single scan cycle and exit")
	return cmd
}

// logReadiness reports failed preflight checks and missing binaries without
// stopping the watcher; the affected files fail individually instead.
func logReadiness(logger *slog.Logger, cfg *config.Config) {
	for _, result := range preflight.Failed(preflight.RunAll(cfg)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run quill doctor for details"),
		)
	}
	for _, status := range preflight.CheckSystemDeps(cfg) {
		if status.Available {
			continue
		}
		impact := "recordings will fail until it is installed"
		if status.Optional {
			impact = "degraded output"
		}
		logging.WarnWithContext(logger, "dependency missing", "dependency_missing",
			logging.String("dependency", status.Name),
			logging.String("command", status.Command),
			logging.String("detail", status.Detail),
			logging.String(logging.FieldImpact, impact),
		)
	}
}
