package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"quill/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check directories, models and external binaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			failures := 0

			printLines(out, renderSectionHeader("Filesystem", colorize)...)
			for _, result := range preflight.RunAll(cfg) {
				kind := statusOK
				if !result.Passed {
					kind = statusError
					failures++
				}
				printLines(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}

			printLines(out, "")
			printLines(out, renderSectionHeader("Dependencies", colorize)...)
			for _, status := range preflight.CheckSystemDeps(cfg) {
				kind, detail := statusOK, status.Command
				if !status.Available {
					detail = status.Detail
					if status.Optional {
						kind = statusWarn
					} else {
						kind = statusError
						failures++
					}
				}
				if status.Description != "" {
					detail = fmt.Sprintf("%s (%s)", detail, status.Description)
				}
				printLines(out, renderStatusLine(status.Name, kind, detail, colorize))
			}

			if failures > 0 {
				return fmt.Errorf("%d check(s) failed", failures)
			}
			return nil
		},
	}
}
