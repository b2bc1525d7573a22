package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"quill/internal/config"
)

// skipConfigLoad marks commands that read or write the config file themselves.
var skipConfigLoad = map[string]string{"skipConfigLoad": "true"}

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the quill configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var (
		pathFlag  string
		overwrite bool
	)

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a commented sample configuration",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(pathFlag)
			if err != nil {
				return err
			}
			if !overwrite {
				_, statErr := os.Stat(target)
				switch {
				case statErr == nil:
					return withExitCode(2, fmt.Errorf("%s already exists; pass --overwrite to replace it", target))
				case !errors.Is(statErr, fs.ErrNotExist):
					return fmt.Errorf("inspect %s: %w", target, statErr)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Sample configuration written to %s\n", target)
			fmt.Fprintln(cmd.OutOrStdout(), "Next: point transcription at a working engine, then run quill doctor.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&pathFlag, "path", "p", "", "Where to write the file (default: the standard config location)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

// initTarget resolves where config init writes, expanding ~ in pathFlag.
func initTarget(pathFlag string) (string, error) {
	if pathFlag = strings.TrimSpace(pathFlag); pathFlag != "" {
		target, err := config.ExpandPath(pathFlag)
		if err != nil {
			return "", fmt.Errorf("resolve %s: %w", pathFlag, err)
		}
		return target, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("default config location: %w", err)
	}
	return target, nil
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration and print the settings in effect",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flagPath, _ := cmd.Flags().GetString("config")
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return withExitCode(2, err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("prepare directories: %w", err)
			}

			out := cmd.OutOrStdout()
			source := path
			if !exists {
				source = path + " (not found; built-in defaults)"
			}
			fmt.Fprintf(out, "Config: %s\n", source)
			fmt.Fprintln(out, renderTable([]string{"Setting", "Value"}, effectiveSettings(cfg), []columnAlignment{alignLeft, alignLeft}))
			fmt.Fprintln(out, "Configuration OK")
			return nil
		},
	}
}

// effectiveSettings lists the values most worth double-checking after a
// config edit.
func effectiveSettings(cfg *config.Config) [][]string {
	archive := "off"
	if cfg.Archive.Enabled {
		archive = cfg.Paths.ArchiveDir
	}
	annotation := "off"
	if cfg.Annotation.Enabled {
		annotation = strings.Join(cfg.Annotation.Command, " ")
	}
	return [][]string{
		{"inbox", cfg.Paths.InboxDir},
		{"notebooks", cfg.Paths.NotebooksDir},
		{"archive", archive},
		{"ledger", cfg.Ledger.Path},
		{"transcription engine", cfg.Transcription.Engine},
		{"stable window", cfg.StableWindow().String()},
		{"lease ttl", cfg.LeaseTTL().String()},
		{"annotation", annotation},
		{"log level", cfg.Logging.Level},
		{"log retention days", strconv.Itoa(cfg.Logging.RetentionDays)},
	}
}
