package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quill/internal/config"
	"quill/internal/contentid"
	"quill/internal/ledger"
	"quill/internal/textutil"
	"quill/internal/watcher"
)

// recentFailureLimit bounds the failures listed by status.
const recentFailureLimit = 5

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show inbox, notebook and ledger status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()
			return renderStatus(cmd.Context(), cmd.OutOrStdout(), cfg, store)
		},
	}
}

func renderStatus(ctx context.Context, out io.Writer, cfg *config.Config, store *ledger.Store) error {
	colorize := shouldColorize(out)

	pending, pendingBytes, err := pendingRecordings(ctx, cfg, store)
	if err != nil {
		return err
	}
	notebooks, err := countNotebooks(cfg.Paths.NotebooksDir)
	if err != nil {
		return err
	}

	printLines(out, renderSectionHeader("Paths", colorize)...)
	inboxKind := statusOK
	if pending > 0 {
		inboxKind = statusInfo
	}
	printLines(out,
		renderStatusLine("Inbox", inboxKind, fmt.Sprintf("%s (%d pending, %s)", cfg.Paths.InboxDir, pending, humanize.Bytes(pendingBytes)), colorize),
		renderStatusLine("Notebooks", statusOK, fmt.Sprintf("%s (%d notebooks)", cfg.Paths.NotebooksDir, notebooks), colorize),
	)
	if cfg.Archive.Enabled {
		printLines(out, renderStatusLine("Archive", statusOK, cfg.Paths.ArchiveDir, colorize))
	} else {
		printLines(out, renderStatusLine("Archive", statusInfo, "disabled", colorize))
	}
	annotation := "disabled"
	if cfg.Annotation.Enabled {
		annotation = fmt.Sprintf("%s (timeout %s)", cfg.Annotation.Command[0], cfg.AnnotationTimeout())
	}
	printLines(out,
		renderStatusLine("Transcription", statusInfo, cfg.Transcription.Engine, colorize),
		renderStatusLine("Referee", statusInfo, annotation, colorize),
		"",
	)

	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	printLines(out, renderSectionHeader("Ledger", colorize)...)
	rows := make([][]string, 0, len(ledger.Statuses()))
	for _, status := range ledger.Statuses() {
		rows = append(rows, []string{string(status), strconv.Itoa(counts[status])})
	}
	printLines(out, renderTable([]string{"Status", "Count"}, rows, []columnAlignment{alignLeft, alignRight}), "")

	failures, err := store.List(ctx, recentFailureLimit, ledger.StatusFailed)
	if err != nil {
		return err
	}
	if len(failures) == 0 {
		return nil
	}
	printLines(out, renderSectionHeader("Recent failures", colorize)...)
	rows = rows[:0]
	for _, entry := range failures {
		rows = append(rows, []string{
			contentid.Short(entry.ContentID),
			filepath.Base(entry.SourcePath),
			humanize.Time(entry.UpdatedAt),
			textutil.Truncate(textutil.CollapseSpace(entry.ErrorDetail), maxCellWidth),
		})
	}
	printLines(out, renderTable([]string{"ID", "Source", "When", "Error"}, rows, nil))
	return nil
}

// pendingRecordings counts inbox candidates the ledger has not committed
// under the same fingerprint.
func pendingRecordings(ctx context.Context, cfg *config.Config, store *ledger.Store) (int, uint64, error) {
	paths, fps, err := watcher.ListCandidates(cfg.Paths.InboxDir, cfg.Watch.AllowedExtensions)
	if err != nil {
		return 0, 0, err
	}
	snapshot, err := store.SourceSnapshotIndex(ctx)
	if err != nil {
		return 0, 0, err
	}
	var count int
	var size uint64
	for _, path := range paths {
		if committed, ok := snapshot[path]; ok && committed.Equal(fps[path]) {
			continue
		}
		count++
		size += uint64(fps[path].Size)
	}
	return count, size, nil
}

func countNotebooks(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".md" {
			count++
		}
	}
	return count, nil
}
