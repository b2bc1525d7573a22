package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"quill/internal/contentid"
	"quill/internal/ledger"
	"quill/internal/textutil"
)

func newLedgerCommand(ctx *commandContext) *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Inspect processed recordings",
	}
	ledgerCmd.AddCommand(newLedgerListCommand(ctx))
	ledgerCmd.AddCommand(newLedgerShowCommand(ctx))
	return ledgerCmd
}

func newLedgerListCommand(ctx *commandContext) *cobra.Command {
	var statusFlags []string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := make([]ledger.Status, 0, len(statusFlags))
			for _, value := range statusFlags {
				status, ok := ledger.ParseStatus(strings.TrimSpace(value))
				if !ok {
					return fmt.Errorf("unknown status %q (want in_progress, processed or failed)", value)
				}
				statuses = append(statuses, status)
			}

			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit, statuses...)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No ledger entries")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				rows = append(rows, []string{
					contentid.Short(entry.ContentID),
					string(entry.Status),
					textutil.Ternary(entry.AnnotationStatus == "", "-", string(entry.AnnotationStatus)),
					humanize.Time(entry.UpdatedAt),
					filepath.Base(entry.SourcePath),
					filepath.Base(entry.DestinationRef),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Status", "Annotation", "Updated", "Source", "Notebook"},
				rows, nil,
			))
			return nil
		},
	}

	cmd.Flags().StringSliceVarP(&statusFlags, "status", "s", nil, "Filter by status (repeatable)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	return cmd
}

func newLedgerShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <content-id>",
		Short: "Show one ledger entry (a unique id prefix is enough)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			entry, err := store.FindByPrefix(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if entry == nil {
				return fmt.Errorf("no ledger entry matches %q", args[0])
			}
			writeEntry(cmd.OutOrStdout(), entry)
			return nil
		},
	}
}

func writeEntry(out io.Writer, entry *ledger.Entry) {
	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(out, "%-18s %s\n", label+":", value)
	}
	stamp := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format(time.RFC3339) + " (" + humanize.Time(t) + ")"
	}

	field("Content ID", entry.ContentID)
	field("Status", string(entry.Status))
	field("Source", entry.SourcePath)
	if entry.Fingerprint.Size > 0 || entry.Fingerprint.MtimeNS > 0 {
		field("Source size", humanize.Bytes(uint64(entry.Fingerprint.Size)))
		field("Source mtime", entry.Fingerprint.ModTime().Local().Format(time.RFC3339))
	}
	field("Notebook", entry.DestinationRef)
	field("Archive", entry.ArchiveRef)
	field("Annotation", string(entry.AnnotationStatus))
	field("Attempts", strconv.Itoa(entry.Attempts))
	if entry.Status == ledger.StatusInProgress {
		field("Lease owner", entry.LeaseOwner)
		field("Lease started", stamp(entry.LeaseStartedAt))
	}
	if entry.Status.IsTerminal() {
		field("Completed", stamp(entry.CompletedAt))
	}
	field("Created", stamp(entry.CreatedAt))
	field("Updated", stamp(entry.UpdatedAt))
	if entry.ErrorDetail != "" {
		field("Error", entry.ErrorDetail)
	}
}
