package ledger

import (
	"context"
	"fmt"
	"strings"

	"quill/internal/contentid"
)

// Counts returns the number of entries per status. Every status is present,
// zero when no entry has it.
func (s *Store) Counts(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM ledger_entries GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("ledger counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int, 3)
	for _, status := range Statuses() {
		counts[status] = 0
	}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// SourceSnapshotIndex maps each source path to the fingerprint recorded by
// its most recently completed processed entry.
func (s *Store) SourceSnapshotIndex(ctx context.Context) (map[string]contentid.Fingerprint, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT source_path, source_size, source_mtime_ns
         FROM ledger_entries
         WHERE status = ? AND source_path IS NOT NULL AND source_path <> ''
         ORDER BY completed_at ASC, content_id ASC`,
		StatusProcessed,
	)
	if err != nil {
		return nil, fmt.Errorf("source snapshot index: %w", err)
	}
	defer rows.Close()

	index := make(map[string]contentid.Fingerprint)
	for rows.Next() {
		var (
			path        string
			size, mtime nullInt64
		)
		if err := rows.Scan(&path, &size, &mtime); err != nil {
			return nil, err
		}
		// Later rows complete later; overwrite so the newest wins.
		index[path] = contentid.Fingerprint{Size: size.value(), MtimeNS: mtime.value()}
	}
	return index, rows.Err()
}

// List returns entries filtered by status (all entries when none given),
// most recently updated first. A limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int, statuses ...Status) ([]*Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM ledger_entries`
	args := make([]any, 0, len(statuses)+1)
	if len(statuses) > 0 {
		placeholders := make([]string, len(statuses))
		for i, status := range statuses {
			placeholders[i] = "?"
			args = append(args, status)
		}
		query += ` WHERE status IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY updated_at DESC, content_id ASC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// FindByPrefix resolves an abbreviated content id. It returns nil when nothing
// matches and an error when the prefix is ambiguous.
func (s *Store) FindByPrefix(ctx context.Context, prefix string) (*Entry, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, fmt.Errorf("content id prefix is required")
	}
	if contentid.Valid(prefix) {
		return s.Lookup(ctx, prefix)
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries WHERE substr(content_id, 1, ?) = ? LIMIT 2`,
		len(prefix), prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("find by prefix: %w", err)
	}
	defer rows.Close()

	var matches []*Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("content id prefix %q is ambiguous", prefix)
	}
}
