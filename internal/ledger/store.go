package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"quill/internal/contentid"
)

const entryColumns = `content_id, status, lease_started_at, lease_owner, completed_at,
    source_path, source_size, source_mtime_ns, destination_ref, archive_ref,
    annotation_status, error_detail, attempts, created_at, updated_at`

// ErrLeaseLost reports a commit from a worker that no longer holds the
// entry's lease: it expired and another worker took it over, or the entry
// was already committed. The stored row is left unchanged.
var ErrLeaseLost = errors.New("lease no longer held")

// Lookup returns the entry for id, or nil when the ledger has never seen it.
func (s *Store) Lookup(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE content_id = ?`, id)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup entry: %w", err)
	}
	return entry, nil
}

// IsProcessed reports whether id has a processed entry.
func (s *Store) IsProcessed(ctx context.Context, id string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM ledger_entries WHERE content_id = ? AND status = ?`,
		id, StatusProcessed,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check processed: %w", err)
	}
	return count > 0, nil
}

// AcquireLease claims id for processing and reports whether this call now
// holds the lease. A new id is always claimable. An existing entry is claimed
// only when force is set, when it failed, or when it is in progress under a
// lease older than the store's TTL. A processed entry is never reclaimed
// without force. The check and the write are one statement, so two racing
// callers cannot both win.
func (s *Store) AcquireLease(ctx context.Context, id, sourcePath string, fp contentid.Fingerprint, force bool) (bool, error) {
	if strings.TrimSpace(id) == "" {
		return false, errors.New("acquire lease: content id is required")
	}
	now := s.now()
	nowNS := now.UnixNano()
	cutoff := now.Add(-s.leaseTTL).UnixNano()

	res, err := s.execWithRetry(ctx,
		`INSERT INTO ledger_entries (
            content_id, status, lease_started_at, lease_owner, completed_at,
            source_path, source_size, source_mtime_ns, attempts, created_at, updated_at
        ) VALUES (?, ?, ?, ?, NULL, ?, ?, ?, 1, ?, ?)
        ON CONFLICT(content_id) DO UPDATE SET
            status = excluded.status,
            lease_started_at = excluded.lease_started_at,
            lease_owner = excluded.lease_owner,
            completed_at = NULL,
            error_detail = NULL,
            source_path = excluded.source_path,
            source_size = excluded.source_size,
            source_mtime_ns = excluded.source_mtime_ns,
            attempts = ledger_entries.attempts + 1,
            updated_at = excluded.updated_at
        WHERE ? = 1
           OR ledger_entries.status = ?
           OR (ledger_entries.status = ? AND (ledger_entries.lease_started_at IS NULL OR ledger_entries.lease_started_at < ?))`,
		id, StatusInProgress, nowNS, s.owner,
		sourcePath, fp.Size, fp.MtimeNS, nowNS, nowNS,
		boolToInt(force),
		StatusFailed,
		StatusInProgress, cutoff,
	)
	if err != nil {
		return false, fmt.Errorf("acquire lease: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("acquire lease rows affected: %w", err)
	}
	return affected > 0, nil
}

// LeaseExpired reports whether a worker may treat id's lease as abandoned:
// true when there is no entry, the entry is not in progress, or its lease is
// older than ttl.
func (s *Store) LeaseExpired(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	entry, err := s.Lookup(ctx, id)
	if err != nil {
		return false, err
	}
	if entry == nil || entry.Status != StatusInProgress {
		return true, nil
	}
	if entry.LeaseStartedAt.IsZero() {
		return true, nil
	}
	return s.now().Sub(entry.LeaseStartedAt) > ttl, nil
}

// CommitProcessed marks id processed, stamps completed_at and clears the lease
// and any earlier error. Fields left nil in commit keep their stored values.
// A missing entry is created. An existing entry is only updated while it is
// in progress under this handle's lease; otherwise ErrLeaseLost is returned.
func (s *Store) CommitProcessed(ctx context.Context, id string, commit Commit) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("commit processed: content id is required")
	}
	nowNS := s.now().UnixNano()

	var size, mtime any
	if commit.Fingerprint != nil {
		size, mtime = commit.Fingerprint.Size, commit.Fingerprint.MtimeNS
	}
	var annotation any
	if commit.AnnotationStatus != nil {
		annotation = string(*commit.AnnotationStatus)
	}

	res, err := s.execWithRetry(ctx,
		`INSERT INTO ledger_entries (
            content_id, status, lease_started_at, lease_owner, completed_at,
            source_path, source_size, source_mtime_ns, destination_ref, archive_ref,
            annotation_status, error_detail, attempts, created_at, updated_at
        ) VALUES (?, ?, NULL, NULL, ?, ?, ?, ?, ?, ?, ?, NULL, 1, ?, ?)
        ON CONFLICT(content_id) DO UPDATE SET
            status = excluded.status,
            lease_started_at = NULL,
            lease_owner = NULL,
            completed_at = excluded.completed_at,
            source_path = COALESCE(excluded.source_path, ledger_entries.source_path),
            source_size = COALESCE(excluded.source_size, ledger_entries.source_size),
            source_mtime_ns = COALESCE(excluded.source_mtime_ns, ledger_entries.source_mtime_ns),
            destination_ref = COALESCE(excluded.destination_ref, ledger_entries.destination_ref),
            archive_ref = COALESCE(excluded.archive_ref, ledger_entries.archive_ref),
            annotation_status = COALESCE(excluded.annotation_status, ledger_entries.annotation_status),
            error_detail = NULL,
            updated_at = excluded.updated_at
        WHERE ledger_entries.status = ? AND ledger_entries.lease_owner = ?`,
		id, StatusProcessed, nowNS,
		nullableStringPtr(commit.SourcePath), size, mtime,
		nullableStringPtr(commit.DestinationRef), nullableStringPtr(commit.ArchiveRef),
		annotation, nowNS, nowNS,
		StatusInProgress, s.owner,
	)
	if err != nil {
		return fmt.Errorf("commit processed: %w", err)
	}
	return requireRow(res, "commit processed", id)
}

// CommitFailed marks id failed with detail, stamps completed_at and clears the
// lease. Like CommitProcessed it requires this handle's live lease on an
// existing entry, so a stale worker cannot demote a processed entry.
func (s *Store) CommitFailed(ctx context.Context, id, detail string) error {
	if strings.TrimSpace(id) == "" {
		return errors.New("commit failed: content id is required")
	}
	nowNS := s.now().UnixNano()
	res, err := s.execWithRetry(ctx,
		`INSERT INTO ledger_entries (
            content_id, status, lease_started_at, lease_owner, completed_at,
            error_detail, attempts, created_at, updated_at
        ) VALUES (?, ?, NULL, NULL, ?, ?, 1, ?, ?)
        ON CONFLICT(content_id) DO UPDATE SET
            status = excluded.status,
            lease_started_at = NULL,
            lease_owner = NULL,
            completed_at = excluded.completed_at,
            error_detail = excluded.error_detail,
            updated_at = excluded.updated_at
        WHERE ledger_entries.status = ? AND ledger_entries.lease_owner = ?`,
		id, StatusFailed, nowNS, nullableString(detail), nowNS, nowNS,
		StatusInProgress, s.owner,
	)
	if err != nil {
		return fmt.Errorf("commit failed: %w", err)
	}
	return requireRow(res, "commit failed", id)
}

// UpdateAnnotation records a new annotation status on a processed entry
// without touching anything else. It reports whether such an entry exists.
func (s *Store) UpdateAnnotation(ctx context.Context, id string, status AnnotationStatus) (bool, error) {
	res, err := s.execWithRetry(ctx,
		`UPDATE ledger_entries SET annotation_status = ?, updated_at = ?
        WHERE content_id = ? AND status = ?`,
		string(status), s.now().UnixNano(), id, StatusProcessed,
	)
	if err != nil {
		return false, fmt.Errorf("update annotation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update annotation rows affected: %w", err)
	}
	return affected > 0, nil
}

func requireRow(res sql.Result, op, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s %s: %w", op, contentid.Short(id), ErrLeaseLost)
	}
	return nil
}
