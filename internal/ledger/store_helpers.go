package ledger

import (
	"database/sql"
	"time"

	"quill/internal/contentid"
)

type scanner interface {
	Scan(dest ...any) error
}

type nullInt64 struct {
	sql.NullInt64
}

func (n nullInt64) value() int64 {
	if !n.Valid {
		return 0
	}
	return n.Int64
}

func (n nullInt64) asTime() time.Time {
	if !n.Valid {
		return time.Time{}
	}
	return time.Unix(0, n.Int64)
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		entry                  Entry
		leaseStarted, complete nullInt64
		size, mtime            nullInt64
		leaseOwner, source     sql.NullString
		destination, archive   sql.NullString
		annotation, detail     sql.NullString
		created, updated       int64
	)
	if err := row.Scan(
		&entry.ContentID,
		&entry.Status,
		&leaseStarted,
		&leaseOwner,
		&complete,
		&source,
		&size,
		&mtime,
		&destination,
		&archive,
		&annotation,
		&detail,
		&entry.Attempts,
		&created,
		&updated,
	); err != nil {
		return nil, err
	}
	entry.LeaseStartedAt = leaseStarted.asTime()
	entry.LeaseOwner = leaseOwner.String
	entry.CompletedAt = complete.asTime()
	entry.SourcePath = source.String
	entry.Fingerprint = contentid.Fingerprint{Size: size.value(), MtimeNS: mtime.value()}
	entry.DestinationRef = destination.String
	entry.ArchiveRef = archive.String
	entry.AnnotationStatus = AnnotationStatus(annotation.String)
	entry.ErrorDetail = detail.String
	entry.CreatedAt = time.Unix(0, created)
	entry.UpdatedAt = time.Unix(0, updated)
	return &entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableStringPtr(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
