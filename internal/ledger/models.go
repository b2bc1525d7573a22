package ledger

import (
	"time"

	"quill/internal/contentid"
)

// Status represents the lifecycle state of a ledger entry.
type Status string

const (
	StatusInProgress Status = "in_progress"
	StatusProcessed  Status = "processed"
	StatusFailed     Status = "failed"
)

// Statuses lists every status in display order.
func Statuses() []Status {
	return []Status{StatusInProgress, StatusProcessed, StatusFailed}
}

// ParseStatus converts a user supplied status name.
func ParseStatus(value string) (Status, bool) {
	for _, status := range Statuses() {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// IsTerminal reports whether the status stamps completed_at.
func (s Status) IsTerminal() bool {
	return s == StatusProcessed || s == StatusFailed
}

// AnnotationStatus records what happened to the referee commentary step.
type AnnotationStatus string

const (
	AnnotationOK          AnnotationStatus = "ok"
	AnnotationUnavailable AnnotationStatus = "unavailable"
	AnnotationDisabled    AnnotationStatus = "disabled"
	AnnotationSkipped     AnnotationStatus = "skipped"
)

// Entry is one row of the ledger. Zero times mean the column is NULL.
type Entry struct {
	ContentID        string
	Status           Status
	LeaseStartedAt   time.Time
	LeaseOwner       string
	CompletedAt      time.Time
	SourcePath       string
	Fingerprint      contentid.Fingerprint
	DestinationRef   string
	ArchiveRef       string
	AnnotationStatus AnnotationStatus
	ErrorDetail      string
	Attempts         int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Commit carries the fields CommitProcessed should write. Nil fields keep
// whatever the entry already stores.
type Commit struct {
	SourcePath       *string
	Fingerprint      *contentid.Fingerprint
	DestinationRef   *string
	ArchiveRef       *string
	AnnotationStatus *AnnotationStatus
}
