package pipeline

import (
	"fmt"

	"quill/internal/ledger"
)

// State is the last step a file reached.
type State string

const (
	StateHashed      State = "hashed"
	StateLeased      State = "leased"
	StateTransformed State = "transformed"
	StateRouted      State = "routed"
	StateAppended    State = "appended"
	StateAnnotated   State = "annotated"
	StateArchived    State = "archived"
	StateDone        State = "done"
	StateSkipped     State = "skipped"
	StateFailed      State = "failed"
)

// SkipReason explains why a file was not processed.
type SkipReason string

const (
	SkipVanished         SkipReason = "vanished"
	SkipAlreadyProcessed SkipReason = "already_processed"
	SkipLeaseHeld        SkipReason = "lease_held"
	SkipLeaseLost        SkipReason = "lease_lost"
)

// Outcome summarizes one Process call.
type Outcome struct {
	SourcePath       string
	ContentID        string
	State            State
	SkipReason       SkipReason
	Topic            string
	Mode             string
	Destination      string
	Archive          string
	AnnotationStatus ledger.AnnotationStatus
	// Duplicate is set when the notebook already held this recording's
	// marker and no new section was written.
	Duplicate bool
	// FailedAt is the last step reached before delivery failed.
	FailedAt State
}

// Skipped reports whether the file was left alone.
func (o Outcome) Skipped() bool {
	return o.State == StateSkipped
}

// TransformError reports that speech-to-text failed for a file. The ledger
// entry has already been marked failed when this is returned.
type TransformError struct {
	SourcePath string
	ContentID  string
	Err        error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transcribe %s: %v", e.SourcePath, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}
