package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrDuplicateEdge    = errors.New("duplicate edge")
	ErrValidationFailed = errors.New("validation failed")
	ErrMergeConflict    = errors.New("unresolved merge conflict")
	ErrPartialMerge     = errors.New("merge partially applied")
)

// ValidationError carries every violated rule, never just the first.
type ValidationError struct {
	Failures []Failure
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrValidationFailed, strings.Join(e.Messages(), "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

func (e *ValidationError) Messages() []string {
	msgs := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		msgs = append(msgs, f.Message)
	}
	return msgs
}

// MergeConflictError lists duplicates that arrived without a resolution.
type MergeConflictError struct {
	Conflicts []Conflict
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("%s: %d duplicate(s) without a resolution", ErrMergeConflict, len(e.Conflicts))
}

func (e *MergeConflictError) Unwrap() error { return ErrMergeConflict }

// PartialMergeError reports what a merge applied before it stopped.
// Completed steps are not rolled back.
type PartialMergeError struct {
	Summary     *MergeSummary
	FailedIndex int // index into the resolution list, -1 when adding new members failed
	Err         error
}

func (e *PartialMergeError) Error() string {
	applied := 0
	if e.Summary != nil {
		applied = len(e.Summary.Resolutions)
	}
	return fmt.Sprintf("%s: %d resolution(s) applied, failed at %d: %v", ErrPartialMerge, applied, e.FailedIndex, e.Err)
}

func (e *PartialMergeError) Unwrap() []error { return []error{ErrPartialMerge, e.Err} }
