package simplecms

import (
	"errors"
	"fmt"
)

// Error types
var (
	// ErrSnapshotNotFound is returned by a SnapshotStore when no value exists for a name
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrRecordNotFound indicates a record id is not present in a collection
	ErrRecordNotFound = errors.New("record not found")

	// ErrDuplicateID indicates a record id appears more than once
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrCategoryNotFound indicates a referenced category does not exist
	ErrCategoryNotFound = errors.New("category not found")

	// ErrTooManySections indicates a selection would exceed MaxSectionTypes
	ErrTooManySections = errors.New("too many section types")

	// ErrInvalidSectionType indicates an unknown section type
	ErrInvalidSectionType = errors.New("invalid section type")

	// ErrSectionInactive indicates items were set for a section type that is not selected
	ErrSectionInactive = errors.New("section type not active")

	// ErrInvalidKind indicates an unknown category kind
	ErrInvalidKind = errors.New("invalid kind")

	// ErrUnknownDocument indicates a settings document name that is not registered
	ErrUnknownDocument = errors.New("unknown settings document")

	// ErrUnsupportedSchema indicates a stored value newer than this build understands
	ErrUnsupportedSchema = errors.New("unsupported schema version")

	// ErrValidation indicates a record failed validation
	ErrValidation = errors.New("validation failed")
)

// TooManySectionsError is returned when a section type update is rejected by the cap.
type TooManySectionsError struct {
	Requested []SectionType
	Max       int
}

func (e *TooManySectionsError) Error() string {
	return fmt.Sprintf("%d section types requested, at most %d allowed", len(e.Requested), e.Max)
}

func (e *TooManySectionsError) Unwrap() error {
	return ErrTooManySections
}

// CollectionError represents an error related to a named snapshot
type CollectionError struct {
	Name string
	Op   string
	Err  error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collection operation %s failed for %s: %v", e.Op, e.Name, e.Err)
}

func (e *CollectionError) Unwrap() error {
	return e.Err
}

// ValidationError names the field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
