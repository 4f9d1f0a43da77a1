package simplecms

import (
	"context"
)

// SnapshotStore is the key-value boundary: each name holds one JSON value.
type SnapshotStore interface {
	// Get returns the stored bytes, or ErrSnapshotNotFound when absent
	Get(ctx context.Context, name string) ([]byte, error)

	// Put overwrites any prior value at name
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes the value at name; deleting a missing name is not an error
	Delete(ctx context.Context, name string) error

	// List returns the stored names that start with prefix, sorted
	List(ctx context.Context, prefix string) ([]string, error)
}

// EventSink receives notifications after successful writes
type EventSink interface {
	// CollectionSaved is fired after a whole collection is written
	CollectionSaved(ctx context.Context, name string, count int) error

	// MembershipCommitted is fired after a reconciler commit
	MembershipCommitted(ctx context.Context, collection string, result CommitResult) error

	// RelatedSaved is fired after a related-content selection is persisted
	RelatedSaved(ctx context.Context, name string, selection RelatedContentSelection) error
}

// CandidateSource supplies the read-only item pools for the related-content selector
type CandidateSource interface {
	Candidates(t SectionType) []Candidate
}
