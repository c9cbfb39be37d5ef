package store

import (
	"errors"

	"github.com/memexhq/memex/pkg/annotation"
	"github.com/memexhq/memex/pkg/types"
)

// ErrNotFound is returned when no annotation exists with the requested id.
var ErrNotFound = errors.New("annotation not found")

// SearchQuery holds the optional filters of an annotation search. Zero
// values mean "no filter". URI may be given in any spelling; the store
// matches against its normalized form.
type SearchQuery struct {
	UserID     string
	GroupID    string
	Tag        string
	URI        string
	DocumentID int64

	// Viewer is the userid the results are shown to. Searches return
	// shared annotations plus the viewer's own private ones; with no
	// viewer, only shared annotations.
	Viewer string

	// IncludeDeleted also returns soft-deleted records. Listings exclude
	// them by default; they stay fetchable by id regardless.
	IncludeDeleted bool

	Limit  int
	Offset int
}

// AnnotationsStore abstracts annotation storage operations
type AnnotationsStore interface {
	// CreateAnnotation inserts a new annotation, assigning its id and
	// timestamps when the caller supplied none.
	CreateAnnotation(a *annotation.Annotation) error

	// FetchAnnotation retrieves a single annotation by id, including
	// soft-deleted records. Returns ErrNotFound when no row exists.
	FetchAnnotation(id types.ID) (*annotation.Annotation, error)

	// UpdateAnnotation persists the annotation's pending changes and
	// refreshes its updated timestamp.
	UpdateAnnotation(a *annotation.Annotation) error

	// SoftDeleteAnnotation marks an annotation deleted without removing
	// the row. Returns ErrNotFound when no row exists.
	SoftDeleteAnnotation(id types.ID) error

	// SearchAnnotations returns annotations matching the query, most
	// recently updated first.
	SearchAnnotations(q SearchQuery) ([]*annotation.Annotation, error)

	// CountAnnotations returns the number of annotations matching the query.
	CountAnnotations(q SearchQuery) (int64, error)
}
