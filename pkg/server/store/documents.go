package store

// Document represents an annotated web document with its metadata
type Document struct {
	ID     int64
	Title  string
	WebURI string
}

// DocumentsStore abstracts document storage operations
type DocumentsStore interface {
	// FindOrCreateDocumentByURI returns the document claimed by the given
	// URI (in any spelling), creating it when none exists yet.
	FindOrCreateDocumentByURI(rawURI string) (*Document, error)

	// FetchDocument retrieves a single document by id. Returns ErrNotFound
	// when no row exists.
	FetchDocument(id int64) (*Document, error)
}
