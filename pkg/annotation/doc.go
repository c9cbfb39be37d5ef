// Package annotation defines the annotation record: a user-authored note
// anchored to a location within a web document, with tags, group
// publication, reply threading and soft deletion.
//
// Two field pairs are derived: text_rendered is always the sanitized HTML
// rendering of text, and target_uri_normalized is always the canonical form
// of target_uri. The pairs are kept in sync by computing the derived value
// inside the mutator that sets the source field; the backing fields are
// unexported so no caller can write a derived field directly.
//
// Mutators record which columns they touched. The store reads the dirty set
// via Changes to decide what to persist, instead of diffing whole records.
package annotation
