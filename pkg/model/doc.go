// Package model defines the database models for memex.
//
// This package contains GORM row structs that map to the Postgres schema.
// The schema itself is owned by the SQL migrations under db/migrations; the
// gorm tags here mirror it for query building, they do not create it.
//
// # Core Models
//
//   - Annotation: one user-authored note on a document
//   - Document: one annotated web document
//   - DocumentURI: a URI under which a document has been seen
//
// # Database Schema
//
//   - annotation: uuid primary key, text[] tags (GIN indexed), jsonb
//     selectors/extra, uuid[] reply references, btree indexes on userid,
//     groupid and updated
//   - document: serial primary key
//   - document_uri: document URI claims, indexed by normalized URI
package model
