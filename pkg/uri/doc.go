// Package uri canonicalizes the addresses of annotated documents.
//
// Clients supply target URIs in whatever spelling they happen to have, so
// the raw value is kept verbatim and a normalized form is derived from it
// for equality and lookup across variants.
package uri
