// Package types defines custom column types shared by the models and stores.
//
// The main type is ID: annotations are keyed by UUIDs in Postgres but are
// addressed over the API by a URL-safe Base64 token. ID converts between
// the two transparently via sql.Scanner/driver.Valuer and encoding.TextMarshaler.
package types
