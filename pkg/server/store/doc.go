// Package store defines the storage interfaces consumed by the HTTP
// endpoints. The interfaces speak in domain types (pkg/annotation); the
// gorm subpackage implements them against Postgres.
package store
