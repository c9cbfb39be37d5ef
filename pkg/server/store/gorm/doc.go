// Package gorm implements the storage interfaces of pkg/server/store
// against Postgres via GORM. It converts between domain annotations and
// their persisted row shapes, writing only the columns a record marked
// dirty on update.
package gorm
