// Package audit records annotation lifecycle events (create, update,
// delete) as RFC5424 syslog lines, and optionally persists them to a
// messages table when AUDIT_DATABASE_URL is set.
package audit
