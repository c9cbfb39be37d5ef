// Package identity carries the authenticated user of a request through
// its context. The auth middleware sets it; handlers read it to decide
// ownership and visibility.
package identity
