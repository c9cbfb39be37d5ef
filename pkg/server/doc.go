// Package server wires the HTTP server: a gorilla/mux router behind a
// request-logging handler, the storage implementations, and the token
// authenticator. Endpoint registration lives in the endpoints subpackage.
package server
