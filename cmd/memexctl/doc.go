// Package main implements memexctl, the CLI for the memex annotation service.
//
// Memex stores annotations on web documents: a passage of markdown text
// anchored to a target URI, with tags, group visibility and reply threads.
//
// # Architecture
//
// The service is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/store: storage interfaces and GORM implementations
//   - pkg/annotation: the annotation domain type and its derived fields
//   - pkg/markdown: markdown rendering and HTML sanitization
//   - pkg/uri: URI normalization
//   - pkg/model: database models
//   - pkg/db: database connection utilities and migrations
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
// The server is run via the memexctl CLI:
//
//	# Run database migrations
//	memexctl db migrate
//
//	# Start the server
//	export MEMEX_JWT_SECRET=some-long-random-string
//	memexctl server
//
//	# Issue an API token for a user
//	memexctl token acct:alice@example.com
package main
