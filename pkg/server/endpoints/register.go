package endpoints

import (
	"github.com/memexhq/memex/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterAnnotationsEndpoints(srv)
	RegisterStatusEndpoints(srv)
}
