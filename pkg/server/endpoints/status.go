package endpoints

import (
	"net/http"
	"os"

	"gorm.io/gorm"

	"github.com/memexhq/memex/pkg/server"
)

// StatusResponse represents the response from the status endpoint
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterStatusEndpoints registers the status endpoint (no auth required)
func RegisterStatusEndpoints(s *server.Server) {
	s.Router.HandleFunc("/", handleStatus(s.DB)).Methods("GET")
}

func handleStatus(db *gorm.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("MEMEX_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}

		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Ping()
		}
		if err != nil {
			respondWithJSON(w, http.StatusServiceUnavailable, StatusResponse{
				Status:  "database connectivity check failed",
				Version: version,
			})
			return
		}

		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "ok",
			Version: version,
		})
	}
}
