package server

import (
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"gorm.io/gorm"

	"github.com/memexhq/memex/pkg/config"
	"github.com/memexhq/memex/pkg/server/middleware"
	"github.com/memexhq/memex/pkg/server/store"
	gormstore "github.com/memexhq/memex/pkg/server/store/gorm"
)

type Server struct {
	Router *mux.Router
	DB     *gorm.DB
	Config *config.MemexConfig
	Auth   *middleware.TokenAuthenticator

	AnnotationsStore store.AnnotationsStore
	DocumentsStore   store.DocumentsStore

	srv *http.Server
}

func NewServer(
	db *gorm.DB,
	cfg *config.MemexConfig,
	tokenSecret []byte,
	host string,
	port string,
) *Server {

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Good practice: enforce timeouts for servers you create!
		WriteTimeout: 15 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router:           router,
		DB:               db,
		Config:           cfg,
		Auth:             middleware.NewTokenAuthenticator(tokenSecret),
		AnnotationsStore: gormstore.NewAnnotationsStore(db),
		DocumentsStore:   gormstore.NewDocumentsStore(db),
		srv:              srv,
	}
}

func (s Server) Start() error {
	return s.srv.ListenAndServe()
}
