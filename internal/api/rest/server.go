package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/logging"
)

// Server represents the REST API server
type Server struct {
	port   string
	server *http.Server
	router *mux.Router
}

// NewServer creates a new REST API server. metrics may be nil.
func NewServer(port string, handler *Handler, jobHandler *JobHandler, metrics http.Handler, logger logrus.FieldLogger) *Server {
	log := logging.Component(logger, "rest")

	router := mux.NewRouter()

	router.Use(RecoveryMiddleware(log))
	router.Use(LoggingMiddleware(log))
	router.Use(CORSMiddleware)

	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/nodes", handler.GetNodes).Methods("GET")

	// status must be registered before the {jobID} pattern
	api.HandleFunc("/jobs", jobHandler.HandleJobRequest).Methods("POST")
	api.HandleFunc("/jobs/status", jobHandler.HandleJobStatus).Methods("GET")
	api.HandleFunc("/jobs/{jobID}", jobHandler.HandleGetJob).Methods("GET")

	return &Server{
		port:   port,
		router: router,
		server: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: router,
		},
	}
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
