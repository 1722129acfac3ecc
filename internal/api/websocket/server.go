package websocket

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/scoretree/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Server exposes the record feed over websockets.
type Server struct {
	server *http.Server
	hub    *Hub
	log    logrus.FieldLogger
}

// NewServer creates a websocket server around hub.
func NewServer(hub *Hub, logger logrus.FieldLogger) *Server {
	return &Server{
		hub: hub,
		log: logging.Component(logger, "websocket"),
	}
}

// Handler returns the websocket routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws/records", s.handleRecords)
	mux.HandleFunc("/ws/health", s.handleHealth)
	return mux
}

// Start listens on port until Shutdown. The hub must already be running.
func (s *Server) Start(port string) error {
	s.server = &http.Server{
		Addr:    fmt.Sprintf(":%s", port),
		Handler: s.Handler(),
	}

	s.log.WithField("port", port).Info("websocket server listening")
	return s.server.ListenAndServe()
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.WithError(err).Warn("failed to upgrade connection")
		return
	}

	client := &Client{
		hub:  s.hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	select {
	case s.hub.register <- client:
	case <-s.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status": "healthy", "clients": %d}`, s.hub.ClientCount())
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
