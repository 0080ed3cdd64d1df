package internalhttp

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"

	"github.com/pohangsanhak/calendar/internal/app"
	log "github.com/sirupsen/logrus"
)

//go:embed web/index.html
var webFiles embed.FS

type Config struct {
	Host string
	Port int
}

type Server struct {
	srv  *http.Server
	addr string
}

func NewServer(config Config, a *app.App) *Server {
	addr := net.JoinHostPort(config.Host, strconv.Itoa(config.Port))
	return &Server{
		addr: addr,
		srv:  &http.Server{Addr: addr, Handler: NewHandler(a)},
	}
}

// NewHandler builds the full route table with logging applied.
func NewHandler(a *app.App) http.Handler {
	h := &handlers{app: a}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/events", h.listEvents)
	mux.HandleFunc("POST /api/events", h.createEvents)
	mux.HandleFunc("PUT /api/events/{id}", h.updateEvent)
	mux.HandleFunc("DELETE /api/events/{id}", h.deleteEvent)
	mux.HandleFunc("GET /api/businesses", h.listBusinesses)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /{$}", h.index)

	return loggingMiddleware(mux)
}

func (s *Server) Start(_ context.Context) error {
	log.Printf("starting http server on %s", s.addr)
	err := s.srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
