// Package server serves the generated book over HTTP for interactive
// preview, with SSE live reload and Prometheus metrics.
package server

import (
	"context"
	stdErrors "errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/bookforge/bookforge/internal/config"
	berrors "github.com/bookforge/bookforge/internal/errors"
	"github.com/bookforge/bookforge/internal/metrics"
)

// HTTPServer serves the output directory plus the preview endpoints.
type HTTPServer struct {
	cfg        *config.Config
	srv        *http.Server
	liveReload *LiveReloadHub
	registry   *prom.Registry
	addr       string
}

// NewHTTPServer creates the preview server. The registry may be nil when
// metrics exposure is not wanted.
func NewHTTPServer(cfg *config.Config, hub *LiveReloadHub, registry *prom.Registry) *HTTPServer {
	if hub == nil {
		hub = NewLiveReloadHub(nil)
	}
	return &HTTPServer{cfg: cfg, liveReload: hub, registry: registry}
}

// Hub returns the live-reload hub so rebuild paths can broadcast.
func (s *HTTPServer) Hub() *LiveReloadHub {
	return s.liveReload
}

// Addr returns the bound address, valid after Start.
func (s *HTTPServer) Addr() string {
	return s.addr
}

// Start binds the configured port and serves in the background.
func (s *HTTPServer) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.cfg.Output.Directory)))
	mux.Handle("/livereload", s.liveReload)
	mux.HandleFunc("/healthz", s.handleHealthz)
	if s.registry != nil {
		mux.Handle("/metrics", metrics.HTTPHandler(s.registry))
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Serve.Port))
	if err != nil {
		return berrors.ServerError("failed to bind preview port", err).
			WithContext("port", s.cfg.Serve.Port)
	}
	s.addr = ln.Addr().String()

	s.srv = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			slog.Error("Preview server error", "error", err)
		}
	}()

	slog.Info("Preview server listening",
		"port", s.cfg.Serve.Port,
		"dir", s.cfg.Output.Directory,
		"url", fmt.Sprintf("http://localhost:%d", s.cfg.Serve.Port))
	return nil
}

// Stop shuts the server down gracefully, disconnecting preview clients first.
func (s *HTTPServer) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.liveReload.Close()
	return s.srv.Shutdown(ctx)
}

func (s *HTTPServer) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"status":"ok","clients":%d}`+"\n", s.liveReload.ClientCount())
}
