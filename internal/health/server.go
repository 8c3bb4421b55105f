// Package health serves the keep-alive endpoint and Prometheus metrics on a
// small standalone HTTP listener.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"turfbot/pkg/logx"
)

type Config struct {
	// Addr is the listen address, e.g. ":3000". Empty disables the server.
	Addr string
}

type Server struct {
	log     logx.Logger
	srv     *http.Server
	started time.Time
}

func NewServer(cfg Config, reg *prometheus.Registry, log logx.Logger) *Server {
	if cfg.Addr == "" {
		return nil
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{log: log, started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("Bot online e funcional!"))
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "ok",
			"uptime": time.Since(s.started).Round(time.Second).String(),
		})
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Start runs ListenAndServe in the calling goroutine until Stop or failure.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	s.log.Info("health server listening", logx.String("addr", s.srv.Addr))
	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
