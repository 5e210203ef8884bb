// Copyright © 2021-2025 The Gomon Project.

package serve

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/zosmac/gocore"
	"github.com/zosmac/pidmon/monitor"
	"github.com/zosmac/pidmon/process"
)

type (
	// sampleReport is the JSON encoding of a session's most recent report.
	sampleReport struct {
		Session uuid.UUID       `json:"session"`
		Sample  process.Sample  `json:"sample"`
		Peak    uint64          `json:"peak"`
		Samples int             `json:"samples"`
		Outcome monitor.Outcome `json:"outcome,omitempty"`
	}

	// Server publishes a session's samples as Prometheus metrics and as a websocket stream of
	// table rows.
	Server struct {
		detailed bool
		mux      *http.ServeMux

		mu          sync.RWMutex
		report      monitor.Report
		sampled     bool
		requests    int
		subscribers map[chan string]struct{}
	}
)

// New creates a server for a session, registering its endpoints.
func New(detailed bool) *Server {
	s := &Server{
		detailed:    detailed,
		mux:         http.NewServeMux(),
		subscribers: map[chan string]struct{}{},
	}

	// we don't use the default registry as it adds Go runtime metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(&collector{server: s})
	s.mux.Handle("/metrics", s.count(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	s.mux.Handle("/sample", s.count(s.latest()))
	s.mux.Handle("/ws", s.stream())

	return s
}

// Handler returns the server's request multiplexer.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Observe records a session's progress. It complies with the monitor.Observer type.
func (s *Server) Observe(r monitor.Report) {
	s.mu.Lock()
	s.report = r
	if r.Outcome == "" {
		s.sampled = true
	}
	s.mu.Unlock()

	s.publish(r)
}

// snapshot returns the latest report.
func (s *Server) snapshot() (monitor.Report, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.report, s.sampled
}

// latest writes the session's most recent sample and peak as JSON.
func (s *Server) latest() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		r, ok := s.snapshot()
		if !ok {
			http.Error(w, "no sample yet", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(sampleReport{
			Session: r.Session,
			Sample:  r.Sample,
			Peak:    r.Peak,
			Samples: r.Samples,
			Outcome: r.Outcome,
		}); err != nil {
			gocore.Error("json Encode", err).Warn()
		}
	})
}

// count tallies the requests to a handler.
func (s *Server) count(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests++
		s.mu.Unlock()
		h.ServeHTTP(w, r)
	})
}

// Serve starts listening on localhost at port until the context is cancelled.
func (s *Server) Serve(ctx context.Context, port int) {
	server := &http.Server{
		Addr:    "localhost:" + strconv.Itoa(port),
		Handler: s.mux,
	}

	go func() {
		<-ctx.Done()
		server.Shutdown(context.Background()) // let server perform cleanup with timeout
	}()

	go func() {
		scheme := "http"
		serve := func() error { return server.ListenAndServe() }
		if u, err := user.Current(); err == nil {
			certfile := filepath.Join(u.HomeDir, ".ssh", "cert.pem")
			keyfile := filepath.Join(u.HomeDir, ".ssh", "key.pem")
			if _, err := os.Stat(certfile); err == nil {
				if _, err := os.Stat(keyfile); err == nil {
					scheme = "https"
					serve = func() error { return server.ListenAndServeTLS(certfile, keyfile) }
				}
			}
		}
		gocore.Error("pidmon server", nil, map[string]string{
			"listen": scheme + "://" + server.Addr,
		}).Info()
		if err := serve(); err != nil && err != http.ErrServerClosed {
			gocore.Error("pidmon server", err).Err()
		}
	}()
}
