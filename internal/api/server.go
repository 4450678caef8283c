package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/autoscribe/internal/metrics"
)

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

type ServerInfo struct {
	Model    string
	Provider string
}

func NewServer(addr string, live LiveData, info ServerInfo, version string, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware
	r.Use(RequestID)
	r.Use(Recoverer)
	r.Use(Logger(log))
	r.Use(metrics.InstrumentHandler)

	health := NewHealthHandler(live, version, startTime)
	r.Get("/healthz", health.ServeHTTP)

	r.Get("/status", func(w http.ResponseWriter, _ *http.Request) {
		resp := StatusResponse{
			Watcher:   live.WatcherStatus(),
			InFlight:  live.InFlight(),
			Processed: live.Processed(),
			Failed:    live.Failed(),
			Model:     info.Model,
			Provider:  info.Provider,
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	})

	r.Handle("/metrics", promhttp.Handler())

	return &Server{
		http: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
