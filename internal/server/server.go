package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/reportindex/internal/render"
	"github.com/hyperifyio/reportindex/internal/report"
)

// RecordSource produces the current records. It is called on every request.
type RecordSource interface {
	Records(ctx context.Context) ([]report.Record, error)
}

// RecordSourceFunc adapts a function to RecordSource.
type RecordSourceFunc func(ctx context.Context) ([]report.Record, error)

func (f RecordSourceFunc) Records(ctx context.Context) ([]report.Record, error) { return f(ctx) }

// Options configures the HTTP surface.
type Options struct {
	Addr string
	// IndexPath is served at /reports.html when set.
	IndexPath string
	// PDFDir is served under /pdfs/ when set.
	PDFDir         string
	AllowedOrigins []string
	// Logger defaults to the global zerolog logger.
	Logger *zerolog.Logger
}

// Server serves the index page, the flat PDF directory and the records API.
type Server struct {
	opts   Options
	source RecordSource
	srv    *http.Server
}

// New builds a Server. source must not be nil.
func New(opts Options, source RecordSource) *Server {
	s := &Server{opts: opts, source: source}
	s.srv = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
	}
	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	logger := log.Logger
	if s.opts.Logger != nil {
		logger = *s.opts.Logger
	}
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)
	origins := s.opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/reports", s.listReports)
	r.Get("/reports.html", s.serveIndex)
	if dir := strings.TrimSpace(s.opts.PDFDir); dir != "" {
		fs := http.StripPrefix(report.AssetPrefix, http.FileServer(http.Dir(dir)))
		r.Handle(report.AssetPrefix+"*", fs)
	}
	return r
}

func (s *Server) listReports(w http.ResponseWriter, r *http.Request) {
	tag := strings.TrimSpace(r.URL.Query().Get("type"))
	typ, ok := report.LookupType(tag)
	if tag != "" && !ok {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown report type %q", tag)})
		return
	}
	recs, err := s.source.Records(r.Context())
	if err != nil {
		hlog.FromRequest(r).Error().Err(err).Msg("load records")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	if tag != "" {
		recs = report.Filter(recs, typ)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := render.JSON(w, recs); err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("write records")
	}
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if s.opts.IndexPath == "" {
		http.NotFound(w, r)
		return
	}
	if _, err := os.Stat(s.opts.IndexPath); err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	http.ServeFile(w, r, s.opts.IndexPath)
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("listening")
		errCh <- s.srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down")
	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
