// Package server exposes one Document over a read-only HTTP API.
package server

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/ajitpratap0/csvcols/pkg/columnar"
	"github.com/ajitpratap0/csvcols/pkg/config"
	"github.com/ajitpratap0/csvcols/pkg/csvio"
	"github.com/ajitpratap0/csvcols/pkg/errors"
	"github.com/ajitpratap0/csvcols/pkg/json"
	"github.com/ajitpratap0/csvcols/pkg/metrics"
	"github.com/ajitpratap0/csvcols/pkg/schema"
)

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// ColumnInfo describes one column in GET /columns.
type ColumnInfo struct {
	Name     string      `json:"name"`
	Type     schema.Type `json:"type"`
	Rows     int         `json:"rows"`
	Distinct int         `json:"distinct"`
}

// ColumnsResponse is the body of GET /columns.
type ColumnsResponse struct {
	Source  string       `json:"source,omitempty"`
	Rows    int          `json:"rows"`
	Columns []ColumnInfo `json:"columns"`
}

// ColumnResponse is the body of GET /columns/{name}.
type ColumnResponse struct {
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

// RowsResponse is the body of GET /rows. Each row is an object whose keys
// follow column order.
type RowsResponse struct {
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Total  int               `json:"total"`
	Rows   []json.RawMessage `json:"rows"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// Server serves the current Document. The Document can be replaced while
// the server runs.
type Server struct {
	mu     sync.RWMutex
	doc    *columnar.Document[string]
	source string

	cfg    config.ServerConfig
	csv    []csvio.Option
	infer  *schema.InferenceEngine
	logger *zap.Logger
}

// New creates a server for doc. csvOpts control the CSV written by
// /select.
func New(doc *columnar.Document[string], source string, cfg config.ServerConfig, logger *zap.Logger, csvOpts ...csvio.Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		doc:    doc,
		source: source,
		cfg:    cfg,
		csv:    csvOpts,
		infer:  schema.NewInferenceEngine(logger),
		logger: logger,
	}
}

// SetDocument replaces the served Document.
func (s *Server) SetDocument(doc *columnar.Document[string]) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
}

// Document returns the served Document.
func (s *Server) Document() *columnar.Document[string] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Router builds the HTTP routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.health)
	r.Get("/columns", s.columns)
	r.Get("/columns/{name}", s.column)
	r.Get("/schema", s.schemaInfo)
	r.Get("/rows", s.rows)
	r.Get("/select", s.selectCSV)
	r.Handle("/metrics", metrics.Handler())

	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down within the
// configured timeout.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("address", s.cfg.Address))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return errors.Wrap(err, errors.ErrorTypeConfig, "http server failed").
			WithDetail("address", s.cfg.Address)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	s.logger.Info("http server shutting down")
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (s *Server) columns(w http.ResponseWriter, r *http.Request) {
	doc := s.Document()
	resp := ColumnsResponse{Source: s.source, Rows: doc.NumRows()}
	for name, col := range doc.All() {
		resp.Columns = append(resp.Columns, ColumnInfo{
			Name:     name,
			Type:     s.infer.InferColumn(name, col).Type,
			Rows:     col.Len(),
			Distinct: col.Unique().Len(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) schemaInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.infer.Infer(s.Document()))
}

func (s *Server) column(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if r.URL.RawPath != "" {
		if unescaped, err := url.PathUnescape(name); err == nil {
			name = unescaped
		}
	}

	col, err := s.Document().Get(name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ColumnResponse{Name: name, Values: col.Values()})
}

func (s *Server) rows(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit", s.cfg.DefaultLimit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	limit = min(limit, s.cfg.MaxLimit)

	doc := s.Document()
	names := doc.Names()
	resp := RowsResponse{Offset: offset, Limit: limit, Total: doc.NumRows(), Rows: []json.RawMessage{}}
	start := min(offset, doc.NumRows())
	end := start + min(limit, doc.NumRows()-start)
	for i := start; i < end; i++ {
		row, err := doc.Row(i)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		obj, err := json.AppendObject(nil, names, row.Values())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp.Rows = append(resp.Rows, obj)
	}
	writeJSON(w, http.StatusOK, resp)
}

// selectCSV answers /select?col=a&col=b:renamed with the selection as CSV.
func (s *Server) selectCSV(w http.ResponseWriter, r *http.Request) {
	var specs []any
	for _, c := range r.URL.Query()["col"] {
		if src, dst, ok := strings.Cut(c, ":"); ok {
			specs = append(specs, [2]string{src, dst})
		} else {
			specs = append(specs, c)
		}
	}

	selected, err := s.Document().Select(specs...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := csvio.Dumps(selected, s.csv...)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.Newf(errors.ErrorTypeOutOfRange, "%s must be a non-negative integer, got %q", key, raw).
			WithDetail("parameter", key)
	}
	return n, nil
}

// StatusCode maps an error to an HTTP status by its type.
func StatusCode(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeLookup:
		return http.StatusNotFound
	case errors.ErrorTypeTypeMismatch, errors.ErrorTypeConstruction, errors.ErrorTypeOutOfRange, errors.ErrorTypeConfig:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusCode(err)
	errType := string(errors.TypeOf(err))
	if errType == "" {
		errType = "internal"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Type: errType, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	buf := json.GetBuffer()
	defer json.PutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// NewLoggingMiddleware logs every request except health checks and metrics
// scrapes at debug level.
func NewLoggingMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())))
		})
	}
}
