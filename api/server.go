// Package api serves stored reports, distinct values and queries over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spektr-org/canvas/engine"
	"github.com/spektr-org/canvas/model"
	"github.com/spektr-org/canvas/query"
	"github.com/spektr-org/canvas/store"
)

// ============================================================================
// ROUTES
// ============================================================================
//   GET    /api/dashboards             list
//   POST   /api/dashboards             create {name, document?}
//   GET    /api/dashboards/{id}        get
//   PUT    /api/dashboards/{id}        save document
//   POST   /api/dashboards/{id}/rename {name}
//   POST   /api/dashboards/{id}/copy   {name}
//   DELETE /api/dashboards/{id}        delete
//   GET    /api/distinct               ?table=&column=&search=
//   POST   /api/query                  {descriptor}
// ============================================================================

// Repository is the report persistence the server exposes.
type Repository interface {
	List(ctx context.Context) ([]store.Summary, error)
	Get(ctx context.Context, id string) (store.Dashboard, error)
	Create(ctx context.Context, name string, seed *model.Document) (store.Dashboard, error)
	Save(ctx context.Context, id string, doc model.Document) error
	Rename(ctx context.Context, id, name string) error
	Copy(ctx context.Context, id, name string) (store.Dashboard, error)
	Delete(ctx context.Context, id string) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger routes request logging to l.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

// WithQueryService serves POST /api/query.
func WithQueryService(q query.Service) Option {
	return func(s *Server) { s.query = q }
}

// WithDistinctValues serves GET /api/distinct.
func WithDistinctValues(d query.DistinctValues) Option {
	return func(s *Server) { s.distinct = d }
}

// Server is the HTTP surface.
type Server struct {
	router   *chi.Mux
	repo     Repository
	query    query.Service
	distinct query.DistinctValues
	log      *slog.Logger
}

// New builds a server over repo. A nil repo disables the dashboard routes.
func New(repo Repository, opts ...Option) *Server {
	s := &Server{
		router: chi.NewRouter(),
		repo:   repo,
		log:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.setupRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.logRequests)

	s.router.Route("/api", func(r chi.Router) {
		if s.repo != nil {
			r.Get("/dashboards", s.handleList)
			r.Post("/dashboards", s.handleCreate)
			r.Get("/dashboards/{id}", s.handleGet)
			r.Put("/dashboards/{id}", s.handleSave)
			r.Post("/dashboards/{id}/rename", s.handleRename)
			r.Post("/dashboards/{id}/copy", s.handleCopy)
			r.Delete("/dashboards/{id}", s.handleDelete)
		}
		if s.distinct != nil {
			r.Get("/distinct", s.handleDistinct)
		}
		if s.query != nil {
			r.Post("/query", s.handleQuery)
		}
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request", middleware.GetReqID(r.Context()))
	})
}

// ============================================================================
// DASHBOARDS
// ============================================================================

type nameRequest struct {
	Name     string          `json:"name"`
	Document *model.Document `json:"document,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context())
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := s.repo.Create(r.Context(), req.Name, req.Document)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.repo.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var doc model.Document
	if err := json.NewDecoder(r.Body).Decode(&doc); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid document")
		return
	}
	if err := s.repo.Save(r.Context(), chi.URLParam(r, "id"), doc); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.repo.Rename(r.Context(), chi.URLParam(r, "id"), req.Name); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCopy(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}
	d, err := s.repo.Copy(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNameTaken):
		writeMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrInvalidName):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		s.log.Error("store failure", "err", err)
		writeMessage(w, http.StatusInternalServerError, "internal error")
	}
}

// ============================================================================
// DATA
// ============================================================================

func (s *Server) handleDistinct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	table, column := q.Get("table"), q.Get("column")
	if table == "" || column == "" {
		writeMessage(w, http.StatusBadRequest, "table and column are required")
		return
	}
	values, err := s.distinct.Distinct(r.Context(), table, column, q.Get("search"))
	if err != nil {
		writeMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	values = engine.SeedOptions(values)
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"values": values})
}

type queryRequest struct {
	Descriptor engine.Descriptor `json:"descriptor"`
}

type queryResponse struct {
	Columns []string            `json:"columns"`
	Data    []map[string]string `json:"data"`
	Query   string              `json:"query"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid descriptor")
		return
	}
	res, err := s.query.Fetch(r.Context(), req.Descriptor)
	if err != nil {
		body := map[string]string{"message": err.Error()}
		var qerr *query.QueryServiceError
		if errors.As(err, &qerr) {
			body["message"], body["query"] = qerr.Message, qerr.Query
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	out := queryResponse{Columns: res.Keys, Data: make([]map[string]string, len(res.Rows)), Query: res.Query}
	for i, row := range res.Rows {
		out.Data[i] = row.Dimensions
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
