package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/gxianyd/mlir-modifier/pkg/dialect"
	"github.com/gxianyd/mlir-modifier/pkg/history"
	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/pipeline"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

// Server wires session storage, the view pipeline and the dialect
// registry into an HTTP handler.
type Server struct {
	store    Store
	runner   *pipeline.Runner
	registry *dialect.Registry
	logger   *log.Logger
	ttl      time.Duration
}

// Config carries the server's collaborators. Zero-value fields fall back
// to sensible defaults: an in-memory store, an uncached runner, the
// built-in dialect registry and the default logger.
type Config struct {
	Store      Store
	Runner     *pipeline.Runner
	Registry   *dialect.Registry
	Logger     *log.Logger
	SessionTTL time.Duration
}

// New creates a server from the config.
func New(cfg Config) *Server {
	if cfg.Store == nil {
		cfg.Store = NewMemStore()
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Registry == nil {
		cfg.Registry = dialect.Builtin()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultTTL
	}
	return &Server{
		store:    cfg.Store,
		runner:   cfg.Runner,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		ttl:      cfg.SessionTTL,
	}
}

// Router builds the HTTP routing table.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)

	r.Post("/sessions", s.handleCreateSession)
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Get("/", s.handleGetSession)
		r.Delete("/", s.handleDeleteSession)
		r.Get("/view", s.handleGetView)
		r.Put("/snapshot", s.handleReplaceSnapshot)

		r.Post("/undo", s.handleUndo)
		r.Post("/redo", s.handleRedo)

		r.Post("/drill-in", s.handleDrillIn)
		r.Post("/drill-out", s.handleDrillOut)
		r.Post("/hide", s.handleHide)
		r.Post("/show", s.handleShow)

		r.Post("/groups", s.handleCreateGroup)
		r.Patch("/groups/{gid}", s.handleSetGroupMode)
		r.Delete("/groups/{gid}", s.handleUngroup)
		r.Post("/groups/{gid}/drill", s.handleEnterDrillGroup)
		r.Delete("/drill", s.handleExitDrillGroup)
	})

	r.Get("/dialects", s.handleListDialects)
	r.Get("/dialects/{name}/ops", s.handleListOps)
	r.Get("/ops/{name}/signature", s.handleOpSignature)

	return r
}

// ViewResponse is the payload returned after every session read or
// transition: the fresh view graph plus the state it was built from.
type ViewResponse struct {
	SessionID string      `json:"session_id"`
	State     *view.State `json:"state"`
	Graph     view.Graph  `json:"graph"`
	CanUndo   bool        `json:"can_undo"`
	CanRedo   bool        `json:"can_redo"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encode response", "err", err)
	}
}

// writeError maps domain errors onto HTTP statuses: unknown references
// are 404, gone sessions 410, everything else a client error.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, view.ErrUnknownOp),
		errors.Is(err, view.ErrUnknownGroup):
		status = http.StatusNotFound
	case errors.Is(err, ErrSessionExpired):
		status = http.StatusGone
	case errors.Is(err, view.ErrGroupOverlap):
		status = http.StatusConflict
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

// session loads the request's session and its rebuilt index.
func (s *Server) session(r *http.Request) (*Session, *ir.Index, error) {
	sess, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, nil, err
	}
	return sess, ir.BuildIndex(sess.Snapshot), nil
}

// respondView builds the current view and writes the standard response.
func (s *Server) respondView(w http.ResponseWriter, r *http.Request, sess *Session, status int) {
	idx, err := pipeline.NewIndexed(sess.Snapshot)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g, err := s.runner.BuildView(r.Context(), idx, sess.State, pipeline.Options{})
	if err != nil {
		s.writeError(w, err)
		return
	}
	hist := sess.History()
	s.writeJSON(w, status, ViewResponse{
		SessionID: sess.ID,
		State:     sess.State,
		Graph:     g,
		CanUndo:   hist.CanUndo(),
		CanRedo:   hist.CanRedo(),
	})
}

// transition runs a state mutation for the request's session: the state
// before the mutation is recorded for undo, the session is persisted,
// and the fresh view is returned.
func (s *Server) transition(w http.ResponseWriter, r *http.Request, apply func(sess *Session, idx *ir.Index) error) {
	sess, idx, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	before, err := json.Marshal(sess.State)
	if err != nil {
		s.writeError(w, err)
		return
	}

	if err := apply(sess, idx); err != nil {
		s.writeError(w, err)
		return
	}

	hist := sess.History()
	if err := hist.Record(before); err != nil {
		s.writeError(w, err)
		return
	}
	sess.SaveHistory(hist)
	sess.Touch()

	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r, sess, http.StatusOK)
}

// restore applies an undo or redo step and persists the outcome.
func (s *Server) restore(w http.ResponseWriter, r *http.Request, step func(l *history.Log, current []byte) ([]byte, error)) {
	sess, idx, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	current, err := json.Marshal(sess.State)
	if err != nil {
		s.writeError(w, err)
		return
	}

	hist := sess.History()
	data, err := step(hist, current)
	if err != nil {
		s.writeError(w, err)
		return
	}

	restored := new(view.State)
	if err := json.Unmarshal(data, restored); err != nil {
		s.writeError(w, err)
		return
	}
	if restored.Hidden == nil {
		restored.Hidden = make(map[string]bool)
	}
	restored.Reconcile(idx)

	sess.State = restored
	sess.SaveHistory(hist)
	sess.Touch()

	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r, sess, http.StatusOK)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
