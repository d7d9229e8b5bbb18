package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gxianyd/mlir-modifier/pkg/dialect"
	"github.com/gxianyd/mlir-modifier/pkg/history"
	"github.com/gxianyd/mlir-modifier/pkg/ir"
	"github.com/gxianyd/mlir-modifier/pkg/view"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleCreateSession loads a snapshot from the request body and opens a
// fresh session over it.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	snap, err := ir.ReadSnapshot(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess := NewSession(snap, s.ttl)
	if err := s.store.Put(r.Context(), sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.logger.Info("session created", "session", sess.ID, "ops", len(snap.Operations))
	s.respondView(w, r, sess, http.StatusCreated)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r, sess, http.StatusOK)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetView(w http.ResponseWriter, r *http.Request) {
	sess, _, err := s.session(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondView(w, r, sess, http.StatusOK)
}

// handleReplaceSnapshot swaps in a new snapshot from the IR authority.
// The navigation state survives reconciled: dangling path entries and
// group members are dropped and boundaries recomputed.
func (s *Server) handleReplaceSnapshot(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	snap, err := ir.ReadSnapshot(r.Body)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		sess.Snapshot = snap
		sess.State.Reconcile(ir.BuildIndex(snap))
		return nil
	})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.restore(w, r, func(l *history.Log, current []byte) ([]byte, error) {
		return l.Undo(current)
	})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.restore(w, r, func(l *history.Log, current []byte) ([]byte, error) {
		return l.Redo(current)
	})
}

func (s *Server) handleDrillIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OpID string `json:"op_id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.transition(w, r, func(sess *Session, idx *ir.Index) error {
		return sess.State.DrillIn(idx, req.OpID)
	})
}

// handleDrillOut pops one path entry, or truncates to an explicit depth
// when the body carries one.
func (s *Server) handleDrillOut(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Depth int `json:"depth,omitempty"`
	}
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		if req.Depth > 0 {
			sess.State.DrillOutTo(req.Depth)
		} else {
			sess.State.DrillOut()
		}
		return nil
	})
}

func (s *Server) handleHide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		sess.State.HideName(req.Name)
		return nil
	})
}

func (s *Server) handleShow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		sess.State.ShowName(req.Name)
		return nil
	})
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string   `json:"name"`
		Members []string `json:"members"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.transition(w, r, func(sess *Session, idx *ir.Index) error {
		_, err := sess.State.CreateGroup(idx, req.Name, req.Members)
		return err
	})
}

func (s *Server) handleSetGroupMode(w http.ResponseWriter, r *http.Request) {
	gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid group id: %w", err))
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	mode := view.GroupCollapsed
	switch req.Mode {
	case "collapsed":
	case "expanded":
		mode = view.GroupExpanded
	default:
		s.writeError(w, fmt.Errorf("invalid mode: %q (must be collapsed or expanded)", req.Mode))
		return
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		return sess.State.SetGroupMode(gid, mode)
	})
}

func (s *Server) handleUngroup(w http.ResponseWriter, r *http.Request) {
	gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid group id: %w", err))
		return
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		return sess.State.Ungroup(gid)
	})
}

func (s *Server) handleEnterDrillGroup(w http.ResponseWriter, r *http.Request) {
	gid, err := strconv.Atoi(chi.URLParam(r, "gid"))
	if err != nil {
		s.writeError(w, fmt.Errorf("invalid group id: %w", err))
		return
	}
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		return sess.State.EnterDrillGroup(gid)
	})
}

func (s *Server) handleExitDrillGroup(w http.ResponseWriter, r *http.Request) {
	s.transition(w, r, func(sess *Session, _ *ir.Index) error {
		sess.State.ExitDrillGroup()
		return nil
	})
}

func (s *Server) handleListDialects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.Dialects())
}

func (s *Server) handleListOps(w http.ResponseWriter, r *http.Request) {
	ops := s.registry.Ops(chi.URLParam(r, "name"))
	if ops == nil {
		ops = []dialect.Definition{}
	}
	s.writeJSON(w, http.StatusOK, ops)
}

func (s *Server) handleOpSignature(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	sig, ok := s.registry.Signature(name)
	if !ok {
		s.writeJSON(w, http.StatusNotFound, errorResponse{
			Error: fmt.Sprintf("no signature for op: %s", name),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, sig)
}
