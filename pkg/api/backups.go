package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aretw0/notebox/pkg/backup"
	"github.com/aretw0/notebox/pkg/core"
)

func (s *Server) listBackups(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Backups == nil {
		writeError(w, http.StatusNotImplemented, "backups not supported by this storage")
		return
	}
	snaps, err := s.cfg.Backups.List(r.Context())
	if err != nil {
		s.cfg.Logger.Error("failed to list backups", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list backups")
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) createBackup(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Backups == nil {
		writeError(w, http.StatusNotImplemented, "backups not supported by this storage")
		return
	}
	snap, err := s.cfg.Backups.Snapshot(r.Context())
	switch {
	case errors.Is(err, backup.ErrNothingToBackup):
		writeError(w, http.StatusConflict, err.Error())
	case err != nil:
		s.cfg.Logger.Error("failed to create backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create backup")
	default:
		writeJSON(w, http.StatusCreated, snap)
	}
}

// restoreBackup copies a snapshot back and reloads both stores.
func (s *Server) restoreBackup(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Backups == nil {
		writeError(w, http.StatusNotImplemented, "backups not supported by this storage")
		return
	}
	snap, err := s.cfg.Backups.Restore(r.Context(), mux.Vars(r)["backupID"])
	if errors.Is(err, core.ErrNotFound) {
		notFound(w, "backup")
		return
	}
	if err != nil {
		s.cfg.Logger.Error("failed to restore backup", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to restore backup")
		return
	}
	if err := errors.Join(s.cfg.Notes.Reload(r.Context()), s.cfg.Themes.Reload(r.Context())); err != nil {
		s.cfg.Logger.Warn("restored backup but reload failed", "error", err)
	}
	writeJSON(w, http.StatusOK, snap)
}
