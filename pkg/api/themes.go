package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aretw0/notebox/pkg/core"
)

func (s *Server) currentTheme(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Themes.Current())
}

func (s *Server) listThemes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Themes.BuiltinThemes())
}

// applyTheme stores an arbitrary theme, built-in or custom.
func (s *Server) applyTheme(w http.ResponseWriter, r *http.Request) {
	var theme core.AppTheme
	if !decode(w, r, &theme) {
		return
	}
	if theme.ID == "" {
		writeError(w, http.StatusBadRequest, "theme id is required")
		return
	}
	s.cfg.Themes.ApplyTheme(r.Context(), theme)
	writeJSON(w, http.StatusOK, s.cfg.Themes.Current())
}

func (s *Server) applyBuiltin(w http.ResponseWriter, r *http.Request) {
	theme, ok := s.cfg.Themes.ApplyBuiltin(r.Context(), mux.Vars(r)["themeID"])
	if !ok {
		notFound(w, "theme")
		return
	}
	writeJSON(w, http.StatusOK, theme)
}
