package api

import (
	"errors"
	"net/http"

	"github.com/aretw0/notebox/pkg/calendar"
)

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Calendar == nil {
		writeError(w, http.StatusNotImplemented, "calendar not configured")
		return
	}
	start, end, ok := s.parseRange(w, r)
	if !ok {
		return
	}
	events, err := s.cfg.Calendar.EventsBetween(r.Context(), start, end)
	if err != nil {
		s.cfg.Logger.Error("failed to list events", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) addEvent(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Calendar == nil {
		writeError(w, http.StatusNotImplemented, "calendar not configured")
		return
	}
	var in calendar.EventInput
	if !decode(w, r, &in) {
		return
	}
	ev, err := s.cfg.Calendar.AddEvent(r.Context(), in)
	switch {
	case errors.Is(err, calendar.ErrInvalidEvent):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.cfg.Logger.Error("failed to add event", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add event")
	default:
		writeJSON(w, http.StatusCreated, ev)
	}
}
