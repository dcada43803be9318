package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/aretw0/notebox/pkg/core"
)

type nameRequest struct {
	Name string `json:"name"`
}

type colorRequest struct {
	ColorTag string `json:"colorTag"`
}

type imageRequest struct {
	ImageData []byte `json:"imageData"`
}

func (s *Server) listBuckets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cfg.Notes.Buckets())
}

func (s *Server) addBucket(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusCreated, s.cfg.Notes.AddBucket(r.Context(), req.Name))
}

func (s *Server) getBucket(w http.ResponseWriter, r *http.Request) {
	b, ok := s.cfg.Notes.Bucket(mux.Vars(r)["bucketID"])
	if !ok {
		notFound(w, "bucket")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) deleteBucket(w http.ResponseWriter, r *http.Request) {
	s.cfg.Notes.DeleteBucket(r.Context(), mux.Vars(r)["bucketID"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) addCategory(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	c, ok := s.cfg.Notes.AddCategory(r.Context(), mux.Vars(r)["bucketID"], req.Name)
	if !ok {
		notFound(w, "bucket")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) getCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	c, ok := s.cfg.Notes.Category(vars["bucketID"], vars["categoryID"])
	if !ok {
		notFound(w, "category")
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.cfg.Notes.DeleteCategory(r.Context(), vars["bucketID"], vars["categoryID"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateColor(w http.ResponseWriter, r *http.Request) {
	var req colorRequest
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	if !s.cfg.Notes.UpdateCategoryColorTag(r.Context(), vars["bucketID"], vars["categoryID"], req.ColorTag) {
		notFound(w, "category")
		return
	}
	c, _ := s.cfg.Notes.Category(vars["bucketID"], vars["categoryID"])
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req core.NoteFields
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	n, ok := s.cfg.Notes.AddNote(r.Context(), vars["bucketID"], vars["categoryID"], req)
	if !ok {
		notFound(w, "category")
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, ok := s.cfg.Notes.Note(vars["bucketID"], vars["categoryID"], vars["noteID"])
	if !ok {
		notFound(w, "note")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request) {
	var req core.NoteFields
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	n, ok := s.cfg.Notes.UpdateNote(r.Context(), vars["bucketID"], vars["categoryID"], vars["noteID"], req)
	if !ok {
		notFound(w, "note")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) updateNoteImage(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if !decode(w, r, &req) {
		return
	}
	vars := mux.Vars(r)
	n, ok := s.cfg.Notes.UpdateNoteImage(r.Context(), vars["bucketID"], vars["categoryID"], vars["noteID"], req.ImageData)
	if !ok {
		notFound(w, "note")
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	s.cfg.Notes.DeleteNote(r.Context(), vars["bucketID"], vars["categoryID"], vars["noteID"])
	w.WriteHeader(http.StatusNoContent)
}

// relatedNotes lists notes created in [start, end) (RFC 3339 query params).
func (s *Server) relatedNotes(w http.ResponseWriter, r *http.Request) {
	start, end, ok := s.parseRange(w, r)
	if !ok {
		return
	}
	refs := s.cfg.Notes.NotesCreatedBetween(start, end)
	if refs == nil {
		refs = []core.NoteRef{}
	}
	writeJSON(w, http.StatusOK, refs)
}

// parseRange reads ?start=&end= (RFC 3339) or ?day=YYYY-MM-DD.
func (s *Server) parseRange(w http.ResponseWriter, r *http.Request) (time.Time, time.Time, bool) {
	q := r.URL.Query()
	if day := q.Get("day"); day != "" {
		t, err := time.ParseInLocation(time.DateOnly, day, s.cfg.Location)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid day: "+err.Error())
			return time.Time{}, time.Time{}, false
		}
		return t, t.AddDate(0, 0, 1), true
	}

	start, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start: "+err.Error())
		return time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end: "+err.Error())
		return time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end before start")
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}
