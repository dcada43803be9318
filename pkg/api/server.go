// Package api exposes the stores over HTTP as JSON.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/aretw0/notebox/pkg/backup"
	"github.com/aretw0/notebox/pkg/calendar"
	"github.com/aretw0/notebox/pkg/store"
)

// maxBodyBytes bounds request bodies; notes may carry images.
const maxBodyBytes = 32 << 20

// Config lists the collaborators served by the API.
type Config struct {
	Notes    *store.Notes
	Themes   *store.Themes
	Calendar calendar.Service // optional
	Backups  *backup.Manager  // optional
	Location *time.Location   // day boundaries for ?day=, defaults to time.Local
	Logger   *slog.Logger
}

// Server routes /api requests to the stores.
type Server struct {
	cfg    Config
	router *mux.Router
}

// New builds the router.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	s := &Server{cfg: cfg, router: mux.NewRouter()}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)

	api.HandleFunc("/health", s.health).Methods(http.MethodGet)
	api.HandleFunc("/state", s.state).Methods(http.MethodGet)

	buckets := api.PathPrefix("/buckets").Subrouter()
	buckets.HandleFunc("", s.listBuckets).Methods(http.MethodGet)
	buckets.HandleFunc("", s.addBucket).Methods(http.MethodPost)
	buckets.HandleFunc("/{bucketID}", s.getBucket).Methods(http.MethodGet)
	buckets.HandleFunc("/{bucketID}", s.deleteBucket).Methods(http.MethodDelete)

	buckets.HandleFunc("/{bucketID}/categories", s.addCategory).Methods(http.MethodPost)
	buckets.HandleFunc("/{bucketID}/categories/{categoryID}", s.getCategory).Methods(http.MethodGet)
	buckets.HandleFunc("/{bucketID}/categories/{categoryID}", s.deleteCategory).Methods(http.MethodDelete)
	buckets.HandleFunc("/{bucketID}/categories/{categoryID}/color", s.updateColor).Methods(http.MethodPut)

	notes := buckets.PathPrefix("/{bucketID}/categories/{categoryID}/notes").Subrouter()
	notes.HandleFunc("", s.addNote).Methods(http.MethodPost)
	notes.HandleFunc("/{noteID}", s.getNote).Methods(http.MethodGet)
	notes.HandleFunc("/{noteID}", s.updateNote).Methods(http.MethodPut)
	notes.HandleFunc("/{noteID}", s.deleteNote).Methods(http.MethodDelete)
	notes.HandleFunc("/{noteID}/image", s.updateNoteImage).Methods(http.MethodPut)

	api.HandleFunc("/notes/related", s.relatedNotes).Methods(http.MethodGet)

	api.HandleFunc("/theme", s.currentTheme).Methods(http.MethodGet)
	api.HandleFunc("/theme", s.applyTheme).Methods(http.MethodPut)
	api.HandleFunc("/themes", s.listThemes).Methods(http.MethodGet)
	api.HandleFunc("/themes/{themeID}/apply", s.applyBuiltin).Methods(http.MethodPost)

	api.HandleFunc("/calendar/events", s.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/calendar/events", s.addEvent).Methods(http.MethodPost)

	api.HandleFunc("/backups", s.listBackups).Methods(http.MethodGet)
	api.HandleFunc("/backups", s.createBackup).Methods(http.MethodPost)
	api.HandleFunc("/backups/{backupID}/restore", s.restoreBackup).Methods(http.MethodPost)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.cfg.Logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "OK"})
}

func (s *Server) state(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"notes":  s.cfg.Notes.State(),
		"themes": s.cfg.Themes.State(),
	})
}

// --- helpers ---

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

func notFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, what+" not found")
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}
