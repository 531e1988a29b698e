// Package api serves studio sessions to the web client as JSON over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"lumidecor/internal/intake"
	"lumidecor/internal/session"
	"lumidecor/internal/studio"
)

type Options struct {
	Sessions       *session.Store
	Metrics        http.Handler
	Logger         *slog.Logger
	AllowedOrigins []string
	// MaxUploadBytes limits a single image.
	MaxUploadBytes int64
}

type server struct {
	sessions  *session.Store
	logger    *slog.Logger
	maxUpload int64
}

type apiError struct {
	Error string `json:"error"`
}

// maxFilesPerUpload bounds a multipart request body to this many images.
const maxFilesPerUpload = 10

func NewRouter(opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = intake.DefaultLimit
	}

	s := &server{
		sessions:  opts.Sessions,
		logger:    logger,
		maxUpload: maxUpload,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(withLogging(logger))
	r.Use(middleware.Recoverer)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route("/api", func(api chi.Router) {
		api.Get("/styles", s.handleStyles)
		api.Post("/sessions", s.handleCreateSession)

		api.Route("/sessions/{id}", func(sr chi.Router) {
			sr.Use(s.loadSession)

			sr.Get("/", s.handleGetSession)
			sr.Delete("/", s.handleDeleteSession)
			sr.Put("/mode", s.handleSetMode)
			sr.Put("/input-type", s.handleSetInputType)
			sr.Put("/style", s.handleSelectStyle)

			sr.Post("/attachments", s.handleAddAttachments)
			sr.Delete("/attachments/{attachmentID}", s.handleRemoveAttachment)

			sr.Post("/messages", s.handleSubmit)
			sr.Post("/messages/{messageID}/style", s.handlePickStyle)
			sr.Post("/messages/{messageID}/compare", s.handleCompare)

			sr.Post("/overlay", s.handleOpenOverlay)
			sr.Patch("/overlay", s.handleUpdateOverlay)
			sr.Delete("/overlay", s.handleCloseOverlay)
			sr.Post("/overlay/edit", s.handleEdit)
			sr.Post("/overlay/products", s.handleRequestProducts)
		})
	})

	return r
}

func withLogging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("http",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"dur_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}

func decodeJSON(r *http.Request, v any) error {
	return jsonDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func jsonDecoder(r io.Reader) *json.Decoder {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec
}

// statusFor maps engine and intake errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, studio.ErrGenerating), errors.Is(err, studio.ErrNoOverlay):
		return http.StatusConflict
	case errors.Is(err, studio.ErrUnknownMessage), errors.Is(err, studio.ErrIndexOutOfRange):
		return http.StatusNotFound
	case errors.Is(err, intake.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, intake.ErrNotImage):
		return http.StatusUnsupportedMediaType
	default:
		return http.StatusBadRequest
	}
}
