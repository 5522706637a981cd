package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/nhatem/pollumap/internal/db"
	"github.com/nhatem/pollumap/internal/models"
	"github.com/nhatem/pollumap/internal/session"
)

type Routes struct {
	envConfig *models.EnvConfig
	db        *db.SharedDB
	sessions  *session.Tracker
	logger    zerolog.Logger
}

func NewRouter(envConfig *models.EnvConfig, database *db.SharedDB, logger zerolog.Logger, sessions *session.Tracker) chi.Router {
	routes := &Routes{
		envConfig: envConfig,
		db:        database,
		sessions:  sessions,
		logger:    logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(hlog.NewHandler(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(1 * time.Minute))
	r.Use(routes.SessionCtx)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post("/add_report", routes.AppHandler(routes.PostReport))
	r.Get("/get_reports", routes.AppHandler(routes.GetReports))
	r.Delete("/delete_report/{reportID}", routes.AppHandler(routes.DeleteReport))
	r.Get("/statistics", routes.AppHandler(routes.GetStatistics))

	// Serve stored upload files
	uploadsFileServer := http.FileServer(http.Dir(envConfig.UploadDir))
	r.Get("/static/uploads/*", func(w http.ResponseWriter, r *http.Request) {
		fs := http.StripPrefix("/static/uploads", uploadsFileServer)
		fs.ServeHTTP(w, r)
	})

	return r
}

// AppError is a request failure that knows its HTTP status and the message
// the client should see.
type AppError interface {
	error
	Status() int
	Message() string
}

type ErrBadRequest struct {
	Cause      error
	Motivation string
}

func (e *ErrBadRequest) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Motivation
}
func (e *ErrBadRequest) Status() int { return http.StatusBadRequest }
func (e *ErrBadRequest) Message() string {
	if e.Motivation != "" {
		return e.Motivation
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "bad request"
}

type ErrForbidden struct {
	Motivation string
}

func (e *ErrForbidden) Error() string { return e.Motivation }
func (e *ErrForbidden) Status() int   { return http.StatusForbidden }
func (e *ErrForbidden) Message() string {
	if e.Motivation != "" {
		return e.Motivation
	}
	return "forbidden"
}

type ErrNotFound struct {
	Cause error
	Thing string
}

func (e *ErrNotFound) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message()
}
func (e *ErrNotFound) Status() int     { return http.StatusNotFound }
func (e *ErrNotFound) Message() string { return fmt.Sprintf("%s not found", e.Thing) }

type ErrInternal struct {
	Cause      error
	Motivation string
}

func (e *ErrInternal) Error() string {
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Motivation
}
func (e *ErrInternal) Status() int { return http.StatusInternalServerError }
func (e *ErrInternal) Message() string {
	if e.Motivation != "" && e.Cause != nil {
		return fmt.Sprintf("%s: %s", e.Motivation, e.Cause)
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	if e.Motivation != "" {
		return e.Motivation
	}
	return "internal server error"
}

// AppHandler adapts a handler returning an AppError into an http.HandlerFunc
// that renders the failure as a structured JSON body and logs it. Every
// failure is recovered here; nothing propagates past the request boundary.
func (routes *Routes) AppHandler(handler func(w http.ResponseWriter, r *http.Request) AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := handler(w, r)
		if err == nil {
			return
		}
		hlog.FromRequest(r).
			Error().
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", err.Status()).
			Err(err).
			Msg(err.Message())
		renderJSON(w, err.Status(), map[string]string{"error": err.Message()})
	}
}

func renderJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
