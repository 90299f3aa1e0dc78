// Package server exposes the admin controller over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/roach88/adminpanel/internal/admin"
	"github.com/roach88/adminpanel/internal/apperr"
)

// Handler serves one admin request. *admin.Controller implements it.
type Handler interface {
	Handle(ctx context.Context, req *admin.Request) (*admin.Response, error)
}

// Config holds server configuration.
type Config struct {
	Addr       string
	Controller Handler
	Config     admin.Resolver
	Logger     *slog.Logger
}

// View is the JSON rendering of a template response.
type View struct {
	View     string         `json:"view"`
	Template string         `json:"template"`
	Params   map[string]any `json:"params,omitempty"`
}

type server struct {
	ctrl   Handler
	config admin.Resolver
	logger *slog.Logger
}

// NewRouter registers the admin routes.
func NewRouter(cfg Config) http.Handler {
	s := &server{ctrl: cfg.Controller, config: cfg.Config, logger: cfg.Logger}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/admin", func(r chi.Router) {
		r.Get("/", s.handleAdmin)
		r.Post("/", s.handleAdmin)
		r.Delete("/", s.handleAdmin)
		r.Get("/theme.css", s.handleTheme)
	})
	return r
}

// Run serves until ctx is cancelled.
func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", "error", err)
		}
	}()

	logger.Info("starting server", "addr", cfg.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) handleAdmin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return
	}

	method := r.Method
	// HTML forms cannot send DELETE.
	if method == http.MethodPost && strings.EqualFold(r.PostForm.Get("_method"), http.MethodDelete) {
		method = http.MethodDelete
	}

	res, err := s.ctrl.Handle(r.Context(), &admin.Request{
		Method: method,
		Query:  r.URL.Query(),
		Form:   r.PostForm,
		XHR:    r.Header.Get("X-Requested-With") == "XMLHttpRequest",
	})
	if err != nil {
		s.writeAppError(w, err)
		return
	}

	switch {
	case res.IsRedirect():
		http.Redirect(w, r, res.Location, res.Status)
	case res.JSON != nil:
		writeJSON(w, res.Status, res.JSON)
	case res.View == "" && res.Template == "":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(res.Status)
		_, _ = w.Write([]byte(res.Body))
	default:
		writeJSON(w, res.Status, View{View: res.View, Template: res.Template, Params: res.Params})
	}
}

func (s *server) handleTheme(w http.ResponseWriter, r *http.Request) {
	tree, err := s.config.Resolve(r.Context())
	if err != nil {
		s.writeAppError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	_, _ = w.Write([]byte(tree.Internal.CustomCSS))
}

func (s *server) writeAppError(w http.ResponseWriter, err error) {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		s.logger.Error("admin request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}
	status := apperr.HTTPStatus(ae.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("admin request failed", "code", ae.Code, "error", err)
	}
	writeError(w, status, string(ae.Code), ae.Message)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}
