package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aryan0dhankhar/natours/internal/domain"
	"github.com/aryan0dhankhar/natours/internal/security/auth"
	"github.com/aryan0dhankhar/natours/internal/views"
)

const genericMessage = "Something went wrong!"

// Errors is the single place failures become responses. API paths get JSON;
// everything else gets the error page.
type Errors struct {
	production bool
	views      *views.Renderer
	logger     *slog.Logger
}

func NewErrors(production bool, renderer *views.Renderer, logger *slog.Logger) *Errors {
	if logger == nil {
		logger = slog.Default()
	}
	return &Errors{production: production, views: renderer, logger: logger}
}

// normalize turns any error into an AppError. Unclassified errors become
// non-operational internal errors.
func normalize(err error) *domain.AppError {
	var appErr *domain.AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return bodyError(err).(*domain.AppError)
	}
	return &domain.AppError{
		Kind:    domain.KindInternal,
		Message: err.Error(),
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Write renders err for the request.
func (e *Errors) Write(w http.ResponseWriter, r *http.Request, err error) {
	e.write(w, r, err, strings.HasPrefix(r.URL.Path, "/api"))
}

// WriteJSON renders err as JSON whatever the path.
func (e *Errors) WriteJSON(w http.ResponseWriter, r *http.Request, err error) {
	e.write(w, r, err, true)
}

func (e *Errors) write(w http.ResponseWriter, r *http.Request, err error, api bool) {
	appErr := normalize(err)

	if appErr.Status >= 500 || !appErr.Operational {
		e.logger.Error("request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("kind", string(appErr.Kind)),
			slog.String("error", err.Error()),
		)
	}

	if api {
		e.writeAPI(w, appErr, err)
		return
	}
	e.writePage(w, r, appErr)
}

func (e *Errors) writeAPI(w http.ResponseWriter, appErr *domain.AppError, err error) {
	if !e.production {
		writeJSON(w, appErr.Status, map[string]any{
			"status":  appErr.StatusLabel(),
			"message": appErr.Message,
			"error": map[string]any{
				"kind":          appErr.Kind,
				"statusCode":    appErr.Status,
				"isOperational": appErr.Operational,
			},
			"stack": errorChain(err),
		})
		return
	}
	if appErr.Operational {
		writeJSON(w, appErr.Status, map[string]any{"status": appErr.StatusLabel(), "message": appErr.Message})
		return
	}
	writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "error", "message": genericMessage})
}

func (e *Errors) writePage(w http.ResponseWriter, r *http.Request, appErr *domain.AppError) {
	msg := appErr.Message
	if e.production && !appErr.Operational {
		msg = "Please try again later."
	}
	if e.views == nil {
		http.Error(w, msg, appErr.Status)
		return
	}
	e.views.Render(w, appErr.Status, views.PageError, views.Page{
		Title:   genericMessage,
		User:    auth.PrincipalFrom(r.Context()),
		Message: msg,
	})
}

// NotFound answers unknown routes.
func (e *Errors) NotFound(w http.ResponseWriter, r *http.Request) {
	e.Write(w, r, domain.NotFound(fmt.Sprintf("Can't find %s on this server!", r.URL.String())))
}

// MethodNotAllowed answers known routes hit with the wrong method.
func (e *Errors) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	e.Write(w, r, domain.Errorf(domain.KindValidation, "Method %s is not allowed on %s", r.Method, r.URL.Path).
		WithStatus(http.StatusMethodNotAllowed))
}

// errorChain lists the messages of every wrapped error, outermost first.
func errorChain(err error) []string {
	var out []string
	for err != nil {
		out = append(out, err.Error())
		err = errors.Unwrap(err)
	}
	return out
}
