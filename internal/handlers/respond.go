// Package handlers exposes the portal over JSON/HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/pliu/newsportal/internal/chat"
	"github.com/pliu/newsportal/internal/comments"
	"github.com/pliu/newsportal/internal/middleware"
	"github.com/pliu/newsportal/internal/news"
	"github.com/pliu/newsportal/internal/session"
	"github.com/rs/zerolog"
)

// NoSessionText answers any action that needs a logged-in user.
const NoSessionText = "Войдите в систему"

var validate = validator.New(validator.WithRequiredStructEnabled())

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decode reads a JSON body into v and validates it.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return badRequest{err}
	}
	if err := validate.Struct(v); err != nil {
		return badRequest{err}
	}
	return nil
}

type badRequest struct{ err error }

func (b badRequest) Error() string { return b.err.Error() }
func (b badRequest) Unwrap() error { return b.err }

// fail maps err to a status code. Unexpected errors are logged.
func fail(w http.ResponseWriter, r *http.Request, log *zerolog.Logger, err error) {
	var br badRequest
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		log.Debug().Err(err).Str("path", r.URL.Path).Msg("request abandoned")
		writeError(w, http.StatusServiceUnavailable, "Запрос прерван")
	case errors.Is(err, session.ErrNoSession):
		writeError(w, http.StatusUnauthorized, NoSessionText)
	case errors.Is(err, chat.ErrEmptyText), errors.Is(err, chat.ErrTextTooLong):
		writeError(w, http.StatusBadRequest, chat.Notice(err))
	case errors.Is(err, comments.ErrEmptyText):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, news.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, news.ErrUnknownSection), errors.As(err, &br):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func profileID(r *http.Request) string {
	id, _ := middleware.ProfileIDFromContext(r.Context())
	return id
}

func intVar(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, badRequest{err}
	}
	return n, nil
}
