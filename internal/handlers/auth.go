package handlers

import (
	"net/http"

	"github.com/pliu/newsportal/internal/models"
	"github.com/pliu/newsportal/internal/session"
	"github.com/rs/zerolog"
)

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthHandler struct {
	Sessions *session.Service
	Log      *zerolog.Logger
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var creds Credentials
	if err := decode(r, &creds); err != nil {
		fail(w, r, h.Log, err)
		return
	}

	user, err := h.Sessions.Login(r.Context(), profileID(r), creds.Email, creds.Password)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decode(r, &req); err != nil {
		fail(w, r, h.Log, err)
		return
	}

	user, err := h.Sessions.Register(r.Context(), profileID(r), req.Name, req.Email, req.Password)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Logout(r.Context(), profileID(r)); err != nil {
		fail(w, r, h.Log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user, err := h.Sessions.Current(r.Context(), profileID(r))
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd models.ProfileUpdate
	if err := decode(r, &upd); err != nil {
		fail(w, r, h.Log, err)
		return
	}

	user, err := h.Sessions.UpdateProfile(r.Context(), profileID(r), upd)
	if err != nil {
		fail(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
