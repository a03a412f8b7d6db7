// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lumina/internal/middleware"
	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/service"
	"github.com/olegiv/lumina/internal/session"
)

// AccountService is the account operations used by AccountsHandler.
type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (model.Viewer, error)
	Authenticate(ctx context.Context, email, password string) (model.Viewer, error)
	UpdateProfile(ctx context.Context, userID string, in service.ProfileInput) (model.Viewer, error)
	PublicProfile(ctx context.Context, userID string) (model.Profile, error)
}

// LoginGuard tracks failed sign-ins per account.
type LoginGuard interface {
	IsAccountLocked(email string) (bool, time.Duration)
	RecordFailedAttempt(email string) (bool, time.Duration)
	RecordSuccessfulLogin(email string)
}

// AccountsHandler serves registration, sign-in and profiles.
type AccountsHandler struct {
	accounts AccountService
	sm       *scs.SessionManager
	guard    LoginGuard
}

// NewAccountsHandler creates a new AccountsHandler.
func NewAccountsHandler(accounts AccountService, sm *scs.SessionManager, guard LoginGuard) *AccountsHandler {
	return &AccountsHandler{
		accounts: accounts,
		sm:       sm,
		guard:    guard,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register handles POST /api/register.
func (h *AccountsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.accounts.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if errors.Is(err, service.ErrAlreadyExists) {
		middleware.WriteAPIError(w, http.StatusConflict, "conflict", "An account with this email already exists", nil)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignIn handles POST /api/signin. Repeated failures lock the account for
// a growing period.
func (h *AccountsHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if locked, remaining := h.guard.IsAccountLocked(req.Email); locked {
		middleware.WriteLocked(w, remaining)
		return
	}

	v, err := h.accounts.Authenticate(r.Context(), req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		if locked, lockFor := h.guard.RecordFailedAttempt(req.Email); locked {
			middleware.WriteLocked(w, lockFor)
			return
		}
		writeServiceError(w, r, err)
		return
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.guard.RecordSuccessfulLogin(req.Email)
	if err := session.SignIn(r.Context(), h.sm, v.ID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	slog.Info("user signed in", "user_id", v.ID, "category", model.EventCategoryAuth)
	writeJSON(w, http.StatusOK, v)
}

// SignOut handles POST /api/signout.
func (h *AccountsHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := session.SignOut(r.Context(), h.sm); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/session. User is null for anonymous callers.
func (h *AccountsHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]*model.Viewer{"user": middleware.GetViewer(r)})
}

// Profile handles GET /api/profile.
func (h *AccountsHandler) Profile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, middleware.GetViewer(r))
}

type profileRequest struct {
	Name  string `json:"name"`
	Bio   string `json:"bio"`
	Image string `json:"image"`
}

// UpdateProfile handles PUT /api/profile.
func (h *AccountsHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	v, err := h.accounts.UpdateProfile(r.Context(), middleware.ViewerID(r), service.ProfileInput{
		Name:  req.Name,
		Bio:   req.Bio,
		Image: req.Image,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

// PublicProfile handles GET /api/profile/{id}.
func (h *AccountsHandler) PublicProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.accounts.PublicProfile(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}
