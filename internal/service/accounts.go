// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/lumina/internal/auth"
	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/util"
)

// Field limits for account data.
const (
	MinPasswordLength = 8
	MaxNameLength     = 100
	MaxBioLength      = 500
)

// AccountService registers and authenticates users and manages profiles.
type AccountService struct {
	queries *store.Queries
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewAccountService creates an AccountService.
func NewAccountService(db *sql.DB, logger *slog.Logger, timeout time.Duration) *AccountService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultDBTimeout
	}
	return &AccountService{
		queries: store.New(db),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail performs the minimal shape check used across the app.
func ValidEmail(email string) bool {
	at := strings.LastIndex(email, "@")
	return at > 0 && at < len(email)-1 && !strings.ContainsAny(email, " \t\r\n")
}

// RegisterInput carries sign-up fields.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// Register creates a FREE account with a generated avatar.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (model.Viewer, error) {
	name := strings.TrimSpace(in.Name)
	email := NormalizeEmail(in.Email)

	switch {
	case name == "" || email == "" || in.Password == "":
		return model.Viewer{}, fmt.Errorf("%w: name, email and password are required", ErrInvalidInput)
	case !ValidEmail(email):
		return model.Viewer{}, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	case len(in.Password) < MinPasswordLength:
		return model.Viewer{}, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, MinPasswordLength)
	case len([]rune(name)) > MaxNameLength:
		return model.Viewer{}, fmt.Errorf("%w: name is too long", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.queries.GetUserByEmail(ctx, email)
	if err == nil {
		return model.Viewer{}, ErrAlreadyExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.Viewer{}, fmt.Errorf("checking email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return model.Viewer{}, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	u, err := s.queries.CreateUser(ctx, store.CreateUserParams{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Image:        util.NullStringFromValue(model.AvatarURL(email)),
		Plan:         model.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return model.Viewer{}, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user registered", "user_id", u.ID, "category", model.EventCategoryAuth)
	return viewerFromUser(u), nil
}

// Authenticate checks credentials. Imported bcrypt hashes and argon2id hashes
// with older parameters are replaced after a successful check.
func (s *AccountService) Authenticate(ctx context.Context, email, password string) (model.Viewer, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return model.Viewer{}, ErrInvalidCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.queries.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Viewer{}, ErrInvalidCredentials
	}
	if err != nil {
		return model.Viewer{}, fmt.Errorf("loading user: %w", err)
	}

	verdict, err := auth.CheckPassword(password, u.PasswordHash)
	if err != nil {
		s.logger.Warn("stored password hash is unreadable", "user_id", u.ID, "error", err, "category", model.EventCategoryAuth)
		return model.Viewer{}, ErrInvalidCredentials
	}
	if !verdict.Match {
		s.logger.Warn("failed sign-in", "user_id", u.ID, "category", model.EventCategoryAuth)
		return model.Viewer{}, ErrInvalidCredentials
	}

	if verdict.Upgrade {
		if hash, err := auth.HashPassword(password); err == nil {
			if err := s.queries.UpdateUserPassword(ctx, u.ID, hash, s.now().UTC()); err != nil {
				s.logger.Warn("password rehash failed", "user_id", u.ID, "error", err, "category", model.EventCategoryAuth)
			}
		}
	}

	return viewerFromUser(u), nil
}

// Viewer loads the current state of a signed-in user.
func (s *AccountService) Viewer(ctx context.Context, userID string) (model.Viewer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return model.Viewer{}, notFound(err)
	}
	return viewerFromUser(u), nil
}

// ProfileInput carries editable profile fields.
type ProfileInput struct {
	Name  string
	Bio   string
	Image string
}

// UpdateProfile changes the name, bio and image of a user. An empty image
// falls back to the generated avatar.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (model.Viewer, error) {
	name := strings.TrimSpace(in.Name)
	bio := strings.TrimSpace(in.Bio)
	if name == "" {
		return model.Viewer{}, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if len([]rune(name)) > MaxNameLength || len([]rune(bio)) > MaxBioLength {
		return model.Viewer{}, fmt.Errorf("%w: name or bio is too long", ErrInvalidInput)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.queries.UpdateUserProfile(ctx, store.UpdateUserProfileParams{
		ID:        userID,
		Name:      name,
		Bio:       util.NullStringFromValue(bio),
		Image:     util.NullStringFromValue(strings.TrimSpace(in.Image)),
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Viewer{}, notFound(err)
	}
	return viewerFromUser(u), nil
}

// PublicProfile returns a user with their published posts and follower count.
func (s *AccountService) PublicProfile(ctx context.Context, userID string) (model.Profile, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.queries.GetUserByID(ctx, userID)
	if err != nil {
		return model.Profile{}, notFound(err)
	}

	rows, err := s.queries.ListPosts(ctx, store.ListPostsFilter{AuthorID: userID})
	if err != nil {
		return model.Profile{}, fmt.Errorf("listing posts: %w", err)
	}
	followers, err := s.queries.CountFollowers(ctx, userID)
	if err != nil {
		return model.Profile{}, fmt.Errorf("counting followers: %w", err)
	}

	v := viewerFromUser(u)
	v.Email = ""
	return model.Profile{User: v, Followers: followers, Posts: summaries(rows)}, nil
}
