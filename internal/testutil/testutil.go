// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers for Lumina.
package testutil

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"

	_ "github.com/mattn/go-sqlite3"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a test logger that only outputs errors.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDB creates a temporary SQLite database with all migrations applied.
// Returns the database and a cleanup function that should be deferred.
func TestDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "lumina-test.db")

	db, err := store.NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := store.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() {
		_ = db.Close()
	}
}

// TestMemoryDB creates an in-memory SQLite database through the cgo driver.
// The pool is pinned to one connection so every query sees the same database.
func TestMemoryDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// UserOpts overrides fixture defaults for CreateUser.
type UserOpts struct {
	Name       string
	Email      string
	Image      string
	Bio        string
	Plan       string
	IsVerified bool
	Password   string // stored verbatim as the hash when set
}

// CreateUser inserts a user and fails the test on error.
func CreateUser(t *testing.T, db *sql.DB, opts UserOpts) store.User {
	t.Helper()

	id := uuid.NewString()
	if opts.Name == "" {
		opts.Name = "Writer " + id[:8]
	}
	if opts.Email == "" {
		opts.Email = id[:8] + "@example.com"
	}
	if opts.Plan == "" {
		opts.Plan = model.PlanFree
	}
	if opts.Password == "" {
		opts.Password = "x"
	}

	now := time.Now().UTC()
	u, err := store.New(db).CreateUser(context.Background(), store.CreateUserParams{
		ID:           id,
		Name:         opts.Name,
		Email:        opts.Email,
		PasswordHash: opts.Password,
		Image:        sql.NullString{String: opts.Image, Valid: opts.Image != ""},
		Bio:          sql.NullString{String: opts.Bio, Valid: opts.Bio != ""},
		IsVerified:   opts.IsVerified,
		Plan:         opts.Plan,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

// PostOpts overrides fixture defaults for CreatePost.
type PostOpts struct {
	Slug       string
	Title      string
	Content    string
	Category   string
	CoverImage string
	Draft      bool
	Featured   bool
	IsPremium  bool
	CreatedAt  time.Time
}

// CreatePost inserts a post for authorID and fails the test on error.
func CreatePost(t *testing.T, db *sql.DB, authorID string, opts PostOpts) store.Post {
	t.Helper()

	id := uuid.NewString()
	if opts.Slug == "" {
		opts.Slug = "post-" + id[:8]
	}
	if opts.Title == "" {
		opts.Title = "Post " + id[:8]
	}
	if opts.Content == "" {
		opts.Content = "Some words about something."
	}
	if opts.Category == "" {
		opts.Category = model.DefaultCategory
	}
	if opts.CreatedAt.IsZero() {
		opts.CreatedAt = time.Now().UTC()
	}

	p, err := store.New(db).CreatePost(context.Background(), store.CreatePostParams{
		ID:         id,
		Slug:       opts.Slug,
		Title:      opts.Title,
		Content:    opts.Content,
		Category:   opts.Category,
		CoverImage: sql.NullString{String: opts.CoverImage, Valid: opts.CoverImage != ""},
		Published:  !opts.Draft,
		Featured:   opts.Featured,
		IsPremium:  opts.IsPremium,
		AuthorID:   authorID,
		CreatedAt:  opts.CreatedAt.UTC(),
		UpdatedAt:  opts.CreatedAt.UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return p
}

// WriteStaticPost writes a static post file into dir.
func WriteStaticPost(t *testing.T, dir, slug, frontMatter, body string) {
	t.Helper()
	src := "---\n" + frontMatter + "\n---\n" + body
	if err := os.WriteFile(filepath.Join(dir, slug+".mdx"), []byte(src), 0o644); err != nil {
		t.Fatalf("writing static post: %v", err)
	}
}
