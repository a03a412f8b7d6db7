// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/lumina/internal/auth"
)

// Demo account credentials
const (
	DemoAuthorEmail    = "writer@example.com"
	DemoAuthorPassword = "changeme"
	DemoAuthorName     = "Demo Writer"
)

type seedPost struct {
	slug     string
	title    string
	category string
	content  string
	featured bool
	premium  bool
	age      time.Duration
}

var demoPosts = []seedPost{
	{
		slug:     "welcome-to-lumina",
		title:    "Welcome to Lumina",
		category: "Stories",
		content:  "# Welcome\n\nLumina mixes posts from the repository with posts written in the editor.",
		age:      72 * time.Hour,
	},
	{
		slug:     "shipping-small-services",
		title:    "Shipping Small Services",
		category: "Tech",
		content:  "Small services are easy to reason about. Keep the dependency graph shallow.",
		featured: true,
		age:      48 * time.Hour,
	},
	{
		slug:     "a-quiet-week-in-the-city",
		title:    "A Quiet Week in the City",
		category: "Culture",
		content:  "Notes from a week spent walking instead of scrolling.",
		premium:  true,
		age:      24 * time.Hour,
	},
}

// Seed creates a demo author with a few posts. It does nothing when the demo
// author already exists.
func Seed(ctx context.Context, db *sql.DB) error {
	queries := New(db)

	_, err := queries.GetUserByEmail(ctx, DemoAuthorEmail)
	if err == nil {
		slog.Info("demo author already exists, skipping seed")
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("checking for demo author: %w", err)
	}

	passwordHash, err := auth.HashPassword(DemoAuthorPassword)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	now := time.Now().UTC()
	return ExecTx(ctx, db, func(q *Queries) error {
		user, err := q.CreateUser(ctx, CreateUserParams{
			ID:           uuid.NewString(),
			Name:         DemoAuthorName,
			Email:        DemoAuthorEmail,
			PasswordHash: passwordHash,
			Bio:          sql.NullString{String: "Writes the sample posts.", Valid: true},
			IsVerified:   true,
			Plan:         "PRO",
			CreatedAt:    now,
			UpdatedAt:    now,
		})
		if err != nil {
			return fmt.Errorf("creating demo author: %w", err)
		}

		for _, p := range demoPosts {
			at := now.Add(-p.age)
			if _, err := q.CreatePost(ctx, CreatePostParams{
				ID:        uuid.NewString(),
				Slug:      p.slug,
				Title:     p.title,
				Content:   p.content,
				Category:  p.category,
				Published: true,
				Featured:  p.featured,
				IsPremium: p.premium,
				AuthorID:  user.ID,
				CreatedAt: at,
				UpdatedAt: at,
			}); err != nil {
				return fmt.Errorf("creating demo post %q: %w", p.slug, err)
			}
		}

		slog.Info("created demo author",
			"id", user.ID,
			"email", user.Email,
			"posts", len(demoPosts),
		)
		return nil
	})
}
