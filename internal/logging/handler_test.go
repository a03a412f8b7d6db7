// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package logging

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/testutil"
)

// discardHandler is a slog.Handler that discards all logs.
type discardHandler struct{}

func (h discardHandler) Enabled(context.Context, slog.Level) bool  { return true }
func (h discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return h }
func (h discardHandler) WithGroup(string) slog.Handler             { return h }

func listEvents(t *testing.T, q *store.Queries) []store.Event {
	t.Helper()
	events, err := q.ListEvents(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	return events
}

func TestEventLogHandler_RecordsWarnAndError(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("database unavailable, serving static posts only", "error", "connection refused")
	logger.Error("sending welcome mail failed", "email", "a@b.c")

	events := listEvents(t, store.New(db))
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}

	levels := map[string]string{}
	for _, e := range events {
		levels[e.Message] = e.Level
	}
	if levels["database unavailable, serving static posts only"] != model.EventLevelWarning {
		t.Errorf("warn level = %q", levels["database unavailable, serving static posts only"])
	}
	if levels["sending welcome mail failed"] != model.EventLevelError {
		t.Errorf("error level = %q", levels["sending welcome mail failed"])
	}
}

func TestEventLogHandler_IgnoresInfoAndDebug(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Info("server started", "port", 8080)
	logger.Debug("request", "id", "abc")

	if events := listEvents(t, store.New(db)); len(events) != 0 {
		t.Errorf("expected 0 events, got %d", len(events))
	}
}

func TestEventLogHandler_CustomLevel(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandlerWithLevel(discardHandler{}, db, slog.LevelInfo))
	logger.Info("server started", "port", 8080)

	if events := listEvents(t, store.New(db)); len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}

func TestEventLogHandler_InsertUsesTimeout(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	h := NewEventLogHandler(discardHandler{}, db)
	if h.timeout != EventWriteTimeout {
		t.Fatalf("timeout = %v, want %v", h.timeout, EventWriteTimeout)
	}

	// A deadline that has already passed must abandon the insert.
	h.timeout = -time.Second
	start := time.Now()
	slog.New(h).Error("sending welcome mail failed")
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("logging took %v with an expired deadline", elapsed)
	}

	if events := listEvents(t, store.New(db)); len(events) != 0 {
		t.Errorf("expected the expired insert to be dropped, got %d events", len(events))
	}
}

func TestEventLogHandler_CategoryUserAndMetadata(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db)).
		With("request_id", "r-1").
		WithGroup("http")
	logger.Warn("rate limit hit", "category", model.EventCategoryAuth, "user_id", "u-42", "path", "/api/signin")

	events := listEvents(t, store.New(db))
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]

	var meta map[string]string
	if err := json.Unmarshal([]byte(e.Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %q", e.Metadata)
	}
	if meta["request_id"] != "r-1" {
		t.Errorf("request_id = %q", meta["request_id"])
	}
	if meta["http.path"] != "/api/signin" {
		t.Errorf("http.path = %q, metadata %v", meta["http.path"], meta)
	}
	// Grouped attributes never override the top-level category or user.
	if e.Category != model.EventCategorySystem {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategorySystem)
	}
	if e.UserID.Valid {
		t.Errorf("UserID = %+v, want NULL", e.UserID)
	}
}

func TestEventLogHandler_ExplicitCategory(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	logger := slog.New(NewEventLogHandler(discardHandler{}, db))
	logger.Warn("something odd", "category", model.EventCategoryCache, "user_id", "u-7")

	e := listEvents(t, store.New(db))[0]
	if e.Category != model.EventCategoryCache {
		t.Errorf("Category = %q, want %q", e.Category, model.EventCategoryCache)
	}
	if !e.UserID.Valid || e.UserID.String != "u-7" {
		t.Errorf("UserID = %+v", e.UserID)
	}
}

func TestInferCategory(t *testing.T) {
	tests := map[string]string{
		"auth failed for user":    model.EventCategoryAuth,
		"newsletter mail failed":  model.EventCategoryNewsletter,
		"skipping static post":    model.EventCategoryContent,
		"clap on post failed":     model.EventCategoryPost,
		"profile update failed":   model.EventCategoryUser,
		"cache unavailable":       model.EventCategoryCache,
		"something else entirely": model.EventCategorySystem,
	}
	for msg, want := range tests {
		if got := inferCategory(msg); got != want {
			t.Errorf("inferCategory(%q) = %q, want %q", msg, got, want)
		}
	}
}
