// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package session wires server-side sessions. The session carries only the
// viewer's user ID; everything else is read fresh from the store.
package session

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/alexedwards/scs/mysqlstore"
	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/alexedwards/scs/v2/memstore"
)

// KeyUserID is the session key holding the signed-in user's ID.
const KeyUserID = "user_id"

// Lifetime is the absolute lifetime of a session.
const Lifetime = 7 * 24 * time.Hour

// New creates a session manager. SQLite and MySQL deployments keep sessions
// in the sessions table; any other driver name gets an in-process store.
// Session lookups fail open, see FailOpenStore.
func New(db *sql.DB, driver string, isDev bool) *scs.SessionManager {
	sm := scs.New()

	var store scs.Store
	switch driver {
	case "sqlite", "":
		store = sqlite3store.New(db)
	case "mysql":
		store = mysqlstore.New(db)
	default:
		store = memstore.New()
	}
	sm.Store = FailOpenStore{Store: store}

	sm.Lifetime = Lifetime
	sm.Cookie.HttpOnly = true
	sm.Cookie.SameSite = http.SameSiteLaxMode
	sm.Cookie.Path = "/"
	sm.Cookie.Secure = !isDev
	if !isDev {
		// __Host- cookies require Secure, Path=/ and no Domain.
		sm.Cookie.Name = "__Host-session"
	}

	return sm
}

// FailOpenStore treats a store that cannot be read as holding no session.
// A request with a session cookie then continues anonymously instead of
// failing, so public reads keep working while the database is down.
// Writes still report their errors.
type FailOpenStore struct {
	scs.Store
}

// Find returns found=false when the underlying store errors.
func (s FailOpenStore) Find(token string) ([]byte, bool, error) {
	b, found, err := s.Store.Find(token)
	if err != nil {
		slog.Warn("session store unavailable, continuing anonymously", "error", err, "category", "auth")
		return nil, false, nil
	}
	return b, found, nil
}

// SignIn rotates the session token and stores userID.
func SignIn(ctx context.Context, sm *scs.SessionManager, userID string) error {
	if err := sm.RenewToken(ctx); err != nil {
		return err
	}
	sm.Put(ctx, KeyUserID, userID)
	return nil
}

// SignOut destroys the session.
func SignOut(ctx context.Context, sm *scs.SessionManager) error {
	return sm.Destroy(ctx)
}

// UserID returns the signed-in user's ID, or "" for anonymous requests.
func UserID(ctx context.Context, sm *scs.SessionManager) string {
	return sm.GetString(ctx, KeyUserID)
}
