// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/lumina/internal/cache"
	"github.com/olegiv/lumina/internal/content"
	"github.com/olegiv/lumina/internal/testutil"
)

type postsEnv struct {
	db      *sql.DB
	dir     string
	cache   cache.Cacher
	posts   *PostService
	engage  *EngagementService
	account *AccountService
}

func newPostsEnv(t *testing.T) *postsEnv {
	t.Helper()

	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)

	dir := t.TempDir()
	logger := testutil.TestLoggerSilent()
	c := cache.NewMemoryCache(cache.MemoryCacheOptions{DefaultTTL: time.Minute})
	t.Cleanup(func() { _ = c.Close() })

	posts := NewPostService(db, content.NewStore(dir, logger), c, logger, PostOptions{DBTimeout: 2 * time.Second})
	engage := NewEngagementService(db, logger, 2*time.Second)
	engage.InvalidateListingsWith(posts)

	return &postsEnv{
		db:      db,
		dir:     dir,
		cache:   c,
		posts:   posts,
		engage:  engage,
		account: NewAccountService(db, logger, 2*time.Second),
	}
}

// staticPost writes a static post dated date with optional extra front matter.
func (e *postsEnv) staticPost(t *testing.T, slug, title, date string, extra ...string) {
	t.Helper()
	fm := fmt.Sprintf("title: %s\ndate: %s\ncategory: Tech", title, date)
	if len(extra) > 0 {
		fm += "\n" + strings.Join(extra, "\n")
	}
	testutil.WriteStaticPost(t, e.dir, slug, fm, "Body of "+title+".")
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}
