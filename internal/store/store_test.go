// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	_ "github.com/mattn/go-sqlite3"
)

// testDB creates a temporary test database.
func testDB(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "lumina-test.db")

	db, err := NewDB(dbPath)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}

	if err := Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("Migrate: %v", err)
	}

	return db, func() { _ = db.Close() }
}

func createTestUser(t *testing.T, q *Queries, name, email string) User {
	t.Helper()
	now := time.Now().UTC()
	u, err := q.CreateUser(context.Background(), CreateUserParams{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: "hashed-password",
		Plan:         "FREE",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u
}

func createTestPost(t *testing.T, q *Queries, authorID, slug, category string, published bool, at time.Time) Post {
	t.Helper()
	p, err := q.CreatePost(context.Background(), CreatePostParams{
		ID:        uuid.NewString(),
		Slug:      slug,
		Title:     "Title " + slug,
		Content:   "Body of " + slug,
		Category:  category,
		Published: published,
		AuthorID:  authorID,
		CreatedAt: at,
		UpdatedAt: at,
	})
	if err != nil {
		t.Fatalf("CreatePost(%s): %v", slug, err)
	}
	return p
}

func TestCreateUser(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	user := createTestUser(t, q, "Test User", "test@example.com")

	if user.Email != "test@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "test@example.com")
	}
	if user.Plan != "FREE" {
		t.Errorf("Plan = %q, want FREE", user.Plan)
	}
	if user.Image.Valid || user.Bio.Valid {
		t.Error("Image and Bio should be NULL")
	}

	got, err := q.GetUserByEmail(ctx, "test@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("ID = %q, want %q", got.ID, user.ID)
	}

	count, err := q.CountUsers(ctx)
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Errorf("CountUsers = %d, want 1", count)
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	q := New(db)
	createTestUser(t, q, "First", "dup@example.com")

	now := time.Now().UTC()
	_, err := q.CreateUser(context.Background(), CreateUserParams{
		ID:           uuid.NewString(),
		Name:         "Second",
		Email:        "dup@example.com",
		PasswordHash: "x",
		Plan:         "FREE",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	_, err := New(db).GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("err = %v, want sql.ErrNoRows", err)
	}
}

func TestUpdateUserProfile(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	user := createTestUser(t, q, "Old Name", "profile@example.com")

	updated, err := q.UpdateUserProfile(ctx, UpdateUserProfileParams{
		ID:        user.ID,
		Name:      "New Name",
		Bio:       sql.NullString{String: "hello", Valid: true},
		Image:     sql.NullString{String: "/uploads/avatar/a.jpg", Valid: true},
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("UpdateUserProfile: %v", err)
	}
	if updated.Name != "New Name" || updated.Bio.String != "hello" || updated.Image.String != "/uploads/avatar/a.jpg" {
		t.Errorf("unexpected profile %+v", updated)
	}

	_, err = q.UpdateUserProfile(ctx, UpdateUserProfileParams{ID: "missing", Name: "x", UpdatedAt: time.Now()})
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing user err = %v, want sql.ErrNoRows", err)
	}

	if err := q.UpdateUserPlan(ctx, user.ID, "PRO", time.Now().UTC()); err != nil {
		t.Fatalf("UpdateUserPlan: %v", err)
	}
	if err := q.UpdateUserPassword(ctx, user.ID, "new-hash", time.Now().UTC()); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	got, err := q.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID: %v", err)
	}
	if got.Plan != "PRO" || got.PasswordHash != "new-hash" {
		t.Errorf("plan/hash not updated: %q %q", got.Plan, got.PasswordHash)
	}
}

func TestSeed(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	// Second run is a no-op.
	if err := Seed(ctx, db); err != nil {
		t.Fatalf("Seed (second run): %v", err)
	}

	q := New(db)
	author, err := q.GetUserByEmail(ctx, DemoAuthorEmail)
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}

	posts, err := q.ListPosts(ctx, ListPostsFilter{AuthorID: author.ID})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(posts) != len(demoPosts) {
		t.Errorf("got %d posts, want %d", len(posts), len(demoPosts))
	}
}

func TestCreatePost_DuplicateSlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	u := createTestUser(t, q, "Author", "a@example.com")
	createTestPost(t, q, u.ID, "same", "Tech", true, time.Now().UTC())

	exists, err := q.SlugExists(ctx, "same")
	if err != nil || !exists {
		t.Fatalf("SlugExists(same) = %v, %v", exists, err)
	}
	exists, err = q.SlugExists(ctx, "other")
	if err != nil || exists {
		t.Fatalf("SlugExists(other) = %v, %v", exists, err)
	}

	now := time.Now().UTC()
	_, err = q.CreatePost(ctx, CreatePostParams{
		ID: uuid.NewString(), Slug: "same", Title: "t", Content: "c", Category: "Tech",
		AuthorID: u.ID, CreatedAt: now, UpdatedAt: now,
	})
	if err == nil {
		t.Fatal("expected unique slug violation")
	}
}

func TestListPosts(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createTestUser(t, q, "Ann", "ann@example.com")
	b := createTestUser(t, q, "Ben", "ben@example.com")

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	oldest := createTestPost(t, q, a.ID, "oldest", "Tech", true, base)
	middle := createTestPost(t, q, b.ID, "middle", "Culture", true, base.Add(time.Hour))
	newest := createTestPost(t, q, a.ID, "newest", "Stories", true, base.Add(2*time.Hour))
	createTestPost(t, q, a.ID, "draft", "Tech", false, base.Add(3*time.Hour))

	t.Run("published newest first", func(t *testing.T) {
		posts, err := q.ListPosts(ctx, ListPostsFilter{})
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		want := []string{newest.ID, middle.ID, oldest.ID}
		if len(posts) != len(want) {
			t.Fatalf("got %d posts, want %d", len(posts), len(want))
		}
		for i, id := range want {
			if posts[i].ID != id {
				t.Errorf("posts[%d] = %s, want %s", i, posts[i].Slug, id)
			}
		}
		if posts[0].Author.Name != "Ann" {
			t.Errorf("author = %q, want Ann", posts[0].Author.Name)
		}
	})

	t.Run("categories", func(t *testing.T) {
		posts, err := q.ListPosts(ctx, ListPostsFilter{Categories: []string{"Tech", "Culture"}})
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("got %d posts, want 2", len(posts))
		}
	})

	t.Run("author with drafts", func(t *testing.T) {
		posts, err := q.ListPosts(ctx, ListPostsFilter{AuthorID: a.ID, IncludeDrafts: true})
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 3 {
			t.Fatalf("got %d posts, want 3", len(posts))
		}
		if posts[0].Slug != "draft" {
			t.Errorf("first = %q, want draft", posts[0].Slug)
		}
	})

	t.Run("trending", func(t *testing.T) {
		for range 3 {
			if err := q.IncrementViews(ctx, oldest.ID); err != nil {
				t.Fatalf("IncrementViews: %v", err)
			}
		}
		if _, err := q.IncrementClaps(ctx, middle.ID); err != nil {
			t.Fatalf("IncrementClaps: %v", err)
		}

		posts, err := q.ListPosts(ctx, ListPostsFilter{Order: OrderTrending, Limit: 2})
		if err != nil {
			t.Fatalf("ListPosts: %v", err)
		}
		if len(posts) != 2 {
			t.Fatalf("got %d posts, want 2", len(posts))
		}
		if posts[0].ID != oldest.ID || posts[1].ID != middle.ID {
			t.Errorf("trending order = %s, %s", posts[0].Slug, posts[1].Slug)
		}
	})
}

func TestIncrementCounters_MissingPost(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	if _, err := q.IncrementClaps(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("IncrementClaps err = %v, want sql.ErrNoRows", err)
	}
	if err := q.IncrementViews(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("IncrementViews err = %v, want sql.ErrNoRows", err)
	}
}

func TestGetPostDetailBySlug(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "Author", "author@example.com")
	reader := createTestUser(t, q, "Reader", "reader@example.com")
	post := createTestPost(t, q, author.ID, "detail", "Tech", true, time.Now().UTC())

	d, err := q.GetPostDetailBySlug(ctx, GetPostDetailParams{Slug: "detail", ViewerID: reader.ID})
	if err != nil {
		t.Fatalf("GetPostDetailBySlug: %v", err)
	}
	if d.IsBookmarked || d.IsFollowingAuthor {
		t.Error("flags should start false")
	}

	now := time.Now().UTC()
	if _, err := q.InsertBookmarkIfAbsent(ctx, InsertBookmarkParams{ID: uuid.NewString(), UserID: reader.ID, PostID: post.ID, CreatedAt: now}); err != nil {
		t.Fatalf("InsertBookmarkIfAbsent: %v", err)
	}
	if _, err := q.InsertFollowIfAbsent(ctx, InsertFollowParams{ID: uuid.NewString(), FollowerID: reader.ID, FollowingID: author.ID, CreatedAt: now}); err != nil {
		t.Fatalf("InsertFollowIfAbsent: %v", err)
	}

	d, err = q.GetPostDetailBySlug(ctx, GetPostDetailParams{Slug: "detail", ViewerID: reader.ID})
	if err != nil {
		t.Fatalf("GetPostDetailBySlug: %v", err)
	}
	if !d.IsBookmarked || !d.IsFollowingAuthor {
		t.Errorf("flags = %v/%v, want true/true", d.IsBookmarked, d.IsFollowingAuthor)
	}
	if d.Author.ID != author.ID {
		t.Errorf("author = %q, want %q", d.Author.ID, author.ID)
	}

	anon, err := q.GetPostDetailBySlug(ctx, GetPostDetailParams{Slug: "detail"})
	if err != nil {
		t.Fatalf("GetPostDetailBySlug(anon): %v", err)
	}
	if anon.IsBookmarked || anon.IsFollowingAuthor {
		t.Error("anonymous flags should be false")
	}

	if _, err := q.GetPostDetailBySlug(ctx, GetPostDetailParams{Slug: "nope"}); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("missing slug err = %v, want sql.ErrNoRows", err)
	}
}

func TestBookmarkToggleQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	u := createTestUser(t, q, "U", "u@example.com")
	p := createTestPost(t, q, u.ID, "bm", "Tech", true, time.Now().UTC())

	params := InsertBookmarkParams{ID: uuid.NewString(), UserID: u.ID, PostID: p.ID, CreatedAt: time.Now().UTC()}
	n, err := q.InsertBookmarkIfAbsent(ctx, params)
	if err != nil || n != 1 {
		t.Fatalf("first insert = %d, %v", n, err)
	}

	params.ID = uuid.NewString()
	n, err = q.InsertBookmarkIfAbsent(ctx, params)
	if err != nil || n != 0 {
		t.Fatalf("second insert = %d, %v; want 0 rows", n, err)
	}

	var has bool
	if err := db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM bookmarks WHERE user_id = ? AND post_id = ?)`, u.ID, p.ID).Scan(&has); err != nil || !has {
		t.Fatalf("bookmark row exists = %v, %v", has, err)
	}

	list, err := q.ListBookmarkedPosts(ctx, u.ID)
	if err != nil {
		t.Fatalf("ListBookmarkedPosts: %v", err)
	}
	if len(list) != 1 || list[0].ID != p.ID {
		t.Fatalf("ListBookmarkedPosts = %+v", list)
	}

	n, err = q.DeleteBookmark(ctx, u.ID, p.ID)
	if err != nil || n != 1 {
		t.Fatalf("DeleteBookmark = %d, %v", n, err)
	}
	n, err = q.DeleteBookmark(ctx, u.ID, p.ID)
	if err != nil || n != 0 {
		t.Fatalf("second DeleteBookmark = %d, %v", n, err)
	}
}

func TestFollowQueries(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	a := createTestUser(t, q, "A", "a@example.com")
	b := createTestUser(t, q, "B", "b@example.com")

	n, err := q.InsertFollowIfAbsent(ctx, InsertFollowParams{ID: uuid.NewString(), FollowerID: a.ID, FollowingID: b.ID, CreatedAt: time.Now().UTC()})
	if err != nil || n != 1 {
		t.Fatalf("InsertFollowIfAbsent = %d, %v", n, err)
	}

	following, err := q.IsFollowing(ctx, a.ID, b.ID)
	if err != nil || !following {
		t.Fatalf("IsFollowing = %v, %v", following, err)
	}
	reverse, err := q.IsFollowing(ctx, b.ID, a.ID)
	if err != nil || reverse {
		t.Fatalf("reverse IsFollowing = %v, %v", reverse, err)
	}

	count, err := q.CountFollowers(ctx, b.ID)
	if err != nil || count != 1 {
		t.Fatalf("CountFollowers = %d, %v", count, err)
	}

	if n, err := q.DeleteFollow(ctx, a.ID, b.ID); err != nil || n != 1 {
		t.Fatalf("DeleteFollow = %d, %v", n, err)
	}
}

func TestCommentsAndAuthorStats(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)
	author := createTestUser(t, q, "Author", "author@example.com")
	reader := createTestUser(t, q, "Reader", "reader@example.com")
	p := createTestPost(t, q, author.ID, "stats", "Tech", true, time.Now().UTC())
	createTestPost(t, q, author.ID, "quiet", "Tech", false, time.Now().UTC().Add(-time.Hour))

	base := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	for i, body := range []string{"first", "second"} {
		c, err := q.CreateComment(ctx, CreateCommentParams{
			ID: uuid.NewString(), Content: body, PostID: p.ID, AuthorID: reader.ID,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("CreateComment: %v", err)
		}
		if c.Author.Name != "Reader" {
			t.Errorf("comment author = %q", c.Author.Name)
		}
	}
	if _, err := q.InsertBookmarkIfAbsent(ctx, InsertBookmarkParams{ID: uuid.NewString(), UserID: reader.ID, PostID: p.ID, CreatedAt: base}); err != nil {
		t.Fatalf("InsertBookmarkIfAbsent: %v", err)
	}

	comments, err := q.ListCommentsForPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListCommentsForPost: %v", err)
	}
	if len(comments) != 2 || comments[0].Content != "second" {
		t.Fatalf("comments = %+v, want newest first", comments)
	}

	stats, err := q.ListAuthorPostStats(ctx, author.ID)
	if err != nil {
		t.Fatalf("ListAuthorPostStats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("got %d stats rows, want 2", len(stats))
	}
	if stats[0].ID != p.ID || stats[0].CommentCount != 2 || stats[0].BookmarkCount != 1 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	if stats[1].CommentCount != 0 || stats[1].BookmarkCount != 0 {
		t.Errorf("stats[1] = %+v", stats[1])
	}

	// Deleting the post cascades to its comments.
	if err := q.DeletePost(ctx, p.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	comments, err = q.ListCommentsForPost(ctx, p.ID)
	if err != nil {
		t.Fatalf("ListCommentsForPost: %v", err)
	}
	if len(comments) != 0 {
		t.Errorf("comments after delete = %d, want 0", len(comments))
	}
}

func TestSubscribeNewsletter(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	params := SubscribeNewsletterParams{ID: uuid.NewString(), Email: "reader@example.com", CreatedAt: time.Now().UTC()}
	created, err := q.SubscribeNewsletter(ctx, params)
	if err != nil || !created {
		t.Fatalf("first subscribe = %v, %v", created, err)
	}

	params.ID = uuid.NewString()
	created, err = q.SubscribeNewsletter(ctx, params)
	if err != nil || created {
		t.Fatalf("second subscribe = %v, %v; want false", created, err)
	}

	sub, err := q.GetNewsletterSubscriber(ctx, "reader@example.com")
	if err != nil {
		t.Fatalf("GetNewsletterSubscriber: %v", err)
	}
	if sub.ID == params.ID {
		t.Error("second subscribe must not replace the row")
	}
}

func TestEvents(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	q := New(db)

	old := time.Now().UTC().Add(-48 * time.Hour)
	recent := time.Now().UTC()
	for _, at := range []time.Time{old, recent} {
		if err := q.CreateEvent(ctx, CreateEventParams{
			Level: "warning", Category: "system", Message: "disk", Metadata: "{}", CreatedAt: at,
		}); err != nil {
			t.Fatalf("CreateEvent: %v", err)
		}
	}

	deleted, err := q.DeleteEventsBefore(ctx, time.Now().UTC().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("DeleteEventsBefore: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}

	events, err := q.ListEvents(ctx, 10)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].UserID.Valid {
		t.Error("UserID should be NULL")
	}
}

func TestExecTx_Rollback(t *testing.T) {
	db, cleanup := testDB(t)
	defer cleanup()

	ctx := context.Background()
	boom := errors.New("boom")

	err := ExecTx(ctx, db, func(q *Queries) error {
		createTestUser(t, q, "Ghost", "ghost@example.com")
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("ExecTx err = %v, want boom", err)
	}

	if _, err := New(db).GetUserByEmail(ctx, "ghost@example.com"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("user survived rollback: %v", err)
	}
}

func TestMigrate_CgoDriver(t *testing.T) {
	db, err := sql.Open("sqlite3", ":memory:?_foreign_keys=on")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	db.SetMaxOpenConns(1)
	defer func() { _ = db.Close() }()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	q := New(db)
	u := createTestUser(t, q, "Cgo", "cgo@example.com")
	p := createTestPost(t, q, u.ID, "cgo-post", "Tech", true, time.Now().UTC())

	got, err := q.GetPostByID(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("GetPostByID: %v", err)
	}
	if got.Slug != "cgo-post" {
		t.Errorf("Slug = %q", got.Slug)
	}
}

func TestMigrateDriver_Unsupported(t *testing.T) {
	if err := MigrateDriver(nil, "oracle"); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := Open("oracle", ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
