// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/mileusna/useragent"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
)

// MaxCommentLength caps comment bodies, counted in characters.
const MaxCommentLength = 5000

// ListingInvalidator drops cached listings that carry post counters.
type ListingInvalidator interface {
	InvalidateListings(ctx context.Context)
}

// EngagementService handles claps, views, bookmarks, follows and comments.
type EngagementService struct {
	db       *sql.DB
	queries  *store.Queries
	policy   *bluemonday.Policy
	listings ListingInvalidator
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewEngagementService creates an EngagementService. A zero timeout means the
// default repository timeout.
func NewEngagementService(db *sql.DB, logger *slog.Logger, timeout time.Duration) *EngagementService {
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = defaultDBTimeout
	}
	return &EngagementService{
		db:      db,
		queries: store.New(db),
		policy:  bluemonday.UGCPolicy(),
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// InvalidateListingsWith registers the cache owner whose listings must be
// dropped when a clap or view is counted.
func (s *EngagementService) InvalidateListingsWith(inv ListingInvalidator) {
	s.listings = inv
}

func (s *EngagementService) countersChanged(ctx context.Context) {
	if s.listings != nil {
		s.listings.InvalidateListings(ctx)
	}
}

// Clap adds one clap to a post and returns the new total.
func (s *EngagementService) Clap(ctx context.Context, postID string) (int64, error) {
	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	claps, err := s.queries.IncrementClaps(dbCtx, postID)
	if err != nil {
		return 0, notFound(err)
	}
	s.countersChanged(ctx)
	return claps, nil
}

// IsBot reports whether a user agent belongs to a crawler.
func IsBot(userAgent string) bool {
	return useragent.Parse(userAgent).Bot
}

// TrackView counts one view of a post. Views from bots are ignored and
// reported as not counted.
func (s *EngagementService) TrackView(ctx context.Context, postID, userAgent string) (bool, error) {
	if IsBot(userAgent) {
		return false, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.queries.IncrementViews(dbCtx, postID); err != nil {
		return false, notFound(err)
	}
	s.countersChanged(ctx)
	return true, nil
}

// ToggleBookmark bookmarks the post, or removes the bookmark when it exists.
// It returns the resulting state.
func (s *EngagementService) ToggleBookmark(ctx context.Context, userID, postID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.queries.GetPostByID(ctx, postID); err != nil {
		return false, notFound(err)
	}

	var bookmarked bool
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		removed, err := q.DeleteBookmark(ctx, userID, postID)
		if err != nil {
			return err
		}
		if removed > 0 {
			bookmarked = false
			return nil
		}
		if _, err := q.InsertBookmarkIfAbsent(ctx, store.InsertBookmarkParams{
			ID:        uuid.NewString(),
			UserID:    userID,
			PostID:    postID,
			CreatedAt: s.now().UTC(),
		}); err != nil {
			return err
		}
		bookmarked = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggling bookmark: %w", err)
	}
	return bookmarked, nil
}

// ToggleFollow follows the user, or unfollows when already following. It
// returns the resulting state.
func (s *EngagementService) ToggleFollow(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.queries.GetUserByID(ctx, followingID); err != nil {
		return false, notFound(err)
	}

	var following bool
	err := store.ExecTx(ctx, s.db, func(q *store.Queries) error {
		removed, err := q.DeleteFollow(ctx, followerID, followingID)
		if err != nil {
			return err
		}
		if removed > 0 {
			following = false
			return nil
		}
		if _, err := q.InsertFollowIfAbsent(ctx, store.InsertFollowParams{
			ID:          uuid.NewString(),
			FollowerID:  followerID,
			FollowingID: followingID,
			CreatedAt:   s.now().UTC(),
		}); err != nil {
			return err
		}
		following = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggling follow: %w", err)
	}
	return following, nil
}

// AddComment stores a sanitized comment and returns it with its author.
func (s *EngagementService) AddComment(ctx context.Context, userID, postID, body string) (model.Comment, error) {
	body = strings.TrimSpace(s.policy.Sanitize(body))
	if body == "" {
		return model.Comment{}, fmt.Errorf("%w: comment is empty", ErrInvalidInput)
	}
	if len([]rune(body)) > MaxCommentLength {
		return model.Comment{}, fmt.Errorf("%w: comment is longer than %d characters", ErrInvalidInput, MaxCommentLength)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.queries.GetPostByID(ctx, postID); err != nil {
		return model.Comment{}, notFound(err)
	}

	row, err := s.queries.CreateComment(ctx, store.CreateCommentParams{
		ID:        uuid.NewString(),
		Content:   body,
		PostID:    postID,
		AuthorID:  userID,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return model.Comment{}, fmt.Errorf("creating comment: %w", err)
	}
	return commentFromRow(row), nil
}

// ListBookmarks returns the posts bookmarked by userID, latest bookmark first.
func (s *EngagementService) ListBookmarks(ctx context.Context, userID string) ([]model.Post, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.queries.ListBookmarkedPosts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing bookmarks: %w", err)
	}
	posts := summaries(rows)
	for i := range posts {
		posts[i].IsBookmarked = true
	}
	return posts, nil
}
