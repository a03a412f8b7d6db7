// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service holds the business logic of Lumina: merging static and
// database posts, authoring, engagement, accounts and the newsletter.
package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"

	"github.com/olegiv/lumina/internal/cache"
	"github.com/olegiv/lumina/internal/content"
	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
	"github.com/olegiv/lumina/internal/util"
)

// Cache keys for aggregated listings.
const (
	CacheKeyAllPosts = "posts:all"
	CacheKeyTrending = "posts:trending"

	postsCachePrefix = "posts:"
)

// Section names served under /api/sections.
const (
	SectionTech    = "tech"
	SectionCulture = "culture"
	SectionStories = "stories"
)

// sectionCategories maps a section to its categories. A nil list means every
// category.
var sectionCategories = map[string][]string{
	SectionTech:    {"Engineering", "Tech", "Design"},
	SectionCulture: {"Culture", "Lifestyle"},
	SectionStories: nil,
}

const (
	// DefaultTrendingLimit is the number of trending posts returned when the
	// caller does not ask for a count.
	DefaultTrendingLimit = 6
	trendingPoolSize     = 24
	maxSlugAttempts      = 5
	defaultDBTimeout     = 5 * time.Second
)

// StaticSource reads the posts that live as files in the content directory.
type StaticSource interface {
	ListPosts(ctx context.Context) ([]model.Post, error)
	GetPost(ctx context.Context, slug string) (model.Post, error)
	Exists(slug string) bool
}

// Listing is the merged post list. Degraded is set when one of the sources
// could not be read and Posts holds only what the other source returned.
type Listing struct {
	Posts    []model.Post `json:"posts"`
	Degraded bool         `json:"degraded,omitempty"`
	Reason   string       `json:"reason,omitempty"`
}

// sourceResult is the outcome of reading one post source. Exactly one of
// posts and err is meaningful.
type sourceResult struct {
	source model.Source
	posts  []model.Post
	err    error
}

// PostOptions configures a PostService.
type PostOptions struct {
	// DBTimeout bounds every repository call. Zero means the default.
	DBTimeout time.Duration
	// CacheTTL is the lifetime of cached listings. Zero means the cache default.
	CacheTTL time.Duration
}

// PostService merges static and database posts and handles authoring.
type PostService struct {
	db       *sql.DB
	queries  *store.Queries
	static   StaticSource
	cache    cache.Cacher
	listings *cache.TypedCache[Listing]
	trending *cache.TypedCache[[]model.Post]
	policy   *bluemonday.Policy
	logger   *slog.Logger
	timeout  time.Duration
	now      func() time.Time
}

// NewPostService creates a PostService. A nil cacher disables caching.
func NewPostService(db *sql.DB, static StaticSource, c cache.Cacher, logger *slog.Logger, opts PostOptions) *PostService {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.DBTimeout <= 0 {
		opts.DBTimeout = defaultDBTimeout
	}

	s := &PostService{
		db:      db,
		queries: store.New(db),
		static:  static,
		cache:   c,
		policy:  bluemonday.UGCPolicy(),
		logger:  logger,
		timeout: opts.DBTimeout,
		now:     time.Now,
	}
	if c != nil {
		s.listings = cache.NewTypedCache[Listing](c, opts.CacheTTL)
		s.trending = cache.NewTypedCache[[]model.Post](c, opts.CacheTTL)
	}
	return s
}

func (s *PostService) dbContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// GetAllPosts returns every published post, newest first. When the database
// is unreachable only static posts are returned.
func (s *PostService) GetAllPosts(ctx context.Context) []model.Post {
	return s.Listing(ctx).Posts
}

// Listing returns the merged listing together with its degradation state.
// Only complete listings are cached.
func (s *PostService) Listing(ctx context.Context) Listing {
	if s.listings == nil {
		return s.aggregate(ctx)
	}
	l, _ := s.listings.GetOrSet(ctx, CacheKeyAllPosts,
		func() (Listing, error) { return s.aggregate(ctx), nil },
		func(l Listing) bool { return !l.Degraded },
	)
	return l
}

// ListByCategory returns the merged listing narrowed to categories, compared
// case-insensitively. No categories means no filtering.
func (s *PostService) ListByCategory(ctx context.Context, categories ...string) Listing {
	l := s.Listing(ctx)
	l.Posts = filterCategories(l.Posts, categories)
	return l
}

// ListSection returns the listing for a named section.
func (s *PostService) ListSection(ctx context.Context, section string) (Listing, error) {
	categories, ok := sectionCategories[strings.ToLower(section)]
	if !ok {
		return Listing{}, fmt.Errorf("section %q: %w", section, ErrNotFound)
	}
	return s.ListByCategory(ctx, categories...), nil
}

// GetFeaturedPost returns the first featured post in listing order, or nil.
func (s *PostService) GetFeaturedPost(ctx context.Context) *model.Post {
	for _, p := range s.GetAllPosts(ctx) {
		if p.Featured {
			return &p
		}
	}
	return nil
}

func (s *PostService) aggregate(ctx context.Context) Listing {
	results := []sourceResult{s.readStatic(ctx), s.readDatabase(ctx)}

	l := Listing{Posts: make([]model.Post, 0)}
	var failed []string
	for _, r := range results {
		if r.err != nil {
			s.logger.Warn("post source unavailable, serving partial listing",
				"source", r.source,
				"error", r.err,
				"category", model.EventCategoryContent,
			)
			failed = append(failed, string(r.source))
			continue
		}
		l.Posts = append(l.Posts, r.posts...)
	}
	if len(failed) > 0 {
		l.Degraded = true
		l.Reason = strings.Join(failed, ", ") + " unavailable"
	}

	sortNewestFirst(l.Posts)
	return l
}

func (s *PostService) readStatic(ctx context.Context) sourceResult {
	posts, err := s.static.ListPosts(ctx)
	if err != nil {
		return sourceResult{source: model.SourceStatic, err: err}
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Summary())
	}
	return sourceResult{source: model.SourceStatic, posts: out}
}

func (s *PostService) readDatabase(ctx context.Context) sourceResult {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	rows, err := s.queries.ListPosts(ctx, store.ListPostsFilter{})
	if err != nil {
		return sourceResult{source: model.SourceDatabase, err: err}
	}
	return sourceResult{source: model.SourceDatabase, posts: summaries(rows)}
}

// sortNewestFirst orders posts by PublishedAt descending. Posts whose date
// cannot be parsed go last, keeping their relative order.
func sortNewestFirst(posts []model.Post) {
	slices.SortStableFunc(posts, func(a, b model.Post) int {
		ta, okA := model.ParsePublishedAt(a.PublishedAt)
		tb, okB := model.ParsePublishedAt(b.PublishedAt)
		switch {
		case okA && okB:
			return tb.Compare(ta)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	})
}

func filterCategories(posts []model.Post, categories []string) []model.Post {
	if len(categories) == 0 {
		return posts
	}
	out := make([]model.Post, 0, len(posts))
	for _, p := range posts {
		for _, c := range categories {
			if strings.EqualFold(strings.TrimSpace(c), p.Category) {
				out = append(out, p)
				break
			}
		}
	}
	return out
}

// GetPostBySlug resolves one post for an optional viewer. Static posts win
// over database posts with the same slug; a static file that cannot be parsed
// is skipped and the database is consulted. Misses and lookup failures both
// return nil; failures are logged.
func (s *PostService) GetPostBySlug(ctx context.Context, slug, viewerID string) *model.Post {
	p, err := s.static.GetPost(ctx, slug)
	if err == nil {
		p.Claps, p.Views = 0, 0
		p.IsBookmarked, p.IsFollowingAuthor = false, false
		p.Comments = []model.Comment{}
		return &p
	}
	if !errors.Is(err, content.ErrNotFound) {
		// Unreadable files are skipped here as they are in listings.
		s.logger.Warn("skipping unreadable static post", "slug", slug, "error", err, "category", model.EventCategoryContent)
	}

	p, err = s.databasePost(ctx, slug, viewerID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("post lookup failed", "slug", slug, "error", err, "category", model.EventCategoryPost)
		}
		return nil
	}
	return &p
}

func (s *PostService) databasePost(ctx context.Context, slug, viewerID string) (model.Post, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	d, err := s.queries.GetPostDetailBySlug(ctx, store.GetPostDetailParams{Slug: slug, ViewerID: viewerID})
	if err != nil {
		return model.Post{}, notFound(err)
	}
	if !d.Published && (viewerID == "" || d.AuthorID != viewerID) {
		return model.Post{}, ErrNotFound
	}

	rows, err := s.queries.ListCommentsForPost(ctx, d.ID)
	if err != nil {
		return model.Post{}, fmt.Errorf("listing comments: %w", err)
	}

	p := postFromRow(d.PostWithAuthor)
	if viewerID != "" {
		p.IsBookmarked = d.IsBookmarked
		p.IsFollowingAuthor = d.IsFollowingAuthor
	}
	p.Comments = make([]model.Comment, 0, len(rows))
	for _, row := range rows {
		p.Comments = append(p.Comments, commentFromRow(row))
	}
	return p, nil
}

// Trending returns up to limit database posts ranked by views plus claps.
func (s *PostService) Trending(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		limit = DefaultTrendingLimit
	}

	var posts []model.Post
	cached := false
	if s.trending != nil {
		posts, cached = s.trending.Get(ctx, CacheKeyTrending)
	}
	if !cached {
		var err error
		if posts, err = s.RefreshTrending(ctx); err != nil {
			return nil, err
		}
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

// RefreshTrending recomputes the trending pool and stores it in the cache.
func (s *PostService) RefreshTrending(ctx context.Context) ([]model.Post, error) {
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	rows, err := s.queries.ListPosts(dbCtx, store.ListPostsFilter{
		Order: store.OrderTrending,
		Limit: trendingPoolSize,
	})
	if err != nil {
		return nil, fmt.Errorf("listing trending posts: %w", err)
	}

	posts := summaries(rows)
	if s.trending != nil {
		if err := s.trending.Set(ctx, CacheKeyTrending, posts); err != nil {
			s.logger.Warn("caching trending posts failed", "error", err, "category", model.EventCategoryCache)
		}
	}
	return posts, nil
}

// CreatePostInput carries the fields of a new post.
type CreatePostInput struct {
	AuthorID   string
	Title      string
	Content    string
	Category   string
	CoverImage string
	IsPremium  bool
}

// CreatePost publishes a new database post. The body is sanitized and the
// slug is derived from the title with a four digit suffix.
func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (model.Post, error) {
	title := strings.TrimSpace(in.Title)
	body := strings.TrimSpace(s.policy.Sanitize(in.Content))
	if title == "" || body == "" {
		return model.Post{}, fmt.Errorf("%w: title and content are required", ErrInvalidInput)
	}

	category := strings.TrimSpace(in.Category)
	if category == "" {
		category = model.DefaultCategory
	}
	cover := strings.TrimSpace(in.CoverImage)
	if cover == "" {
		cover = model.DefaultCoverImage
	}

	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	author, err := s.queries.GetUserByID(dbCtx, in.AuthorID)
	if err != nil {
		return model.Post{}, fmt.Errorf("loading author: %w", notFound(err))
	}

	slug, err := s.uniqueSlug(dbCtx, title)
	if err != nil {
		return model.Post{}, err
	}

	now := s.now().UTC()
	row, err := s.queries.CreatePost(dbCtx, store.CreatePostParams{
		ID:         uuid.NewString(),
		Slug:       slug,
		Title:      title,
		Content:    body,
		Category:   category,
		CoverImage: util.NullStringFromValue(cover),
		Published:  true,
		Featured:   false,
		IsPremium:  in.IsPremium,
		AuthorID:   author.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	if err != nil {
		return model.Post{}, fmt.Errorf("creating post: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("post created", "post_id", row.ID, "slug", slug, "user_id", author.ID)

	return postFromRow(store.PostWithAuthor{Post: row, Author: author}), nil
}

// uniqueSlug returns slugify(title) plus a suffix that collides with neither
// a static post nor a database post. The first suffix comes from the clock.
func (s *PostService) uniqueSlug(ctx context.Context, title string) (string, error) {
	base := util.Slugify(title)
	if base == "" {
		base = "post"
	}

	for attempt := range maxSlugAttempts {
		suffix := s.now().UnixMilli() % 10000
		if attempt > 0 {
			suffix = rand.Int64N(10000)
		}
		slug := fmt.Sprintf("%s-%04d", base, suffix)

		if s.static.Exists(slug) {
			continue
		}
		taken, err := s.queries.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("checking slug: %w", err)
		}
		if !taken {
			return slug, nil
		}
	}
	return "", fmt.Errorf("%w: no free slug for %q", ErrAlreadyExists, base)
}

// DeletePost removes a post owned by userID.
func (s *PostService) DeletePost(ctx context.Context, userID, postID string) error {
	dbCtx, cancel := s.dbContext(ctx)
	defer cancel()

	post, err := s.queries.GetPostByID(dbCtx, postID)
	if err != nil {
		return notFound(err)
	}
	if post.AuthorID != userID {
		return ErrForbidden
	}
	if err := s.queries.DeletePost(dbCtx, postID); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}

	s.invalidate(ctx)
	s.logger.Info("post deleted", "post_id", postID, "slug", post.Slug, "user_id", userID)
	return nil
}

// AuthorStats lists every post of an author, drafts included, with counts.
func (s *PostService) AuthorStats(ctx context.Context, userID string) ([]model.PostStats, error) {
	ctx, cancel := s.dbContext(ctx)
	defer cancel()

	rows, err := s.queries.ListAuthorPostStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading author stats: %w", err)
	}
	stats := make([]model.PostStats, 0, len(rows))
	for _, row := range rows {
		stats = append(stats, statsFromRow(row))
	}
	return stats, nil
}

// InvalidateListings drops cached listings.
func (s *PostService) InvalidateListings(ctx context.Context) {
	s.invalidate(ctx)
}

func (s *PostService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPrefix(ctx, postsCachePrefix); err != nil {
		s.logger.Warn("invalidating post listings failed", "error", err, "category", model.EventCategoryCache)
	}
}
