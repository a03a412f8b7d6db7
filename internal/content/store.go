// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package content reads the editorial posts authored as MDX/Markdown files
// with YAML front matter.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/util"
)

// Extensions recognised as static posts, in lookup order.
var Extensions = []string{".mdx", ".md"}

// ErrNotFound is returned when no static post has the requested slug.
var ErrNotFound = errors.New("static post not found")

// Store lists and loads static posts from a directory. Parsed files are
// memoised by modification time and size.
type Store struct {
	dir    string
	logger *slog.Logger
	md     goldmark.Markdown
	policy *bluemonday.Policy

	mu    sync.RWMutex
	cache map[string]cachedEntry
}

type cachedEntry struct {
	modTime time.Time
	size    int64
	post    model.Post
}

// NewStore creates a Store reading from dir.
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		dir:    dir,
		logger: logger,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Typographer),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		policy: bluemonday.UGCPolicy(),
		cache:  make(map[string]cachedEntry),
	}
}

// Dir returns the content directory.
func (s *Store) Dir() string {
	return s.dir
}

// Check reports whether the content directory is readable. A missing
// directory is not an error.
func (s *Store) Check() error {
	info, err := os.Stat(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("content path %s is not a directory", s.dir)
	}
	return nil
}

// ListPosts returns every static post in the directory ordered by slug.
// Files that fail to parse are skipped and logged.
func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading content directory: %w", err)
	}

	var slugs []string
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		slug, ok := slugFromFilename(e.Name())
		if !ok || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	posts := make([]model.Post, 0, len(slugs))
	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path, ok := s.resolve(slug)
		if !ok {
			continue
		}
		p, err := s.load(path, slug)
		if err != nil {
			s.logger.Warn("skipping static post", "file", filepath.Base(path), "error", err, "category", model.EventCategoryContent)
			continue
		}
		posts = append(posts, p)
	}

	return posts, nil
}

// GetPost loads the static post whose filename (without extension) equals slug.
func (s *Store) GetPost(ctx context.Context, slug string) (model.Post, error) {
	if err := ctx.Err(); err != nil {
		return model.Post{}, err
	}

	path, ok := s.resolve(slug)
	if !ok {
		return model.Post{}, ErrNotFound
	}
	p, err := s.load(path, slug)
	if err != nil {
		return model.Post{}, fmt.Errorf("loading static post %s: %w", slug, err)
	}
	return p, nil
}

// Exists reports whether a static post with this slug is present.
func (s *Store) Exists(slug string) bool {
	_, ok := s.resolve(slug)
	return ok
}

// resolve finds the file backing slug, preferring extensions in order.
func (s *Store) resolve(slug string) (string, bool) {
	if !isSafeSlug(slug) {
		return "", false
	}
	for _, ext := range Extensions {
		path := filepath.Join(s.dir, slug+ext)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (s *Store) load(path, slug string) (model.Post, error) {
	info, err := os.Stat(path)
	if err != nil {
		return model.Post{}, err
	}

	s.mu.RLock()
	c, ok := s.cache[path]
	s.mu.RUnlock()
	if ok && c.modTime.Equal(info.ModTime()) && c.size == info.Size() {
		return clonePost(c.post), nil
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return model.Post{}, err
	}
	p, err := s.parse(slug, src)
	if err != nil {
		return model.Post{}, err
	}

	s.mu.Lock()
	s.cache[path] = cachedEntry{modTime: info.ModTime(), size: info.Size(), post: p}
	s.mu.Unlock()

	return clonePost(p), nil
}

func (s *Store) parse(slug string, src []byte) (model.Post, error) {
	fm, body, err := parseFrontMatter(src)
	if err != nil {
		return model.Post{}, err
	}
	if strings.TrimSpace(fm.Title) == "" {
		return model.Post{}, errors.New("front matter has no title")
	}

	var buf bytes.Buffer
	if err := s.md.Convert([]byte(body), &buf); err != nil {
		return model.Post{}, fmt.Errorf("rendering markdown: %w", err)
	}

	return toPost(slug, fm, body, s.policy.Sanitize(buf.String())), nil
}

// toPost normalises a parsed file into the shared view model.
func toPost(slug string, fm FrontMatter, body, renderedHTML string) model.Post {
	p := model.Post{
		ID:          slug,
		Slug:        slug,
		Title:       fm.Title,
		Excerpt:     fm.Excerpt,
		Content:     body,
		HTML:        renderedHTML,
		CoverImage:  fm.CoverImage,
		Category:    fm.Category,
		Tags:        fm.Tags,
		Featured:    fm.Featured,
		IsPremium:   fm.Premium,
		ReadTime:    fm.ReadTime,
		PublishedAt: string(fm.Date),
		Comments:    []model.Comment{},
		Source:      model.SourceStatic,
		Author: model.Author{
			ID:         fm.Author.ID,
			Name:       fm.Author.Name,
			Avatar:     fm.Author.Avatar,
			Bio:        fm.Author.Bio,
			IsVerified: fm.Author.IsVerified,
		},
	}

	if p.Excerpt == "" {
		p.Excerpt = model.Excerpt(strings.TrimSpace(body))
	}
	if p.ReadTime == "" {
		p.ReadTime = model.ReadTime(body)
	}
	if p.CoverImage == "" {
		p.CoverImage = model.DefaultCoverImage
	}
	if p.Author.Avatar == "" {
		p.Author.Avatar = model.ResolveAvatar(fm.Author.Image, fm.Author.Name)
	}
	if t, ok := model.ParsePublishedAt(p.PublishedAt); ok {
		p.PublishedAt = model.FormatPublishedAt(t)
	}
	return p
}

func clonePost(p model.Post) model.Post {
	p.Comments = []model.Comment{}
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}

func slugFromFilename(name string) (string, bool) {
	if strings.HasPrefix(name, ".") {
		return "", false
	}
	for _, ext := range Extensions {
		if strings.HasSuffix(name, ext) {
			slug := strings.TrimSuffix(name, ext)
			return slug, slug != ""
		}
	}
	return "", false
}

// isSafeSlug rejects anything that could leave the content directory.
func isSafeSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, ".") || strings.ContainsAny(slug, `/\`) {
		return false
	}
	safe, err := util.SanitizeFilename(slug)
	return err == nil && safe == slug
}
