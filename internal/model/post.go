// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// DefaultCoverImage is used when a post has no cover of its own.
const DefaultCoverImage = "/images/hero-abstract.png"

// DefaultCategory is assigned to posts created without a category.
const DefaultCategory = "Stories"

// Source tells where a post came from.
type Source string

const (
	SourceStatic   Source = "static"
	SourceDatabase Source = "database"
)

// Author is the embedded author of a post or comment.
type Author struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Avatar     string `json:"avatar"`
	Bio        string `json:"bio,omitempty"`
	IsVerified bool   `json:"isVerified"`
}

// Comment is a reader comment with its author.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`
	Author    Author `json:"author"`
}

// Post is the unified view model returned for both static and database posts.
type Post struct {
	ID                string    `json:"id"`
	Slug              string    `json:"slug"`
	Title             string    `json:"title"`
	Excerpt           string    `json:"excerpt"`
	Content           string    `json:"content,omitempty"`
	HTML              string    `json:"html,omitempty"`
	CoverImage        string    `json:"coverImage"`
	Category          string    `json:"category"`
	Tags              []string  `json:"tags,omitempty"`
	Featured          bool      `json:"featured"`
	Author            Author    `json:"author"`
	Claps             int64     `json:"claps"`
	Views             int64     `json:"views"`
	IsPremium         bool      `json:"isPremium"`
	IsBookmarked      bool      `json:"isBookmarked"`
	IsFollowingAuthor bool      `json:"isFollowingAuthor"`
	Comments          []Comment `json:"comments"`
	ReadTime          string    `json:"readTime"`
	PublishedAt       string    `json:"publishedAt"`
	Locked            bool      `json:"locked,omitempty"`
	Source            Source    `json:"source"`
}

// IsStatic reports whether the post was read from the content directory.
func (p Post) IsStatic() bool {
	return p.Source == SourceStatic
}

// ForViewer returns a copy of the post with the body withheld when the post
// is premium and the viewer may not read it. Authors always see their own
// posts; PRO members see everything.
func (p Post) ForViewer(v *Viewer) Post {
	if !p.IsPremium {
		return p
	}
	if v != nil && (v.ID == p.Author.ID || v.IsPro()) {
		return p
	}
	p.Content = ""
	p.HTML = ""
	p.Locked = true
	return p
}

// Summary drops the body fields for list views.
func (p Post) Summary() Post {
	p.Content = ""
	p.HTML = ""
	p.Comments = nil
	return p
}
