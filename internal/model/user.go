// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the view models returned by the service layer:
// posts, authors, comments, viewers and event log constants.
package model

// Membership plans.
const (
	PlanFree = "FREE"
	PlanPro  = "PRO"
)

// Viewer is the signed-in user as seen by the session.
type Viewer struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Image      string `json:"image"`
	Bio        string `json:"bio,omitempty"`
	Plan       string `json:"plan"`
	IsVerified bool   `json:"isVerified"`
}

// IsPro returns true if the viewer has the PRO plan.
func (v *Viewer) IsPro() bool {
	return v != nil && v.Plan == PlanPro
}

// Profile is a public author page.
type Profile struct {
	User      Viewer `json:"user"`
	Followers int64  `json:"followers"`
	Posts     []Post `json:"posts"`
}

// PostStats is one row of the author dashboard.
type PostStats struct {
	ID          string `json:"id"`
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Published   bool   `json:"published"`
	Claps       int64  `json:"claps"`
	Views       int64  `json:"views"`
	Comments    int64  `json:"comments"`
	Bookmarks   int64  `json:"bookmarks"`
	PublishedAt string `json:"publishedAt"`
	IsPremium   bool   `json:"isPremium"`
	Category    string `json:"category"`
}
