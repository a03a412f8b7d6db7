// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"strings"
	"time"
)

const deleteBookmark = `DELETE FROM bookmarks WHERE user_id = ? AND post_id = ?`

// DeleteBookmark removes the bookmark and reports how many rows went away.
func (q *Queries) DeleteBookmark(ctx context.Context, userID, postID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteBookmark, userID, postID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertBookmarkIfAbsent = `INSERT INTO bookmarks (id, user_id, post_id, created_at)
SELECT ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM bookmarks WHERE user_id = ? AND post_id = ?)`

type InsertBookmarkParams struct {
	ID        string
	UserID    string
	PostID    string
	CreatedAt time.Time
}

// InsertBookmarkIfAbsent inserts the bookmark unless the pair already exists.
func (q *Queries) InsertBookmarkIfAbsent(ctx context.Context, arg InsertBookmarkParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertBookmarkIfAbsent,
		arg.ID, arg.UserID, arg.PostID, arg.CreatedAt,
		arg.UserID, arg.PostID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

var listBookmarkedPosts = `SELECT ` + strings.Join(postWithAuthorColumns, ", ") + `
FROM bookmarks b
JOIN posts p ON p.id = b.post_id
JOIN users u ON u.id = p.author_id
WHERE b.user_id = ?
ORDER BY b.created_at DESC`

// ListBookmarkedPosts returns the posts a user bookmarked, most recent
// bookmark first.
func (q *Queries) ListBookmarkedPosts(ctx context.Context, userID string) ([]PostWithAuthor, error) {
	rows, err := q.db.QueryContext(ctx, listBookmarkedPosts, userID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []PostWithAuthor
	for rows.Next() {
		pa, err := scanPostWithAuthor(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, pa)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
