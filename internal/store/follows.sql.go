// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const deleteFollow = `DELETE FROM follows WHERE follower_id = ? AND following_id = ?`

func (q *Queries) DeleteFollow(ctx context.Context, followerID, followingID string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteFollow, followerID, followingID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertFollowIfAbsent = `INSERT INTO follows (id, follower_id, following_id, created_at)
SELECT ?, ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`

type InsertFollowParams struct {
	ID          string
	FollowerID  string
	FollowingID string
	CreatedAt   time.Time
}

func (q *Queries) InsertFollowIfAbsent(ctx context.Context, arg InsertFollowParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertFollowIfAbsent,
		arg.ID, arg.FollowerID, arg.FollowingID, arg.CreatedAt,
		arg.FollowerID, arg.FollowingID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const isFollowing = `SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = ? AND following_id = ?)`

func (q *Queries) IsFollowing(ctx context.Context, followerID, followingID string) (bool, error) {
	var ok bool
	err := q.db.QueryRowContext(ctx, isFollowing, followerID, followingID).Scan(&ok)
	return ok, err
}

const countFollowers = `SELECT COUNT(*) FROM follows WHERE following_id = ?`

func (q *Queries) CountFollowers(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countFollowers, userID).Scan(&n)
	return n, err
}
