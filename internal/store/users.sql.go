// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

const userColumns = `id, name, email, password_hash, image, bio, is_verified, plan, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Image,
		&u.Bio,
		&u.IsVerified,
		&u.Plan,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

const createUser = `INSERT INTO users (
    id, name, email, password_hash, image, bio, is_verified, plan, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

type CreateUserParams struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Image        sql.NullString
	Bio          sql.NullString
	IsVerified   bool
	Plan         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	_, err := q.db.ExecContext(ctx, createUser,
		arg.ID,
		arg.Name,
		arg.Email,
		arg.PasswordHash,
		arg.Image,
		arg.Bio,
		arg.IsVerified,
		arg.Plan,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return q.GetUserByID(ctx, arg.ID)
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE id = ?`

func (q *Queries) GetUserByID(ctx context.Context, id string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, id))
}

const getUserByEmail = `SELECT ` + userColumns + ` FROM users WHERE email = ?`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByEmail, email))
}

const updateUserProfile = `UPDATE users SET name = ?, bio = ?, image = ?, updated_at = ? WHERE id = ?`

type UpdateUserProfileParams struct {
	ID        string
	Name      string
	Bio       sql.NullString
	Image     sql.NullString
	UpdatedAt time.Time
}

func (q *Queries) UpdateUserProfile(ctx context.Context, arg UpdateUserProfileParams) (User, error) {
	res, err := q.db.ExecContext(ctx, updateUserProfile, arg.Name, arg.Bio, arg.Image, arg.UpdatedAt, arg.ID)
	if err != nil {
		return User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return User{}, sql.ErrNoRows
	}
	return q.GetUserByID(ctx, arg.ID)
}

const updateUserPassword = `UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserPassword(ctx context.Context, id, hash string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserPassword, hash, updatedAt, id)
	return err
}

const updateUserPlan = `UPDATE users SET plan = ?, updated_at = ? WHERE id = ?`

func (q *Queries) UpdateUserPlan(ctx context.Context, id, plan string, updatedAt time.Time) error {
	_, err := q.db.ExecContext(ctx, updateUserPlan, plan, updatedAt, id)
	return err
}

const countUsers = `SELECT COUNT(*) FROM users`

func (q *Queries) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countUsers).Scan(&n)
	return n, err
}
