// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"time"
)

const subscribeNewsletter = `INSERT INTO newsletter_subscribers (id, email, created_at)
SELECT ?, ?, ?
WHERE NOT EXISTS (SELECT 1 FROM newsletter_subscribers WHERE email = ?)`

type SubscribeNewsletterParams struct {
	ID        string
	Email     string
	CreatedAt time.Time
}

// SubscribeNewsletter records the address once. It reports whether a new row
// was written.
func (q *Queries) SubscribeNewsletter(ctx context.Context, arg SubscribeNewsletterParams) (bool, error) {
	res, err := q.db.ExecContext(ctx, subscribeNewsletter, arg.ID, arg.Email, arg.CreatedAt, arg.Email)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

const getNewsletterSubscriber = `SELECT id, email, created_at FROM newsletter_subscribers WHERE email = ?`

func (q *Queries) GetNewsletterSubscriber(ctx context.Context, email string) (NewsletterSubscriber, error) {
	var s NewsletterSubscriber
	err := q.db.QueryRowContext(ctx, getNewsletterSubscriber, email).Scan(&s.ID, &s.Email, &s.CreatedAt)
	return s, err
}
