// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/lumina/internal/mail"
	"github.com/olegiv/lumina/internal/model"
	"github.com/olegiv/lumina/internal/store"
)

// mailTimeout bounds one background welcome delivery.
const mailTimeout = 30 * time.Second

// NewsletterService records subscribers and sends the welcome email.
type NewsletterService struct {
	queries *store.Queries
	mailer  mail.Mailer
	logger  *slog.Logger
	timeout time.Duration
	now     func() time.Time
	wg      sync.WaitGroup
}

// NewNewsletterService creates a NewsletterService.
func NewNewsletterService(db *sql.DB, mailer mail.Mailer, logger *slog.Logger, timeout time.Duration) *NewsletterService {
	if logger == nil {
		logger = slog.Default()
	}
	if mailer == nil {
		mailer = mail.NewLogMailer(logger)
	}
	if timeout <= 0 {
		timeout = defaultDBTimeout
	}
	return &NewsletterService{
		queries: store.New(db),
		mailer:  mailer,
		logger:  logger,
		timeout: timeout,
		now:     time.Now,
	}
}

// Subscribe records email and, for a new subscriber, sends the welcome email
// in the background. Delivery failures are logged and never returned.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	if !ValidEmail(email) {
		return false, fmt.Errorf("%w: email is not valid", ErrInvalidInput)
	}

	dbCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	created, err := s.queries.SubscribeNewsletter(dbCtx, store.SubscribeNewsletterParams{
		ID:        uuid.NewString(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		return false, fmt.Errorf("subscribing: %w", err)
	}

	if created {
		s.logger.Info("newsletter subscription", "category", model.EventCategoryNewsletter)
		s.sendWelcome(email)
	}
	return created, nil
}

func (s *NewsletterService) sendWelcome(email string) {
	msg, err := mail.WelcomeMessage(email)
	if err != nil {
		s.logger.Error("building welcome email failed", "error", err, "category", model.EventCategoryNewsletter)
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		if err := s.mailer.Send(ctx, msg); err != nil {
			s.logger.Warn("welcome email not delivered", "error", err, "category", model.EventCategoryNewsletter)
		}
	}()
}

// Wait blocks until background deliveries have finished.
func (s *NewsletterService) Wait() {
	s.wg.Wait()
}
