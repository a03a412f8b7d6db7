// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/lumina/internal/mail"
	"github.com/olegiv/lumina/internal/testutil"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []mail.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

func TestSubscribe(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	mailer := &recordingMailer{}
	svc := NewNewsletterService(db, mailer, testutil.TestLoggerSilent(), 0)
	ctx := context.Background()

	created, err := svc.Subscribe(ctx, " Reader@Example.com ")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = svc.Subscribe(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, created)

	svc.Wait()
	require.Equal(t, 1, mailer.count())
	assert.Equal(t, "reader@example.com", mailer.sent[0].To)

	_, err = svc.Subscribe(ctx, "nope")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSubscribe_MailFailureIsNotFatal(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()

	mailer := &recordingMailer{err: errors.New("smtp down")}
	svc := NewNewsletterService(db, mailer, testutil.TestLoggerSilent(), 0)

	created, err := svc.Subscribe(context.Background(), "x@example.com")
	require.NoError(t, err)
	assert.True(t, created)

	svc.Wait()
	assert.Equal(t, 1, mailer.count())
}
