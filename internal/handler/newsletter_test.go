// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/olegiv/lumina/internal/service"
)

type fakeSubscriber struct {
	emails map[string]bool
}

func (f *fakeSubscriber) Subscribe(_ context.Context, email string) (bool, error) {
	if !strings.Contains(email, "@") {
		return false, service.ErrInvalidInput
	}
	isNew := !f.emails[email]
	f.emails[email] = true
	return isNew, nil
}

func TestNewsletterSubscribe(t *testing.T) {
	sub := &fakeSubscriber{emails: map[string]bool{}}
	h := http.HandlerFunc(NewNewsletterHandler(sub).Subscribe)

	for range 2 {
		rr := serve(h, newRequest(http.MethodPost, "/api/newsletter/subscribe", `{"email":"fan@example.com"}`, nil))
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"success":true}`, rr.Body.String())
	}

	rr := serve(h, newRequest(http.MethodPost, "/api/newsletter/subscribe", `{"email":"nope"}`, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
