// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package mail

import (
	"bytes"
	"html/template"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<div style="font-family: sans-serif; max-width: 560px; margin: 0 auto;">
<h1>Welcome to Lumina</h1>
<p>Thanks for subscribing, {{.Email}}. You will get our best stories on engineering, culture and craft.</p>
<p style="color:#888;font-size:12px;">You can unsubscribe at any time by replying to this email.</p>
</div>`))

// WelcomeMessage builds the newsletter welcome email for email.
func WelcomeMessage(email string) (Message, error) {
	var buf bytes.Buffer
	if err := welcomeTmpl.Execute(&buf, struct{ Email string }{email}); err != nil {
		return Message{}, err
	}
	return Message{
		To:      email,
		Subject: "Welcome to Lumina",
		HTML:    buf.String(),
		Text:    "Thanks for subscribing to Lumina, " + email + ".",
	}, nil
}
