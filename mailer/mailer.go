// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package mailer

import "log/slog"

// Mailer delivers one-time voting codes. The to argument is a user id;
// the transport resolves it to an address. Transport lives outside this
// service; the handlers only depend on this interface. Unlike the
// WebSocket notifications, a delivery failure here is a hard error for the
// caller - without the email the voter has no path to a code.
type Mailer interface {
	SendVoteCode(to, eventTitle, code string) error
}

// Func adapts a function to the Mailer interface.
type Func func(to, eventTitle, code string) error

func (f Func) SendVoteCode(to, eventTitle, code string) error {
	return f(to, eventTitle, code)
}

// LogMailer logs the code instead of sending it. Used in development and
// as the default when no transport is configured.
type LogMailer struct {
	From string
}

func (m LogMailer) SendVoteCode(to, eventTitle, code string) error {
	slog.Info("vote code issued (log mailer, not sent)",
		"from", m.From,
		"to", to,
		"event", eventTitle,
	)
	return nil
}
