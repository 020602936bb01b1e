package mail

import (
	"context"

	"github.com/rs/zerolog"
)

// LogMailer writes the recipient to the log instead of sending anything. The
// link is logged at debug level only, since it is a live credential.
type LogMailer struct {
	log zerolog.Logger
}

// NewLogMailer returns a mailer for environments without an SMTP relay.
func NewLogMailer(log zerolog.Logger) *LogMailer {
	return &LogMailer{log: log.With().Str("component", "mail").Logger()}
}

// SendPasswordReset logs the would-be delivery.
func (m *LogMailer) SendPasswordReset(_ context.Context, to, link string) error {
	m.log.Info().Str("to", to).Msg("smtp not configured; reset email not sent")
	m.log.Debug().Str("to", to).Str("link", link).Msg("reset link")
	return nil
}
