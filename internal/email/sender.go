// Package email provides the outbound email capability used by the
// messaging dispatcher. Delivery is a single Send operation; template
// resolution and personalization live in the messaging module.
package email

import "context"

// Sender delivers a single HTML email.
type Sender interface {
	Send(ctx context.Context, toEmail, subject, htmlContent string) error
}

// NoopSender is used when email is not configured. Sends succeed silently
// so local development works without an SMTP server.
type NoopSender struct{}

// Send implements Sender.
func (NoopSender) Send(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

var _ Sender = NoopSender{}
