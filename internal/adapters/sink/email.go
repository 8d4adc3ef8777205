package sink

import (
	"context"

	"github.com/ninelmnts/leadintake/internal/domain/lead"
)

// SMTPSettings are accepted for the email sink but not used for delivery yet.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

// Email is the email notification sink. Delivery is not implemented: it
// reports ErrNotImplemented whether or not SMTP is configured.
type Email struct {
	settings SMTPSettings
}

// NewEmail creates the email sink.
func NewEmail(settings SMTPSettings) *Email {
	return &Email{settings: settings}
}

// Name implements Sink.
func (e *Email) Name() string { return NameEmail }

// Configured reports whether the SMTP credentials are present.
func (e *Email) Configured() bool {
	return e.settings.Host != "" && e.settings.Username != "" && e.settings.Password != ""
}

// Deliver implements Sink.
func (e *Email) Deliver(_ context.Context, _ lead.Lead) Result {
	return Failed(ErrNotImplemented)
}
