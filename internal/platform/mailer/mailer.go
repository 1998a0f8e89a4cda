// Package mailer dispatches account notification emails carrying signed
// confirmation links. Dispatch is fire-and-forget: delivery failures are
// logged and never surfaced to the triggering operation.
package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"

	"github.com/google/uuid"

	"account_backend/internal/feature/user/domain/entity"
	"account_backend/internal/feature/user/usecase"
)

// LinkSigner mints the signed confirmation token embedded in the email.
type LinkSigner interface {
	Sign(userID uint, email, purpose string) (string, error)
}

// Event is a single notification delivery.
type Event struct {
	ID        string // uuid, for log correlation
	Purpose   string // usecase.NotifyRegistration or usecase.NotifyUpdate
	Recipient string
	Subject   string
	Body      string
}

// SMTPConfig holds delivery settings. A zero Host disables real delivery
// and events are logged only, which keeps local runs mail-server-free.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer builds and delivers notification events.
type Mailer struct {
	signer   LinkSigner
	baseURL  string
	smtp     SMTPConfig
	throttle *throttle
}

// New creates a Mailer. baseURL is the externally reachable prefix the
// confirmation endpoints are mounted under, e.g. "https://example.com".
func New(signer LinkSigner, baseURL string, smtp SMTPConfig) *Mailer {
	return &Mailer{
		signer:   signer,
		baseURL:  baseURL,
		smtp:     smtp,
		throttle: newThrottle(defaultSendLimit, defaultSendInterval),
	}
}

var _ usecase.Notifier = (*Mailer)(nil)

// Dispatch builds the notification for the given purpose and delivers it on
// a separate goroutine. It never blocks on or propagates delivery errors.
func (m *Mailer) Dispatch(user *entity.User, purpose string) {
	event, err := m.buildEvent(user, purpose)
	if err != nil {
		slog.Error("failed to build notification", "error", err, "user_id", user.ID, "purpose", purpose)
		return
	}

	go m.deliver(event)
}

// buildEvent signs a confirmation link bound to the account's current
// confirmed email and the purpose, and renders the message.
func (m *Mailer) buildEvent(user *entity.User, purpose string) (Event, error) {
	token, err := m.signer.Sign(user.ID, user.Email, purpose)
	if err != nil {
		return Event{}, err
	}

	event := Event{
		ID:      uuid.NewString(),
		Purpose: purpose,
	}

	switch purpose {
	case usecase.NotifyRegistration:
		event.Recipient = user.Email
		event.Subject = "Confirm your registration"
		event.Body = fmt.Sprintf(
			"Hello %s,\r\n\r\nPlease confirm your email address:\r\n%s/verify/email?id=%d&token=%s\r\n",
			user.FirstName, m.baseURL, user.ID, token)
	case usecase.NotifyUpdate:
		// The link is clicked from the new address, but the token stays
		// bound to the old confirmed one until promotion succeeds.
		event.Recipient = user.PendingEmail
		event.Subject = "Confirm your new email address"
		event.Body = fmt.Sprintf(
			"Hello %s,\r\n\r\nPlease confirm your new email address:\r\n%s/verify/email-update?id=%d&token=%s\r\n",
			user.FirstName, m.baseURL, user.ID, token)
	default:
		return Event{}, fmt.Errorf("unknown notification purpose: %q", purpose)
	}

	return event, nil
}

// deliver sends a single event, throttled to protect the upstream relay.
func (m *Mailer) deliver(event Event) {
	m.throttle.waitIfNeeded()

	if m.smtp.Host == "" {
		slog.Info("mail delivery skipped (no smtp host)",
			"event_id", event.ID, "purpose", event.Purpose, "recipient", event.Recipient)
		return
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.smtp.From, event.Recipient, event.Subject, event.Body)

	addr := fmt.Sprintf("%s:%d", m.smtp.Host, m.smtp.Port)
	var auth smtp.Auth
	if m.smtp.Username != "" {
		auth = smtp.PlainAuth("", m.smtp.Username, m.smtp.Password, m.smtp.Host)
	}

	if err := smtp.SendMail(addr, auth, m.smtp.From, []string{event.Recipient}, []byte(msg)); err != nil {
		slog.Error("mail delivery failed",
			"error", err, "event_id", event.ID, "purpose", event.Purpose, "recipient", event.Recipient)
		return
	}

	slog.Info("mail delivered", "event_id", event.ID, "purpose", event.Purpose, "recipient", event.Recipient)
}
