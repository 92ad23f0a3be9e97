// Package notify is the outbound e-mail sink. Delivery is best-effort:
// callers get an error back but never roll anything back because of it.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

//go:generate mockgen -destination=mocks/mock_sender.go -package=mocks campus-canteen-api/notify Sender

type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers one message with no retry
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSender sends plain-text mail through an SMTP relay
type SMTPSender struct {
	Host string
	Port int
	User string
	Pass string
	From string
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := s.Host + ":" + strconv.Itoa(s.Port)
	var auth smtp.Auth
	if s.User != "" {
		auth = smtp.PlainAuth("", s.User, s.Pass, s.Host)
	}
	from := s.From
	if from == "" {
		from = s.User
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: \"MITS Canteen\" <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(msg.Body)
	return smtp.SendMail(addr, auth, from, []string{msg.To}, []byte(b.String()))
}

// LogSender stands in when SMTP is not configured
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) Send(_ context.Context, msg Message) error {
	s.Logger.Info("mail not configured, dropping message", "to", msg.To, "subject", msg.Subject)
	return nil
}

// Mailer retries a Sender a fixed number of times with a fixed pause.
type Mailer struct {
	Sender   Sender
	Attempts uint
	Backoff  time.Duration
	Logger   *slog.Logger
}

func (m *Mailer) Send(ctx context.Context, msg Message) error {
	attempts := m.Attempts
	if attempts == 0 {
		attempts = 3
	}
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, m.Sender.Send(ctx, msg)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(m.Backoff)),
		backoff.WithMaxTries(attempts),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.Logger.Warn("mail attempt failed", "to", msg.To, "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("send mail after %d attempts: %w", attempts, err)
	}
	return nil
}
