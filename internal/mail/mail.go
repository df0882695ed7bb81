// Package mail delivers transactional email (OTP codes, password-reset links).
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"strconv"
	"strings"
	"sync"

	"inkwell/internal/config"
	"inkwell/internal/observability"
)

// Message is a plain-text email. Template labels metrics and logs.
type Message struct {
	To       string
	Subject  string
	Body     string
	Template string
}

// Mailer sends a message. Delivery is attempted once; callers surface failures.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New returns an SMTP mailer when SMTP_HOST is set and a logging mailer otherwise.
func New(cfg *config.Config, logger *slog.Logger) Mailer {
	if cfg.SMTPHost == "" {
		return NewLogMailer(logger)
	}
	return NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.MailFrom)
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer sends through an SMTP relay with PLAIN auth (STARTTLS is negotiated by net/smtp).
type SMTPMailer struct {
	addr string
	host string
	auth smtp.Auth
	from string
	send sendFunc
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	var auth smtp.Auth
	if username != "" {
		auth = smtp.PlainAuth("", username, password, host)
	}
	if from == "" {
		from = username
	}
	return &SMTPMailer{
		addr: host + ":" + strconv.Itoa(port),
		host: host,
		auth: auth,
		from: from,
		send: smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	_, span := observability.StartSpan(ctx, "mail.send")
	err := m.send(m.addr, m.auth, m.from, []string{msg.To}, m.render(msg))
	span.End(err)

	status := "sent"
	if err != nil {
		status = "failed"
		err = fmt.Errorf("smtp send to %s: %w", m.host, err)
	}
	observability.MailDeliveries.WithLabelValues(msg.Template, status).Inc()
	return err
}

func (m *SMTPMailer) render(msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + m.from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

// logHistory bounds how many messages a LogMailer remembers.
const logHistory = 100

// LogMailer logs messages instead of sending them. It keeps the most recent
// messages so development tooling and tests can read codes and links back.
type LogMailer struct {
	logger *slog.Logger
	mu     sync.Mutex
	sent   []Message
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	m.mu.Lock()
	if len(m.sent) == logHistory {
		copy(m.sent, m.sent[1:])
		m.sent = m.sent[:logHistory-1]
	}
	m.sent = append(m.sent, msg)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.InfoContext(ctx, "email not sent, SMTP disabled",
			slog.String("to", msg.To),
			slog.String("template", msg.Template),
			slog.String("subject", msg.Subject),
		)
	}
	observability.MailDeliveries.WithLabelValues(msg.Template, "logged").Inc()
	return nil
}

// Sent returns a copy of the remembered messages, oldest first.
func (m *LogMailer) Sent() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.sent...)
}

// Last returns the most recent message to addr.
func (m *LogMailer) Last(to string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].To == to {
			return m.sent[i], true
		}
	}
	return Message{}, false
}
