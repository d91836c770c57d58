package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net"
	"net/smtp"
	"strings"
	"time"

	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/platform/config"
)

var ErrNoRecipients = errors.New("no recipient accepted")

// Message is a plain text mail ready for the SMTP DATA command.
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
	Date    time.Time
}

// NoteMessage renders an inbox note as mail: title and content, one
// "label: url" line per action, and the producing source as signature.
func NoteMessage(from string, to []string, subject string, note notes.Note) Message {
	var b strings.Builder
	b.WriteString(note.Title)
	b.WriteString("\r\n\r\n")
	b.WriteString(note.Content)
	b.WriteString("\r\n")
	if len(note.Actions) > 0 {
		b.WriteString("\r\n")
		for _, action := range note.Actions {
			fmt.Fprintf(&b, "%s: %s\r\n", action.Label, action.URL)
		}
	}
	if note.Source != "" {
		b.WriteString("\r\n-- \r\n")
		b.WriteString(note.Source)
		b.WriteString("\r\n")
	}
	if subject == "" {
		subject = note.Title
	}
	return Message{From: from, To: to, Subject: subject, Body: b.String()}
}

func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}
	headers := []string{
		"From: " + m.From,
		"To: " + strings.Join(m.To, ", "),
		"Subject: " + mime.QEncoding.Encode("utf-8", m.Subject),
		"Date: " + date.Format(time.RFC1123Z),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"Content-Transfer-Encoding: 8bit",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n\r\n" + m.Body)
}

type noopMailer struct{}

func (noopMailer) SendNote(context.Context, []string, string, notes.Note) (int, error) {
	return 0, nil
}

type smtpMailer struct {
	cfg config.Config
	now func() time.Time
}

// New returns an SMTP mailer, or a mailer that drops messages when e-mail is
// disabled.
func New(cfg config.Config) notes.Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg, now: time.Now}
}

// SendNote mails note to every address in one SMTP session. Addresses the
// server refuses are logged and skipped; accepted is the number that were not.
func (s *smtpMailer) SendNote(ctx context.Context, to []string, subject string, note notes.Note) (int, error) {
	recipients := uniqueAddresses(to)
	if len(recipients) == 0 {
		return 0, nil
	}
	msg := NoteMessage(s.cfg.EmailFrom, recipients, subject, note)
	msg.Date = s.now()
	return s.send(ctx, msg)
}

func (s *smtpMailer) send(ctx context.Context, msg Message) (int, error) {
	addr := net.JoinHostPort(s.cfg.SMTPHost, fmt.Sprint(s.cfg.SMTPPort))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return 0, err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.SMTPHost}); err != nil {
			return 0, fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return 0, fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := client.Mail(msg.From); err != nil {
		return 0, err
	}
	accepted := 0
	for _, rcpt := range msg.To {
		if err := client.Rcpt(rcpt); err != nil {
			slog.Warn("smtp recipient rejected", "to", rcpt, "err", err)
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return 0, ErrNoRecipients
	}

	w, err := client.Data()
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(msg.Bytes()); err != nil {
		_ = w.Close()
		return 0, err
	}
	if err := w.Close(); err != nil {
		return 0, err
	}
	return accepted, client.Quit()
}

func uniqueAddresses(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, addr := range in {
		addr = strings.TrimSpace(addr)
		key := strings.ToLower(addr)
		if addr == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, addr)
	}
	return out
}
