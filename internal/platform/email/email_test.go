package email

import (
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/platform/config"
)

var milestoneNote = notes.Note{
	Title:   "Congratulations on 250 customers",
	Content: "Keep it up!",
	Source:  "customer-milestone-notifier",
	Actions: []notes.Action{{Label: "View customer report", URL: "https://shop.example.com/admin/analytics/customers"}},
}

func TestNewReturnsNoopWhenDisabled(t *testing.T) {
	mailer := New(config.Config{EmailEnabled: false, SMTPHost: "smtp.example.com"})
	_, ok := mailer.(noopMailer)
	require.True(t, ok, "expected noop mailer, got %T", mailer)

	sent, err := mailer.SendNote(context.Background(), []string{"owner@example.com"}, "s", milestoneNote)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestNoteMessageRendersActionsAndSignature(t *testing.T) {
	msg := NoteMessage("from@example.com", []string{"a@example.com", "b@example.com"}, "Shop-Meilenstein: 250 Kunden", milestoneNote)
	msg.Date = time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC)
	raw := string(msg.Bytes())

	assert.Contains(t, raw, "From: from@example.com\r\n")
	assert.Contains(t, raw, "To: a@example.com, b@example.com\r\n")
	assert.Contains(t, raw, "Subject: Shop-Meilenstein: 250 Kunden\r\n")
	assert.Contains(t, raw, "Date: Sun, 01 Nov 2026 09:00:00 +0000\r\n")
	assert.Contains(t, raw, "\r\n\r\nCongratulations on 250 customers\r\n\r\nKeep it up!\r\n")
	assert.Contains(t, raw, "View customer report: https://shop.example.com/admin/analytics/customers\r\n")
	assert.True(t, strings.HasSuffix(raw, "-- \r\ncustomer-milestone-notifier\r\n"))
}

func TestNoteMessageEncodesNonASCIISubject(t *testing.T) {
	msg := NoteMessage("from@example.com", []string{"a@example.com"}, "Glückwunsch", milestoneNote)
	assert.Contains(t, string(msg.Bytes()), "Subject: =?utf-8?q?Gl=C3=BCckwunsch?=\r\n")

	fallback := NoteMessage("from@example.com", nil, "", milestoneNote)
	assert.Equal(t, milestoneNote.Title, fallback.Subject)
}

type smtpSession struct {
	from string
	rcpt []string
	data string
}

// serveSMTP answers one SMTP session, refusing any recipient containing "bounce".
func serveSMTP(t *testing.T) (host string, port int, done <-chan smtpSession) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan smtpSession, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		var s smtpSession
		_ = tp.PrintfLine("220 mail.test ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				out <- s
				return
			}
			switch {
			case strings.HasPrefix(line, "EHLO"), strings.HasPrefix(line, "HELO"):
				_ = tp.PrintfLine("250 mail.test")
			case strings.HasPrefix(line, "MAIL FROM:"):
				s.from = strings.Trim(strings.TrimPrefix(line, "MAIL FROM:"), "<>")
				_ = tp.PrintfLine("250 ok")
			case strings.HasPrefix(line, "RCPT TO:"):
				rcpt := strings.Trim(strings.TrimPrefix(line, "RCPT TO:"), "<>")
				if strings.Contains(rcpt, "bounce") {
					_ = tp.PrintfLine("550 no such user")
					continue
				}
				s.rcpt = append(s.rcpt, rcpt)
				_ = tp.PrintfLine("250 ok")
			case line == "DATA":
				_ = tp.PrintfLine("354 end with .")
				data, _ := tp.ReadDotBytes()
				s.data = string(data)
				_ = tp.PrintfLine("250 queued")
			case line == "QUIT":
				_ = tp.PrintfLine("221 bye")
				out <- s
				return
			default:
				_ = tp.PrintfLine("502 not implemented")
			}
		}
	}()

	h, p, err := net.SplitHostPort(ln.Addr().String())
	require.NoError(t, err)
	port, err = strconv.Atoi(p)
	require.NoError(t, err)
	return h, port, out
}

func TestSMTPMailerSendsOneSessionAndSkipsRejected(t *testing.T) {
	host, port, done := serveSMTP(t)
	mailer := New(config.Config{
		EmailEnabled: true,
		EmailFrom:    "no-reply@shop.example.com",
		SMTPHost:     host,
		SMTPPort:     port,
	})

	to := []string{"owner@example.com", " ", "OWNER@example.com", "bounce@example.com", "ops@example.com"}
	sent, err := mailer.SendNote(context.Background(), to, "Store milestone", milestoneNote)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)

	session := <-done
	assert.Equal(t, "no-reply@shop.example.com", session.from)
	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, session.rcpt)
	assert.Contains(t, session.data, "Subject: Store milestone")
	assert.Contains(t, session.data, "View customer report: https://shop.example.com/admin/analytics/customers")
}

func TestSMTPMailerFailsWhenEveryRecipientIsRejected(t *testing.T) {
	host, port, _ := serveSMTP(t)
	mailer := New(config.Config{EmailEnabled: true, EmailFrom: "no-reply@shop.example.com", SMTPHost: host, SMTPPort: port})

	sent, err := mailer.SendNote(context.Background(), []string{"bounce@example.com"}, "", milestoneNote)
	assert.ErrorIs(t, err, ErrNoRecipients)
	assert.Zero(t, sent)
}
