package notes

import (
	"context"
	"fmt"
	"log/slog"
)

const JobAnnounce = "note_announce"

// Mailer delivers a note to a set of addresses and reports how many the mail
// server accepted.
type Mailer interface {
	SendNote(ctx context.Context, to []string, subject string, note Note) (accepted int, err error)
}

type Recipients interface {
	EmailsByRole(ctx context.Context, role string) ([]string, error)
}

type Enqueuer interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}

// Announcer e-mails freshly created notes to every user holding Role. Delivery
// happens on the job worker so the caller never waits on SMTP.
type Announcer struct {
	Mailer     Mailer
	Recipients Recipients
	Jobs       Enqueuer
	Role       string
	Subject    func(note Note) string
}

func (a *Announcer) Announce(_ context.Context, note Note) {
	if a == nil || a.Mailer == nil || a.Recipients == nil || a.Jobs == nil {
		return
	}
	a.Jobs.Enqueue(JobAnnounce, func(ctx context.Context) (any, error) {
		return a.deliver(ctx, note)
	})
}

func (a *Announcer) deliver(ctx context.Context, note Note) (any, error) {
	emails, err := a.Recipients.EmailsByRole(ctx, a.Role)
	if err != nil {
		return nil, fmt.Errorf("load %s recipients: %w", a.Role, err)
	}

	subject := note.Title
	if a.Subject != nil {
		subject = a.Subject(note)
	}
	sent, err := a.Mailer.SendNote(ctx, emails, subject, note)
	if err != nil {
		slog.Warn("note announcement send failed", "noteId", note.ID, "recipients", len(emails), "err", err)
		return nil, fmt.Errorf("announce note %s: %w", note.ID, err)
	}
	return map[string]any{"noteId": note.ID, "name": note.Name, "sent": sent, "failed": len(emails) - sent}, nil
}
