package notes

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type auditCall struct {
	actor, action, entityType, entityID, requestID string
}

type fakeAudit struct {
	calls []auditCall
}

func (f *fakeAudit) Record(_ context.Context, actorID, action, entityType, entityID, requestID string, _ any) error {
	f.calls = append(f.calls, auditCall{actorID, action, entityType, entityID, requestID})
	return nil
}

func TestServiceRecordsAudit(t *testing.T) {
	store := newSQLiteStore(t)
	audit := &fakeAudit{}
	svc := NewService(store, audit)
	ctx := context.Background()

	note, _, err := store.InsertUnique(ctx, Note{Name: "first-customer", Title: "First Customer", Marker: "first_customer"})
	require.NoError(t, err)

	require.NoError(t, svc.MarkActioned(ctx, "admin-1", "req-1", note.ID))
	require.NoError(t, svc.Delete(ctx, "admin-1", "req-2", note.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "admin-1", "req-3", note.ID), ErrNoteNotFound)

	require.Len(t, audit.calls, 2)
	assert.Equal(t, auditCall{"admin-1", "note.actioned", "note", note.ID, "req-1"}, audit.calls[0])
	assert.Equal(t, "note.deleted", audit.calls[1].action)
}

type fakeMailer struct {
	mu      sync.Mutex
	to      []string
	subject string
	note    Note
	err     error
}

func (m *fakeMailer) SendNote(_ context.Context, to []string, subject string, note Note) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.to, m.subject, m.note = to, subject, note
	return len(to), nil
}

type staticRecipients []string

func (r staticRecipients) EmailsByRole(context.Context, string) ([]string, error) { return r, nil }

type inlineJobs struct {
	results []any
}

func (j *inlineJobs) Enqueue(_ string, run func(context.Context) (any, error)) {
	out, _ := run(context.Background())
	j.results = append(j.results, out)
}

func TestAnnouncerDeliversToRecipients(t *testing.T) {
	mailer := &fakeMailer{}
	jobs := &inlineJobs{}
	a := &Announcer{
		Mailer:     mailer,
		Recipients: staticRecipients{"owner@example.com", "ops@example.com"},
		Jobs:       jobs,
		Role:       "administrator",
		Subject:    func(n Note) string { return "Store milestone: " + n.Title },
	}

	a.Announce(context.Background(), Note{ID: "n1", Name: "first-customer", Title: "First Customer", Content: "Congrats"})

	assert.Equal(t, []string{"owner@example.com", "ops@example.com"}, mailer.to)
	assert.Equal(t, "Store milestone: First Customer", mailer.subject)
	assert.Equal(t, "n1", mailer.note.ID)
	require.Len(t, jobs.results, 1)
	assert.Equal(t, 2, jobs.results[0].(map[string]any)["sent"])
	assert.Equal(t, 0, jobs.results[0].(map[string]any)["failed"])
}

func TestAnnouncerReportsMailerFailure(t *testing.T) {
	mailer := &fakeMailer{err: errors.New("connection refused")}
	var jobErr error
	a := &Announcer{
		Mailer:     mailer,
		Recipients: staticRecipients{"owner@example.com"},
		Jobs:       enqueueFunc(func(run func(context.Context) (any, error)) { _, jobErr = run(context.Background()) }),
		Role:       "administrator",
	}

	a.Announce(context.Background(), Note{ID: "n2", Title: "250 customers"})
	assert.ErrorContains(t, jobErr, "connection refused")
}

type enqueueFunc func(run func(context.Context) (any, error))

func (f enqueueFunc) Enqueue(_ string, run func(context.Context) (any, error)) { f(run) }

func TestAnnouncerWithoutMailerIsNoop(t *testing.T) {
	var a *Announcer
	a.Announce(context.Background(), Note{})
	(&Announcer{}).Announce(context.Background(), Note{})
}
