package milestones

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"milestonenotifier/internal/domain/notes"
	"milestonenotifier/internal/platform/hooks"
	"milestonenotifier/internal/platform/i18n"
)

const DefaultSource = "customer-milestone-notifier"

type UserRegistry interface {
	CountByRole(ctx context.Context, role string) (int, error)
}

type NoteStore interface {
	FindByName(ctx context.Context, name string) ([]notes.Note, error)
	InsertUnique(ctx context.Context, note notes.Note) (notes.Note, bool, error)
	ReplaceByName(ctx context.Context, note notes.Note) (notes.Note, error)
	DeleteByName(ctx context.Context, name string) (int64, error)
}

type Announcer interface {
	Announce(ctx context.Context, note notes.Note)
}

type Metrics interface {
	MilestoneReached(name string)
	NoteCreated(name string)
	DuplicateSkipped(name string)
	NotesRemoved(n int64)
}

type Settings struct {
	CustomerRole      string
	Locale            string
	Location          *time.Location
	Source            string
	AnalyticsURL      string
	SuccessStoriesURL string
}

// Notifier evaluates the customer count after each registration and keeps the
// milestone notes in the store up to date.
type Notifier struct {
	users        UserRegistry
	store        NoteStore
	settings     Settings
	printer      *i18n.Printer
	capabilities []Capability

	Announcer Announcer
	Metrics   Metrics
	Now       func() time.Time
}

func New(users UserRegistry, store NoteStore, settings Settings, capabilities ...Capability) *Notifier {
	if settings.CustomerRole == "" {
		settings.CustomerRole = "customer"
	}
	if settings.Source == "" {
		settings.Source = DefaultSource
	}
	if settings.Location == nil {
		settings.Location = time.UTC
	}
	return &Notifier{
		users:        users,
		store:        store,
		settings:     settings,
		printer:      i18n.NewPrinter(settings.Locale),
		capabilities: capabilities,
		Now:          time.Now,
	}
}

// CheckCapabilities returns ErrMissingCapability naming the first absent
// capability.
func (n *Notifier) CheckCapabilities(ctx context.Context) error {
	for _, c := range n.capabilities {
		if !c.Available(ctx) {
			return fmt.Errorf("%w: %s", ErrMissingCapability, c.Name())
		}
	}
	return nil
}

// OnCustomerRegistered is the user_register handler. The event payload is not
// used; the current customer count decides what happens.
func (n *Notifier) OnCustomerRegistered(ctx context.Context, _ hooks.Event) error {
	if err := n.CheckCapabilities(ctx); err != nil {
		slog.Debug("milestone check skipped", "err", err)
		return nil
	}

	count, err := n.users.CountByRole(ctx, n.settings.CustomerRole)
	if err != nil {
		return fmt.Errorf("count %s users: %w", n.settings.CustomerRole, err)
	}

	_, err = n.Evaluate(ctx, count)
	return err
}

// Evaluate applies the milestone rules for count. It returns the note that
// was written, or nil when nothing changed.
func (n *Notifier) Evaluate(ctx context.Context, count int) (*notes.Note, error) {
	kind, ok := KindFor(count)
	if !ok {
		return nil, nil
	}
	n.metric(func(m Metrics) { m.MilestoneReached(string(kind)) })

	switch kind {
	case KindFirstCustomer, KindTenthCustomer:
		return n.createOnce(ctx, kind, count)
	default:
		return n.replaceOther(ctx, count)
	}
}

func (n *Notifier) createOnce(ctx context.Context, kind Kind, count int) (*notes.Note, error) {
	existing, err := n.store.FindByName(ctx, string(kind))
	if err != nil {
		return nil, fmt.Errorf("find %s notes: %w", kind, err)
	}
	for _, note := range existing {
		content, err := ContentOf(note)
		if err != nil {
			return nil, err
		}
		if content.HasMarker(kind) {
			n.skipped(kind)
			return nil, nil
		}
	}

	note, err := n.buildNote(kind, count)
	if err != nil {
		return nil, err
	}
	stored, created, err := n.store.InsertUnique(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("insert %s note: %w", kind, err)
	}
	if !created {
		n.skipped(kind)
		return nil, nil
	}
	n.created(ctx, stored)
	return &stored, nil
}

// replaceOther swaps in a fresh other-milestone note. When the note being
// replaced already announced the same milestone, its status carries over and
// administrators are not mailed again.
func (n *Notifier) replaceOther(ctx context.Context, count int) (*notes.Note, error) {
	existing, err := n.store.FindByName(ctx, string(KindOtherMilestone))
	if err != nil {
		return nil, fmt.Errorf("find %s notes: %w", KindOtherMilestone, err)
	}
	note, err := n.buildNote(KindOtherMilestone, count)
	if err != nil {
		return nil, err
	}
	repeat := false
	for _, prev := range existing {
		content, err := ContentOf(prev)
		if err != nil {
			return nil, err
		}
		if content.Milestone == count {
			repeat = true
			note.Status = prev.Status
			note.ActionedAt = prev.ActionedAt
		}
	}

	stored, err := n.store.ReplaceByName(ctx, note)
	if err != nil {
		return nil, fmt.Errorf("replace %s note: %w", KindOtherMilestone, err)
	}
	if repeat {
		slog.Info("milestone note refreshed", "name", stored.Name, "noteId", stored.ID, "milestone", count)
		n.metric(func(m Metrics) { m.NoteCreated(stored.Name) })
		return &stored, nil
	}
	n.created(ctx, stored)
	return &stored, nil
}

// RemoveAllNotices deletes every note this notifier owns.
func (n *Notifier) RemoveAllNotices(ctx context.Context) (int64, error) {
	var total int64
	for _, kind := range Kinds {
		removed, err := n.store.DeleteByName(ctx, string(kind))
		if err != nil {
			return total, fmt.Errorf("delete %s notes: %w", kind, err)
		}
		total += removed
	}
	n.metric(func(m Metrics) { m.NotesRemoved(total) })
	slog.Info("milestone notes removed", "count", total)
	return total, nil
}

func (n *Notifier) buildNote(kind Kind, count int) (notes.Note, error) {
	activated := n.Now().In(n.settings.Location)
	data, err := json.Marshal(newContent(kind, count, activated))
	if err != nil {
		return notes.Note{}, fmt.Errorf("encode %s content: %w", kind, err)
	}

	p := n.printer
	note := notes.Note{
		Name:        string(kind),
		Type:        notes.TypeInfo,
		Locale:      p.Locale(),
		ContentData: data,
		Marker:      kind.Marker(),
		Icon:        NoteIcon,
		Source:      n.settings.Source,
		Status:      notes.StatusUnactioned,
		CreatedAt:   activated.UTC(),
	}

	switch kind {
	case KindFirstCustomer:
		note.Title = p.Sprintf(i18n.FirstCustomerTitle)
		note.Content = p.Sprintf(i18n.FirstCustomerBody)
		note.Actions = []notes.Action{{
			Name:    ActionCustomerAnalytics,
			Label:   p.Sprintf(i18n.ActionTrackCustomers),
			URL:     n.settings.AnalyticsURL,
			Primary: true,
		}}
	case KindTenthCustomer:
		note.Title = p.Sprintf(i18n.TenthCustomerTitle)
		note.Content = p.Sprintf(i18n.TenthCustomerBody)
		note.Actions = []notes.Action{{
			Name:    ActionSuccessStories,
			Label:   p.Sprintf(i18n.ActionSuccessStories),
			URL:     n.settings.SuccessStoriesURL,
			Primary: true,
		}}
	default:
		note.Title = p.Sprintf(i18n.OtherMilestoneTitle, p.Count(count))
		note.Content = p.Sprintf(i18n.OtherMilestoneBody)
		note.Actions = []notes.Action{{
			Name:    ActionCustomerAnalytics,
			Label:   p.Sprintf(i18n.ActionCustomerReport),
			URL:     n.settings.AnalyticsURL,
			Primary: true,
		}}
	}
	return note, nil
}

func (n *Notifier) created(ctx context.Context, note notes.Note) {
	slog.Info("milestone note created", "name", note.Name, "noteId", note.ID)
	n.metric(func(m Metrics) { m.NoteCreated(note.Name) })
	if n.Announcer != nil {
		n.Announcer.Announce(ctx, note)
	}
}

func (n *Notifier) skipped(kind Kind) {
	slog.Debug("milestone note already present", "name", kind)
	n.metric(func(m Metrics) { m.DuplicateSkipped(string(kind)) })
}

func (n *Notifier) metric(fn func(Metrics)) {
	if n.Metrics != nil {
		fn(n.Metrics)
	}
}
