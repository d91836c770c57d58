package milestones

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"milestonenotifier/internal/platform/hooks"
)

// HandlerID is the id the notifier registers under on the hook registry.
const HandlerID = "customer-milestone-notifier"

// Registrar is the part of the hook registry the plugin uses.
type Registrar interface {
	Add(hook, id string, priority int, fn hooks.Handler)
	Remove(hook, id string) bool
}

// Plugin ties the notifier to the registration hook.
type Plugin struct {
	notifier *Notifier
	hooks    Registrar

	mu     sync.Mutex
	active bool
}

func NewPlugin(notifier *Notifier, registrar Registrar) *Plugin {
	return &Plugin{notifier: notifier, hooks: registrar}
}

func (p *Plugin) Notifier() *Notifier {
	return p.notifier
}

// Activate fails with ErrMissingCapability when a required subsystem is absent.
// Activating twice leaves a single registration.
func (p *Plugin) Activate(ctx context.Context) error {
	if err := p.notifier.CheckCapabilities(ctx); err != nil {
		return fmt.Errorf("activate milestone notifier: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks.Add(hooks.UserRegister, HandlerID, hooks.DefaultPriority, p.notifier.OnCustomerRegistered)
	if !p.active {
		slog.Info("milestone notifier activated")
	}
	p.active = true
	return nil
}

// Deactivate unregisters the hook and removes every milestone note.
func (p *Plugin) Deactivate(ctx context.Context) (int64, error) {
	p.mu.Lock()
	p.hooks.Remove(hooks.UserRegister, HandlerID)
	p.active = false
	p.mu.Unlock()

	removed, err := p.notifier.RemoveAllNotices(ctx)
	if err != nil {
		return removed, fmt.Errorf("deactivate milestone notifier: %w", err)
	}
	slog.Info("milestone notifier deactivated", "removed", removed)
	return removed, nil
}

func (p *Plugin) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.active
}
