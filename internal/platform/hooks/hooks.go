// Package hooks is a small in-process action registry. Handlers attach to a
// named hook and run synchronously, in priority order, whenever that hook is
// dispatched.
package hooks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// UserRegister fires after a user account has been committed.
const UserRegister = "user_register"

// DefaultPriority matches the ordering used when a caller has no preference.
const DefaultPriority = 10

type Event struct {
	Hook       string
	UserID     string
	Role       string
	OccurredAt time.Time
}

type Handler func(ctx context.Context, event Event) error

type entry struct {
	id       string
	priority int
	seq      uint64
	fn       Handler
}

type Registry struct {
	mu      sync.RWMutex
	seq     uint64
	entries map[string][]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: map[string][]entry{}}
}

// Add attaches fn to hook under id. Adding an id that is already attached
// replaces the previous handler and keeps its original position among
// handlers of equal priority.
func (r *Registry) Add(hook, id string, priority int, fn Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[hook]
	for i := range list {
		if list[i].id == id {
			list[i].fn = fn
			list[i].priority = priority
			sortEntries(list)
			return
		}
	}
	r.seq++
	list = append(list, entry{id: id, priority: priority, seq: r.seq, fn: fn})
	sortEntries(list)
	r.entries[hook] = list
}

func (r *Registry) Remove(hook, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	list := r.entries[hook]
	for i := range list {
		if list[i].id == id {
			r.entries[hook] = append(list[:i:i], list[i+1:]...)
			return true
		}
	}
	return false
}

func (r *Registry) Has(hook, id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries[hook] {
		if e.id == id {
			return true
		}
	}
	return false
}

// Dispatch runs every handler attached to event.Hook. The first handler error
// stops the dispatch and is returned to the caller.
func (r *Registry) Dispatch(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}

	r.mu.RLock()
	list := make([]entry, len(r.entries[event.Hook]))
	copy(list, r.entries[event.Hook])
	r.mu.RUnlock()

	for _, e := range list {
		if err := e.fn(ctx, event); err != nil {
			return fmt.Errorf("hook %s handler %s: %w", event.Hook, e.id, err)
		}
	}
	return nil
}

func sortEntries(list []entry) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].priority != list[j].priority {
			return list[i].priority < list[j].priority
		}
		return list[i].seq < list[j].seq
	})
}
