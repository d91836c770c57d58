package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	rateLimited     uint64
	totalDurationMs uint64

	mu        sync.Mutex
	reached   map[string]uint64
	created   map[string]uint64
	skipped   map[string]uint64
	removed   uint64
	hookFails uint64
}

func New() *Collector {
	return &Collector{
		reached: map[string]uint64{},
		created: map[string]uint64{},
		skipped: map[string]uint64{},
	}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	if status == 429 {
		atomic.AddUint64(&c.rateLimited, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

func (c *Collector) MilestoneReached(name string) {
	c.bump(c.reached, name)
}

func (c *Collector) NoteCreated(name string) {
	c.bump(c.created, name)
}

func (c *Collector) DuplicateSkipped(name string) {
	c.bump(c.skipped, name)
}

func (c *Collector) NotesRemoved(n int64) {
	if n > 0 {
		atomic.AddUint64(&c.removed, uint64(n))
	}
}

func (c *Collector) HookFailed() {
	atomic.AddUint64(&c.hookFails, 1)
}

func (c *Collector) bump(m map[string]uint64, name string) {
	c.mu.Lock()
	m[name]++
	c.mu.Unlock()
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	limited := atomic.LoadUint64(&c.rateLimited)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}

	c.mu.Lock()
	reached := copyCounts(c.reached)
	created := copyCounts(c.created)
	skipped := copyCounts(c.skipped)
	c.mu.Unlock()

	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"rateLimitedTotal":  limited,
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"milestonesReached": reached,
		"notesCreated":      created,
		"duplicatesSkipped": skipped,
		"notesRemovedTotal": atomic.LoadUint64(&c.removed),
		"hookFailuresTotal": atomic.LoadUint64(&c.hookFails),
	}
}

func copyCounts(in map[string]uint64) map[string]uint64 {
	out := make(map[string]uint64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
