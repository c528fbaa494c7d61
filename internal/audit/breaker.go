package audit

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSinkOpen is returned while the guarded sink is skipping appends.
var ErrSinkOpen = errors.New("audit sink circuit open")

// GuardedSink stops calling a failing sink for a cooldown after threshold
// consecutive failures. One append is let through after the cooldown; its
// result closes or reopens the circuit.
type GuardedSink struct {
	sink      Store
	threshold int
	cooldown  time.Duration
	now       func() time.Time

	mu        sync.Mutex
	failures  int
	openUntil time.Time
}

// NewGuardedSink opens after threshold consecutive failures and stays open
// for cooldown.
func NewGuardedSink(sink Store, threshold int, cooldown time.Duration) *GuardedSink {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &GuardedSink{sink: sink, threshold: threshold, cooldown: cooldown, now: time.Now}
}

func (g *GuardedSink) Append(ctx context.Context, event Event) error {
	if !g.allow() {
		return ErrSinkOpen
	}
	err := g.sink.Append(ctx, event)
	g.record(err)
	return err
}

// Open reports whether appends are currently skipped.
func (g *GuardedSink) Open() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.now().Before(g.openUntil)
}

func (g *GuardedSink) allow() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.openUntil.IsZero() {
		return true
	}
	if g.now().Before(g.openUntil) {
		return false
	}
	// Half-open: hold the circuit closed for this trial call only.
	g.openUntil = time.Time{}
	g.failures = g.threshold - 1
	return true
}

func (g *GuardedSink) record(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		g.failures = 0
		g.openUntil = time.Time{}
		return
	}
	g.failures++
	if g.failures >= g.threshold {
		g.openUntil = g.now().Add(g.cooldown)
	}
}
