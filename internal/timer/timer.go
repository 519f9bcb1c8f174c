// Package timer schedules per-game turn expiry callbacks in process memory.
// Armed timers do not survive a restart.
package timer

import (
	"sync"
	"time"
)

type entry struct {
	t   *time.Timer
	gen uint64
}

// Local is a process-local timer table keyed by game id.
type Local struct {
	mu      sync.Mutex
	timers  map[string]entry
	gen     uint64
	stopped bool
}

func NewLocal() *Local {
	return &Local{timers: make(map[string]entry)}
}

// Arm schedules onExpire to run once after d, replacing any timer already
// armed for gameID.
func (l *Local) Arm(gameID string, d time.Duration, onExpire func()) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.stopped {
		return
	}
	if prev, ok := l.timers[gameID]; ok {
		prev.t.Stop()
	}

	l.gen++
	gen := l.gen
	l.timers[gameID] = entry{
		gen: gen,
		t: time.AfterFunc(d, func() {
			// A fire that lost the race with Cancel or a re-Arm sees a
			// different generation and drops itself.
			l.mu.Lock()
			cur, ok := l.timers[gameID]
			if !ok || cur.gen != gen {
				l.mu.Unlock()
				return
			}
			delete(l.timers, gameID)
			l.mu.Unlock()

			onExpire()
		}),
	}
}

// Cancel disarms the timer for gameID. Cancelling an absent or already fired
// timer is a no-op.
func (l *Local) Cancel(gameID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, ok := l.timers[gameID]; ok {
		e.t.Stop()
		delete(l.timers, gameID)
	}
}

func (l *Local) Armed(gameID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.timers[gameID]
	return ok
}

// Stop disarms every timer and refuses new ones.
func (l *Local) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.stopped = true
	for id, e := range l.timers {
		e.t.Stop()
		delete(l.timers, id)
	}
}
