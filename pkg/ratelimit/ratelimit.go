// Package ratelimit tracks the last time a user performed an action. State
// is in-memory for the process lifetime; entries are overwritten on every
// action, never appended, and never swept. A stale entry is harmless.
package ratelimit

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Limiter is owned by the dispatcher and shared by reference with every
// handler. Each key's read-modify-write is atomic under one mutex; there
// are no cross-key transactions.
type Limiter struct {
	mu        sync.Mutex
	durations map[string]time.Duration
	entries   map[string]map[int64]time.Time
	now       func() time.Time
}

// New builds a limiter from the configured per-action durations. Actions
// absent from the map are never rate limited.
func New(durations map[string]time.Duration) *Limiter {
	return &Limiter{
		durations: durations,
		entries:   make(map[string]map[int64]time.Time),
		now:       time.Now,
	}
}

// key folds the action name and scope values into one map key, so voting on
// quote 5 and quote 6 are tracked independently.
func key(action string, scope []any) string {
	if len(scope) == 0 {
		return action
	}
	var sb strings.Builder
	sb.WriteString(action)
	for _, s := range scope {
		fmt.Fprintf(&sb, "\x00%v", s)
	}
	return sb.String()
}

// IsRateLimited reports whether userID performed the action within its
// configured duration. Callers check this before RecordAction; the two
// calls are not atomic with respect to each other.
func (l *Limiter) IsRateLimited(userID int64, action string, scope ...any) bool {
	duration, ok := l.durations[action]
	if !ok {
		return false
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, ok := l.entries[key(action, scope)]
	if !ok {
		return false
	}
	last, ok := entries[userID]
	if !ok {
		return false
	}
	return l.now().Sub(last) < duration
}

// RecordAction unconditionally stamps the entry for userID with now.
func (l *Limiter) RecordAction(userID int64, action string, scope ...any) {
	k := key(action, scope)

	l.mu.Lock()
	defer l.mu.Unlock()

	entries, ok := l.entries[k]
	if !ok {
		entries = make(map[int64]time.Time)
		l.entries[k] = entries
	}
	entries[userID] = l.now()
}
