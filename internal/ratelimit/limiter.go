// Package ratelimit throttles MCP tool calls with per-tool token buckets.
package ratelimit

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrLimited is returned by Set.Check when a tool has no tokens left.
var ErrLimited = errors.New("rate limit exceeded")

// Rule describes one tool's bucket.
type Rule struct {
	PerMinute float64 // sustained refill rate
	Burst     int     // bucket size, also the initial token count
}

// Limiter is a single token bucket. It is safe for concurrent use.
type Limiter struct {
	mu     sync.Mutex
	rate   float64 // tokens per second
	burst  float64
	tokens float64
	last   time.Time
	now    func() time.Time
}

// NewLimiter creates a full bucket refilling at rule.PerMinute.
func NewLimiter(rule Rule) *Limiter {
	burst := float64(max(rule.Burst, 1))
	return &Limiter{
		rate:   rule.PerMinute / 60,
		burst:  burst,
		tokens: burst,
		last:   time.Now(),
		now:    time.Now,
	}
}

// Allow takes one token if available.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.refill()
	if l.tokens < 1 {
		return false
	}
	l.tokens--
	return true
}

// Tokens reports the tokens currently available.
func (l *Limiter) Tokens() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.refill()
	return l.tokens
}

func (l *Limiter) refill() {
	now := l.now()
	if elapsed := now.Sub(l.last).Seconds(); elapsed > 0 {
		l.tokens = min(l.burst, l.tokens+l.rate*elapsed)
		l.last = now
	}
}

// DefaultRules returns the per-tool limits used by the MCP server. Read-only
// lookups get generous limits; full-graph passes and checkpoints are kept
// rare.
func DefaultRules() map[string]Rule {
	return map[string]Rule{
		"hebb_record":     {PerMinute: 600, Burst: 50},
		"hebb_weight":     {PerMinute: 600, Burst: 50},
		"hebb_neighbors":  {PerMinute: 120, Burst: 20},
		"hebb_stats":      {PerMinute: 60, Burst: 10},
		"hebb_prune":      {PerMinute: 10, Burst: 2},
		"hebb_decay":      {PerMinute: 10, Burst: 2},
		"hebb_checkpoint": {PerMinute: 5, Burst: 2},
	}
}

// Set holds one limiter per tool. A nil Set allows everything.
type Set struct {
	limiters map[string]*Limiter
}

// NewSet builds a Set from rules.
func NewSet(rules map[string]Rule) *Set {
	s := &Set{limiters: make(map[string]*Limiter, len(rules))}
	for tool, rule := range rules {
		s.limiters[tool] = NewLimiter(rule)
	}
	return s
}

// Check takes a token for tool. Tools without a rule are never limited.
func (s *Set) Check(tool string) error {
	if s == nil {
		return nil
	}
	l, ok := s.limiters[tool]
	if !ok {
		return nil
	}
	if !l.Allow() {
		return fmt.Errorf("%w for %s, please try again shortly", ErrLimited, tool)
	}
	return nil
}
