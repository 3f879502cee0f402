package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ErrBlocked is returned by Wait while a host is cooling down after a rate-limit response
var ErrBlocked = errors.New("host temporarily blocked after rate limiting")

// RateLimiter provides a global request budget plus per-host cooldowns
type RateLimiter struct {
	mu sync.Mutex

	global   *rate.Limiter // nil = unlimited
	cooldown time.Duration

	// Per-host tracking
	hostStates map[string]*HostState
}

// HostState tracks rate limiting state for a single host
type HostState struct {
	Host          string
	TotalRequests int
	RateLimited   int
	BlockedUntil  time.Time
}

// NewRateLimiter creates a limiter allowing rps requests per second across all
// hosts. rps <= 0 disables the global budget; per-host cooldowns still apply.
func NewRateLimiter(rps int) *RateLimiter {
	rl := &RateLimiter{
		hostStates: make(map[string]*HostState),
		cooldown:   30 * time.Second,
	}
	if rps > 0 {
		rl.global = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return rl
}

// Wait blocks until the global budget allows one more request.
// It returns ErrBlocked without waiting when host is cooling down.
func (rl *RateLimiter) Wait(ctx context.Context, host string) error {
	if rl == nil {
		return nil
	}
	if rl.IsBlocked(host) {
		return fmt.Errorf("%s: %w", host, ErrBlocked)
	}
	if rl.global == nil {
		return nil
	}
	return rl.global.Wait(ctx)
}

// IsBlocked checks if a host is currently blocked
func (rl *RateLimiter) IsBlocked(host string) bool {
	if rl == nil {
		return false
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	state, exists := rl.hostStates[hostKey(host)]
	if !exists {
		return false
	}
	return time.Now().Before(state.BlockedUntil)
}

// RecordResponse records a response status. 429 and 503 with Retry-After
// block the host for the cooldown period.
func (rl *RateLimiter) RecordResponse(host string, statusCode int, headers http.Header) {
	if rl == nil {
		return
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := hostKey(host)
	state, exists := rl.hostStates[key]
	if !exists {
		state = &HostState{Host: key}
		rl.hostStates[key] = state
	}
	state.TotalRequests++

	if isRateLimited(statusCode, headers) {
		state.RateLimited++
		state.BlockedUntil = time.Now().Add(rl.cooldown)
	}
}

func isRateLimited(statusCode int, headers http.Header) bool {
	if statusCode == http.StatusTooManyRequests {
		return true
	}
	return statusCode == http.StatusServiceUnavailable && headers != nil && headers.Get("Retry-After") != ""
}

// hostKey strips scheme and port so probe and fetch share state
func hostKey(host string) string {
	host = strings.ToLower(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	if i := strings.IndexAny(host, ":/"); i >= 0 {
		host = host[:i]
	}
	return host
}

// RateLimitSummary provides overview statistics
type RateLimitSummary struct {
	TotalHosts       int `json:"hosts"`
	TotalRequests    int `json:"requests"`
	RateLimited      int `json:"rate_limited"`
	CurrentlyBlocked int `json:"blocked"`
}

// GetSummary returns a summary of all host states
func (rl *RateLimiter) GetSummary() RateLimitSummary {
	var summary RateLimitSummary
	if rl == nil {
		return summary
	}
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for _, state := range rl.hostStates {
		summary.TotalHosts++
		summary.TotalRequests += state.TotalRequests
		summary.RateLimited += state.RateLimited
		if now.Before(state.BlockedUntil) {
			summary.CurrentlyBlocked++
		}
	}
	return summary
}

// String formats the summary for display
func (s RateLimitSummary) String() string {
	return fmt.Sprintf("%d hosts, %d requests, %d rate limited, %d blocked",
		s.TotalHosts, s.TotalRequests, s.RateLimited, s.CurrentlyBlocked)
}
