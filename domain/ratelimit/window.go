// Package ratelimit paces outgoing requests with fixed windows aligned to
// the window size, so a budget of n per second resets on every wall clock
// second. Every function is pure: state goes in and comes back out.
package ratelimit

import "time"

// ReasonLimitExceeded is set on a denied CheckResult.
const ReasonLimitExceeded = "rate_limit_exceeded"

// Config is a request budget per window (value type).
type Config struct {
	Limit       int
	Window      time.Duration
	BurstTokens int // admitted past Limit once per window
}

// PerSecond returns a one second window allowing n requests.
func PerSecond(n int) Config {
	return Config{Limit: n, Window: time.Second}
}

// Enabled reports whether cfg limits anything.
func (c Config) Enabled() bool {
	return c.Limit > 0 && c.Window > 0
}

func (c Config) open(now time.Time) WindowState {
	return WindowState{WindowEnd: now.Truncate(c.Window).Add(c.Window)}
}

// WindowState is the caller-held counter for the current window.
type WindowState struct {
	Count     int
	WindowEnd time.Time
	BurstUsed int
}

// expired is true at WindowEnd itself, so waiting until ResetAt always
// lands in a fresh window.
func (s WindowState) expired(now time.Time) bool {
	return s.WindowEnd.IsZero() || !now.Before(s.WindowEnd)
}

// CheckResult reports one admission decision.
type CheckResult struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	Reason    string
}

// Check counts one request against state and returns the decision with
// the state to keep. A denied request leaves state unchanged.
func Check(state WindowState, cfg Config, now time.Time) (CheckResult, WindowState) {
	if state.expired(now) {
		state = cfg.open(now)
	}

	result := CheckResult{ResetAt: state.WindowEnd}
	switch {
	case state.Count < cfg.Limit:
		state.Count++
		result.Allowed = true
		result.Remaining = cfg.Limit - state.Count
	case state.BurstUsed < cfg.BurstTokens:
		state.Count++
		state.BurstUsed++
		result.Allowed = true
	default:
		result.Reason = ReasonLimitExceeded
	}
	return result, state
}

// CalculateDelay returns how long a denied caller waits for the next window.
func CalculateDelay(result CheckResult, now time.Time) time.Duration {
	if result.Allowed || !now.Before(result.ResetAt) {
		return 0
	}
	return result.ResetAt.Sub(now)
}
