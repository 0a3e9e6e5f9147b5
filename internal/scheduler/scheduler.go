// Package scheduler implements the adaptive scan scheduler (spec §4.7,
// C7), a direct port of the reference AdaptiveScanScheduler: it picks
// the next scan delay from hit/miss history and foreground whitelist
// membership so idle targets get scanned less aggressively.
package scheduler

import (
	"strings"
	"sync"
	"time"
)

// Config carries the scheduler's tunables, mapped from the config keys
// documented in spec §6.
type Config struct {
	ActiveScanIntervalMS int
	IdleScanIntervalMS   int
	MissBackoffMSMax     int
	HitCooldownMS        int
	ProcessWhitelist     []string
}

// Scheduler is single-threaded by contract (spec §5: "scheduler state:
// single-threaded, scanner thread only"); the mutex here guards against
// on_foreground_change arriving from the WinEventHook callback thread.
type Scheduler struct {
	mu sync.Mutex

	cfg Config

	missCount            int
	lastHit              time.Time
	lastForeground       string
	foregroundOnWhitelist bool
}

// New builds a scheduler starting in the idle (non-whitelisted) state.
func New(cfg Config) *Scheduler {
	return &Scheduler{cfg: cfg}
}

// OnHit resets backoff and stamps the hit-cooldown clock.
func (s *Scheduler) OnHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.missCount = 0
	s.lastHit = time.Now()
}

// OnMiss increments the backoff counter. A miss occurring inside the
// hit-cooldown window does not count, so a cooldown-period miss never
// inflates the subsequent backoff.
func (s *Scheduler) OnMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.inHitCooldownLocked() {
		s.missCount++
	}
}

// OnForegroundChange updates whitelist-membership state and resets
// backoff to its minimum, per spec §4.7.
func (s *Scheduler) OnForegroundChange(processName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastForeground = strings.TrimSpace(processName)
	s.missCount = 0

	if s.lastForeground == "" {
		s.foregroundOnWhitelist = false
		return
	}
	pn := strings.ToLower(s.lastForeground)
	for _, w := range s.cfg.ProcessWhitelist {
		if strings.ToLower(w) == pn {
			s.foregroundOnWhitelist = true
			return
		}
	}
	s.foregroundOnWhitelist = false
}

// NextDelayMS implements the contract from spec §4.7:
//   - recent hit within hit_cooldown_ms  -> remaining cooldown time
//   - foreground not on whitelist        -> idle_scan_interval_ms
//   - otherwise                          -> exponential backoff from
//     active_scan_interval_ms, base 2, capped at miss_backoff_ms_max
func (s *Scheduler) NextDelayMS() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inHitCooldownLocked() {
		remaining := s.cfg.HitCooldownMS - int(time.Since(s.lastHit).Milliseconds())
		if remaining < 1 {
			remaining = 1
		}
		return remaining
	}

	if !s.foregroundOnWhitelist {
		if s.cfg.IdleScanIntervalMS < 1 {
			return 1
		}
		return s.cfg.IdleScanIntervalMS
	}

	base := s.cfg.ActiveScanIntervalMS
	if base < 1 {
		base = 1
	}

	shift := s.missCount
	if shift > 16 {
		shift = 16
	}
	delay := base * (1 << uint(shift))
	if s.cfg.MissBackoffMSMax > 0 && delay > s.cfg.MissBackoffMSMax {
		delay = s.cfg.MissBackoffMSMax
	}
	if delay < base {
		delay = base
	}
	return delay
}

func (s *Scheduler) inHitCooldownLocked() bool {
	if s.lastHit.IsZero() {
		return false
	}
	return time.Since(s.lastHit).Milliseconds() < int64(s.cfg.HitCooldownMS)
}

// Snapshot exposes the scheduler's observable state for status events
// and tests, without letting callers mutate it.
type Snapshot struct {
	Active                bool
	MissCount             int
	LastForeground        string
	ForegroundOnWhitelist bool
}

func (s *Scheduler) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:                s.foregroundOnWhitelist,
		MissCount:             s.missCount,
		LastForeground:        s.lastForeground,
		ForegroundOnWhitelist: s.foregroundOnWhitelist,
	}
}
