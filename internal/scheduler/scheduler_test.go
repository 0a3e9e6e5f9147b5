package scheduler

import "testing"

func TestNextDelayIdleWhenForegroundNotWhitelisted(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 120,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     5000,
		HitCooldownMS:        4000,
		ProcessWhitelist:     []string{"Code.exe"},
	})
	s.OnForegroundChange("explorer.exe")

	if got := s.NextDelayMS(); got != 2000 {
		t.Fatalf("expected idle_scan_interval_ms (2000) off-whitelist, got %d", got)
	}
}

func TestNextDelayActiveBaseOnFirstTick(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 120,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     5000,
		HitCooldownMS:        4000,
		ProcessWhitelist:     []string{"Code.exe"},
	})
	s.OnForegroundChange("Code.exe")

	if got := s.NextDelayMS(); got != 120 {
		t.Fatalf("expected active_scan_interval_ms (120) with no misses yet, got %d", got)
	}
}

func TestNextDelayBacksOffOnMissesAndCaps(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 100,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     500,
		HitCooldownMS:        4000,
		ProcessWhitelist:     []string{"Code.exe"},
	})
	s.OnForegroundChange("Code.exe")

	s.OnMiss() // 100 * 2^1 = 200
	if got := s.NextDelayMS(); got != 200 {
		t.Fatalf("expected 200ms after one miss, got %d", got)
	}

	s.OnMiss() // 100 * 2^2 = 400
	if got := s.NextDelayMS(); got != 400 {
		t.Fatalf("expected 400ms after two misses, got %d", got)
	}

	s.OnMiss() // 100 * 2^3 = 800, capped at 500
	if got := s.NextDelayMS(); got != 500 {
		t.Fatalf("expected backoff capped at miss_backoff_ms_max (500), got %d", got)
	}
}

func TestOnHitResetsBackoffAndStartsCooldown(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 100,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     5000,
		HitCooldownMS:        4000,
		ProcessWhitelist:     []string{"Code.exe"},
	})
	s.OnForegroundChange("Code.exe")
	s.OnMiss()
	s.OnMiss()

	s.OnHit()

	delay := s.NextDelayMS()
	if delay <= 0 || delay > 4000 {
		t.Fatalf("expected a remaining hit-cooldown delay in (0, 4000], got %d", delay)
	}

	snap := s.Snapshot()
	if snap.MissCount != 0 {
		t.Fatalf("expected miss count reset to 0 after a hit, got %d", snap.MissCount)
	}
}

func TestMissDuringCooldownDoesNotInflateBackoff(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 100,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     5000,
		HitCooldownMS:        4000,
		ProcessWhitelist:     []string{"Code.exe"},
	})
	s.OnForegroundChange("Code.exe")
	s.OnHit()

	s.OnMiss() // inside cooldown window, must be a no-op

	if got := s.Snapshot().MissCount; got != 0 {
		t.Fatalf("expected a cooldown-window miss to not count, got miss count %d", got)
	}
}

func TestForegroundChangeResetsWhitelistMembership(t *testing.T) {
	s := New(Config{
		ActiveScanIntervalMS: 100,
		IdleScanIntervalMS:   2000,
		ProcessWhitelist:     []string{"Code.exe", "Cursor.exe"},
	})

	s.OnForegroundChange("CURSOR.EXE") // case-insensitive match
	if !s.Snapshot().ForegroundOnWhitelist {
		t.Fatal("expected case-insensitive whitelist match to register as on-whitelist")
	}

	s.OnForegroundChange("notepad.exe")
	if s.Snapshot().ForegroundOnWhitelist {
		t.Fatal("expected switching to a non-whitelisted process to clear on-whitelist")
	}
}
