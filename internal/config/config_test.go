package config

import "testing"

func TestValidateClampsOutOfRangeThreshold(t *testing.T) {
	c := DefaultConfig()
	c.Threshold = 1.5
	c.Validate()
	if c.Threshold != DefaultConfig().Threshold {
		t.Fatalf("expected out-of-range threshold to reset to default, got %v", c.Threshold)
	}
}

func TestValidateEnforcesMinDetections(t *testing.T) {
	c := DefaultConfig()
	c.MinDetections = 0
	c.Validate()
	if c.MinDetections != 1 {
		t.Fatalf("expected min_detections to floor at 1, got %d", c.MinDetections)
	}
}

func TestValidateFillsEmptyScales(t *testing.T) {
	c := DefaultConfig()
	c.Scales = nil
	c.Validate()
	if len(c.Scales) != 1 || c.Scales[0] != 1.0 {
		t.Fatalf("expected scales to default to [1.0], got %v", c.Scales)
	}
}

func TestValidateRejectsUnknownClickMethod(t *testing.T) {
	c := DefaultConfig()
	c.ClickMethod = "teleport"
	c.Validate()
	if c.ClickMethod != "message" {
		t.Fatalf("expected unknown click_method to fall back to \"message\", got %q", c.ClickMethod)
	}
}

func TestValidateRejectsUnknownCaptureBackend(t *testing.T) {
	c := DefaultConfig()
	c.CaptureBackend = "bogus"
	c.Validate()
	if c.CaptureBackend != "window" {
		t.Fatalf("expected unknown capture_backend to fall back to \"window\", got %q", c.CaptureBackend)
	}
}

func TestMigrateLegacyBackendAliases(t *testing.T) {
	cases := map[string]string{
		"screen": "monitor",
		"auto":   "monitor",
		"wgc":    "window",
	}
	for legacy, want := range cases {
		c := DefaultConfig()
		c.CaptureBackend = legacy
		c.Validate()
		if c.CaptureBackend != want {
			t.Fatalf("legacy backend %q: expected migration to %q, got %q", legacy, want, c.CaptureBackend)
		}
	}
}

func TestROIEmptyWhenWidthOrHeightZero(t *testing.T) {
	if !(ROI{}).Empty() {
		t.Fatal("expected zero-value ROI to be Empty")
	}
	if (ROI{W: 10, H: 10}).Empty() {
		t.Fatal("expected a fully specified ROI to not be Empty")
	}
	if !(ROI{W: 10}).Empty() {
		t.Fatal("expected a ROI missing H to be Empty")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("APPDATA", t.TempDir())

	original := DefaultConfig()
	original.Threshold = 0.75
	original.TargetTitle = "My Window"
	if err := original.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Threshold != original.Threshold {
		t.Fatalf("expected threshold %v after round trip, got %v", original.Threshold, loaded.Threshold)
	}
	if loaded.TargetTitle != original.TargetTitle {
		t.Fatalf("expected target_window_title %q after round trip, got %q", original.TargetTitle, loaded.TargetTitle)
	}
}
