// Package config loads and validates the single JSON configuration
// document that drives the capture→match→click pipeline (spec §6).
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ROI is a region of interest within a captured frame. A zero width or
// height means "use the entire frame" (spec §8 boundary behavior).
type ROI struct {
	X int `json:"x" mapstructure:"x"`
	Y int `json:"y" mapstructure:"y"`
	W int `json:"w" mapstructure:"w"`
	H int `json:"h" mapstructure:"h"`
}

// Empty reports whether the ROI should be treated as the full frame.
func (r ROI) Empty() bool {
	return r.W == 0 || r.H == 0
}

// Config is the full recognized key set from spec §6. Unrecognized keys
// are ignored; absent keys take the defaults below.
type Config struct {
	TemplatePath  string   `json:"template_path" mapstructure:"template_path"`
	TemplatePaths []string `json:"template_paths" mapstructure:"template_paths"`

	CaptureBackend string `json:"capture_backend" mapstructure:"capture_backend"`
	TargetHWND     int    `json:"target_hwnd" mapstructure:"target_hwnd"`
	TargetTitle    string `json:"target_window_title" mapstructure:"target_window_title"`
	TitlePartial   bool   `json:"window_title_partial_match" mapstructure:"window_title_partial_match"`
	TargetProcess  string `json:"target_process" mapstructure:"target_process"`
	MonitorIndex   int    `json:"monitor_index" mapstructure:"monitor_index"`
	ROI            ROI    `json:"roi" mapstructure:"roi"`

	IntervalMS           int `json:"interval_ms" mapstructure:"interval_ms"`
	ActiveScanIntervalMS int `json:"active_scan_interval_ms" mapstructure:"active_scan_interval_ms"`
	IdleScanIntervalMS   int `json:"idle_scan_interval_ms" mapstructure:"idle_scan_interval_ms"`
	MissBackoffMSMax     int `json:"miss_backoff_ms_max" mapstructure:"miss_backoff_ms_max"`
	HitCooldownMS        int `json:"hit_cooldown_ms" mapstructure:"hit_cooldown_ms"`

	Threshold     float64   `json:"threshold" mapstructure:"threshold"`
	Grayscale     bool      `json:"grayscale" mapstructure:"grayscale"`
	MultiScale    bool      `json:"multi_scale" mapstructure:"multi_scale"`
	Scales        []float64 `json:"scales" mapstructure:"scales"`
	MinDetections int       `json:"min_detections" mapstructure:"min_detections"`

	ClickOffset             [2]int  `json:"click_offset" mapstructure:"click_offset"`
	CooldownS               float64 `json:"cooldown_s" mapstructure:"cooldown_s"`
	ClickMethod             string  `json:"click_method" mapstructure:"click_method"`
	VerifyWindowBeforeClick bool    `json:"verify_window_before_click" mapstructure:"verify_window_before_click"`

	FPSMax                     int  `json:"fps_max" mapstructure:"fps_max"`
	CaptureTimeoutMS           int  `json:"capture_timeout_ms" mapstructure:"capture_timeout_ms"`
	IncludeCursor              bool `json:"include_cursor" mapstructure:"include_cursor"`
	BorderRequired             bool `json:"border_required" mapstructure:"border_required"`
	RestoreMinimizedNoactivate bool `json:"restore_minimized_noactivate" mapstructure:"restore_minimized_noactivate"`

	ProcessWhitelist        []string `json:"process_whitelist" mapstructure:"process_whitelist"`
	AutoUpdateHWNDByProcess bool     `json:"auto_update_hwnd_by_process" mapstructure:"auto_update_hwnd_by_process"`

	// NEW — ambient/debug fields added by SPEC_FULL.md, not present in spec §6.
	LogLevel         string   `json:"log_level" mapstructure:"log_level"`
	LogFile          string   `json:"log_file" mapstructure:"log_file"`
	SaveDebugImages  bool     `json:"save_debug_images" mapstructure:"save_debug_images"`
	DebugImageDir    string   `json:"debug_image_dir" mapstructure:"debug_image_dir"`
	PauseHotkey      []string `json:"pause_hotkey" mapstructure:"pause_hotkey"`
	ShowNotification bool     `json:"show_notification" mapstructure:"show_notification"`
}

// DefaultConfig returns the documented defaults from spec §6.
func DefaultConfig() *Config {
	return &Config{
		CaptureBackend: "window",
		MonitorIndex:   1,
		TitlePartial:   true,

		IntervalMS:           800,
		ActiveScanIntervalMS: 120,
		IdleScanIntervalMS:   2000,
		MissBackoffMSMax:     5000,
		HitCooldownMS:        4000,

		Threshold:     0.88,
		Grayscale:     true,
		Scales:        []float64{1.0},
		MinDetections: 1,

		CooldownS:               5.0,
		ClickMethod:             "message",
		VerifyWindowBeforeClick: true,

		FPSMax:                     30,
		CaptureTimeoutMS:           5000,
		RestoreMinimizedNoactivate: true,

		ProcessWhitelist: []string{"Code.exe", "Cursor.exe", "Windsurf.exe", "Trae.exe"},

		LogLevel:         "info",
		SaveDebugImages:  false,
		DebugImageDir:    "debug_images",
		PauseHotkey:      []string{"ctrl", "alt"},
		ShowNotification: true,
	}
}

// GetConfigPath returns the fixed path of the persisted JSON document.
func GetConfigPath() string {
	configDir := os.Getenv("APPDATA")
	if configDir == "" {
		home, _ := os.UserHomeDir()
		configDir = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(configDir, "autoapprove", "config.json")
}

// Load reads the config document through viper's JSON provider — which
// also makes AUTOAPPROVE_<KEY> environment overrides apply — or writes
// and returns the defaults if no document exists yet.
func Load() (*Config, error) {
	path := GetConfigPath()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()
		return cfg, cfg.Save()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix("AUTOAPPROVE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return DefaultConfig(), fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("unmarshal config: %w", err)
	}

	migrateLegacyBackend(cfg)
	cfg.Validate()
	return cfg, nil
}

// Validate clamps or resets fields that fail the invariants documented
// in spec §6/§8.
func (c *Config) Validate() {
	defaults := DefaultConfig()

	if c.Threshold < 0 || c.Threshold > 1 {
		c.Threshold = defaults.Threshold
	}
	if c.MinDetections < 1 {
		c.MinDetections = 1
	}
	if len(c.Scales) == 0 {
		c.Scales = []float64{1.0}
	}
	if c.MonitorIndex < 1 {
		c.MonitorIndex = 1
	}
	if c.FPSMax <= 0 {
		c.FPSMax = defaults.FPSMax
	}
	if c.CaptureTimeoutMS <= 0 {
		c.CaptureTimeoutMS = defaults.CaptureTimeoutMS
	}

	method := strings.ToLower(c.ClickMethod)
	if method != "message" && method != "simulate" {
		method = "message"
	}
	c.ClickMethod = method

	migrateLegacyBackend(c)
	if c.CaptureBackend != "window" && c.CaptureBackend != "monitor" {
		c.CaptureBackend = "window"
	}

	if len(c.ProcessWhitelist) == 0 {
		c.ProcessWhitelist = defaults.ProcessWhitelist
	}
}

// Save writes the config back to its fixed path as indented JSON —
// exactly the persisted document Load reads, so a round trip is lossless.
func (c *Config) Save() error {
	path := GetConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// migrateLegacyBackend applies the legacy capture_backend aliases from
// spec §6: screen/auto → monitor, wgc → window.
func migrateLegacyBackend(c *Config) {
	switch strings.ToLower(c.CaptureBackend) {
	case "screen", "auto":
		c.CaptureBackend = "monitor"
	case "wgc":
		c.CaptureBackend = "window"
	}
}
