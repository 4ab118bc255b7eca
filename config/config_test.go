package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"rpasync/core"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Chip != "rp2040" || cfg.DelayTimer != "timer0" || cfg.TimeDriverTimer != TimerNone {
		t.Errorf("rp2040 defaults %+v", cfg)
	}
	if len(cfg.DelayChannels) != 3 || cfg.DelayChannels[0] != 1 {
		t.Errorf("delay channels %v", cfg.DelayChannels)
	}
	if cfg.LogBaud != 115200 || cfg.Level() != core.LevelInfo {
		t.Errorf("log defaults %+v", cfg)
	}
	if _, ok := cfg.TimeDriverTimerIndex(); ok {
		t.Error("rp2040 default enables the time driver")
	}
}

func TestLoadConfigRP2350(t *testing.T) {
	cfg, err := LoadConfig([]byte(`{
		"chip": "rp2350",
		"async_pins": ["gpio15", "gpio47"],
		"log_level": "debug"
	}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if i, ok := cfg.TimeDriverTimerIndex(); !ok || i != 1 {
		t.Errorf("time driver timer %d, %v", i, ok)
	}
	if i, ok := cfg.DelayTimerIndex(); !ok || i != 0 {
		t.Errorf("delay timer %d, %v", i, ok)
	}
	pins, _ := cfg.Pins()
	if len(pins) != 2 || pins[1] != 47 {
		t.Errorf("pins %v", pins)
	}
	if cfg.Level() != core.LevelDebug {
		t.Errorf("level %v", cfg.Level())
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name string
		json string
		err  error
	}{
		{"unknown chip", `{"chip":"esp32"}`, ErrUnknownChip},
		{"bad timer name", `{"delay_timer":"tim0"}`, ErrBadTimer},
		{"timer out of range", `{"delay_timer":"timer1"}`, ErrBadTimer},
		{"shared timer", `{"chip":"rp2350","delay_timer":"timer1","time_driver_timer":"timer1"}`, ErrTimerConflict},
		{"time driver on runtime timer", `{"chip":"rp2350","delay_timer":"timer1","time_driver_timer":"timer0"}`, ErrRuntimeAlarm},
		{"runtime alarm", `{"delay_channels":[0,1]}`, ErrRuntimeAlarm},
		{"duplicate channel", `{"delay_channels":[2,2]}`, ErrBadChannel},
		{"channel range", `{"delay_channels":[4]}`, ErrBadChannel},
		{"pin name", `{"async_pins":["pin3"]}`, ErrBadPin},
		{"pin range", `{"async_pins":["gpio30"]}`, ErrBadPin},
		{"log level", `{"log_level":"chatty"}`, ErrBadLogLevel},
	}

	for _, tc := range testCases {
		_, err := LoadConfig([]byte(tc.json))
		if !errors.Is(err, tc.err) {
			t.Errorf("%s: err = %v, want %v", tc.name, err, tc.err)
		}
	}
}

func TestValidateAccepts(t *testing.T) {
	for _, js := range []string{
		`{"chip":"rp2350","delay_timer":"timer1","time_driver_timer":"none"}`,
		`{"chip":"rp2350","delay_timer":"none","time_driver_timer":"timer1"}`,
		`{"delay_timer":"none","async_pins":["gpio0","gpio29"]}`,
	} {
		cfg, err := LoadConfig([]byte(js))
		if err != nil {
			t.Errorf("%s: %v", js, err)
			continue
		}
		t.Logf("%s -> %+v", js, cfg)
	}
}

func TestDelayChannelsFollowTimer(t *testing.T) {
	cfg := DefaultBoardConfig("rp2350")
	if len(cfg.DelayChannels) != 3 {
		t.Errorf("timer0 channels %v", cfg.DelayChannels)
	}
	cfg, err := LoadConfig([]byte(`{"chip":"rp2350","delay_timer":"timer1","time_driver_timer":"none"}`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.DelayChannels) != 4 {
		t.Errorf("timer1 channels %v", cfg.DelayChannels)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "board.json")
	if err := os.WriteFile(path, []byte(`{"chip":"rp2350"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Chip != "rp2350" {
		t.Errorf("chip %q", cfg.Chip)
	}
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLoadConfigBadJSON(t *testing.T) {
	if _, err := LoadConfig([]byte(`{"chip":`)); err == nil {
		t.Error("truncated JSON accepted")
	}
}
