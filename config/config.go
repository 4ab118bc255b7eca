// Package config describes how a board hands its timers and pins to the
// async bridge.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"rpasync/core"
	"rpasync/hw"
)

// TimerNone disables a timer role.
const TimerNone = "none"

var (
	ErrUnknownChip   = errors.New("config: unknown chip")
	ErrBadTimer      = errors.New("config: bad timer")
	ErrTimerConflict = errors.New("config: delay and time driver share a timer")
	ErrRuntimeAlarm  = errors.New("config: alarm 0 of timer0 belongs to the runtime")
	ErrBadChannel    = errors.New("config: bad alarm channel")
	ErrBadPin        = errors.New("config: bad pin")
	ErrBadLogLevel   = errors.New("config: bad log level")
)

// BoardConfig assigns hardware to the bridge.
//
// Timers are named "timer0", "timer1" or "none". The TinyGo runtime sleeps
// on alarm 0 of timer0, so that alarm is never handed out, and the time
// driver, which programs all four alarms of its timer, can only use timer1.
type BoardConfig struct {
	Chip            string   `json:"chip"`
	DelayTimer      string   `json:"delay_timer"`
	DelayChannels   []int    `json:"delay_channels"`
	TimeDriverTimer string   `json:"time_driver_timer"`
	AsyncPins       []string `json:"async_pins"`
	LogLevel        string   `json:"log_level"`
	LogBaud         uint32   `json:"log_baud"`
}

// LoadConfig parses a JSON board configuration, fills in defaults and
// validates it.
func LoadConfig(jsonData []byte) (*BoardConfig, error) {
	var cfg BoardConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFile reads and parses the configuration at path.
func LoadFile(path string) (*BoardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return LoadConfig(data)
}

// DefaultBoardConfig returns the defaults for chip.
func DefaultBoardConfig(chip string) *BoardConfig {
	cfg := &BoardConfig{Chip: chip}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *BoardConfig) {
	if cfg.Chip == "" {
		cfg.Chip = hw.RP2040.Name
	}
	if cfg.DelayTimer == "" {
		cfg.DelayTimer = "timer0"
	}
	if cfg.DelayChannels == nil && cfg.DelayTimer != TimerNone {
		if cfg.DelayTimer == "timer0" {
			cfg.DelayChannels = []int{1, 2, 3}
		} else {
			cfg.DelayChannels = []int{0, 1, 2, 3}
		}
	}
	if cfg.TimeDriverTimer == "" {
		// one timer on rp2040, and the runtime already uses it
		if chip, ok := hw.ChipByName(cfg.Chip); ok && chip.NumTimers > 1 {
			cfg.TimeDriverTimer = "timer1"
		} else {
			cfg.TimeDriverTimer = TimerNone
		}
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = core.LevelInfo.String()
	}
	if cfg.LogBaud == 0 {
		cfg.LogBaud = 115200
	}
}

// ParseTimer maps a timer name to its index; ok is false for "none".
func ParseTimer(name string) (index int, ok bool, err error) {
	if name == TimerNone {
		return 0, false, nil
	}
	n, found := strings.CutPrefix(name, "timer")
	if !found {
		return 0, false, fmt.Errorf("%q: %w", name, ErrBadTimer)
	}
	i, err := strconv.Atoi(n)
	if err != nil || i < 0 || i >= hw.MaxTimers {
		return 0, false, fmt.Errorf("%q: %w", name, ErrBadTimer)
	}
	return i, true, nil
}

// ParsePin maps "gpioN" to N.
func ParsePin(name string) (int, error) {
	n, found := strings.CutPrefix(name, "gpio")
	if !found {
		return 0, fmt.Errorf("%q: %w", name, ErrBadPin)
	}
	pin, err := strconv.Atoi(n)
	if err != nil || pin < 0 {
		return 0, fmt.Errorf("%q: %w", name, ErrBadPin)
	}
	return pin, nil
}

// ChipInfo returns the chip descriptor.
func (c *BoardConfig) ChipInfo() (hw.Chip, error) {
	chip, ok := hw.ChipByName(c.Chip)
	if !ok {
		return hw.Chip{}, fmt.Errorf("%q: %w", c.Chip, ErrUnknownChip)
	}
	return chip, nil
}

// DelayTimerIndex returns the delay timer, if delays are enabled.
func (c *BoardConfig) DelayTimerIndex() (int, bool) {
	i, ok, err := ParseTimer(c.DelayTimer)
	return i, ok && err == nil
}

// TimeDriverTimerIndex returns the time driver timer, if enabled.
func (c *BoardConfig) TimeDriverTimerIndex() (int, bool) {
	i, ok, err := ParseTimer(c.TimeDriverTimer)
	return i, ok && err == nil
}

// Pins returns the async pin numbers.
func (c *BoardConfig) Pins() ([]int, error) {
	pins := make([]int, 0, len(c.AsyncPins))
	for _, name := range c.AsyncPins {
		pin, err := ParsePin(name)
		if err != nil {
			return nil, err
		}
		pins = append(pins, pin)
	}
	return pins, nil
}

// Level returns the configured log level.
func (c *BoardConfig) Level() core.Level {
	l, ok := core.ParseLevel(c.LogLevel)
	if !ok {
		return core.LevelInfo
	}
	return l
}

// Validate checks the configuration against the chip's resources.
func (c *BoardConfig) Validate() error {
	chip, err := c.ChipInfo()
	if err != nil {
		return err
	}

	delayTimer, delayOn, err := ParseTimer(c.DelayTimer)
	if err != nil {
		return fmt.Errorf("delay_timer: %w", err)
	}
	tdTimer, tdOn, err := ParseTimer(c.TimeDriverTimer)
	if err != nil {
		return fmt.Errorf("time_driver_timer: %w", err)
	}
	for _, role := range []struct {
		name  string
		index int
		on    bool
	}{
		{"delay_timer", delayTimer, delayOn},
		{"time_driver_timer", tdTimer, tdOn},
	} {
		if role.on && role.index >= chip.NumTimers {
			return fmt.Errorf("%s: %s has %d timer(s): %w", role.name, chip.Name, chip.NumTimers, ErrBadTimer)
		}
	}
	if delayOn && tdOn && delayTimer == tdTimer {
		return ErrTimerConflict
	}
	if tdOn && tdTimer == 0 {
		return fmt.Errorf("time_driver_timer: %w", ErrRuntimeAlarm)
	}

	if delayOn {
		seen := 0
		for _, ch := range c.DelayChannels {
			if ch < 0 || ch >= hw.AlarmsPerTimer || seen&(1<<ch) != 0 {
				return fmt.Errorf("delay_channels: %d: %w", ch, ErrBadChannel)
			}
			if delayTimer == 0 && ch == 0 {
				return fmt.Errorf("delay_channels: %w", ErrRuntimeAlarm)
			}
			seen |= 1 << ch
		}
	}

	pins, err := c.Pins()
	if err != nil {
		return fmt.Errorf("async_pins: %w", err)
	}
	for _, pin := range pins {
		if pin >= chip.NumPins {
			return fmt.Errorf("async_pins: gpio%d on %s: %w", pin, chip.Name, ErrBadPin)
		}
	}

	if _, ok := core.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("%q: %w", c.LogLevel, ErrBadLogLevel)
	}
	return nil
}
