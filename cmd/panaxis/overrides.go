package main

import (
	"fmt"
	"math"

	"github.com/cjeanneret/PanAxis/internal/config"
	"github.com/cjeanneret/PanAxis/internal/logic/motion"
)

// overrides holds flag values that replace config keys. Zero values mean
// "use the config file".
type overrides struct {
	mode       string
	limit      float64
	device     string
	mock       bool
	mockSet    bool
	debugLevel int // -1 = config
}

// validateOverrides checks that set overrides are within valid ranges.
func validateOverrides(o overrides) error {
	if o.mode != "" {
		if _, err := motion.ParseMode(o.mode); err != nil {
			return err
		}
	}
	if o.limit != 0 {
		if math.IsNaN(o.limit) || math.IsInf(o.limit, 0) || o.limit <= 0 || o.limit > 180 {
			return fmt.Errorf("limit must be between 0 and 180, got %g", o.limit)
		}
	}
	if o.debugLevel > 4 || o.debugLevel < -1 {
		return fmt.Errorf("debug must be 0-4, got %d", o.debugLevel)
	}
	return nil
}

// applyOverrides mutates cfg with the set overrides.
func applyOverrides(cfg *config.Config, o overrides) error {
	if o.mode != "" {
		m, err := motion.ParseMode(o.mode)
		if err != nil {
			return err
		}
		cfg.Axis.Mode = m
	}
	if o.limit > 0 {
		cfg.Axis.AngleLimit = o.limit
	}
	if o.device != "" {
		cfg.Serial.Device = o.device
	}
	if o.mockSet {
		cfg.Defaults.MockGPIO = o.mock
	}
	if o.debugLevel >= 0 {
		cfg.Defaults.DebugLevel = o.debugLevel
	}
	return nil
}
