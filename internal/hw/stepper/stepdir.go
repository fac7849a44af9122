package stepper

import (
	"fmt"
	"time"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/hw/gpio"
)

// StepDir drives a STEP/DIR controller such as the A4988.
// Acceleration, ramping, etc. are out of scope.
type StepDir struct {
	gpio gpio.Driver
	cfg  Config
	pace pacer
}

// NewStepDir configures the STEP, DIR and optional ENABLE pins.
func NewStepDir(g gpio.Driver, cfg Config) (*StepDir, error) {
	if cfg.StepPin <= 0 || cfg.DirPin <= 0 {
		return nil, fmt.Errorf("step_dir motor needs step and dir pins, got step=%d dir=%d", cfg.StepPin, cfg.DirPin)
	}
	if err := g.SetupPin(cfg.StepPin, gpio.Output); err != nil {
		return nil, fmt.Errorf("setup step pin: %w", err)
	}
	if err := g.SetupPin(cfg.DirPin, gpio.Output); err != nil {
		return nil, fmt.Errorf("setup dir pin: %w", err)
	}

	s := &StepDir{
		gpio: g,
		cfg:  cfg,
		pace: newPacer(cfg),
	}

	// A4988 ENABLE: active LOW. LOW = enabled, HIGH = disabled.
	if cfg.EnablePin > 0 {
		if err := g.SetupPin(cfg.EnablePin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup enable pin: %w", err)
		}
		if err := g.WritePin(cfg.EnablePin, gpio.Low); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetSpeed sets the rotation speed used by subsequent moves.
func (s *StepDir) SetSpeed(rpm int) {
	s.pace.setSpeed(rpm)
	debug.Verbose("StepDir: speed %d rpm, %v per step", rpm, s.pace.delay)
}

// Step moves the motor by a number of steps (positive or negative).
func (s *StepDir) Step(count int) error {
	if count == 0 {
		return nil
	}

	dirLevel := gpio.High
	if count < 0 {
		dirLevel = gpio.Low
	}
	debug.Trace("StepDir: %d steps on pin %d (dir=%v)", abs(count), s.cfg.StepPin, dirLevel)

	if err := s.Enable(); err != nil {
		return err
	}
	if err := s.gpio.WritePin(s.cfg.DirPin, dirLevel); err != nil {
		return err
	}
	for i := 0; i < abs(count); i++ {
		if err := s.pulse(); err != nil {
			return err
		}
	}
	if s.cfg.ReleaseAfterMove {
		return s.Disable()
	}
	return nil
}

func (s *StepDir) pulse() error {
	half := s.pace.delay / 2
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.High); err != nil {
		return err
	}
	s.pace.sleep(half)
	if err := s.gpio.WritePin(s.cfg.StepPin, gpio.Low); err != nil {
		return err
	}
	s.pace.sleep(half)
	return nil
}

// Enable turns on the motor driver (A4988 ENABLE=LOW). Motor holds position.
func (s *StepDir) Enable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.Low)
}

// Disable turns off the motor driver (A4988 ENABLE=HIGH). Motor freewheels.
func (s *StepDir) Disable() error {
	if s.cfg.EnablePin <= 0 {
		return nil
	}
	return s.gpio.WritePin(s.cfg.EnablePin, gpio.High)
}

// Delay returns the current per-step delay.
func (s *StepDir) Delay() time.Duration {
	return s.pace.delay
}
