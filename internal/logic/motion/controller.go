package motion

import (
	"errors"
	"fmt"
	"math"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/logic/geometry"
)

// Epsilon is the smallest position change, in degrees, worth moving for.
const Epsilon = 1e-3

// ErrInvalidTarget is returned for NaN or infinite request values.
var ErrInvalidTarget = errors.New("target angle is not a finite number")

// Stepper is the motor capability the controller drives.
type Stepper interface {
	Step(count int) error
}

// Config holds the immutable axis parameters.
type Config struct {
	Mode          Mode
	StepsPerRev   int
	TravelDegrees float64 // travel covered by one motor revolution
	AngleLimit    float64 // position is kept within [-AngleLimit, +AngleLimit]

	// InvertDirection negates every commanded value before it is
	// interpreted. It mirrors the physical wiring of the actuator: with it
	// set, "40" ends at -40° and the motor turns the other way.
	InvertDirection bool
}

// Controller owns the absolute position of a single axis. It is an
// intermediate layer between command handling and the motor driver.
//
// Controller is not safe for concurrent use; callers serialize Move.
type Controller struct {
	motor    Stepper
	cfg      Config
	steps    *geometry.StepsCalculator
	position float64
}

// NewController creates a controller at position 0.
func NewController(m Stepper, cfg Config) (*Controller, error) {
	if m == nil {
		return nil, errors.New("motion: nil stepper")
	}
	if cfg.StepsPerRev <= 0 {
		return nil, fmt.Errorf("steps_per_rev must be > 0, got %d", cfg.StepsPerRev)
	}
	if cfg.TravelDegrees <= 0 || math.IsInf(cfg.TravelDegrees, 0) || math.IsNaN(cfg.TravelDegrees) {
		return nil, fmt.Errorf("travel_degrees must be > 0, got %g", cfg.TravelDegrees)
	}
	if cfg.AngleLimit <= 0 || math.IsInf(cfg.AngleLimit, 0) || math.IsNaN(cfg.AngleLimit) {
		return nil, fmt.Errorf("angle_limit must be > 0, got %g", cfg.AngleLimit)
	}
	return &Controller{
		motor: m,
		cfg:   cfg,
		steps: geometry.NewStepsCalculator(cfg.StepsPerRev, cfg.TravelDegrees),
	}, nil
}

// Position returns the current absolute angle in degrees.
func (c *Controller) Position() float64 {
	return c.position
}

// Config returns the axis parameters.
func (c *Controller) Config() Config {
	return c.cfg
}

// StepsPerDegree returns the configured degrees-per-step ratio.
func (c *Controller) StepsPerDegree() float64 {
	return c.steps.StepsPerDegree()
}

// Target resolves a request to its clamped absolute target without moving.
func (c *Controller) Target(req Request) (float64, error) {
	if math.IsNaN(req.Value) || math.IsInf(req.Value, 0) {
		return 0, ErrInvalidTarget
	}
	value := req.Value
	if c.cfg.InvertDirection {
		value = -value
	}
	target := value
	if req.Mode == Relative {
		target = c.position + value
	}
	return geometry.Clamp(target, -c.cfg.AngleLimit, c.cfg.AngleLimit), nil
}

// Move executes one clamped move. Targets within Epsilon of the current
// position are ignored without touching the motor. If the motor fails the
// position is left unchanged.
func (c *Controller) Move(req Request) (Outcome, error) {
	out := Outcome{
		Request:  req,
		Previous: c.position,
		Position: c.position,
	}

	target, err := c.Target(req)
	if err != nil {
		return out, err
	}
	out.Target = target

	actual := target - c.position
	if math.Abs(actual) < Epsilon {
		out.Status = Ignored
		debug.Live("Move ignored: already at %.3f°", c.position)
		return out, nil
	}

	out.Steps = c.steps.StepsFromAngle(actual)
	debug.Verbose("Move %s %.3f -> clamped %.3f, delta %.3f°, %d steps", req.Mode, req.Value, target, actual, out.Steps)

	if err := c.motor.Step(out.Steps); err != nil {
		return out, fmt.Errorf("step motor %d steps: %w", out.Steps, err)
	}
	debug.Move(out.Steps, c.position, target)

	c.position = target
	out.Position = target
	out.Status = Moved
	return out, nil
}
