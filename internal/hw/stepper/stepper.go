package stepper

import (
	"fmt"
	"time"

	"github.com/cjeanneret/PanAxis/internal/hw/gpio"
)

// Driver kinds accepted by New.
const (
	KindCoil4   = "coil4"    // ULN2003 + 28BYJ-48, four coil lines
	KindStepDir = "step_dir" // A4988/DRV8825 STEP/DIR/ENABLE
)

// Motor is the capability the motion layer drives: a speed setting and
// a signed step command (sign selects direction, magnitude is step count).
type Motor interface {
	SetSpeed(rpm int)
	Step(count int) error
}

// Config holds the hardware configuration for a stepper motor.
type Config struct {
	// CoilPins are the four coil inputs for KindCoil4, in driving order.
	// For a ULN2003 board wired like the Arduino Stepper library this is
	// IN1, IN3, IN2, IN4.
	CoilPins [4]int

	StepPin   int
	DirPin    int
	EnablePin int // A4988 ENABLE pin (BCM). 0 = not used. Active LOW (LOW=enabled).

	StepsPerRev int

	// StepDelay is the time per step before SetSpeed is called.
	// If 0, defaults to 2ms.
	StepDelay time.Duration

	// ReleaseAfterMove de-energizes the coils once a move completes.
	// Saves power and heat at the cost of holding torque.
	ReleaseAfterMove bool
}

// New builds the driver selected by kind on top of g.
func New(kind string, g gpio.Driver, cfg Config) (Motor, error) {
	if cfg.StepsPerRev <= 0 {
		return nil, fmt.Errorf("steps per revolution must be > 0, got %d", cfg.StepsPerRev)
	}
	switch kind {
	case KindCoil4, "":
		return NewCoil4(g, cfg)
	case KindStepDir:
		return NewStepDir(g, cfg)
	default:
		return nil, fmt.Errorf("unsupported motor type: %s", kind)
	}
}

// pacer turns an rpm setting into a per-step delay, the way the Arduino
// Stepper library does: one revolution takes 60s/rpm.
type pacer struct {
	stepsPerRev int
	delay       time.Duration
	sleep       func(time.Duration)
}

func newPacer(cfg Config) pacer {
	delay := cfg.StepDelay
	if delay <= 0 {
		delay = 2 * time.Millisecond
	}
	return pacer{
		stepsPerRev: cfg.StepsPerRev,
		delay:       delay,
		sleep:       time.Sleep,
	}
}

func (p *pacer) setSpeed(rpm int) {
	if rpm <= 0 || p.stepsPerRev <= 0 {
		return
	}
	p.delay = time.Minute / time.Duration(p.stepsPerRev*rpm)
}

// StepDelayFor returns the per-step delay SetSpeed(rpm) produces for a
// motor with stepsPerRev steps per revolution.
func StepDelayFor(stepsPerRev, rpm int) time.Duration {
	if stepsPerRev <= 0 || rpm <= 0 {
		return 0
	}
	return time.Minute / time.Duration(stepsPerRev*rpm)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
