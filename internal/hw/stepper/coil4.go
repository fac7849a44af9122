package stepper

import (
	"fmt"
	"time"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/cjeanneret/PanAxis/internal/hw/gpio"
)

// fullStep is the 4-phase full-step pattern for a unipolar motor, one bit
// per coil line in CoilPins order (bit 3 = CoilPins[0]).
var fullStep = [4]uint8{
	0b1010,
	0b0110,
	0b0101,
	0b1001,
}

// Coil4 drives a unipolar stepper through four coil lines (ULN2003 board).
type Coil4 struct {
	gpio  gpio.Driver
	cfg   Config
	pace  pacer
	phase int // index into fullStep of the last energized pattern
}

// NewCoil4 configures the four coil pins as outputs, all low.
func NewCoil4(g gpio.Driver, cfg Config) (*Coil4, error) {
	for i, pin := range cfg.CoilPins {
		if pin <= 0 {
			return nil, fmt.Errorf("coil4 motor needs 4 coil pins, pin %d is %d", i+1, pin)
		}
		if err := g.SetupPin(pin, gpio.Output); err != nil {
			return nil, fmt.Errorf("setup coil pin %d: %w", pin, err)
		}
		if err := g.WritePin(pin, gpio.Low); err != nil {
			return nil, err
		}
	}
	return &Coil4{
		gpio: g,
		cfg:  cfg,
		pace: newPacer(cfg),
	}, nil
}

// SetSpeed sets the rotation speed used by subsequent moves.
func (c *Coil4) SetSpeed(rpm int) {
	c.pace.setSpeed(rpm)
	debug.Verbose("Coil4: speed %d rpm, %v per step", rpm, c.pace.delay)
}

// Step advances the coil sequence count times; negative counts run it backwards.
func (c *Coil4) Step(count int) error {
	if count == 0 {
		return nil
	}
	dir := 1
	if count < 0 {
		dir = -1
	}
	debug.Trace("Coil4: %d steps (dir=%d) from phase %d", abs(count), dir, c.phase)

	for i := 0; i < abs(count); i++ {
		c.phase = (c.phase + dir + len(fullStep)) % len(fullStep)
		if err := c.energize(fullStep[c.phase]); err != nil {
			return err
		}
		c.pace.sleep(c.pace.delay)
	}
	if c.cfg.ReleaseAfterMove {
		return c.Release()
	}
	return nil
}

func (c *Coil4) energize(pattern uint8) error {
	for i, pin := range c.cfg.CoilPins {
		level := gpio.Level(pattern&(1<<(3-i)) != 0)
		if err := c.gpio.WritePin(pin, level); err != nil {
			return fmt.Errorf("coil pin %d: %w", pin, err)
		}
	}
	return nil
}

// Release drives all coils low. The shaft is then free to turn.
func (c *Coil4) Release() error {
	return c.energize(0)
}

// Delay returns the current per-step delay.
func (c *Coil4) Delay() time.Duration {
	return c.pace.delay
}
