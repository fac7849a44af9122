package gpio

import (
	"fmt"

	"github.com/cjeanneret/PanAxis/internal/debug"
	"github.com/stianeikeland/go-rpio/v4"
)

// RPiDriver is the real implementation for Raspberry Pi using go-rpio.
type RPiDriver struct {
	pins map[int]rpio.Pin
}

// NewRPiRealDriver memory-maps the GPIO registers.
// Requires running on a Raspberry Pi with access to /dev/gpiomem or as root.
func NewRPiRealDriver() (*RPiDriver, error) {
	debug.Info("Initializing real GPIO driver (go-rpio)")

	if err := rpio.Open(); err != nil {
		return nil, fmt.Errorf("failed to open GPIO: %w (are you running on a Raspberry Pi?)", err)
	}

	debug.Verbose("GPIO memory mapped successfully")

	return &RPiDriver{
		pins: make(map[int]rpio.Pin),
	}, nil
}

func (r *RPiDriver) SetupPin(pin int, mode PinMode) error {
	debug.GPIO("SetupPin", pin, mode)

	p := rpio.Pin(pin)
	switch mode {
	case Input:
		p.Input()
	case Output:
		p.Output()
	default:
		return fmt.Errorf("unknown pin mode: %d", mode)
	}
	r.pins[pin] = p
	return nil
}

func (r *RPiDriver) pin(pin int, mode PinMode) (rpio.Pin, error) {
	if p, ok := r.pins[pin]; ok {
		return p, nil
	}
	if err := r.SetupPin(pin, mode); err != nil {
		return 0, err
	}
	return r.pins[pin], nil
}

func (r *RPiDriver) WritePin(pin int, level Level) error {
	debug.GPIO("WritePin", pin, level)

	p, err := r.pin(pin, Output)
	if err != nil {
		return err
	}
	if level == High {
		p.High()
	} else {
		p.Low()
	}
	return nil
}

func (r *RPiDriver) ReadPin(pin int) (Level, error) {
	debug.GPIO("ReadPin", pin, nil)

	p, err := r.pin(pin, Input)
	if err != nil {
		return Low, err
	}
	if p.Read() == rpio.High {
		return High, nil
	}
	return Low, nil
}

// Close drives every used pin low, switches it back to input and unmaps
// the registers. Coils left energized would heat the motor.
func (r *RPiDriver) Close() error {
	debug.Trace("GPIO Close (real driver)")

	for pin, p := range r.pins {
		debug.Verbose("Releasing pin %d", pin)
		p.Low()
		p.Input()
	}

	return rpio.Close()
}
