package motion

import (
	"fmt"
	"strings"
)

// Mode selects how a commanded angle is interpreted.
type Mode int

const (
	// Absolute: the value is the final position.
	Absolute Mode = iota
	// Relative: the value is a delta from the current position.
	Relative
)

func (m Mode) String() string {
	switch m {
	case Absolute:
		return "absolute"
	case Relative:
		return "relative"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ParseMode accepts "absolute"/"abs" and "relative"/"rel", case-insensitive.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "absolute", "abs", "":
		return Absolute, nil
	case "relative", "rel":
		return Relative, nil
	default:
		return Absolute, fmt.Errorf("unknown addressing mode %q (want absolute or relative)", s)
	}
}

// MarshalText implements encoding.TextMarshaler (used by YAML and JSON).
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Request is a single motion command.
type Request struct {
	Mode  Mode
	Value float64 // target angle (Absolute) or delta (Relative), degrees
}

// To builds an absolute request.
func To(angle float64) Request { return Request{Mode: Absolute, Value: angle} }

// By builds a relative request.
func By(delta float64) Request { return Request{Mode: Relative, Value: delta} }

// Status tells whether a move actuated the motor.
type Status int

const (
	Moved Status = iota
	Ignored
)

func (s Status) String() string {
	if s == Ignored {
		return "ignored"
	}
	return "moved"
}

// Outcome describes the result of Controller.Move.
type Outcome struct {
	Status   Status
	Request  Request
	Target   float64 // clamped absolute target
	Steps    int     // steps sent to the motor, 0 when ignored
	Previous float64 // position before the move
	Position float64 // position after the move
}

