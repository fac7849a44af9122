package geometry

import "math"

// StepsCalculator converts angles to motor step counts for an actuator
// whose full mechanical travel spans travelDegrees over one motor revolution.
type StepsCalculator struct {
	stepsPerDegree float64
}

// NewStepsCalculator creates a step calculator from the motor resolution and
// the travel covered by one revolution (270° or 90° on the reference builds).
func NewStepsCalculator(stepsPerRev int, travelDegrees float64) *StepsCalculator {
	spd := 0.0
	if travelDegrees > 0 {
		spd = float64(stepsPerRev) / travelDegrees
	}
	return &StepsCalculator{stepsPerDegree: spd}
}

// StepsPerDegree returns the degrees-per-step ratio (steps per degree of travel).
func (s *StepsCalculator) StepsPerDegree() float64 {
	return s.stepsPerDegree
}

// StepsFromAngle converts an angular delta (in degrees) to motor steps,
// rounding toward zero.
func (s *StepsCalculator) StepsFromAngle(angleDegrees float64) int {
	return int(angleDegrees * s.stepsPerDegree)
}

// AngleFromSteps converts a step count back to degrees.
func (s *StepsCalculator) AngleFromSteps(steps int) float64 {
	if s.stepsPerDegree == 0 {
		return 0
	}
	return float64(steps) / s.stepsPerDegree
}

// Clamp constrains v to the closed range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
