package dsp

import "math"

// Smoother is a one-pole parameter smoother, used to avoid zipper noise when
// a control-thread parameter change is applied on the audio thread (spec.md
// §4.6: "param values are smoothed internally... one-pole smoother with
// ~20ms time constant unless the effect dictates otherwise").
type Smoother struct {
	coeff   float64
	current float64
	target  float64
}

// NewSmoother creates a smoother starting at value, with a time constant of
// timeConstantMs milliseconds at the given sample rate.
func NewSmoother(value float64, timeConstantMs float64, sampleRate float64) *Smoother {
	s := &Smoother{current: value, target: value}
	s.SetTimeConstant(timeConstantMs, sampleRate)
	return s
}

// SetTimeConstant recomputes the smoothing coefficient, e.g. after a sample
// rate change.
func (s *Smoother) SetTimeConstant(timeConstantMs, sampleRate float64) {
	if timeConstantMs <= 0 {
		s.coeff = 0 // jump immediately
		return
	}
	samples := timeConstantMs * 0.001 * sampleRate
	s.coeff = math.Exp(-1.0 / samples)
}

// SetTarget sets the value the smoother will converge towards on subsequent
// Next calls. It does not change the current output immediately.
func (s *Smoother) SetTarget(target float64) {
	s.target = target
}

// SnapToTarget immediately sets the current value to the target, skipping
// the smoothing ramp, so a fresh instance doesn't ramp up from zero. No
// effect in internal/effects uses Smoother: effect parameters take their new
// value immediately on SetParam.
func (s *Smoother) SnapToTarget() {
	s.current = s.target
}

// Next advances the smoother by one sample and returns the new current
// value.
func (s *Smoother) Next() float64 {
	s.current = s.target + s.coeff*(s.current-s.target)
	return s.current
}

// Current returns the smoother's current value without advancing it.
func (s *Smoother) Current() float64 {
	return s.current
}
