package dsp

import "testing"

func TestLinearInterpMidpoint(t *testing.T) {
	buf := []int8{0, 100}
	got := LinearInterp(buf, 0.5)
	if got != 50 {
		t.Errorf("expected 50, got %v", got)
	}
}

func TestLinearInterpEndClamps(t *testing.T) {
	buf := []int8{10, 20, 30}
	got := LinearInterp(buf, 5)
	if got != 30 {
		t.Errorf("expected clamp to last sample 30, got %v", got)
	}
}

func TestCubicInterpAtExactSample(t *testing.T) {
	buf := []int8{0, 10, 20, 30, 40}
	got := CubicInterp(buf, 2.0)
	if got != 20 {
		t.Errorf("expected exact sample 20, got %v", got)
	}
}

func TestSmootherConvergesToTarget(t *testing.T) {
	s := NewSmoother(0, 20, 44100)
	s.SetTarget(1)
	for i := 0; i < 44100; i++ {
		s.Next()
	}
	if got := s.Current(); got < 0.999 {
		t.Errorf("expected smoother to converge near 1.0 after 1s, got %v", got)
	}
}

func TestSmootherSnapToTarget(t *testing.T) {
	s := NewSmoother(0, 20, 44100)
	s.SetTarget(5)
	s.SnapToTarget()
	if s.Current() != 5 {
		t.Errorf("expected immediate snap to 5, got %v", s.Current())
	}
}

func TestADSRReachesSustainThenRelease(t *testing.T) {
	e := NewADSR(0.001, 0.001, 0.5, 0.001, 44100)
	var last float64
	for i := 0; i < 200; i++ {
		last = e.Next()
	}
	if e.Stage() != StageSustain {
		t.Fatalf("expected sustain stage after attack+decay, got %v", e.Stage())
	}
	if last < 0.49 || last > 0.51 {
		t.Errorf("expected sustain level ~0.5, got %v", last)
	}

	e.NoteOff()
	for i := 0; i < 100; i++ {
		e.Next()
	}
	if !e.Finished() {
		t.Errorf("expected envelope finished after release window elapsed")
	}
}

func TestADSRDisabledDeclicks(t *testing.T) {
	// Disabled envelope per spec §4.4: Attack=0, Release=10ms.
	e := NewADSR(0, 0, 1, 0.010, 44100)
	if got := e.Next(); got != 1 {
		t.Errorf("expected immediate full level with zero attack, got %v", got)
	}
}

func TestBiquadBypassIdentityAtExtremeLowpass(t *testing.T) {
	var bq Biquad
	bq.Configure(BiquadLowpass, 20000, 0.707, 0, 44100)
	// A very high cutoff relative to sample rate should pass signal through
	// close to unchanged in steady state.
	var last float64
	for i := 0; i < 1000; i++ {
		last = bq.Process(0, 1.0)
	}
	if last < 0.9 {
		t.Errorf("expected near-unity passthrough at high cutoff, got %v", last)
	}
}
