package effects

import (
	"math"
	"testing"
)

func allKinds() []Kind {
	return []Kind{EQ, Compressor, Saturator, Limiter, Clipper, Reverb, Delay, Chorus, Phaser, Panner}
}

func TestRegistryCreatesEveryBuiltinKind(t *testing.T) {
	r := NewRegistry()
	for _, k := range allKinds() {
		eff, err := r.Create(k, 44100)
		if err != nil {
			t.Errorf("Create(%v) = %v, want nil error", k, err)
			continue
		}
		if eff.Kind() != k {
			t.Errorf("Create(%v).Kind() = %v, want %v", k, eff.Kind(), k)
		}
	}
}

func TestRegistryCreateUnknownKindErrors(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Create(Kind(999), 44100); err == nil {
		t.Error("Create with an unregistered kind expected an error, got nil")
	}
}

func TestRegistryParamsMatchesFactoryParamCount(t *testing.T) {
	r := NewRegistry()
	for _, k := range allKinds() {
		if len(r.Params(k)) == 0 {
			t.Errorf("Params(%v) is empty, want at least one parameter descriptor", k)
		}
	}
}

func TestNewEffectsStartUnbypassed(t *testing.T) {
	r := NewRegistry()
	for _, k := range allKinds() {
		eff, _ := r.Create(k, 44100)
		if eff.Bypassed() {
			t.Errorf("new %v effect should start unbypassed", k)
		}
	}
}

func TestSetBypassedRoundTrips(t *testing.T) {
	r := NewRegistry()
	eff, _ := r.Create(EQ, 44100)
	eff.SetBypassed(true)
	if !eff.Bypassed() {
		t.Error("SetBypassed(true) did not stick")
	}
	eff.SetBypassed(false)
	if eff.Bypassed() {
		t.Error("SetBypassed(false) did not stick")
	}
}

func TestSetParamOutOfRangeErrors(t *testing.T) {
	r := NewRegistry()
	for _, k := range allKinds() {
		eff, _ := r.Create(k, 44100)
		n := len(r.Params(k))
		if err := eff.SetParam(n+5, 0); err == nil {
			t.Errorf("%v.SetParam(out of range) expected an error, got nil", k)
		}
	}
}

func TestClipperClampsToCeiling(t *testing.T) {
	c := newClipper(44100)
	_ = c.SetParam(0, 0.5)
	l := []float32{1.0, -1.0, 0.1}
	r := []float32{1.0, -1.0, 0.1}
	c.Process(l, r)
	if l[0] != 0.5 || r[0] != 0.5 {
		t.Errorf("clipper did not clamp +1.0 to ceiling 0.5: got l=%v r=%v", l[0], r[0])
	}
	if l[1] != -0.5 || r[1] != -0.5 {
		t.Errorf("clipper did not clamp -1.0 to -ceiling 0.5: got l=%v r=%v", l[1], r[1])
	}
	if l[2] != 0.1 {
		t.Errorf("clipper altered a sample already within range: got %v, want 0.1", l[2])
	}
}

func TestLimiterNeverExceedsCeiling(t *testing.T) {
	lm := newLimiter(44100)
	_ = lm.SetParam(0, -6) // ceilingDB
	ceiling := math.Pow(10, -6.0/20)

	n := 2000
	l := make([]float32, n)
	r := make([]float32, n)
	for i := range l {
		l[i], r[i] = 1.0, 1.0 // sustained full-scale input
	}
	lm.Process(l, r)
	// The limiter drops its gain on the same sample that would overshoot,
	// so the margin only absorbs float32 rounding; it must never approach
	// the unlimited 1.0 input level.
	for i := n - 100; i < n; i++ {
		if math.Abs(float64(l[i])) > ceiling+0.01 {
			t.Fatalf("limiter output %v at sample %d exceeds ceiling %v by more than the settle margin", l[i], i, ceiling)
		}
	}
}

func TestDelayResetClearsLine(t *testing.T) {
	d := newDelay(44100)
	_ = d.SetParam(0, 1) // 1ms
	_ = d.SetParam(1, 0.9)
	l := []float32{1, 0, 0, 0, 0}
	r := []float32{1, 0, 0, 0, 0}
	d.Process(l, r)

	d.Reset()
	for i, v := range d.bufL {
		if v != 0 {
			t.Fatalf("bufL[%d] = %v after Reset, want 0", i, v)
		}
	}
	if d.writePos != 0 {
		t.Errorf("writePos after Reset = %d, want 0", d.writePos)
	}
}

func TestDelayFeedsBackDelayedSignal(t *testing.T) {
	d := newDelay(44100)
	_ = d.SetParam(0, 2.0/44100*1000) // a 2-sample delay, expressed in ms
	_ = d.SetParam(2, 1.0)            // fully wet

	n := 10
	l := make([]float32, n)
	r := make([]float32, n)
	l[0], r[0] = 1, 1
	d.Process(l, r)

	if l[2] == 0 || r[2] == 0 {
		t.Errorf("expected the impulse at sample 0 to reappear (wet) at sample 2, got l[2]=%v r[2]=%v", l[2], r[2])
	}
}

func TestPannerHardLeftSilencesRight(t *testing.T) {
	p := newPanner(44100)
	_ = p.SetParam(0, -1)
	l := []float32{1, 1}
	r := []float32{1, 1}
	p.Process(l, r)
	for i, v := range r {
		if math.Abs(float64(v)) > 1e-6 {
			t.Errorf("hard-left pan r[%d] = %v, want ~0", i, v)
		}
	}
	for i, v := range l {
		if v <= 0 {
			t.Errorf("hard-left pan l[%d] = %v, want > 0", i, v)
		}
	}
}

func TestSaturatorIsIdentityAtZeroMix(t *testing.T) {
	s := newSaturator(44100)
	_ = s.SetParam(1, 0) // mix = 0, fully dry
	l := []float32{0.5, -0.3, 0.9}
	r := []float32{0.5, -0.3, 0.9}
	orig := append([]float32(nil), l...)
	s.Process(l, r)
	for i := range l {
		if math.Abs(float64(l[i]-orig[i])) > 1e-6 {
			t.Errorf("saturator at mix=0 altered sample %d: got %v, want %v", i, l[i], orig[i])
		}
	}
}

func TestEQReconfiguresOnParamChangeWithoutPanicking(t *testing.T) {
	e := newEQ(44100)
	if err := e.SetParam(0, 200); err != nil {
		t.Fatal(err)
	}
	if err := e.SetParam(4, 6); err != nil {
		t.Fatal(err)
	}
	l := []float32{0.1, 0.2, -0.1}
	r := []float32{0.1, 0.2, -0.1}
	e.Process(l, r) // must not panic after reconfiguration
}

func TestEQResetClearsFilterHistory(t *testing.T) {
	e := newEQ(44100)
	_ = e.SetParam(1, 12) // lowGainDB, so the shelf actually alters the signal

	firstPass := []float32{1, 0, 0, 0}
	rCopy := []float32{1, 0, 0, 0}
	e.Process(firstPass, rCopy)
	firstResponse := append([]float32(nil), firstPass...)

	// Feed more signal so the filter's internal history is non-zero...
	more := []float32{1, 1, 1, 1}
	moreR := []float32{1, 1, 1, 1}
	e.Process(more, moreR)

	// ...then Reset and replay the exact same impulse: the response must
	// match the very first pass, since Reset should zero all history.
	e.Reset()
	secondPass := []float32{1, 0, 0, 0}
	secondR := []float32{1, 0, 0, 0}
	e.Process(secondPass, secondR)

	for i := range firstResponse {
		if math.Abs(float64(secondPass[i]-firstResponse[i])) > 1e-6 {
			t.Errorf("sample %d after Reset+replay = %v, want %v (matching the first, history-free pass)", i, secondPass[i], firstResponse[i])
		}
	}
}
