package daw

import "testing"

func TestPitchRatioAtBaseMIDIIsUnity(t *testing.T) {
	inst := NewInstrument("i1", "Test", "track")
	inst.Sampler.BaseMIDI = 60
	if got := inst.PitchRatio(60); got != 1.0 {
		t.Errorf("PitchRatio at base pitch = %v, want 1.0", got)
	}
}

func TestPitchRatioOneOctaveUpIsDouble(t *testing.T) {
	inst := NewInstrument("i1", "Test", "track")
	inst.Sampler.BaseMIDI = 60
	got := inst.PitchRatio(72)
	if got < 1.999 || got > 2.001 {
		t.Errorf("PitchRatio one octave up = %v, want ~2.0", got)
	}
}

func TestPitchRatioIncludesPitchOffset(t *testing.T) {
	inst := NewInstrument("i1", "Test", "track")
	inst.Sampler.BaseMIDI = 60
	inst.PitchOffset = 12
	got := inst.PitchRatio(60)
	if got < 1.999 || got > 2.001 {
		t.Errorf("PitchRatio with +12 semitone offset = %v, want ~2.0", got)
	}
}

func TestSampleBufferLoopsRequiresEndAfterStart(t *testing.T) {
	b := &SampleBuffer{Data: make([]int8, 100), LoopStart: 10, LoopEnd: 10}
	if b.Loops() {
		t.Error("Loops() with LoopEnd == LoopStart should be false")
	}
	b.LoopEnd = 20
	if !b.Loops() {
		t.Error("Loops() with LoopEnd > LoopStart should be true")
	}
}

func TestSampleBufferLenOnNilIsZero(t *testing.T) {
	var b *SampleBuffer
	if b.Len() != 0 {
		t.Errorf("Len() on nil buffer = %d, want 0", b.Len())
	}
}

func TestNewInstrumentDefaultEnvelopeAvoidsClicks(t *testing.T) {
	inst := NewInstrument("i1", "Test", "track")
	if inst.Sampler.AttackSec <= 0 {
		t.Error("default AttackSec should be a short nonzero ramp, not a hard click")
	}
	if inst.Sampler.Sustain != 1.0 {
		t.Errorf("default Sustain = %v, want 1.0", inst.Sampler.Sustain)
	}
	if inst.Sampler.ReleaseSec <= 0 {
		t.Error("default ReleaseSec should be nonzero to avoid a click on NoteOff")
	}
}
