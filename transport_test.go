package daw

import (
	"testing"

	"github.com/go-daw/core/internal/epoch"
)

func newTestTransport() *Transport {
	shared := NewSharedState(44100)
	ep := &epoch.Counter{}
	return NewTransport(shared, ep, DefaultPPQ)
}

func TestSecondsPerTick(t *testing.T) {
	tr := newTestTransport()
	if err := tr.SetBPM(120); err != nil {
		t.Fatal(err)
	}
	got := tr.SecondsPerTick()
	want := 60.0 / (120.0 * float64(DefaultPPQ))
	if got != want {
		t.Errorf("SecondsPerTick() = %v, want %v", got, want)
	}
}

func TestSetBPMRejectsNonPositive(t *testing.T) {
	tr := newTestTransport()
	if err := tr.SetBPM(0); err == nil {
		t.Error("SetBPM(0) expected error, got nil")
	}
	if err := tr.SetBPM(-10); err == nil {
		t.Error("SetBPM(-10) expected error, got nil")
	}
}

func TestSetLoopRejectsBadRange(t *testing.T) {
	tr := newTestTransport()
	if err := tr.SetLoop(100, 50, true); err == nil {
		t.Error("SetLoop with end <= start expected error, got nil")
	}
}

func TestAdvanceBlockPreservesOvershootOnLoopWrap(t *testing.T) {
	tr := newTestTransport()
	if err := tr.SetLoop(0, 96, true); err != nil {
		t.Fatal(err)
	}
	tr.Play(nil)

	wrapped := false
	tr.OnLoopWrap(func() { wrapped = true })

	// One tick = SecondsPerTick() seconds; at 120bpm/96ppq that's about 5.2ms.
	// Pick a block size that overshoots loopEnd (96 ticks) by a known
	// amount and check the overshoot survives the wrap instead of being
	// truncated to exactly loopStart.
	sampleRate := 44100.0
	secondsPerTick := tr.SecondsPerTick()
	samplesPerTick := secondsPerTick * sampleRate

	// Advance most of the way to the loop end first.
	tr.AdvanceBlock(int(94*samplesPerTick), sampleRate)
	if wrapped {
		t.Fatal("wrapped before reaching loop end")
	}

	// Now push 4 ticks worth of samples - this should cross loopEnd (96)
	// by 2 ticks worth and wrap, preserving that overshoot.
	tr.AdvanceBlock(int(4*samplesPerTick), sampleRate)
	if !wrapped {
		t.Fatal("expected onLoopWrap to fire")
	}
	cur := tr.CurrentTick()
	if cur <= 0 || cur >= 96 {
		t.Errorf("CurrentTick() after wrap = %v, want in (0, 96) reflecting preserved overshoot", cur)
	}
}

func TestSeekToStepBumpsEpoch(t *testing.T) {
	tr := newTestTransport()
	before := tr.Epoch()
	tr.SeekToStep(4)
	if tr.Epoch() == before {
		t.Error("SeekToStep did not bump epoch")
	}
	want := float64(4 * TicksPerStep(tr.PPQ()))
	if tr.CurrentTick() != want {
		t.Errorf("CurrentTick() = %v, want %v", tr.CurrentTick(), want)
	}
}

func TestBarBeatSixteenthAtOrigin(t *testing.T) {
	tr := newTestTransport()
	bar, beat, sixteenth := tr.BarBeatSixteenth()
	if bar != 1 || beat != 1 || sixteenth != 1 {
		t.Errorf("BarBeatSixteenth() at tick 0 = (%d,%d,%d), want (1,1,1)", bar, beat, sixteenth)
	}
}

func TestStopResetsToLoopStartAndBumpsEpoch(t *testing.T) {
	tr := newTestTransport()
	if err := tr.SetLoop(48, 192, true); err != nil {
		t.Fatal(err)
	}
	tr.Play(nil)
	tr.AdvanceBlock(44100, 44100) // advance playback state
	before := tr.Epoch()

	stopped := false
	tr.OnStop(func() { stopped = true })
	tr.Stop()

	if !stopped {
		t.Error("expected onStop callback to fire")
	}
	if tr.Epoch() == before {
		t.Error("Stop did not bump epoch")
	}
	if tr.CurrentTick() != 48 {
		t.Errorf("CurrentTick() after Stop = %v, want loopStart 48", tr.CurrentTick())
	}
}
