package daw

import (
	"math"
	"testing"

	"github.com/go-daw/core/internal/dsp"
)

func testBuffer(n int) *SampleBuffer {
	data := make([]int8, n)
	for i := range data {
		data[i] = 64 // constant positive sample
	}
	return &SampleBuffer{ID: "test", Data: data, SampleRate: 44100}
}

func TestVoiceRenderStopsAtBufferEndWithoutLoop(t *testing.T) {
	v := &Voice{}
	v.buffer = testBuffer(10)
	v.rate = 1
	v.velocity = 1
	v.state = VoiceActive
	v.sampleEnd = 0 // defaults to buffer length

	out := make([]float32, 2*20)
	rendered := v.render(out, 20)
	if rendered != 10 {
		t.Errorf("rendered = %d, want 10 (buffer length)", rendered)
	}
	if v.state != VoiceIdle {
		t.Errorf("state after running off the end = %v, want VoiceIdle", v.state)
	}
}

func TestVoiceRenderLoops(t *testing.T) {
	v := &Voice{}
	v.buffer = &SampleBuffer{ID: "loop", Data: make([]int8, 10), SampleRate: 44100, LoopStart: 2, LoopEnd: 8}
	for i := range v.buffer.Data {
		v.buffer.Data[i] = 64
	}
	v.rate = 1
	v.velocity = 1
	v.state = VoiceActive

	out := make([]float32, 2*20)
	rendered := v.render(out, 20)
	if rendered != 20 {
		t.Errorf("rendered = %d, want 20 (looping should never run out)", rendered)
	}
	if v.state != VoiceActive {
		t.Errorf("state after looped render = %v, want VoiceActive", v.state)
	}
	// Loop must wrap at LoopEnd (8), not at buffer length (10) or sampleEnd.
	if v.pos < float64(v.buffer.LoopStart) || v.pos >= float64(v.buffer.LoopEnd) {
		t.Errorf("pos after looped render = %v, want within [%d, %d)", v.pos, v.buffer.LoopStart, v.buffer.LoopEnd)
	}
}

func TestVoiceRenderLoopUsesLoopEndNotSampleEnd(t *testing.T) {
	v := &Voice{}
	v.buffer = &SampleBuffer{ID: "loop", Data: make([]int8, 10), SampleRate: 44100, LoopStart: 0, LoopEnd: 4}
	for i := range v.buffer.Data {
		v.buffer.Data[i] = 64
	}
	v.rate = 1
	v.velocity = 1
	v.state = VoiceActive
	v.sampleEnd = 10 // playback window spans the whole buffer

	out := make([]float32, 2*4)
	v.render(out, 4) // exactly reaches LoopEnd
	if v.pos != 0 {
		t.Errorf("pos after reaching LoopEnd = %v, want wrap to LoopStart 0", v.pos)
	}
}

func TestVoiceNoteOffEntersRelease(t *testing.T) {
	v := &Voice{}
	v.buffer = testBuffer(1000)
	v.rate = 1
	v.velocity = 1
	v.state = VoiceActive
	v.env = dsp.NewADSR(0, 0, 1.0, 0.01, 44100)

	v.NoteOff()
	if v.state != VoiceReleasing {
		t.Errorf("state after NoteOff = %v, want VoiceReleasing", v.state)
	}
}

func TestVoiceFadeOutFinishesWithinFadeLen(t *testing.T) {
	v := &Voice{}
	v.buffer = testBuffer(100000)
	v.rate = 1
	v.velocity = 1
	v.state = VoiceActive
	v.beginFadeOut(44100)

	out := make([]float32, 2*v.fadeLen)
	rendered := v.render(out, v.fadeLen)
	if rendered != v.fadeLen {
		t.Errorf("rendered = %d, want %d", rendered, v.fadeLen)
	}
	if !v.finished() {
		t.Error("expected voice to be finished after rendering its full fade length")
	}
}

func TestPanGainsEqualPowerAtCenter(t *testing.T) {
	l, r := panGains(0)
	if math.Abs(l-r) > 1e-9 {
		t.Errorf("panGains(0) = (%v, %v), want equal", l, r)
	}
	want := math.Sqrt(2) / 2
	if math.Abs(l-want) > 1e-9 {
		t.Errorf("panGains(0) l = %v, want %v", l, want)
	}
}

func TestPanGainsClamp(t *testing.T) {
	l, _ := panGains(-5)
	l2, _ := panGains(-1)
	if l != l2 {
		t.Errorf("panGains should clamp below -1: got %v, want %v", l, l2)
	}
}

func TestVoicePoolAcquireReleaseCycle(t *testing.T) {
	p := NewVoicePool(2)
	a := p.Acquire()
	b := p.Acquire()
	if a == b {
		t.Fatal("Acquire returned the same index twice while free voices remained")
	}

	p.Voice(a).buffer = testBuffer(10)
	p.Release(a, 1)

	c := p.Acquire()
	if c != a {
		t.Errorf("Acquire after Release = %d, want reused index %d", c, a)
	}
}

func TestVoicePoolStealsOldestOnExhaustion(t *testing.T) {
	p := NewVoicePool(1)
	idx := p.Acquire()
	p.Voice(idx).state = VoiceReleasing

	stolen := p.Acquire()
	if stolen != idx {
		t.Errorf("Acquire on exhausted pool = %d, want to steal %d", stolen, idx)
	}
	if p.Voice(stolen).state != VoiceIdle {
		t.Errorf("stolen voice state = %v, want VoiceIdle after reset", p.Voice(stolen).state)
	}
}
