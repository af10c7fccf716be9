package daw

import (
	"math"
	"sync/atomic"
)

// PlayState is the transport's authoritative play state (spec §3).
type PlayState int32

const (
	Stopped PlayState = iota
	Playing
	Paused
)

func (s PlayState) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// SharedState is the single fixed-layout cross-thread region described in
// spec.md §4.1. Every field has exactly one writer; the audio thread is the
// sole writer of positionSamples/positionTicks, the control thread is the
// sole writer of everything else. Integer/flag cells use sequentially
// consistent atomics (atomic.Int32/Bool); float cells are stored as a single
// atomic bit pattern written/read as one aligned word - torn reads are
// tolerable per spec because the value is continuously refreshed.
type SharedState struct {
	playState atomic.Int32

	msgCounter atomic.Int32

	bpmBits atomic.Uint32 // float32 bits, control-writer

	loopStartTick atomic.Int32
	loopEndTick   atomic.Int32
	loopEnabled   atomic.Bool

	positionSamplesBits atomic.Uint32 // float32 bits, audio-writer
	positionTicksBits   atomic.Uint32 // float32 bits, audio-writer

	sampleRateBits atomic.Uint32 // float32 bits, control-writer at init
}

// NewSharedState constructs a SharedState initialized to a stopped,
// 120bpm, non-looping session at the given host sample rate.
func NewSharedState(sampleRate float32) *SharedState {
	s := &SharedState{}
	s.playState.Store(int32(Stopped))
	s.SetBPM(120)
	s.SetSampleRate(sampleRate)
	return s
}

// PlayState reads the current transport play state.
func (s *SharedState) PlayState() PlayState {
	return PlayState(s.playState.Load())
}

// SetPlayState is called only from the control thread (Transport methods).
func (s *SharedState) SetPlayState(p PlayState) {
	s.playState.Store(int32(p))
}

// BumpMessageCounter increments the message counter, giving the UI a cheap
// way to detect that something changed without diffing every field.
func (s *SharedState) BumpMessageCounter() {
	s.msgCounter.Add(1)
}

// MessageCounter reads the message counter.
func (s *SharedState) MessageCounter() int32 {
	return s.msgCounter.Load()
}

// BPM reads the current tempo in beats per minute.
func (s *SharedState) BPM() float32 {
	return math.Float32frombits(s.bpmBits.Load())
}

// SetBPM writes a new tempo. Control-thread only.
func (s *SharedState) SetBPM(bpm float32) {
	s.bpmBits.Store(math.Float32bits(bpm))
}

// LoopRegion reads the current loop bounds (in ticks) and enabled flag.
func (s *SharedState) LoopRegion() (start, end int32, enabled bool) {
	return s.loopStartTick.Load(), s.loopEndTick.Load(), s.loopEnabled.Load()
}

// SetLoopRegion writes new loop bounds. Control-thread only.
func (s *SharedState) SetLoopRegion(start, end int32, enabled bool) {
	s.loopStartTick.Store(start)
	s.loopEndTick.Store(end)
	s.loopEnabled.Store(enabled)
}

// Position reads the audio thread's last-published position. Audio-thread
// writer, control/UI-thread reader; this is the one pair of fields flowing
// the opposite direction from the rest of SharedState.
func (s *SharedState) Position() (samples, ticks float32) {
	return math.Float32frombits(s.positionSamplesBits.Load()), math.Float32frombits(s.positionTicksBits.Load())
}

// SetPosition publishes the audio thread's current position. Audio-thread
// only.
func (s *SharedState) SetPosition(samples, ticks float32) {
	s.positionSamplesBits.Store(math.Float32bits(samples))
	s.positionTicksBits.Store(math.Float32bits(ticks))
}

// SampleRate reads the host sample rate.
func (s *SharedState) SampleRate() float32 {
	return math.Float32frombits(s.sampleRateBits.Load())
}

// SetSampleRate writes a new host sample rate. Control-thread only, but may
// be called after init if the host changes device mid-session. Only the
// stored value changes: the engine keeps rendering at the rate it was
// constructed with, and no envelope or effect time constant is recomputed.
func (s *SharedState) SetSampleRate(sr float32) {
	s.sampleRateBits.Store(math.Float32bits(sr))
}
