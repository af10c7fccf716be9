package daw

import (
	"math"
	"sync/atomic"

	"github.com/go-daw/core/internal/epoch"
)

// Tempo / Time Grid constants and conversions (spec §3). ppq is fixed per
// session; secondsPerTick is recomputed whenever BPM changes and used
// consistently for every tick<->time conversion from that point forward.
const (
	DefaultPPQ              = 96
	DefaultTimeSignatureNum = 4
	DefaultTimeSignatureDen = 4
)

// TicksPerStep is the number of ticks in one 16th-note step, for a given ppq.
func TicksPerStep(ppq int) int { return ppq / 4 }

// TicksPerBar is the number of ticks in one bar, for a given ppq and
// numerator.
func TicksPerBar(ppq, num int) int { return ppq * num }

// Transport owns authoritative musical time: tempo, tick position, play
// state, and the loop region (spec §4.2). It is the only component that
// writes SharedState.SetPlayState (Engine.RenderBlock publishes the position
// via SharedState.SetPosition after each block); the
// generalization of the teacher's Player.sequenceTick/samplesPerTick tick
// math (player.go) from "one fixed song tempo" to "tempo that can change
// live, against an explicit tick grid".
type Transport struct {
	shared *SharedState
	epoch  *epoch.Counter

	ppq        int
	timeSigNum int
	timeSigDen int

	currentTick atomic.Uint64 // float64 bits; written by AdvanceBlock on the audio thread and by Play/Stop/SetLoop/SeekToStep on the control thread

	onLoopWrap func()
	onStop     func()
}

// NewTransport constructs a Transport bound to shared state, at the given
// ppq (spec default 96).
func NewTransport(shared *SharedState, ep *epoch.Counter, ppq int) *Transport {
	if ppq <= 0 {
		ppq = DefaultPPQ
	}
	t := &Transport{
		shared:     shared,
		epoch:      ep,
		ppq:        ppq,
		timeSigNum: DefaultTimeSignatureNum,
		timeSigDen: DefaultTimeSignatureDen,
	}
	return t
}

// PPQ reports ticks-per-quarter-note for this session.
func (t *Transport) PPQ() int { return t.ppq }

// SetTimeSignature sets the display time signature (does not affect tick
// math, only bar:beat:sixteenth formatting, spec GLOSSARY).
func (t *Transport) SetTimeSignature(num, den int) {
	if num <= 0 {
		num = DefaultTimeSignatureNum
	}
	if den <= 0 {
		den = DefaultTimeSignatureDen
	}
	t.timeSigNum, t.timeSigDen = num, den
}

// TimeSignature returns the current display time signature.
func (t *Transport) TimeSignature() (num, den int) {
	return t.timeSigNum, t.timeSigDen
}

// SecondsPerTick computes the current seconds-per-tick from shared BPM
// (spec §3 invariant: secondsPerTick = 60 / (bpm * ppq)).
func (t *Transport) SecondsPerTick() float64 {
	bpm := float64(t.shared.BPM())
	if bpm <= 0 {
		bpm = 120
	}
	return 60.0 / (bpm * float64(t.ppq))
}

// CurrentTick returns the transport's current tick position.
func (t *Transport) CurrentTick() float64 {
	return math.Float64frombits(t.currentTick.Load())
}

func (t *Transport) setCurrentTick(v float64) {
	t.currentTick.Store(math.Float64bits(v))
}

// OnLoopWrap registers a callback invoked (on the audio thread, inline
// during AdvanceBlock) when the transport wraps. The scheduler uses this to
// reschedule the next loop iteration (spec §4.2).
func (t *Transport) OnLoopWrap(fn func()) { t.onLoopWrap = fn }

// OnStop registers a callback invoked when Stop() is called, used by the
// scheduler to drop its undrained events (spec §4.2). Voices are faded out
// by the CmdStop that Control.Stop pushes, not by this callback.
func (t *Transport) OnStop(fn func()) { t.onStop = fn }

// Play transitions to Playing. If currently Paused it resumes from
// CurrentTick; otherwise it starts from `from` if given, else loopStart.
// Control-thread only.
func (t *Transport) Play(from *float64) {
	if t.shared.PlayState() == Paused {
		t.shared.SetPlayState(Playing)
		return
	}

	var start float64
	switch {
	case from != nil:
		start = *from
	default:
		s, _, _ := t.shared.LoopRegion()
		start = float64(s)
	}
	t.setCurrentTick(start)
	t.shared.SetPlayState(Playing)
}

// Stop transitions to Stopped, resets CurrentTick to loopStart, bumps the
// epoch and notifies the scheduler via OnStop. Commands already pushed to
// the command ring are not affected here; Control.Stop's CmdStop drops the
// held ones. Control-thread only.
func (t *Transport) Stop() {
	s, _, _ := t.shared.LoopRegion()
	t.setCurrentTick(float64(s))
	t.shared.SetPlayState(Stopped)
	t.epoch.Advance()
	if t.onStop != nil {
		t.onStop()
	}
}

// Pause transitions to Paused, keeping CurrentTick. Control-thread only.
func (t *Transport) Pause() {
	t.shared.SetPlayState(Paused)
}

// SetBPM writes a new tempo. Already-scheduled events keep their absolute
// sample times; only events scheduled after this call use the new rate
// (spec §4.2) - that invariant lives in the scheduler, which always
// re-reads SecondsPerTick() when computing a new onset's sample time rather
// than caching it.
func (t *Transport) SetBPM(bpm float32) error {
	if bpm <= 0 {
		return &InvalidArgumentError{Field: "bpm", Reason: "must be > 0"}
	}
	t.shared.SetBPM(bpm)
	return nil
}

// SetLoop updates the loop region. If CurrentTick is already at or past the
// new end, it's snapped back to the new start (spec §4.2).
func (t *Transport) SetLoop(startTick, endTick int32, enabled bool) error {
	if endTick <= startTick {
		return &InvalidArgumentError{Field: "loop", Reason: "loopEnd must be > loopStart"}
	}
	t.shared.SetLoopRegion(startTick, endTick, enabled)
	if t.CurrentTick() >= float64(endTick) {
		t.setCurrentTick(float64(startTick))
	}
	return nil
}

// SeekToStep sets CurrentTick to the tick equivalent of step s (in 16th
// notes) and bumps the epoch (spec §4.2). It does not touch the scheduler
// itself; Control.Seek resets the scheduler afterwards so it cancels and
// reschedules pending events from the new position.
func (t *Transport) SeekToStep(s int) {
	tick := float64(s * TicksPerStep(t.ppq))
	t.setCurrentTick(tick)
	t.epoch.Advance()
}

// AdvanceBlock moves CurrentTick forward by the number of ticks equivalent
// to a block of n samples at the given sample rate (spec §4.2). If the loop
// region is enabled and the new position reaches or passes loopEnd, it wraps
// preserving the overshoot (spec §9's decided policy) and invokes
// OnLoopWrap. Audio-thread only; called once per RenderBlock.
func (t *Transport) AdvanceBlock(n int, sampleRate float64) {
	if t.shared.PlayState() != Playing {
		return
	}

	secondsPerTick := t.SecondsPerTick()
	if secondsPerTick <= 0 {
		return
	}
	ticksPerBlock := float64(n) / (sampleRate * secondsPerTick)

	cur := t.CurrentTick() + ticksPerBlock

	start, end, enabled := t.shared.LoopRegion()
	if enabled && cur >= float64(end) {
		overshoot := cur - float64(end)
		cur = float64(start) + overshoot
		t.epoch.Advance()
		if t.onLoopWrap != nil {
			t.onLoopWrap()
		}
	}
	t.setCurrentTick(cur)
}

// Epoch returns the current epoch counter value, used by callers that need
// to stamp a Command without going through the scheduler.
func (t *Transport) Epoch() uint64 {
	return t.epoch.Current()
}

// BarBeatSixteenth converts the current tick position into a human-readable
// (bar, beat, sixteenth) triple, 1-based, per the GLOSSARY.
func (t *Transport) BarBeatSixteenth() (bar, beat, sixteenth int) {
	tick := int(t.CurrentTick())
	ticksPerBar := TicksPerBar(t.ppq, t.timeSigNum)
	ticksPerBeat := t.ppq * 4 / t.timeSigDen
	ticksPerSixteenth := TicksPerStep(t.ppq)

	if ticksPerBar <= 0 || ticksPerBeat <= 0 || ticksPerSixteenth <= 0 {
		return 1, 1, 1
	}

	bar = tick/ticksPerBar + 1
	rem := tick % ticksPerBar
	beat = rem/ticksPerBeat + 1
	rem = rem % ticksPerBeat
	sixteenth = rem/ticksPerSixteenth + 1
	return
}
