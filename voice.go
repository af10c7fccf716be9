package daw

import (
	"math"

	"github.com/go-daw/core/internal/dsp"
	"github.com/go-daw/core/internal/epoch"
)

// VoiceState is a voice's lifecycle stage (spec §4.4).
type VoiceState int

const (
	VoiceIdle VoiceState = iota
	VoiceActive
	VoiceReleasing
	VoiceFadingOut // cutItself / stop fade, spec §9 decided 2ms linear
)

const cutItselfFadeSeconds = 0.002

// Voice is one playing note. Voices are pool-allocated by index (spec §4.4
// "fixed voice pool, no per-note allocation") and the buffer they read from
// is released through epoch reclamation rather than freed synchronously,
// since a RemoveInstrument/SwapBuffer command can land while a voice is
// still rendering from the old buffer.
type Voice struct {
	id         int
	state      VoiceState
	instrument InstrumentID

	buffer *SampleBuffer
	pos    float64 // fractional frame position into buffer
	rate   float64 // playback rate (pitch ratio)

	velocity float64
	pan      float64

	env    *dsp.ADSR
	filter *dsp.Biquad

	fadeElapsed int
	fadeLen     int
	fadeFrom    float64

	sampleStart, sampleEnd int
	interp                 InterpolationMode

	// startOffset is the number of leading frames, within the very next
	// render() call, to leave silent before the voice actually starts
	// writing samples - the in-block realization of a NoteOn's AtSample
	// (spec §8: onset accuracy within ±1 sample, not just ±1 block).
	// render() consumes it on its first call after the voice is triggered.
	startOffset int
}

// reset clears a voice back to Idle, ready for reuse by the pool.
func (v *Voice) reset() {
	v.state = VoiceIdle
	v.instrument = ""
	v.buffer = nil
	v.pos = 0
	v.rate = 1
	v.velocity = 0
	v.pan = 0
	v.env = nil
	v.filter = nil
	v.fadeElapsed = 0
	v.fadeLen = 0
	v.startOffset = 0
}

// NoteOff transitions the voice into envelope release (spec §4.4: a voice
// keeps rendering through its release stage after NoteOff).
func (v *Voice) NoteOff() {
	if v.state != VoiceActive {
		return
	}
	v.state = VoiceReleasing
	if v.env != nil {
		v.env.NoteOff()
	}
}

// beginFadeOut starts the fixed-length linear fade used for cutItself
// retriggers and hard voice termination (spec §9 Open Question decision:
// "cutItself fade = 2ms linear" - short enough to be inaudible as a
// discrete event, long enough to avoid a click).
func (v *Voice) beginFadeOut(sampleRate float64) {
	v.state = VoiceFadingOut
	v.fadeElapsed = 0
	v.fadeLen = int(cutItselfFadeSeconds * sampleRate)
	if v.fadeLen < 1 {
		v.fadeLen = 1
	}
}

// finished reports whether the voice has nothing left to render.
func (v *Voice) finished() bool {
	switch v.state {
	case VoiceIdle:
		return true
	case VoiceFadingOut:
		return v.fadeElapsed >= v.fadeLen
	case VoiceReleasing:
		return v.env != nil && v.env.Finished()
	default:
		return false
	}
}

// render produces n stereo frames into out (interleaved L/R, len(out) ==
// 2*n), summing onto whatever is already there. The engine passes a zeroed
// per-voice scratch buffer and then adds it into the channel's buffers.
// Returns the index one past the last frame written (leading startOffset
// frames count as silent frames), stopping early if the voice ran out of
// buffer, envelope or fade.
func (v *Voice) render(out []float32, n int) int {
	if v.buffer == nil || v.state == VoiceIdle {
		return 0
	}

	end := v.sampleEnd
	if end == 0 || end > v.buffer.Len() {
		end = v.buffer.Len()
	}

	// A looping buffer wraps at its own LoopEnd regardless of the
	// playback window (sampleEnd only bounds one-shot, non-looping
	// playback); a non-looping buffer stops at the window end.
	wrapAt := end
	if v.buffer.Loops() && v.buffer.LoopEnd < end {
		wrapAt = v.buffer.LoopEnd
	}

	start := v.startOffset
	if start > n {
		start = n
	}
	if start < 0 {
		start = 0
	}
	v.startOffset = 0 // only the block the voice was triggered in needs the offset

	rendered := start
	for i := start; i < n; i++ {
		if v.pos >= float64(wrapAt) {
			if v.buffer.Loops() {
				v.pos = float64(v.buffer.LoopStart) + (v.pos - float64(wrapAt))
			} else {
				v.state = VoiceIdle
				break
			}
		}

		var sample float64
		switch v.interp {
		case InterpolationCubic:
			sample = dsp.CubicInterp(v.buffer.Data, v.pos)
		default:
			sample = dsp.LinearInterp(v.buffer.Data, v.pos)
		}
		sample /= 128.0 // int8 full scale

		if v.filter != nil {
			sample = v.filter.Process(0, sample)
		}

		envLevel := 1.0
		if v.env != nil {
			envLevel = v.env.Next()
		}

		gain := v.velocity * envLevel

		if v.state == VoiceFadingOut {
			fadeGain := 1.0 - float64(v.fadeElapsed)/float64(v.fadeLen)
			if fadeGain < 0 {
				fadeGain = 0
			}
			gain *= fadeGain
			v.fadeElapsed++
		}

		l, r := panGains(v.pan)
		out[2*i] += float32(sample * gain * l)
		out[2*i+1] += float32(sample * gain * r)

		v.pos += v.rate
		if v.buffer.Loops() && v.pos >= float64(wrapAt) {
			v.pos = float64(v.buffer.LoopStart) + (v.pos - float64(wrapAt))
		}
		rendered++

		if v.env != nil && v.env.Finished() && v.state == VoiceReleasing {
			v.state = VoiceIdle
			rendered = i + 1
			break
		}
		if v.state == VoiceFadingOut && v.fadeElapsed >= v.fadeLen {
			v.state = VoiceIdle
			rendered = i + 1
			break
		}
	}
	return rendered
}

// panGains converts a -1..1 pan value to equal-power L/R gains.
func panGains(pan float64) (l, r float64) {
	if pan < -1 {
		pan = -1
	}
	if pan > 1 {
		pan = 1
	}
	angle := (pan + 1) * (math.Pi / 4) // 0..pi/2
	return math.Cos(angle), math.Sin(angle)
}

// VoicePool owns a fixed array of Voices and hands out free indices,
// grounded on the teacher's mixer.go fixed-channel-count mixing loop
// generalized from "one voice per tracker channel" to "N pooled voices
// shared by every instrument" (spec §4.4 "fixed pool, steal-oldest when
// exhausted").
type VoicePool struct {
	voices []Voice
	free   []int
	epochQ *epoch.Queue[*SampleBuffer]
}

// NewVoicePool allocates a pool of size voices.
func NewVoicePool(size int) *VoicePool {
	p := &VoicePool{
		voices: make([]Voice, size),
		free:   make([]int, size),
		epochQ: &epoch.Queue[*SampleBuffer]{},
	}
	for i := range p.voices {
		p.voices[i].id = i
		p.free[size-1-i] = i
	}
	return p
}

// Acquire returns a free voice index, stealing the oldest-active voice (the
// one with the smallest id currently Releasing/FadingOut) if the pool is
// exhausted (spec §4.4 edge case: "voice pool exhausted").
func (p *VoicePool) Acquire() int {
	if len(p.free) > 0 {
		idx := p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		return idx
	}
	steal := -1
	for i := range p.voices {
		if p.voices[i].state == VoiceReleasing || p.voices[i].state == VoiceFadingOut {
			steal = i
			break
		}
	}
	if steal == -1 {
		steal = 0
	}
	p.voices[steal].reset()
	return steal
}

// Release returns a voice index to the free list and reclaims its buffer
// reference through the epoch queue rather than dropping it immediately.
func (p *VoicePool) Release(idx int, currentEpoch uint64) {
	v := &p.voices[idx]
	if v.buffer != nil {
		p.epochQ.Push(currentEpoch+1, v.buffer)
	}
	v.reset()
	p.free = append(p.free, idx)
}

// Voice returns a pointer to the pooled voice at idx.
func (p *VoicePool) Voice(idx int) *Voice {
	return &p.voices[idx]
}

// Sweep drains any buffers safe to reclaim given the current epoch,
// returning them to free via the passed free func.
func (p *VoicePool) Sweep(currentEpoch uint64, free func(*SampleBuffer)) {
	p.epochQ.Sweep(currentEpoch, free)
}

// All returns every voice in the pool, for the mixer render loop and for
// meter/active-voice accounting.
func (p *VoicePool) All() []Voice {
	return p.voices
}

// ActiveCount reports how many voices are not Idle.
func (p *VoicePool) ActiveCount() int {
	n := 0
	for i := range p.voices {
		if p.voices[i].state != VoiceIdle {
			n++
		}
	}
	return n
}
