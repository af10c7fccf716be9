package daw

import (
	"math"

	"github.com/go-daw/core/internal/dsp"
)

// InstrumentKind selects how an Instrument turns a Note into audio (spec
// §4.4). Sampler plays back a SampleBuffer at a pitch-shifted rate; Synth is
// reserved for future oscillator-based instruments (spec Open Question,
// decided: ship Sampler only, keep the tag so adding Synth later doesn't
// break the Command/Instrument shape).
type InstrumentKind int

const (
	InstrumentSampler InstrumentKind = iota
	InstrumentSynth
)

// InterpolationMode selects the resampling algorithm used when a voice's
// playback rate isn't 1:1 (spec §4.4).
type InterpolationMode int

const (
	InterpolationLinear InterpolationMode = iota
	InterpolationCubic
)

// SampleBuffer is an immutable, epoch-reclaimed PCM sample held by a Sampler
// instrument. Swapping a buffer (CmdSwapBuffer) never mutates one in place;
// the old buffer is handed to the epoch reclamation queue so in-flight
// voices finish rendering from it safely (spec §4.1, §4.4). Modeled on the
// teacher's mod.go sampleInfo, generalized from "8-bit signed tracker
// sample" to "one mono channel of signed 8-bit PCM at an explicit rate",
// which is all the voice renderer needs.
type SampleBuffer struct {
	ID         string
	Data       []int8
	SampleRate float64
	LoopStart  int
	LoopEnd    int // 0 = no loop
}

// Len reports the number of frames in the buffer.
func (b *SampleBuffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Loops reports whether the buffer has a loop region.
func (b *SampleBuffer) Loops() bool {
	return b != nil && b.LoopEnd > b.LoopStart
}

// SamplerParams holds the per-instrument parameters of the sampler engine
// (spec §4.4): base pitch, sample window, envelope, optional filter, and
// "bass boost" (a fixed low-shelf, grounded on the teacher's mod.go
// pitch/finetune handling generalized to an explicit ADSR + biquad chain
// instead of raw period arithmetic).
type SamplerParams struct {
	Buffer   *SampleBuffer
	BaseMIDI int // MIDI note number the buffer plays back at native rate

	SampleStart int
	SampleEnd   int // 0 = len(Buffer.Data)

	AttackSec  float64
	DecaySec   float64
	Sustain    float64
	ReleaseSec float64

	FilterEnabled bool
	FilterKind    dsp.BiquadKind
	FilterFreq    float64
	FilterQ       float64
	FilterGainDB  float64

	BassBoostEnabled bool
	BassBoostGainDB  float64

	Interpolation InterpolationMode
}

// Instrument is one sound source routed to exactly one mixer channel (spec
// §4.4). The control thread never edits a published Instrument: it clones
// the map, changes the copy and publishes it via Engine.CommitInstruments.
// The one in-place change is CmdSwapBuffer, applied on the audio thread.
type Instrument struct {
	ID             InstrumentID
	Name           string
	Kind           InstrumentKind
	MixerChannelID ChannelID
	Muted          bool
	PitchOffset    int  // semitones, added on top of a note's own pitch
	CutItself      bool // new NoteOn on this instrument cuts any of its ringing voices (spec §4.4)

	Sampler SamplerParams
}

// NewInstrument constructs a Sampler instrument with sane defaults (spec
// §4.4 default envelope: 1ms attack, no decay, full sustain, 5ms
// release - avoids clicks on NoteOff without requiring the caller to set an
// envelope explicitly).
func NewInstrument(id InstrumentID, name string, channel ChannelID) *Instrument {
	return &Instrument{
		ID:             id,
		Name:           name,
		Kind:           InstrumentSampler,
		MixerChannelID: channel,
		Sampler: SamplerParams{
			AttackSec:  0.001,
			DecaySec:   0,
			Sustain:    1.0,
			ReleaseSec: 0.005,
		},
	}
}

// PitchRatio computes the playback-rate multiplier for a note of the given
// MIDI pitch against this instrument's sampler (spec §4.4 invariant:
// ratio = 2^((midi - baseMidi + pitchOffset) / 12)).
func (inst *Instrument) PitchRatio(midiPitch int) float64 {
	semis := float64(midiPitch - inst.Sampler.BaseMIDI + inst.PitchOffset)
	return math.Pow(2, semis/12.0)
}

// newADSRFromParams builds a fresh envelope for a just-triggered voice.
func newADSRFromParams(p SamplerParams, sampleRate float64) *dsp.ADSR {
	return dsp.NewADSR(p.AttackSec, p.DecaySec, p.Sustain, p.ReleaseSec, sampleRate)
}

// newFilterFromParams builds and configures a fresh voice filter.
func newFilterFromParams(p SamplerParams, sampleRate float64) *dsp.Biquad {
	bq := &dsp.Biquad{}
	bq.Configure(p.FilterKind, p.FilterFreq, p.FilterQ, p.FilterGainDB, sampleRate)
	return bq
}
