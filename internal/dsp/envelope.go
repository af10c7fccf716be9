package dsp

// EnvelopeStage mirrors spec.md §3's Voice.envelopeStage.
type EnvelopeStage int

const (
	StageAttack EnvelopeStage = iota
	StageDecay
	StageSustain
	StageRelease
	StageFinished
)

// silenceFloor is -96dB in linear amplitude, the threshold below which a
// releasing voice is considered finished (spec.md §4.4).
const silenceFloor = 0.0000158489319246111 // 10^(-96/20)

// ADSR is a sample-rate-driven attack/decay/sustain/release envelope
// generator for one voice.
type ADSR struct {
	AttackSamples  int
	DecaySamples   int
	SustainLevel   float64
	ReleaseSamples int

	stage       EnvelopeStage
	elapsed     int
	releaseFrom float64 // level the release ramp started from
	level       float64
}

// NewADSR builds an envelope from attack/decay/release times in seconds and
// a sustain level in [0,1], at the given sample rate. If the envelope is
// disabled (spec §4.4: "if envelope disabled, Attack=0, Release=10ms
// (declick)") the caller should pass a=0, d=0, s=1, r=0.010.
func NewADSR(attackSec, decaySec, sustain, releaseSec float64, sampleRate float64) *ADSR {
	return &ADSR{
		AttackSamples:  secondsToSamples(attackSec, sampleRate),
		DecaySamples:   secondsToSamples(decaySec, sampleRate),
		SustainLevel:   clamp01(sustain),
		ReleaseSamples: secondsToSamples(releaseSec, sampleRate),
		stage:          StageAttack,
	}
}

func secondsToSamples(sec, sampleRate float64) int {
	n := int(sec * sampleRate)
	if n < 0 {
		n = 0
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Stage reports the envelope's current stage.
func (e *ADSR) Stage() EnvelopeStage { return e.stage }

// NoteOff transitions the envelope into Release from whatever level it is
// currently at.
func (e *ADSR) NoteOff() {
	if e.stage == StageFinished {
		return
	}
	e.stage = StageRelease
	e.elapsed = 0
	e.releaseFrom = e.level
}

// Next advances the envelope by one sample and returns the new amplitude in
// [0,1].
func (e *ADSR) Next() float64 {
	switch e.stage {
	case StageAttack:
		if e.AttackSamples <= 0 {
			e.level = 1
		} else {
			e.level = float64(e.elapsed) / float64(e.AttackSamples)
		}
		e.elapsed++
		if e.elapsed >= e.AttackSamples {
			e.stage = StageDecay
			e.elapsed = 0
		}
	case StageDecay:
		if e.DecaySamples <= 0 {
			e.level = e.SustainLevel
		} else {
			t := float64(e.elapsed) / float64(e.DecaySamples)
			e.level = 1 + t*(e.SustainLevel-1)
		}
		e.elapsed++
		if e.elapsed >= e.DecaySamples {
			e.stage = StageSustain
			e.elapsed = 0
			e.level = e.SustainLevel
		}
	case StageSustain:
		e.level = e.SustainLevel
	case StageRelease:
		if e.ReleaseSamples <= 0 {
			e.level = 0
		} else {
			t := float64(e.elapsed) / float64(e.ReleaseSamples)
			if t > 1 {
				t = 1
			}
			e.level = e.releaseFrom * (1 - t)
		}
		e.elapsed++
		if e.elapsed >= e.ReleaseSamples || e.level <= silenceFloor {
			e.stage = StageFinished
			e.level = 0
		}
	case StageFinished:
		e.level = 0
	}
	return e.level
}

// Finished reports whether the envelope has fully decayed.
func (e *ADSR) Finished() bool {
	return e.stage == StageFinished
}
