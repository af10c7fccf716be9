package effects

import "math"

var phaserParams = []ParamDescriptor{
	{Name: "rateHz", Min: 0.02, Max: 5, Default: 0.3, Unit: "hz"},
	{Name: "depth", Min: 0, Max: 1, Default: 0.7, Unit: ""},
	{Name: "feedback", Min: 0, Max: 0.9, Default: 0.3, Unit: ""},
	{Name: "mix", Min: 0, Max: 1, Default: 0.5, Unit: ""},
}

const phaserStages = 4

// phaserAllpass is a single first-order allpass stage whose corner
// frequency is swept by the phaser's LFO.
type phaserAllpass struct {
	a float64
	z float64
}

func (p *phaserAllpass) process(in float64) float64 {
	out := -p.a*in + p.z
	p.z = in + p.a*out
	return out
}

// phaser sweeps a bank of first-order allpass stages with a shared LFO,
// the classic analog-phaser topology; feedback taps the output of the last
// stage back into the input for a stronger notch.
type phaser struct {
	bypassable
	sampleRate float64

	rateHz   float64
	depth    float64
	feedback float64
	mix      float64

	phase float64

	stagesL, stagesR   [phaserStages]phaserAllpass
	lastOutL, lastOutR float64
}

func newPhaser(sampleRate float64) *phaser {
	return &phaser{sampleRate: sampleRate, rateHz: 0.3, depth: 0.7, feedback: 0.3, mix: 0.5}
}

func (p *phaser) Kind() Kind { return Phaser }

func (p *phaser) Process(l, r []float32) {
	phaseInc := 2 * math.Pi * p.rateHz / p.sampleRate
	for i := range l {
		lfo := (math.Sin(p.phase) + 1) / 2 // 0..1
		centerFreq := 300 + lfo*p.depth*2500
		a := allpassCoeffForFreq(centerFreq, p.sampleRate)

		inL := float64(l[i]) + p.lastOutL*p.feedback
		inR := float64(r[i]) + p.lastOutR*p.feedback

		outL, outR := inL, inR
		for s := 0; s < phaserStages; s++ {
			p.stagesL[s].a = a
			p.stagesR[s].a = a
			outL = p.stagesL[s].process(outL)
			outR = p.stagesR[s].process(outR)
		}
		p.lastOutL, p.lastOutR = outL, outR

		l[i] = l[i]*float32(1-p.mix) + float32(outL)*float32(p.mix)
		r[i] = r[i]*float32(1-p.mix) + float32(outR)*float32(p.mix)

		p.phase += phaseInc
		if p.phase > 2*math.Pi {
			p.phase -= 2 * math.Pi
		}
	}
}

// allpassCoeffForFreq derives the first-order allpass coefficient that
// places the stage's phase-crossover at freq (RBJ cookbook first-order
// allpass form).
func allpassCoeffForFreq(freq, sampleRate float64) float64 {
	tanArg := math.Pi * freq / sampleRate
	return (math.Tan(tanArg) - 1) / (math.Tan(tanArg) + 1)
}

func (p *phaser) SetParam(index int, value float64) error {
	switch index {
	case 0:
		p.rateHz = value
	case 1:
		p.depth = value
	case 2:
		p.feedback = value
	case 3:
		p.mix = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (p *phaser) Reset() {
	for s := 0; s < phaserStages; s++ {
		p.stagesL[s] = phaserAllpass{}
		p.stagesR[s] = phaserAllpass{}
	}
	p.phase = 0
	p.lastOutL, p.lastOutR = 0, 0
}
