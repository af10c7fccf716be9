package effects

import "math"

var pannerParams = []ParamDescriptor{
	{Name: "pan", Min: -1, Max: 1, Default: 0, Unit: ""},
}

// panner applies an equal-power pan law as an insert effect, separate from
// the mixer strip's own pan control (spec §4.5/§4.6) so a send chain can
// re-pan independently of the channel it's fed from.
type panner struct {
	bypassable
	pan float64
}

func newPanner(sampleRate float64) *panner {
	return &panner{}
}

func (p *panner) Kind() Kind { return Panner }

func (p *panner) Process(l, r []float32) {
	angle := (p.pan + 1) * (math.Pi / 4)
	gl, gr := float32(math.Cos(angle)*math.Sqrt2), float32(math.Sin(angle)*math.Sqrt2)
	for i := range l {
		l[i] *= gl
		r[i] *= gr
	}
}

func (p *panner) SetParam(index int, value float64) error {
	switch index {
	case 0:
		p.pan = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (p *panner) Reset() {}
