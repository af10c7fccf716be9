package effects

var reverbParams = []ParamDescriptor{
	{Name: "roomSize", Min: 0, Max: 1, Default: 0.5, Unit: ""},
	{Name: "damping", Min: 0, Max: 1, Default: 0.5, Unit: ""},
	{Name: "mix", Min: 0, Max: 1, Default: 0.25, Unit: ""},
}

// combFilter is a streaming feedback comb: the same delayOffset/decay shape
// as internal/comb.Comb, but reading and writing one frame at a time off a
// circular buffer instead of pre-computing a whole pass up front.
type combFilter struct {
	buf      []float32
	pos      int
	feedback float64
	damp     float64
	filtered float32
}

func newCombFilter(delaySamples int, feedback, damp float64) *combFilter {
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &combFilter{buf: make([]float32, delaySamples), feedback: feedback, damp: damp}
}

func (c *combFilter) process(in float32) float32 {
	out := c.buf[c.pos]
	c.filtered = out*float32(1-c.damp) + c.filtered*float32(c.damp)
	c.buf[c.pos] = in + c.filtered*float32(c.feedback)
	c.pos++
	if c.pos >= len(c.buf) {
		c.pos = 0
	}
	return out
}

func (c *combFilter) reset() {
	for i := range c.buf {
		c.buf[i] = 0
	}
	c.filtered = 0
	c.pos = 0
}

// allpassFilter diffuses a comb bank's output, the standard Schroeder
// reverb companion stage.
type allpassFilter struct {
	buf  []float32
	pos  int
	gain float64
}

func newAllpassFilter(delaySamples int, gain float64) *allpassFilter {
	if delaySamples < 1 {
		delaySamples = 1
	}
	return &allpassFilter{buf: make([]float32, delaySamples), gain: gain}
}

func (a *allpassFilter) process(in float32) float32 {
	bufOut := a.buf[a.pos]
	out := -in*float32(a.gain) + bufOut
	a.buf[a.pos] = in + bufOut*float32(a.gain)
	a.pos++
	if a.pos >= len(a.buf) {
		a.pos = 0
	}
	return out
}

func (a *allpassFilter) reset() {
	for i := range a.buf {
		a.buf[i] = 0
	}
	a.pos = 0
}

// reverb is a Schroeder reverb: four parallel combs and two series allpasses
// per channel, offset slightly between L/R for stereo width.
type reverb struct {
	bypassable
	sampleRate float64

	roomSize float64
	damping  float64
	mix      float64

	combsL, combsR         [4]*combFilter
	allpassesL, allpassesR [2]*allpassFilter
}

var combBaseMs = [4]float64{29.7, 37.1, 41.1, 43.7}
var allpassBaseMs = [2]float64{5.0, 1.7}

func newReverb(sampleRate float64) *reverb {
	r := &reverb{sampleRate: sampleRate, roomSize: 0.5, damping: 0.5, mix: 0.25}
	r.rebuild()
	return r
}

func (r *reverb) Kind() Kind { return Reverb }

func (r *reverb) rebuild() {
	feedback := 0.7 + r.roomSize*0.28
	for i := 0; i < 4; i++ {
		dl := int(combBaseMs[i] * 0.001 * r.sampleRate)
		r.combsL[i] = newCombFilter(dl, feedback, r.damping)
		r.combsR[i] = newCombFilter(dl+23, feedback, r.damping) // stereo offset
	}
	for i := 0; i < 2; i++ {
		dl := int(allpassBaseMs[i] * 0.001 * r.sampleRate)
		r.allpassesL[i] = newAllpassFilter(dl, 0.5)
		r.allpassesR[i] = newAllpassFilter(dl+11, 0.5)
	}
}

func (r *reverb) Process(l, r2 []float32) {
	for i := range l {
		inL, inR := l[i], r2[i]
		mono := (inL + inR) * 0.5

		var wetL, wetR float32
		for c := 0; c < 4; c++ {
			wetL += r.combsL[c].process(mono)
			wetR += r.combsR[c].process(mono)
		}
		for a := 0; a < 2; a++ {
			wetL = r.allpassesL[a].process(wetL)
			wetR = r.allpassesR[a].process(wetR)
		}

		l[i] = inL*float32(1-r.mix) + wetL*float32(r.mix)*0.25
		r2[i] = inR*float32(1-r.mix) + wetR*float32(r.mix)*0.25
	}
}

func (r *reverb) SetParam(index int, value float64) error {
	switch index {
	case 0:
		r.roomSize = value
		r.rebuild()
	case 1:
		r.damping = value
		for c := 0; c < 4; c++ {
			r.combsL[c].damp = value
			r.combsR[c].damp = value
		}
	case 2:
		r.mix = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (r *reverb) Reset() {
	for c := 0; c < 4; c++ {
		r.combsL[c].reset()
		r.combsR[c].reset()
	}
	for a := 0; a < 2; a++ {
		r.allpassesL[a].reset()
		r.allpassesR[a].reset()
	}
}
