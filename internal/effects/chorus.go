package effects

import "math"

var chorusParams = []ParamDescriptor{
	{Name: "rateHz", Min: 0.05, Max: 5, Default: 0.8, Unit: "hz"},
	{Name: "depthMs", Min: 0, Max: 15, Default: 4, Unit: "ms"},
	{Name: "mix", Min: 0, Max: 1, Default: 0.5, Unit: ""},
}

// chorus is a single modulated delay line per channel (LFO sweeps the read
// position), L and R driven 90 degrees out of phase for width. Builds on
// delay.go's circular buffer idiom with a variable rather than fixed read
// offset.
type chorus struct {
	bypassable
	sampleRate float64

	rateHz  float64
	depthMs float64
	mix     float64

	bufL, bufR []float32
	writePos   int
	phase      float64
}

const chorusMaxDelayMs = 30.0

func newChorus(sampleRate float64) *chorus {
	size := int(chorusMaxDelayMs * 0.001 * sampleRate)
	return &chorus{
		sampleRate: sampleRate,
		rateHz:     0.8,
		depthMs:    4,
		mix:        0.5,
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
	}
}

func (c *chorus) Kind() Kind { return Chorus }

func (c *chorus) Process(l, r []float32) {
	n := len(c.bufL)
	phaseInc := 2 * math.Pi * c.rateHz / c.sampleRate
	centerMs := chorusMaxDelayMs / 2

	for i := range l {
		lfoL := math.Sin(c.phase)
		lfoR := math.Sin(c.phase + math.Pi/2)

		delayMsL := centerMs + lfoL*c.depthMs
		delayMsR := centerMs + lfoR*c.depthMs

		outL := c.readInterp(c.bufL, delayMsL, n)
		outR := c.readInterp(c.bufR, delayMsR, n)

		c.bufL[c.writePos] = l[i]
		c.bufR[c.writePos] = r[i]

		l[i] = l[i]*float32(1-c.mix) + outL*float32(c.mix)
		r[i] = r[i]*float32(1-c.mix) + outR*float32(c.mix)

		c.writePos = (c.writePos + 1) % n
		c.phase += phaseInc
		if c.phase > 2*math.Pi {
			c.phase -= 2 * math.Pi
		}
	}
}

func (c *chorus) readInterp(buf []float32, delayMs float64, n int) float32 {
	delaySamples := delayMs * 0.001 * c.sampleRate
	readPos := float64(c.writePos) - delaySamples
	for readPos < 0 {
		readPos += float64(n)
	}
	i0 := int(readPos) % n
	i1 := (i0 + 1) % n
	frac := float32(readPos - math.Floor(readPos))
	return buf[i0]*(1-frac) + buf[i1]*frac
}

func (c *chorus) SetParam(index int, value float64) error {
	switch index {
	case 0:
		c.rateHz = value
	case 1:
		c.depthMs = value
	case 2:
		c.mix = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (c *chorus) Reset() {
	for i := range c.bufL {
		c.bufL[i] = 0
		c.bufR[i] = 0
	}
	c.phase = 0
	c.writePos = 0
}
