package effects

var delayParams = []ParamDescriptor{
	{Name: "timeMs", Min: 1, Max: 2000, Default: 250, Unit: "ms"},
	{Name: "feedback", Min: 0, Max: 0.95, Default: 0.35, Unit: ""},
	{Name: "mix", Min: 0, Max: 1, Default: 0.3, Unit: ""},
}

// delay is a stereo feedback delay line over a circular buffer, the
// streaming generalization of the teacher's internal/comb.Comb feedback
// idea ("samples delayOffset ago get added back in, scaled by decay") from
// one fixed offline pass over a whole buffer to a per-sample ring that
// keeps running indefinitely across blocks.
type delay struct {
	bypassable
	sampleRate float64

	timeMs   float64
	feedback float64
	mix      float64

	bufL, bufR []float32
	writePos   int
}

const maxDelaySeconds = 2.1

func newDelay(sampleRate float64) *delay {
	size := int(sampleRate * maxDelaySeconds)
	return &delay{
		sampleRate: sampleRate,
		timeMs:     250,
		feedback:   0.35,
		mix:        0.3,
		bufL:       make([]float32, size),
		bufR:       make([]float32, size),
	}
}

func (d *delay) Kind() Kind { return Delay }

func (d *delay) Process(l, r []float32) {
	n := len(d.bufL)
	offset := int(d.timeMs * 0.001 * d.sampleRate)
	if offset < 1 {
		offset = 1
	}
	if offset >= n {
		offset = n - 1
	}

	for i := range l {
		readPos := (d.writePos - offset + n) % n
		delayedL := d.bufL[readPos]
		delayedR := d.bufR[readPos]

		inL, inR := l[i], r[i]
		d.bufL[d.writePos] = inL + delayedL*float32(d.feedback)
		d.bufR[d.writePos] = inR + delayedR*float32(d.feedback)

		l[i] = inL*float32(1-d.mix) + delayedL*float32(d.mix)
		r[i] = inR*float32(1-d.mix) + delayedR*float32(d.mix)

		d.writePos = (d.writePos + 1) % n
	}
}

func (d *delay) SetParam(index int, value float64) error {
	switch index {
	case 0:
		d.timeMs = value
	case 1:
		d.feedback = value
	case 2:
		d.mix = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (d *delay) Reset() {
	for i := range d.bufL {
		d.bufL[i] = 0
		d.bufR[i] = 0
	}
	d.writePos = 0
}
