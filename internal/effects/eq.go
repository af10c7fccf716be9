package effects

import "github.com/go-daw/core/internal/dsp"

var eqParams = []ParamDescriptor{
	{Name: "lowFreq", Min: 20, Max: 500, Default: 100, Unit: "hz"},
	{Name: "lowGainDB", Min: -24, Max: 24, Default: 0, Unit: "db"},
	{Name: "midFreq", Min: 200, Max: 8000, Default: 1000, Unit: "hz"},
	{Name: "midQ", Min: 0.1, Max: 10, Default: 0.7, Unit: ""},
	{Name: "midGainDB", Min: -24, Max: 24, Default: 0, Unit: "db"},
	{Name: "highFreq", Min: 2000, Max: 20000, Default: 8000, Unit: "hz"},
	{Name: "highGainDB", Min: -24, Max: 24, Default: 0, Unit: "db"},
}

// threeBandEQ is a low-shelf + peaking + high-shelf chain, one Biquad per
// channel per band so L and R keep independent filter history (spec §4.6).
type threeBandEQ struct {
	bypassable
	sampleRate float64

	lowFreq, lowGainDB       float64
	midFreq, midQ, midGainDB float64
	highFreq, highGainDB     float64

	low  [2]dsp.Biquad
	mid  [2]dsp.Biquad
	high [2]dsp.Biquad
}

func newEQ(sampleRate float64) *threeBandEQ {
	e := &threeBandEQ{
		sampleRate: sampleRate,
		lowFreq:    100, midFreq: 1000, midQ: 0.7, highFreq: 8000,
	}
	e.reconfigure()
	return e
}

func (e *threeBandEQ) Kind() Kind { return EQ }

func (e *threeBandEQ) reconfigure() {
	for ch := 0; ch < 2; ch++ {
		e.low[ch].Configure(dsp.BiquadLowShelf, e.lowFreq, 0.707, e.lowGainDB, e.sampleRate)
		e.mid[ch].Configure(dsp.BiquadPeaking, e.midFreq, e.midQ, e.midGainDB, e.sampleRate)
		e.high[ch].Configure(dsp.BiquadHighShelf, e.highFreq, 0.707, e.highGainDB, e.sampleRate)
	}
}

func (e *threeBandEQ) Process(l, r []float32) {
	for i := range l {
		lv := float64(l[i])
		lv = e.low[0].Process(0, lv)
		lv = e.mid[0].Process(0, lv)
		lv = e.high[0].Process(0, lv)
		l[i] = float32(lv)

		rv := float64(r[i])
		rv = e.low[1].Process(1, rv)
		rv = e.mid[1].Process(1, rv)
		rv = e.high[1].Process(1, rv)
		r[i] = float32(rv)
	}
}

func (e *threeBandEQ) SetParam(index int, value float64) error {
	switch index {
	case 0:
		e.lowFreq = value
	case 1:
		e.lowGainDB = value
	case 2:
		e.midFreq = value
	case 3:
		e.midQ = value
	case 4:
		e.midGainDB = value
	case 5:
		e.highFreq = value
	case 6:
		e.highGainDB = value
	default:
		return paramOutOfRange(index)
	}
	e.reconfigure()
	return nil
}

func (e *threeBandEQ) Reset() {
	for ch := 0; ch < 2; ch++ {
		e.low[ch].Reset()
		e.mid[ch].Reset()
		e.high[ch].Reset()
	}
}
