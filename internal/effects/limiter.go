package effects

import "math"

var limiterParams = []ParamDescriptor{
	{Name: "ceilingDB", Min: -12, Max: 0, Default: -0.3, Unit: "db"},
	{Name: "releaseMs", Min: 5, Max: 500, Default: 50, Unit: "ms"},
}

// limiter is a brickwall peak limiter: an uncompromising compressor with
// ratio effectively infinite and attack effectively zero, kept as its own
// effect kind because the control API exposes "ceiling" rather than
// "threshold/ratio" for this one (spec §4.6).
type limiter struct {
	bypassable
	sampleRate float64
	ceilingDB  float64
	releaseMs  float64

	gain float64 // current applied linear gain, relaxes toward 1
}

func newLimiter(sampleRate float64) *limiter {
	return &limiter{sampleRate: sampleRate, ceilingDB: -0.3, releaseMs: 50, gain: 1}
}

func (lm *limiter) Kind() Kind { return Limiter }

func (lm *limiter) Process(l, r []float32) {
	ceiling := math.Pow(10, lm.ceilingDB/20)
	releaseCoeff := math.Exp(-1.0 / (lm.releaseMs * 0.001 * lm.sampleRate))

	for i := range l {
		peak := math.Max(math.Abs(float64(l[i])), math.Abs(float64(r[i])))
		needed := 1.0
		if peak > ceiling {
			needed = ceiling / peak
		}
		if needed < lm.gain {
			lm.gain = needed // instant attack
		} else {
			lm.gain = releaseCoeff*lm.gain + (1-releaseCoeff)*needed
			if lm.gain > 1 {
				lm.gain = 1
			}
		}
		l[i] = float32(float64(l[i]) * lm.gain)
		r[i] = float32(float64(r[i]) * lm.gain)
	}
}

func (lm *limiter) SetParam(index int, value float64) error {
	switch index {
	case 0:
		lm.ceilingDB = value
	case 1:
		lm.releaseMs = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (lm *limiter) Reset() {
	lm.gain = 1
}
