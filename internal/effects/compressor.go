package effects

import "math"

var compressorParams = []ParamDescriptor{
	{Name: "thresholdDB", Min: -60, Max: 0, Default: -18, Unit: "db"},
	{Name: "ratio", Min: 1, Max: 20, Default: 4, Unit: ":1"},
	{Name: "attackMs", Min: 0.1, Max: 200, Default: 10, Unit: "ms"},
	{Name: "releaseMs", Min: 5, Max: 1000, Default: 100, Unit: "ms"},
	{Name: "makeupDB", Min: 0, Max: 24, Default: 0, Unit: "db"},
}

// compressor is a feedforward peak compressor with separate attack/release
// time constants, grounded on the one-pole smoothing idiom used throughout
// internal/dsp (an envelope follower is just a Smoother re-targeted every
// sample) rather than a dedicated detector type.
type compressor struct {
	bypassable
	sampleRate float64

	thresholdDB float64
	ratio       float64
	attackMs    float64
	releaseMs   float64
	makeupDB    float64

	envelope  float64 // linear, smoothed abs(sample)
	gainReduc float64 // last computed gain reduction, linear
}

func newCompressor(sampleRate float64) *compressor {
	return &compressor{
		sampleRate:  sampleRate,
		thresholdDB: -18,
		ratio:       4,
		attackMs:    10,
		releaseMs:   100,
	}
}

func (c *compressor) Kind() Kind { return Compressor }

func (c *compressor) coeff(ms float64) float64 {
	if ms <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (ms * 0.001 * c.sampleRate))
}

func (c *compressor) Process(l, r []float32) {
	thresholdLin := math.Pow(10, c.thresholdDB/20)
	attackCoeff := c.coeff(c.attackMs)
	releaseCoeff := c.coeff(c.releaseMs)
	makeupLin := math.Pow(10, c.makeupDB/20)

	for i := range l {
		peak := math.Max(math.Abs(float64(l[i])), math.Abs(float64(r[i])))
		if peak > c.envelope {
			c.envelope = attackCoeff*c.envelope + (1-attackCoeff)*peak
		} else {
			c.envelope = releaseCoeff*c.envelope + (1-releaseCoeff)*peak
		}

		gain := 1.0
		if c.envelope > thresholdLin && c.envelope > 0 {
			envDB := 20 * math.Log10(c.envelope)
			overDB := envDB - c.thresholdDB
			reducedDB := overDB - overDB/c.ratio
			gain = math.Pow(10, -reducedDB/20)
		}
		c.gainReduc = gain

		l[i] = float32(float64(l[i]) * gain * makeupLin)
		r[i] = float32(float64(r[i]) * gain * makeupLin)
	}
}

// GainReductionDB reports the most recent gain reduction for metering
// (spec §4.7 MeterReading.GainReduc).
func (c *compressor) GainReductionDB() float64 {
	if c.gainReduc <= 0 {
		return 0
	}
	return -20 * math.Log10(c.gainReduc)
}

func (c *compressor) SetParam(index int, value float64) error {
	switch index {
	case 0:
		c.thresholdDB = value
	case 1:
		c.ratio = value
	case 2:
		c.attackMs = value
	case 3:
		c.releaseMs = value
	case 4:
		c.makeupDB = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (c *compressor) Reset() {
	c.envelope = 0
	c.gainReduc = 1
}
