package dsp

import "math"

// BiquadKind selects the transfer function a Biquad implements, following
// the RBJ Audio EQ Cookbook forms used throughout the effects in
// internal/effects (EQ bands, the sampler voice filter).
type BiquadKind int

const (
	BiquadLowpass BiquadKind = iota
	BiquadHighpass
	BiquadLowShelf
	BiquadHighShelf
	BiquadPeaking
	BiquadBandpass
	BiquadNotch
)

// Biquad is a direct-form-II-transposed biquad filter with per-channel
// memory so a single coefficient set can drive independent stereo history.
type Biquad struct {
	b0, b1, b2 float64
	a1, a2     float64

	z1, z2 [2]float64 // history, indexed by channel (0=L, 1=R)
}

// Configure recomputes the filter coefficients for kind at the given
// frequency (Hz), Q, and gain (dB, only used by shelf/peaking kinds).
func (bq *Biquad) Configure(kind BiquadKind, freq, q, gainDB, sampleRate float64) {
	if freq <= 0 {
		freq = 1
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	if q <= 0 {
		q = 0.707
	}

	w0 := 2 * math.Pi * freq / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)
	A := math.Pow(10, gainDB/40)

	var b0, b1, b2, a0, a1, a2 float64

	switch kind {
	case BiquadLowpass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BiquadHighpass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BiquadBandpass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BiquadNotch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BiquadLowShelf:
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) - (A-1)*cosW0 + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cosW0)
		b2 = A * ((A + 1) - (A-1)*cosW0 - sq)
		a0 = (A + 1) + (A-1)*cosW0 + sq
		a1 = -2 * ((A - 1) + (A+1)*cosW0)
		a2 = (A + 1) + (A-1)*cosW0 - sq
	case BiquadHighShelf:
		sq := math.Sqrt(A) * alpha * 2
		b0 = A * ((A + 1) + (A-1)*cosW0 + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cosW0)
		b2 = A * ((A + 1) + (A-1)*cosW0 - sq)
		a0 = (A + 1) - (A-1)*cosW0 + sq
		a1 = 2 * ((A - 1) - (A+1)*cosW0)
		a2 = (A + 1) - (A-1)*cosW0 - sq
	case BiquadPeaking:
		b0 = 1 + alpha*A
		b1 = -2 * cosW0
		b2 = 1 - alpha*A
		a0 = 1 + alpha/A
		a1 = -2 * cosW0
		a2 = 1 - alpha/A
	}

	bq.b0, bq.b1, bq.b2 = b0/a0, b1/a0, b2/a0
	bq.a1, bq.a2 = a1/a0, a2/a0
}

// Process filters one sample on the given channel (0 or 1).
func (bq *Biquad) Process(ch int, in float64) float64 {
	out := bq.b0*in + bq.z1[ch]
	bq.z1[ch] = bq.b1*in - bq.a1*out + bq.z2[ch]
	bq.z2[ch] = bq.b2*in - bq.a2*out
	return out
}

// Reset clears filter history, e.g. on effect reset() or voice retrigger.
func (bq *Biquad) Reset() {
	bq.z1 = [2]float64{}
	bq.z2 = [2]float64{}
}
