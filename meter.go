package daw

import "math"

// MeterReading is one channel's per-block summary, published
// into a lock-free ring for the UI (spec §4.7: "writes packed floats", never
// formats strings or allocates on the audio thread).
type MeterReading struct {
	ChannelID    ChannelID
	PeakDB       float32
	RMS          float32
	GainReduc    float32 // largest gain reduction in dB among the channel's active compressors, 0 if none
	ActiveVoices int32
}

// meterBlock computes peak/RMS for one stereo block. Pure function, safe to
// call from the audio thread - no allocation, no formatting.
func meterBlock(l, r []float32) (peakDB, rms float32) {
	var peak float32
	var sumSq float64
	n := len(l)
	for i := 0; i < n; i++ {
		al, ar := abs32(l[i]), abs32(r[i])
		if al > peak {
			peak = al
		}
		if ar > peak {
			peak = ar
		}
		sumSq += float64(l[i])*float64(l[i]) + float64(r[i])*float64(r[i])
	}
	if n > 0 {
		rms = float32(math.Sqrt(sumSq / float64(n*2)))
	}
	return linearToDB(peak), linearToDB(rms)
}

func abs32(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}

func linearToDB(v float32) float32 {
	if v <= 0 {
		return float32(math.Inf(-1))
	}
	return 20 * float32(math.Log10(float64(v)))
}

// EngineStats is the "aggregate stats" part of the Observations interface
// (spec §6): active voices across the whole engine and a rough CPU-load
// estimate (fraction of one block's wall-clock budget spent rendering it).
type EngineStats struct {
	ActiveVoices int
	CPULoad      float64 // 0..1+, block render time / block time budget
}
