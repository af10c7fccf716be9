package effects

import "math"

var saturatorParams = []ParamDescriptor{
	{Name: "driveDB", Min: 0, Max: 36, Default: 6, Unit: "db"},
	{Name: "mix", Min: 0, Max: 1, Default: 1, Unit: ""},
}

// saturator is a tanh soft-clipper, the standard cheap analog-style
// saturation curve; driveDB pushes the signal into the curve before
// normalizing back down by the same amount.
type saturator struct {
	bypassable
	driveDB float64
	mix     float64
}

func newSaturator(sampleRate float64) *saturator {
	return &saturator{driveDB: 6, mix: 1}
}

func (s *saturator) Kind() Kind { return Saturator }

func (s *saturator) Process(l, r []float32) {
	drive := math.Pow(10, s.driveDB/20)
	for i := range l {
		l[i] = s.shape(l[i], drive)
		r[i] = s.shape(r[i], drive)
	}
}

func (s *saturator) shape(v float32, drive float64) float32 {
	wet := float32(math.Tanh(float64(v)*drive) / drive)
	return v*float32(1-s.mix) + wet*float32(s.mix)
}

func (s *saturator) SetParam(index int, value float64) error {
	switch index {
	case 0:
		s.driveDB = value
	case 1:
		s.mix = value
	default:
		return paramOutOfRange(index)
	}
	return nil
}

func (s *saturator) Reset() {}
