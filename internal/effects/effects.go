// Package effects holds the built-in insert-effect implementations (spec
// §4.6): a tagged Kind enum, a tiny process/setParam/reset contract, and a
// registry mapping Kind to constructor + parameter metadata. Kept separate
// from the root daw package so the registry's construction code doesn't
// need to import anything from daw - only internal/dsp.
package effects

import "fmt"

// Kind tags which concrete effect a chain slot holds.
type Kind int

const (
	EQ Kind = iota
	Compressor
	Saturator
	Limiter
	Clipper
	Reverb
	Delay
	Chorus
	Phaser
	Panner
)

func (k Kind) String() string {
	switch k {
	case EQ:
		return "eq"
	case Compressor:
		return "compressor"
	case Saturator:
		return "saturator"
	case Limiter:
		return "limiter"
	case Clipper:
		return "clipper"
	case Reverb:
		return "reverb"
	case Delay:
		return "delay"
	case Chorus:
		return "chorus"
	case Phaser:
		return "phaser"
	case Panner:
		return "panner"
	default:
		return "unknown"
	}
}

// Effect is the uniform contract every processor implements (spec §4.6):
// in-place stereo block processing, indexed parameter writes, and state
// reset on reuse.
type Effect interface {
	Kind() Kind
	Process(l, r []float32)
	SetParam(index int, value float64) error
	Reset()
	Bypassed() bool
	SetBypassed(bool)
}

// ParamDescriptor documents one parameter of an effect kind.
type ParamDescriptor struct {
	Name    string
	Min     float64
	Max     float64
	Default float64
	Unit    string
}

// Factory builds a fresh Effect instance at the given sample rate.
type Factory func(sampleRate float64) Effect

type registryEntry struct {
	factory Factory
	params  []ParamDescriptor
}

// Registry maps Kind to constructors and parameter metadata.
type Registry struct {
	entries map[Kind]registryEntry
}

// NewRegistry builds a registry with every built-in effect kind registered.
func NewRegistry() *Registry {
	r := &Registry{entries: make(map[Kind]registryEntry)}
	r.Register(EQ, eqParams, func(sr float64) Effect { return newEQ(sr) })
	r.Register(Compressor, compressorParams, func(sr float64) Effect { return newCompressor(sr) })
	r.Register(Saturator, saturatorParams, func(sr float64) Effect { return newSaturator(sr) })
	r.Register(Limiter, limiterParams, func(sr float64) Effect { return newLimiter(sr) })
	r.Register(Clipper, clipperParams, func(sr float64) Effect { return newClipper(sr) })
	r.Register(Reverb, reverbParams, func(sr float64) Effect { return newReverb(sr) })
	r.Register(Delay, delayParams, func(sr float64) Effect { return newDelay(sr) })
	r.Register(Chorus, chorusParams, func(sr float64) Effect { return newChorus(sr) })
	r.Register(Phaser, phaserParams, func(sr float64) Effect { return newPhaser(sr) })
	r.Register(Panner, pannerParams, func(sr float64) Effect { return newPanner(sr) })
	return r
}

// Register adds or overwrites a kind's factory and parameter metadata.
func (r *Registry) Register(kind Kind, params []ParamDescriptor, factory Factory) {
	r.entries[kind] = registryEntry{factory: factory, params: params}
}

// Create builds a new Effect of the given kind at the given sample rate.
func (r *Registry) Create(kind Kind, sampleRate float64) (Effect, error) {
	entry, ok := r.entries[kind]
	if !ok {
		return nil, fmt.Errorf("effects: unknown kind %v", kind)
	}
	return entry.factory(sampleRate), nil
}

// Params returns the parameter metadata for a kind.
func (r *Registry) Params(kind Kind) []ParamDescriptor {
	return r.entries[kind].params
}

// bypassable is embedded by every concrete effect to carry the shared
// bypass flag without repeating the same two methods ten times.
type bypassable struct {
	bypassed bool
}

func (b *bypassable) Bypassed() bool     { return b.bypassed }
func (b *bypassable) SetBypassed(v bool) { b.bypassed = v }
