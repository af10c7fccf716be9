package daw

import (
	"github.com/go-daw/core/internal/effects"
)

// EffectKind tags which concrete effect a chain slot holds (spec §4.6). A
// tagged-variant registry of kind -> constructor replaces the dynamic
// dispatch the teacher's S3M/MOD tracker-effect bytes used (mod.go,
// s3m.go's per-effect-byte switch), generalized into an explicit, typed
// effect family (spec.md §9 "replace registries of dynamic dispatch with
// tagged variants"). The kind enum, the process/setParam/reset contract, and
// the concrete effects all live in internal/effects; this package only
// aliases them so the rest of daw can refer to "EffectKind"/"Effect" without
// an import cycle (internal/effects' constructors only need internal/dsp).
type EffectKind = effects.Kind

const (
	EffectEQ         = effects.EQ
	EffectCompressor = effects.Compressor
	EffectSaturator  = effects.Saturator
	EffectLimiter    = effects.Limiter
	EffectClipper    = effects.Clipper
	EffectReverb     = effects.Reverb
	EffectDelay      = effects.Delay
	EffectChorus     = effects.Chorus
	EffectPhaser     = effects.Phaser
	EffectPanner     = effects.Panner
)

// Effect is the uniform contract every processor in a channel's insert chain
// implements (spec §4.6): in-place stereo block processing, indexed
// parameter writes, and a Reset that clears DSP state (called by faultGuard
// when it auto-bypasses a faulting effect).
type Effect = effects.Effect

// ParamDescriptor documents one parameter of an effect kind for the control
// API / UI layer (spec §4.6 "parameter metadata").
type ParamDescriptor = effects.ParamDescriptor

// EffectRegistry maps EffectKind to constructors and parameter metadata,
// replacing per-effect-type switch statements with one lookup table (spec
// §4.6, §9).
type EffectRegistry = effects.Registry

// NewEffectRegistry builds the registry with every built-in effect kind
// registered.
func NewEffectRegistry() *EffectRegistry {
	return effects.NewRegistry()
}

// faultGuard wraps an Effect's output, auto-bypassing on the first NaN/Inf
// sample it sees (spec §4.6 edge case: "effect emits NaN/Inf -> bypass and
// flag"). It mutates the underlying effect's Bypassed state directly so the
// bypass sticks across subsequent blocks until explicitly cleared, and
// resets the effect so stale NaN/Inf state is gone when it is re-enabled.
func faultGuard(e Effect, l, r []float32) (faulted bool) {
	for i := range l {
		if isBadSample(l[i]) || isBadSample(r[i]) {
			e.SetBypassed(true)
			e.Reset()
			for j := range l {
				l[j] = 0
				r[j] = 0
			}
			return true
		}
	}
	return false
}

func isBadSample(v float32) bool {
	return v != v || v > 3.4e38 || v < -3.4e38 // NaN != NaN; crude Inf guard avoiding math.IsNaN/IsInf per-sample call overhead
}

// InsertSlot is one position in a channel's insert chain (spec §4.6).
type InsertSlot struct {
	ID     EffectID
	Effect Effect
}

// Chain is an ordered list of insert effects processed in sequence (spec
// §4.5/§4.6).
type Chain struct {
	slots []InsertSlot
}

// Process runs every non-bypassed effect in order over the block,
// auto-bypassing any effect that produces a NaN/Inf sample.
func (c *Chain) Process(l, r []float32) {
	for _, slot := range c.slots {
		if slot.Effect.Bypassed() {
			continue
		}
		slot.Effect.Process(l, r)
		faultGuard(slot.Effect, l, r)
	}
}

// Insert adds an effect at the given index (appends if index is out of
// range or negative).
func (c *Chain) Insert(index int, id EffectID, e Effect) {
	slot := InsertSlot{ID: id, Effect: e}
	if index < 0 || index >= len(c.slots) {
		c.slots = append(c.slots, slot)
		return
	}
	c.slots = append(c.slots, InsertSlot{})
	copy(c.slots[index+1:], c.slots[index:])
	c.slots[index] = slot
}

// Remove deletes the effect with the given id, reporting whether it was
// found.
func (c *Chain) Remove(id EffectID) bool {
	for i, s := range c.slots {
		if s.ID == id {
			c.slots = append(c.slots[:i], c.slots[i+1:]...)
			return true
		}
	}
	return false
}

// Reorder moves the effect at srcIdx to dstIdx.
func (c *Chain) Reorder(srcIdx, dstIdx int) error {
	if srcIdx < 0 || srcIdx >= len(c.slots) || dstIdx < 0 || dstIdx >= len(c.slots) {
		return &InvalidArgumentError{Field: "index", Reason: "out of range"}
	}
	slot := c.slots[srcIdx]
	c.slots = append(c.slots[:srcIdx], c.slots[srcIdx+1:]...)
	c.slots = append(c.slots, InsertSlot{})
	copy(c.slots[dstIdx+1:], c.slots[dstIdx:])
	c.slots[dstIdx] = slot
	return nil
}

// Find returns the slot for id, or nil if absent.
func (c *Chain) Find(id EffectID) *InsertSlot {
	for i := range c.slots {
		if c.slots[i].ID == id {
			return &c.slots[i]
		}
	}
	return nil
}

// Slots returns the chain's slots in order.
func (c *Chain) Slots() []InsertSlot {
	return c.slots
}
