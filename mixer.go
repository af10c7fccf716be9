package daw

import (
	"math"
	"sync/atomic"

	clone "github.com/huandu/go-clone/generic"
)

// ChannelKind distinguishes the three fixed strip roles (spec §4.5): a
// Track carries one instrument's dry signal, a Bus sums other channels for
// group processing, and Master is the single sink every channel must be
// able to reach.
type ChannelKind int

const (
	ChannelTrack ChannelKind = iota
	ChannelBus
	ChannelMaster
)

// Send is a tap from one channel into another, taken either pre- or
// post-fader (spec §4.5).
type Send struct {
	ID       EffectID // sends share the id-space used for addressable chain entries
	Target   ChannelID
	Level    float64
	PreFader bool
}

// ChannelStrip is one node in the mixer graph (spec §4.5). OutputTarget is
// empty only for Master. Inserts and Sends are processed in that order:
// dry signal -> inserts -> pre-fader sends tapped -> gain/pan -> post-fader
// sends tapped -> routed to OutputTarget. This is the channel-graph
// generalization of the teacher's mixChannelsMono/Stereo dispatch
// (mixer.go, mixer_scalar.go): where the teacher summed one fixed set of
// tracker channels directly into an output buffer, a ChannelStrip is an
// addressable node that can itself be a summing target for other strips.
type ChannelStrip struct {
	ID           ChannelID
	Name         string
	Kind         ChannelKind
	OutputTarget ChannelID

	GainDB float64
	Pan    float64
	Muted  bool
	Solo   bool

	Inserts *Chain
	Sends   []Send

	bufL, bufR []float32 // scratch, sized per-block; not meaningful across commits
}

func newChannelStrip(id ChannelID, name string, kind ChannelKind) *ChannelStrip {
	return &ChannelStrip{
		ID:      id,
		Name:    name,
		Kind:    kind,
		Inserts: &Chain{},
	}
}

func (c *ChannelStrip) ensureBuffers(n int) {
	if cap(c.bufL) < n {
		c.bufL = make([]float32, n)
		c.bufR = make([]float32, n)
		return
	}
	c.bufL = c.bufL[:n]
	c.bufR = c.bufR[:n]
	for i := 0; i < n; i++ {
		c.bufL[i], c.bufR[i] = 0, 0
	}
}

func (c *ChannelStrip) linearGain() float32 {
	return float32(math.Pow(10, c.GainDB/20))
}

// MixerGraph is one immutable snapshot of the channel topology, swapped in
// atomically by Mixer.Commit (spec §4.5: "graph mutations are atomic;
// commit replaces the whole graph, never edits it in place" - the same
// clone-then-swap pattern Engine.CommitInstruments uses for the instrument
// map, here applied to the whole graph at once via
// huandu/go-clone/generic rather than hand-written deep copies).
type MixerGraph struct {
	Channels map[ChannelID]*ChannelStrip
	MasterID ChannelID

	// order lists channel ids leaves-first (topological), computed by
	// validate() so Render never needs to re-derive it.
	order []ChannelID
}

// NewMixerGraph builds a minimal valid graph: one Master channel, nothing
// else.
func NewMixerGraph(masterID ChannelID) *MixerGraph {
	g := &MixerGraph{
		Channels: make(map[ChannelID]*ChannelStrip),
		MasterID: masterID,
	}
	g.Channels[masterID] = newChannelStrip(masterID, "Master", ChannelMaster)
	g.order = []ChannelID{masterID}
	return g
}

// Clone returns a deep, independent copy of the graph (scratch buffers
// aren't copied - ensureBuffers lazily rebuilds them on first render).
func (g *MixerGraph) Clone() *MixerGraph {
	cloned := clone.Clone(g)
	for _, ch := range cloned.Channels {
		ch.bufL, ch.bufR = nil, nil
	}
	return cloned
}

// Channel looks up a channel by id.
func (g *MixerGraph) Channel(id ChannelID) (*ChannelStrip, bool) {
	c, ok := g.Channels[id]
	return c, ok
}

// validate checks the acyclicity and single-reachable-master invariants
// (spec §4.5 edge cases: "exactly one Master", "every channel must reach
// Master", "sends may not create a cycle") and computes a leaves-first
// render order via a DFS-based topological sort.
func (g *MixerGraph) validate() error {
	masters := 0
	for _, ch := range g.Channels {
		if ch.Kind == ChannelMaster {
			masters++
		}
	}
	if masters != 1 {
		return ErrNoMaster
	}
	if _, ok := g.Channels[g.MasterID]; !ok {
		return ErrNoMaster
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ChannelID]int, len(g.Channels))
	var order []ChannelID

	outEdges := func(id ChannelID) []ChannelID {
		ch := g.Channels[id]
		if ch == nil {
			return nil
		}
		edges := make([]ChannelID, 0, len(ch.Sends)+1)
		for _, s := range ch.Sends {
			edges = append(edges, s.Target)
		}
		if ch.OutputTarget != "" {
			edges = append(edges, ch.OutputTarget)
		}
		return edges
	}

	var visit func(id ChannelID) error
	visit = func(id ChannelID) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return &GraphError{Op: "commit", Reason: "cycle detected at " + string(id)}
		}
		color[id] = gray
		for _, next := range outEdges(id) {
			if _, ok := g.Channels[next]; !ok {
				return &GraphError{Op: "commit", Reason: "dangling route to " + string(next)}
			}
			if err := visit(next); err != nil {
				return err
			}
		}
		color[id] = black
		order = append(order, id)
		return nil
	}

	for id := range g.Channels {
		if err := visit(id); err != nil {
			return err
		}
	}

	reach := map[ChannelID]bool{g.MasterID: true}
	changed := true
	for changed {
		changed = false
		for id, ch := range g.Channels {
			if reach[id] {
				continue
			}
			if ch.OutputTarget != "" && reach[ch.OutputTarget] {
				reach[id] = true
				changed = true
				continue
			}
			for _, s := range ch.Sends {
				if reach[s.Target] {
					reach[id] = true
					changed = true
					break
				}
			}
		}
	}
	for id, ch := range g.Channels {
		if ch.Kind == ChannelMaster {
			continue
		}
		if !reach[id] {
			return ErrUnreachableMaster
		}
	}

	g.order = order
	return nil
}

// anySolo reports whether at least one Track is soloed (spec §4.5: "if any
// Track has soloed=true... Buses and Master ignore solo" - a Bus's own Solo
// flag must never itself trigger solo mode).
func (g *MixerGraph) anySolo() bool {
	for _, ch := range g.Channels {
		if ch.Kind == ChannelTrack && ch.Solo {
			return true
		}
	}
	return false
}

func (g *MixerGraph) audible(ch *ChannelStrip, soloActive bool) bool {
	if ch.Kind == ChannelMaster {
		return true
	}
	if ch.Muted {
		return false
	}
	if ch.Kind == ChannelTrack && soloActive && !ch.Solo {
		return false
	}
	return true
}

// Render walks the graph in leaves-first order: each channel's dry content
// (already deposited into its bufL/bufR by the instrument render pass, see
// engine.go) goes through its insert chain, taps its pre-fader sends, gets
// gain/pan applied, taps its post-fader sends, then adds into its
// OutputTarget. The Master channel's buffer holds the final mix when this
// returns. n is the block length in frames.
func (g *MixerGraph) Render(n int) (masterL, masterR []float32) {
	soloActive := g.anySolo()
	for _, ch := range g.Channels {
		if len(ch.bufL) != n || len(ch.bufR) != n {
			ch.ensureBuffers(n)
		}
	}

	for _, id := range g.order {
		ch := g.Channels[id]
		if ch.Kind == ChannelMaster {
			continue
		}

		ch.Inserts.Process(ch.bufL, ch.bufR)

		for _, s := range ch.Sends {
			if !s.PreFader {
				continue
			}
			if target := g.Channels[s.Target]; target != nil {
				addScaled(target.bufL, ch.bufL, s.Level)
				addScaled(target.bufR, ch.bufR, s.Level)
			}
		}

		if !g.audible(ch, soloActive) {
			for i := 0; i < n; i++ {
				ch.bufL[i], ch.bufR[i] = 0, 0
			}
		} else {
			gain := ch.linearGain()
			gl, gr := panGains(ch.Pan)
			for i := 0; i < n; i++ {
				ch.bufL[i] *= gain * float32(gl) * float32(math.Sqrt2)
				ch.bufR[i] *= gain * float32(gr) * float32(math.Sqrt2)
			}
		}

		for _, s := range ch.Sends {
			if s.PreFader {
				continue
			}
			if target := g.Channels[s.Target]; target != nil {
				addScaled(target.bufL, ch.bufL, s.Level)
				addScaled(target.bufR, ch.bufR, s.Level)
			}
		}

		if ch.OutputTarget != "" {
			if target := g.Channels[ch.OutputTarget]; target != nil {
				addScaled(target.bufL, ch.bufL, 1)
				addScaled(target.bufR, ch.bufR, 1)
			}
		}
	}

	master := g.Channels[g.MasterID]
	master.Inserts.Process(master.bufL, master.bufR)
	gain := master.linearGain()
	for i := 0; i < n; i++ {
		master.bufL[i] *= gain
		master.bufR[i] *= gain
	}
	return master.bufL, master.bufR
}

func addScaled(dst, src []float32, level float64) {
	l := float32(level)
	for i := range src {
		dst[i] += src[i] * l
	}
}

// Mixer owns the live, atomically-swapped MixerGraph (spec §4.5). The
// control thread builds a candidate graph, calls Commit, and only on
// success is it ever visible to the audio thread; a rejected commit leaves
// the previous graph fully intact, matching GraphError's contract in
// errors.go.
type Mixer struct {
	current atomic.Pointer[MixerGraph]
}

// NewMixer constructs a Mixer with a minimal single-Master graph.
func NewMixer(masterID ChannelID) *Mixer {
	m := &Mixer{}
	m.current.Store(NewMixerGraph(masterID))
	return m
}

// Current returns the live graph. Audio-thread read path; the graph's
// topology is never changed after being published, only replaced wholesale.
// The audio thread does update channel gain/pan/mute/solo, effect parameters
// and bypass flags, and the scratch buffers of the live graph in place.
func (m *Mixer) Current() *MixerGraph {
	return m.current.Load()
}

// Commit validates a candidate graph and, if valid, deep-clones it and
// atomically publishes the clone (spec §4.5 "commit" operation). The
// caller's graph remains theirs to keep mutating afterward without
// affecting the live one.
func (m *Mixer) Commit(g *MixerGraph) error {
	if err := g.validate(); err != nil {
		return err
	}
	m.current.Store(g.Clone())
	return nil
}
