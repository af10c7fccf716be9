package daw

import (
	"github.com/google/uuid"
	"gitlab.com/gomidi/midi/v2"
)

// Control is the UI-facing command surface (spec §6), the only way anything
// outside this package ever reaches the engine. Every method here runs on
// the control thread: it either writes a Command onto the audio ring
// (sample-accurate, audio-thread-applied mutations) or builds-and-commits a
// new Mixer/Instrument snapshot directly (structural mutations - see
// DESIGN.md's note on the command set). Generalizes the teacher's
// cmd/modplay/play.go keyboard-handler switch (one function per key) into an
// explicit method per spec.md §6 verb.
type Control struct {
	engine *Engine
}

// NewControl wraps an Engine with its control-API surface.
func NewControl(e *Engine) *Control {
	return &Control{engine: e}
}

// --- Transport ---

// Play starts playback, optionally from a given step (nil resumes/loops
// from the loop start).
func (c *Control) Play(fromStep *int) {
	var fromTick *float64
	if fromStep != nil {
		t := float64(*fromStep * TicksPerStep(c.engine.Transport().PPQ()))
		fromTick = &t
	}
	c.engine.Transport().Play(fromTick)
}

// Stop halts playback and cancels every scheduled event: the scheduler drops
// its undrained events, and the CmdStop pushed here drops the engine's held
// future NoteOn/NoteOff commands and fades out every sounding voice.
func (c *Control) Stop() {
	c.engine.Transport().Stop()
	c.engine.CommandRing().Push(Command{Kind: CmdStop})
}

// Pause suspends playback, keeping the current position.
func (c *Control) Pause() {
	c.engine.Transport().Pause()
}

// Resume is an alias for Play(nil) matching spec.md's separate resume()
// verb (Play already handles the Paused case by continuing in place).
func (c *Control) Resume() {
	c.engine.Transport().Play(nil)
}

// Seek jumps the transport to the given 16th-note step and resets the
// scheduler so it reschedules from the new position.
func (c *Control) Seek(step int) {
	c.engine.Transport().SeekToStep(step)
	c.engine.Scheduler().Reset()
}

// SetBPM changes the session tempo.
func (c *Control) SetBPM(bpm float32) error {
	return c.engine.Transport().SetBPM(bpm)
}

// SetTimeSignature changes the display time signature.
func (c *Control) SetTimeSignature(num, den int) {
	c.engine.Transport().SetTimeSignature(num, den)
}

// SetLoop updates the loop region, in 16th-note steps.
func (c *Control) SetLoop(startStep, endStep int, enabled bool) error {
	ppq := c.engine.Transport().PPQ()
	start := int32(startStep * TicksPerStep(ppq))
	end := int32(endStep * TicksPerStep(ppq))
	return c.engine.Transport().SetLoop(start, end, enabled)
}

// SetPlaybackMode switches the scheduler between single-pattern looping and
// song-arrangement playback.
func (c *Control) SetPlaybackMode(mode PlaybackMode) {
	c.engine.Scheduler().SetMode(mode)
}

// SetActivePattern changes which pattern plays in pattern mode.
func (c *Control) SetActivePattern(id PatternID) {
	c.engine.Scheduler().song.CurrentPattern = id
}

// --- Instruments ---

// InstrumentDescriptor is the createInstrument() payload (spec §6): enough
// to build an Instrument without the caller needing to know ID minting or
// default envelope/filter rules.
type InstrumentDescriptor struct {
	Name    string
	Channel ChannelID
	Sampler SamplerParams
}

// CreateInstrument builds a new Instrument from a descriptor, mints its id,
// and commits it into the live instrument map. Returns the new id.
func (c *Control) CreateInstrument(desc InstrumentDescriptor) InstrumentID {
	id := InstrumentID(uuid.NewString())
	inst := NewInstrument(id, desc.Name, desc.Channel)
	inst.Sampler = desc.Sampler

	m := cloneInstruments(c.engine.Instruments())
	m[id] = inst
	c.engine.CommitInstruments(m)
	return id
}

// RemoveInstrument deletes an instrument. Any currently-sounding voices for
// it are left to finish naturally; no new NoteOn will reference it again.
func (c *Control) RemoveInstrument(id InstrumentID) error {
	m := cloneInstruments(c.engine.Instruments())
	if _, ok := m[id]; !ok {
		return ErrInstrumentNotFound
	}
	delete(m, id)
	c.engine.CommitInstruments(m)
	return nil
}

// InstrumentUpdate describes a partial update to an existing instrument
// (spec §6 updateInstrument(id, partial)); nil fields are left unchanged.
type InstrumentUpdate struct {
	Name        *string
	Channel     *ChannelID
	PitchOffset *int
	CutItself   *bool
	Sampler     *SamplerParams
}

// UpdateInstrument applies a partial update to an existing instrument.
func (c *Control) UpdateInstrument(id InstrumentID, upd InstrumentUpdate) error {
	m := cloneInstruments(c.engine.Instruments())
	inst, ok := m[id]
	if !ok {
		return ErrInstrumentNotFound
	}
	if upd.Name != nil {
		inst.Name = *upd.Name
	}
	if upd.Channel != nil {
		inst.MixerChannelID = *upd.Channel
	}
	if upd.PitchOffset != nil {
		inst.PitchOffset = *upd.PitchOffset
	}
	if upd.CutItself != nil {
		inst.CutItself = *upd.CutItself
	}
	if upd.Sampler != nil {
		inst.Sampler = *upd.Sampler
	}
	c.engine.CommitInstruments(m)
	return nil
}

// AttachBuffer swaps an instrument's sample buffer. Goes through the command
// ring (not a direct instrument-map commit) so the audio thread retires the
// old buffer via its epoch reclamation queue instead of a voice reading it
// out from under a concurrent commit (spec §5 "Shared resources: sample
// buffers").
func (c *Control) AttachBuffer(id InstrumentID, buf *SampleBuffer) error {
	if _, ok := c.engine.Instruments()[id]; !ok {
		return ErrInstrumentNotFound
	}
	c.engine.CommandRing().Push(Command{
		Kind:         CmdSwapBuffer,
		Epoch:        c.engine.Transport().Epoch(),
		InstrumentID: id,
		Buffer:       buf,
	})
	return nil
}

// AuditionOn triggers a one-off NoteOn outside the scheduler, for
// keyboard/UI preview (spec §6 auditionOn). pitch follows standard MIDI note
// numbers; NoteNumber resolves a name like "C4" the same way.
func (c *Control) AuditionOn(id InstrumentID, pitch int, velocity float64) {
	c.engine.CommandRing().Push(Command{
		Kind:         CmdNoteOn,
		Epoch:        c.engine.Transport().Epoch(),
		InstrumentID: id,
		NoteID:       NoteID(uuid.NewString()),
		Pitch:        pitch,
		Velocity:     velocity,
	})
}

// AuditionOff releases every active voice of instrument id, audition or
// scheduled alike. pitch travels with the command but the engine does not
// match on it.
func (c *Control) AuditionOff(id InstrumentID, pitch int) {
	c.engine.CommandRing().Push(Command{
		Kind:         CmdNoteOff,
		Epoch:        c.engine.Transport().Epoch(),
		InstrumentID: id,
		Pitch:        pitch,
	})
}

// SetInstrumentMute mutes or unmutes an instrument's voices at the mixer
// channel they're routed to (spec §6 setInstrumentMute) - implemented as the
// channel-level mute, since an Instrument has no independent audio path of
// its own once routed.
func (c *Control) SetInstrumentMute(id InstrumentID, muted bool) error {
	inst, ok := c.engine.Instruments()[id]
	if !ok {
		return ErrInstrumentNotFound
	}
	return c.SetChannelParam(inst.MixerChannelID, ChannelParamMuted, boolToValue(muted))
}

func cloneInstruments(src map[InstrumentID]*Instrument) map[InstrumentID]*Instrument {
	dst := make(map[InstrumentID]*Instrument, len(src))
	for k, v := range src {
		cp := *v
		dst[k] = &cp
	}
	return dst
}

func boolToValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// NoteNumber resolves a note name like "C4" to its MIDI pitch, so UI layers
// never need to hand-roll the note-name table the teacher's mod.go did
// (noteStr/notes []string).
func NoteNumber(name string) (int, error) {
	n, err := midi.Note(name)
	return int(n), err
}

// --- Mixer ---

// ChannelParam selects which channel strip field setChannelParam targets
// (spec §6 "param ∈ {gain, pan, mute, solo, mono}"; mono is not modeled:
// ChannelStrip has no mono field and there is no mono collapse, so it's not
// wired here).
type ChannelParam int

const (
	ChannelParamGain ChannelParam = iota
	ChannelParamPan
	ChannelParamMuted
	ChannelParamSolo
)

// CreateChannel adds a new Track or Bus channel to a prospective copy of the
// live graph and commits it (spec §6 createChannel). Structural mutation:
// goes through Mixer.Commit's clone-then-validate-then-swap, not the ring.
func (c *Control) CreateChannel(id ChannelID, kind ChannelKind, label string) error {
	g := c.engine.Mixer().Current().Clone()
	if _, exists := g.Channels[id]; exists {
		return &InvalidArgumentError{Field: "id", Reason: "channel already exists"}
	}
	ch := newChannelStrip(id, label, kind)
	ch.OutputTarget = g.MasterID
	g.Channels[id] = ch
	return c.engine.Mixer().Commit(g)
}

// RemoveChannel deletes a channel. Fails (GraphError) if removing it would
// leave another channel's OutputTarget or a send dangling; the caller must
// re-route those first.
func (c *Control) RemoveChannel(id ChannelID) error {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[id]
	if !ok {
		return ErrChannelNotFound
	}
	if ch.Kind == ChannelMaster {
		return ErrNoMaster
	}
	delete(g.Channels, id)
	return c.engine.Mixer().Commit(g)
}

// RouteInstrumentToChannel changes which mixer channel an instrument's
// voices render into.
func (c *Control) RouteInstrumentToChannel(instID InstrumentID, chanID ChannelID) error {
	if _, ok := c.engine.Mixer().Current().Channel(chanID); !ok {
		return ErrChannelNotFound
	}
	return c.UpdateInstrument(instID, InstrumentUpdate{Channel: &chanID})
}

// SetChannelParam pushes a sample-accurate gain/pan/mute/solo change through
// the command ring, applied by the audio thread against the live graph
// snapshot's ChannelStrip (spec §5 "Effect/channel DSP state is exclusively
// owned by the audio thread").
func (c *Control) SetChannelParam(chanID ChannelID, param ChannelParam, value float64) error {
	if _, ok := c.engine.Mixer().Current().Channel(chanID); !ok {
		return ErrChannelNotFound
	}
	c.engine.CommandRing().Push(Command{
		Kind:       CmdSetChannelParam,
		Epoch:      c.engine.Transport().Epoch(),
		ChannelID:  chanID,
		ParamIndex: int(param),
		Value:      value,
	})
	return nil
}

// SetMasterVolume is sugar for SetChannelParam(masterID, gain, x).
func (c *Control) SetMasterVolume(gainDB float64) error {
	return c.SetChannelParam(c.engine.Mixer().Current().MasterID, ChannelParamGain, gainDB)
}

// CreateSend adds a send tap from src to dst at the given level, pre- or
// post-fader. Rejected (GraphError) if it would create a cycle.
func (c *Control) CreateSend(src, dst ChannelID, level float64, preFader bool) error {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[src]
	if !ok {
		return ErrChannelNotFound
	}
	if _, ok := g.Channels[dst]; !ok {
		return ErrChannelNotFound
	}
	ch.Sends = append(ch.Sends, Send{ID: EffectID(uuid.NewString()), Target: dst, Level: level, PreFader: preFader})
	if err := g.validate(); err != nil {
		return ErrGraphCycle(src, dst)
	}
	return c.engine.Mixer().Commit(g)
}

// RemoveSend deletes the first send from src to dst.
func (c *Control) RemoveSend(src, dst ChannelID) error {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[src]
	if !ok {
		return ErrChannelNotFound
	}
	for i, s := range ch.Sends {
		if s.Target == dst {
			ch.Sends = append(ch.Sends[:i], ch.Sends[i+1:]...)
			return c.engine.Mixer().Commit(g)
		}
	}
	return nil
}

// --- Effects ---

// AddEffect constructs an effect of kind on chanID's insert chain via the
// engine's registry, mints its id, and commits a new graph snapshot. The
// concrete Effect instance lives only in the audio thread's graph from here
// on; settings seeds its initial parameter values.
func (c *Control) AddEffect(chanID ChannelID, kind EffectKind, settings map[int]float64) (EffectID, error) {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[chanID]
	if !ok {
		return "", ErrChannelNotFound
	}
	eff, err := c.engine.Registry().Create(kind, float64(c.engine.SharedState().SampleRate()) /* control-time init rate */)
	if err != nil {
		return "", err
	}
	for idx, v := range settings {
		_ = eff.SetParam(idx, v)
	}
	id := EffectID(uuid.NewString())
	ch.Inserts.Insert(-1, id, eff)
	if err := c.engine.Mixer().Commit(g); err != nil {
		return "", err
	}
	return id, nil
}

// RemoveEffect deletes an effect from a channel's insert chain.
func (c *Control) RemoveEffect(chanID ChannelID, effID EffectID) error {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[chanID]
	if !ok {
		return ErrChannelNotFound
	}
	if !ch.Inserts.Remove(effID) {
		return ErrEffectNotFound
	}
	return c.engine.Mixer().Commit(g)
}

// ToggleBypass flips an effect's bypass flag. Goes through the command ring
// since it mutates the live Effect instance in place, not the graph shape.
func (c *Control) ToggleBypass(chanID ChannelID, effID EffectID) error {
	ch, ok := c.engine.Mixer().Current().Channel(chanID)
	if !ok {
		return ErrChannelNotFound
	}
	if ch.Inserts.Find(effID) == nil {
		return ErrEffectNotFound
	}
	c.engine.CommandRing().Push(Command{
		Kind:      CmdToggleBypass,
		Epoch:     c.engine.Transport().Epoch(),
		ChannelID: chanID,
		EffectID:  effID,
	})
	return nil
}

// SetEffectParam pushes a parameter change for one effect instance through
// the command ring.
func (c *Control) SetEffectParam(chanID ChannelID, effID EffectID, paramIndex int, value float64) error {
	ch, ok := c.engine.Mixer().Current().Channel(chanID)
	if !ok {
		return ErrChannelNotFound
	}
	if ch.Inserts.Find(effID) == nil {
		return ErrEffectNotFound
	}
	c.engine.CommandRing().Push(Command{
		Kind:       CmdSetEffectParam,
		Epoch:      c.engine.Transport().Epoch(),
		ChannelID:  chanID,
		EffectID:   effID,
		ParamIndex: paramIndex,
		Value:      value,
	})
	return nil
}

// ReorderEffect moves an effect within its channel's insert chain.
// Structural (chain shape changes), so it goes through Mixer.Commit.
func (c *Control) ReorderEffect(chanID ChannelID, srcIdx, dstIdx int) error {
	g := c.engine.Mixer().Current().Clone()
	ch, ok := g.Channels[chanID]
	if !ok {
		return ErrChannelNotFound
	}
	if err := ch.Inserts.Reorder(srcIdx, dstIdx); err != nil {
		return err
	}
	return c.engine.Mixer().Commit(g)
}

// EffectParams returns the parameter metadata for an effect kind, for a UI
// layer building a settings panel (spec §6 "addEffect(chanId, kind,
// settings)" implies the caller already knows each kind's parameter shape).
func (c *Control) EffectParams(kind EffectKind) []ParamDescriptor {
	return c.engine.Registry().Params(kind)
}
