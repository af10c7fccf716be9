package daw

import "testing"

func newTestEngineWithInstrument(t *testing.T) (*Engine, InstrumentID) {
	t.Helper()
	e := NewEngine(44100, 64)

	g := e.Mixer().Current().Clone()
	track := newChannelStrip("track", "Track", ChannelTrack)
	track.OutputTarget = "master"
	g.Channels["track"] = track
	if err := e.Mixer().Commit(g); err != nil {
		t.Fatal(err)
	}

	buf := testBuffer(1000)
	inst := NewInstrument("inst1", "Test", "track")
	inst.Sampler.Buffer = buf
	inst.Sampler.BaseMIDI = 60
	e.CommitInstruments(map[InstrumentID]*Instrument{"inst1": inst})

	return e, "inst1"
}

func TestRenderBlockProducesNonZeroOutputAfterNoteOn(t *testing.T) {
	e, instID := newTestEngineWithInstrument(t)

	e.CommandRing().Push(Command{Kind: CmdNoteOn, InstrumentID: instID, NoteID: "n1", Pitch: 60, Velocity: 1.0})

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	nonZero := false
	for _, v := range out {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("RenderBlock output is all zero after triggering a note, want audible signal")
	}
	if e.Stats().ActiveVoices == 0 {
		t.Error("expected at least one active voice after NoteOn")
	}
}

func TestRenderBlockWithNoVoicesProducesSilence(t *testing.T) {
	e, _ := newTestEngineWithInstrument(t)

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("out[%d] = %v, want 0 with no voices triggered", i, v)
		}
	}
}

func TestNoteOffTransitionsVoiceToReleasing(t *testing.T) {
	e, instID := newTestEngineWithInstrument(t)
	insts := e.Instruments()
	insts[instID].Sampler.ReleaseSec = 1.0 // long release so it doesn't finish mid-test

	e.CommandRing().Push(Command{Kind: CmdNoteOn, InstrumentID: instID, NoteID: "n1", Pitch: 60, Velocity: 1.0})
	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	e.CommandRing().Push(Command{Kind: CmdNoteOff, InstrumentID: instID, NoteID: "n1"})
	e.RenderBlock(out, 64)

	found := false
	for i := range e.voices.voices {
		v := &e.voices.voices[i]
		if v.instrument == instID && v.state == VoiceReleasing {
			found = true
		}
	}
	if !found {
		t.Error("expected a voice to be in VoiceReleasing state after NoteOff")
	}
}

func TestSetChannelParamCommandAppliesGain(t *testing.T) {
	e, _ := newTestEngineWithInstrument(t)
	e.CommandRing().Push(Command{Kind: CmdSetChannelParam, ChannelID: "track", ParamIndex: channelParamGainDB, Value: -6})

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	ch, ok := e.Mixer().Current().Channel("track")
	if !ok {
		t.Fatal("expected track channel to exist")
	}
	if ch.GainDB != -6 {
		t.Errorf("GainDB after CmdSetChannelParam = %v, want -6", ch.GainDB)
	}
}

func TestCmdParamChangeTargetsEffectWhenEffectIDSet(t *testing.T) {
	e, _ := newTestEngineWithInstrument(t)

	g := e.Mixer().Current().Clone()
	track, _ := g.Channel("track")
	eff, err := e.Registry().Create(EffectEQ, 44100)
	if err != nil {
		t.Fatal(err)
	}
	track.Inserts.Insert(-1, "fx1", eff)
	if err := e.Mixer().Commit(g); err != nil {
		t.Fatal(err)
	}

	e.CommandRing().Push(Command{Kind: CmdParamChange, ChannelID: "track", EffectID: "fx1", ParamIndex: 0, Value: 0.5})
	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	ch, _ := e.Mixer().Current().Channel("track")
	slot := ch.Inserts.Find("fx1")
	if slot == nil {
		t.Fatal("expected effect fx1 to still be present")
	}
	if ch.GainDB != 0 {
		t.Errorf("channel GainDB = %v after an effect-targeted CmdParamChange, want 0 (param 0 must go to the effect, not the channel)", ch.GainDB)
	}
}

func TestCmdParamChangeTargetsChannelWhenNoEffectID(t *testing.T) {
	e, _ := newTestEngineWithInstrument(t)
	e.CommandRing().Push(Command{Kind: CmdParamChange, ChannelID: "track", ParamIndex: channelParamPan, Value: 0.5})

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	ch, _ := e.Mixer().Current().Channel("track")
	if ch.Pan != 0.5 {
		t.Errorf("Pan after CmdParamChange with no EffectID = %v, want 0.5", ch.Pan)
	}
}

func TestNoteOnMidBlockStartsAtItsAtSampleNotBlockStart(t *testing.T) {
	e, instID := newTestEngineWithInstrument(t)

	const offset = 20 // samples into the 64-sample block
	e.CommandRing().Push(Command{Kind: CmdNoteOn, InstrumentID: instID, NoteID: "n1", Pitch: 60, Velocity: 1.0, AtSample: offset})

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)

	for i := 0; i < offset; i++ {
		if out[2*i] != 0 || out[2*i+1] != 0 {
			t.Fatalf("out[%d] = (%v, %v), want silence before the note's AtSample %d", i, out[2*i], out[2*i+1], offset)
		}
	}
	nonZero := false
	for i := offset; i < 64; i++ {
		if out[2*i] != 0 || out[2*i+1] != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Error("expected audible output starting at the note's AtSample, got silence for the rest of the block")
	}
}

func TestFutureNoteOnHeldUntilAtSampleArrives(t *testing.T) {
	e, instID := newTestEngineWithInstrument(t)

	e.CommandRing().Push(Command{Kind: CmdNoteOn, InstrumentID: instID, NoteID: "n1", Pitch: 60, Velocity: 1.0, AtSample: 1_000_000})

	out := make([]float32, 2*64)
	e.RenderBlock(out, 64)
	if e.Stats().ActiveVoices != 0 {
		t.Error("a NoteOn far in the future should not trigger a voice on the current block")
	}
	if len(e.pendingFuture) != 1 {
		t.Errorf("pendingFuture len = %d, want 1 (the held NoteOn)", len(e.pendingFuture))
	}
}
