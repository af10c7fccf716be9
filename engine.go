package daw

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/go-daw/core/internal/epoch"
	"github.com/go-daw/core/internal/ring"
)

const (
	defaultVoicePoolSize   = 256
	defaultCommandRingSize = 1024
	defaultMeterRingSize   = 256
	schedulerPumpInterval  = 25 * time.Millisecond
)

// Engine wires every component together and owns the single RenderBlock
// entry point the audio thread calls (spec §9: "kill the
// singleton/facade", replaced here by one explicit, linearly-constructed
// Engine with no package-level state - generalizing the teacher's
// main()/NewPlayer wiring order, not its structure).
type Engine struct {
	shared    *SharedState
	epoch     *epoch.Counter
	transport *Transport
	scheduler *Scheduler
	mixer     *Mixer
	registry  *EffectRegistry

	instruments atomic.Pointer[map[InstrumentID]*Instrument]
	voices      *VoicePool

	cmdRing       *ring.SPSC[Command]
	meterRing     *ring.SPSC[MeterReading]
	pendingFuture []Command

	sampleRate float64
	blockSize  int

	latestMeters sync.Map // ChannelID -> MeterReading, published by the control-side meter pump
	stats        atomic.Pointer[EngineStats]

	group  *errgroup.Group
	cancel context.CancelFunc

	warnf func(format string, args ...any) // teacher-style plain logging hook, nil-safe
}

// NewEngine constructs an Engine at the given host sample rate and block
// size, with one Master mixer channel and an empty instrument set. Callers
// attach instruments/channels through the Control API (control.go) before
// calling Start.
func NewEngine(sampleRate float64, blockSize int) *Engine {
	shared := NewSharedState(float32(sampleRate))
	ep := &epoch.Counter{}
	transport := NewTransport(shared, ep, DefaultPPQ)

	e := &Engine{
		shared:     shared,
		epoch:      ep,
		transport:  transport,
		mixer:      NewMixer(ChannelID("master")),
		registry:   NewEffectRegistry(),
		voices:     NewVoicePool(defaultVoicePoolSize),
		cmdRing:    ring.New[Command](defaultCommandRingSize),
		meterRing:  ring.New[MeterReading](defaultMeterRingSize),
		sampleRate: sampleRate,
		blockSize:  blockSize,
	}

	empty := make(map[InstrumentID]*Instrument)
	e.instruments.Store(&empty)

	horizonTicks := (0.2) / transport.SecondsPerTick() // ~200ms lookahead
	e.scheduler = NewScheduler(transport, NewSong(), horizonTicks)

	e.stats.Store(&EngineStats{})
	return e
}

// SetWarnFunc attaches a teacher-style plain logging sink (e.g.
// log.Printf) for non-fatal audio-thread faults. The engine calls it when a
// NoteOn targets an instrument with no attached buffer; voice stealing and
// effect auto-bypass are not reported through it. It runs inline on the
// audio thread. Optional; nil means warnings are silently dropped.
func (e *Engine) SetWarnFunc(fn func(format string, args ...any)) {
	e.warnf = fn
}

func (e *Engine) warn(format string, args ...any) {
	if e.warnf != nil {
		e.warnf(format, args...)
	}
}

// Transport exposes the transport for the control API.
func (e *Engine) Transport() *Transport { return e.transport }

// Mixer exposes the mixer for the control API.
func (e *Engine) Mixer() *Mixer { return e.mixer }

// Registry exposes the effect registry for the control API.
func (e *Engine) Registry() *EffectRegistry { return e.registry }

// Scheduler exposes the scheduler for the control API.
func (e *Engine) Scheduler() *Scheduler { return e.scheduler }

// SharedState exposes the shared cross-thread state for the control API.
func (e *Engine) SharedState() *SharedState { return e.shared }

// CommandRing exposes the control->audio ring so Control API calls can push
// commands without every caller needing its own reference threading.
func (e *Engine) CommandRing() *ring.SPSC[Command] { return e.cmdRing }

// Instruments returns the live instrument map snapshot (read-only; callers
// must not mutate the returned map or its values in place).
func (e *Engine) Instruments() map[InstrumentID]*Instrument {
	return *e.instruments.Load()
}

// CommitInstruments atomically publishes a new instrument map (clone-then-
// swap, the same pattern Mixer.Commit uses - spec §4.1 "no in-place
// structural mutation visible from the audio thread mid-render").
func (e *Engine) CommitInstruments(m map[InstrumentID]*Instrument) {
	cloned := make(map[InstrumentID]*Instrument, len(m))
	for k, v := range m {
		cp := *v
		cloned[k] = &cp
	}
	e.instruments.Store(&cloned)
}

// Start launches the control-thread pumps (scheduler horizon generation and
// meter-ring drain) under an errgroup, generalizing the teacher's
// sync.WaitGroup+sync.Once shutdown in cmd/modplay/play.go into a
// cancellable, error-propagating supervisor (spec §9's wiring-order note
// extends naturally to shutdown, not just startup).
func (e *Engine) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	e.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	e.group = g

	g.Go(func() error { return e.schedulerPump(gctx) })
	g.Go(func() error { return e.meterPump(gctx) })
}

// Stop cancels the control-thread pumps and waits for them to exit.
func (e *Engine) Stop() error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()
	err := e.group.Wait()
	e.transport.Stop()
	return err
}

func (e *Engine) schedulerPump(ctx context.Context) error {
	ticker := time.NewTicker(schedulerPumpInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if e.shared.PlayState() != Playing {
				continue
			}
			e.scheduler.GenerateHorizon()
			e.scheduler.DrainInto(e.cmdRing, e.ticksToAbsoluteSample)
		}
	}
}

func (e *Engine) meterPump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		drained := 0
		e.meterRing.Drain(func(m MeterReading) bool {
			e.latestMeters.Store(m.ChannelID, m)
			drained++
			return drained < 64
		})
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// MeterReading returns the most recently published reading for a channel,
// if any (spec §6 Observations.meters).
func (e *Engine) MeterReading(id ChannelID) (MeterReading, bool) {
	v, ok := e.latestMeters.Load(id)
	if !ok {
		return MeterReading{}, false
	}
	return v.(MeterReading), true
}

// Stats returns the last published EngineStats (spec §6 Observations).
func (e *Engine) Stats() EngineStats {
	if s := e.stats.Load(); s != nil {
		return *s
	}
	return EngineStats{}
}

// ticksToAbsoluteSample converts a tick position relative to "now" into an
// absolute output-sample index (spec §4.3's AtSample contract), computed
// once at schedule time from the tempo in force then. drainCommands holds
// any command whose AtSample lands beyond the current block in
// pendingFuture, and handleNoteOn turns the remaining delta between
// AtSample and the block's first sample into the voice's startOffset, so
// the note's actual onset lands on its exact sample rather than the block
// boundary.
func (e *Engine) ticksToAbsoluteSample(tick float64) int64 {
	now := e.transport.CurrentTick()
	deltaTicks := tick - now
	deltaSeconds := deltaTicks * e.transport.SecondsPerTick()
	samples, _ := e.shared.Position()
	return int64(float64(samples) + deltaSeconds*e.sampleRate)
}

// RenderBlock is the sole audio-thread entry point (spec §5): drain the
// command ring, render every active voice into its owning channel, run the
// mixer graph, and interleave the result into out (stereo, len(out) ==
// 2*n). Never blocks. It does allocate on every block: renderVoices makes a
// fresh per-voice scratch buffer and the EngineStats snapshot is a new value
// each time; the epoch queue and pendingFuture may also grow.
func (e *Engine) RenderBlock(out []float32, n int) {
	start := time.Now()
	graph := e.mixer.Current()
	instruments := e.Instruments()

	blockStartSample, _ := e.shared.Position()
	e.drainCommands(graph, instruments, int64(blockStartSample), n)

	for _, ch := range graph.Channels {
		ch.ensureBuffers(n)
	}
	e.renderVoices(graph, n)

	masterL, masterR := graph.Render(n)
	for i := 0; i < n; i++ {
		out[2*i] = masterL[i]
		out[2*i+1] = masterR[i]
	}

	e.transport.AdvanceBlock(n, e.sampleRate)
	samples, ticks := e.shared.Position()
	_ = ticks
	e.shared.SetPosition(samples+float32(n), float32(e.transport.CurrentTick()))

	e.publishMeters(graph)
	e.voices.Sweep(e.epoch.Current(), func(*SampleBuffer) {})

	elapsed := time.Since(start)
	budget := time.Duration(float64(n) / e.sampleRate * float64(time.Second))
	load := 0.0
	if budget > 0 {
		load = float64(elapsed) / float64(budget)
	}
	e.stats.Store(&EngineStats{ActiveVoices: e.voices.ActiveCount(), CPULoad: load})
}

// renderVoices renders every active voice into a scratch buffer and adds it
// into its instrument's target channel buffer.
func (e *Engine) renderVoices(graph *MixerGraph, n int) {
	scratch := make([]float32, 2*n) // per-voice accumulation buffer, allocated once per block
	voices := e.voices.All()
	for i := range voices {
		v := &voices[i]
		if v.state == VoiceIdle {
			continue
		}
		ch, ok := graph.Channel(e.channelForInstrument(v.instrument))
		if !ok {
			continue
		}
		for j := range scratch {
			scratch[j] = 0
		}
		rendered := v.render(scratch, n)
		for f := 0; f < rendered; f++ {
			ch.bufL[f] += scratch[2*f]
			ch.bufR[f] += scratch[2*f+1]
		}
		if v.finished() {
			e.voices.Release(v.id, e.epoch.Current())
		}
	}
}

func (e *Engine) channelForInstrument(id InstrumentID) ChannelID {
	inst, ok := e.Instruments()[id]
	if !ok {
		return ""
	}
	return inst.MixerChannelID
}

// drainCommands applies every ring command whose AtSample has arrived by
// the end of this block (spec §4.3 ordering/priority contract in
// commands.go). The ring only supports pop-and-consume, not peek, so a
// NoteOn/NoteOff scheduled further out than this block is held in
// pendingFuture rather than dropped, and re-checked every block until its
// AtSample arrives.
func (e *Engine) drainCommands(graph *MixerGraph, instruments map[InstrumentID]*Instrument, blockStartSample int64, n int) {
	blockEndSample := blockStartSample + int64(n)

	stillFuture := e.pendingFuture[:0]
	for _, cmd := range e.pendingFuture {
		if isTimedEvent(cmd) && cmd.AtSample >= blockEndSample {
			stillFuture = append(stillFuture, cmd)
			continue
		}
		e.applyCommand(graph, instruments, cmd, blockStartSample)
	}
	e.pendingFuture = stillFuture

	e.cmdRing.Drain(func(cmd Command) bool {
		if isTimedEvent(cmd) && cmd.AtSample >= blockEndSample {
			e.pendingFuture = append(e.pendingFuture, cmd)
		} else {
			e.applyCommand(graph, instruments, cmd, blockStartSample)
		}
		return true
	})
}

func isTimedEvent(cmd Command) bool {
	return cmd.Kind == CmdNoteOn || cmd.Kind == CmdNoteOff
}

func (e *Engine) applyCommand(graph *MixerGraph, instruments map[InstrumentID]*Instrument, cmd Command, blockStartSample int64) {
	switch cmd.Kind {
	case CmdNoteOn:
		e.handleNoteOn(instruments, cmd, blockStartSample)
	case CmdNoteOff:
		e.handleNoteOff(instruments, cmd)
	case CmdSetChannelParam:
		if ch, ok := graph.Channel(cmd.ChannelID); ok {
			applyChannelParam(ch, cmd.ParamIndex, cmd.Value)
		}
	case CmdParamChange:
		// Scheduler-emitted automation event (scheduler.go's toCommand default
		// case): targets an effect param if EffectID is set, else a channel
		// param, sharing the same dispatch as the direct control-API commands.
		if ch, ok := graph.Channel(cmd.ChannelID); ok {
			if cmd.EffectID != "" {
				if slot := ch.Inserts.Find(cmd.EffectID); slot != nil {
					_ = slot.Effect.SetParam(cmd.ParamIndex, cmd.Value)
				}
			} else {
				applyChannelParam(ch, cmd.ParamIndex, cmd.Value)
			}
		}
	case CmdSetEffectParam:
		if ch, ok := graph.Channel(cmd.ChannelID); ok {
			if slot := ch.Inserts.Find(cmd.EffectID); slot != nil {
				_ = slot.Effect.SetParam(cmd.ParamIndex, cmd.Value)
			}
		}
	case CmdToggleBypass:
		if ch, ok := graph.Channel(cmd.ChannelID); ok {
			if slot := ch.Inserts.Find(cmd.EffectID); slot != nil {
				slot.Effect.SetBypassed(!slot.Effect.Bypassed())
			}
		}
	case CmdStop:
		e.pendingFuture = e.pendingFuture[:0]
		for i := range e.voices.voices {
			v := &e.voices.voices[i]
			if v.state != VoiceIdle && v.state != VoiceFadingOut {
				v.beginFadeOut(e.sampleRate)
			}
		}
	case CmdSwapBuffer:
		if inst, ok := instruments[cmd.InstrumentID]; ok {
			if old := inst.Sampler.Buffer; old != nil {
				e.voices.epochQ.Push(e.epoch.Current()+1, old)
			}
			inst.Sampler.Buffer = cmd.Buffer
		}
	}
}

const (
	channelParamGainDB = 0
	channelParamPan    = 1
	channelParamMuted  = 2
	channelParamSolo   = 3
)

func applyChannelParam(ch *ChannelStrip, index int, value float64) {
	switch index {
	case channelParamGainDB:
		ch.GainDB = value
	case channelParamPan:
		ch.Pan = value
	case channelParamMuted:
		ch.Muted = value != 0
	case channelParamSolo:
		ch.Solo = value != 0
	}
}

func (e *Engine) handleNoteOn(instruments map[InstrumentID]*Instrument, cmd Command, blockStartSample int64) {
	inst, ok := instruments[cmd.InstrumentID]
	if !ok {
		return
	}
	if inst.Sampler.Buffer == nil {
		e.warn("instrument %s has no attached buffer", cmd.InstrumentID)
		return
	}

	if inst.CutItself {
		for i := range e.voices.voices {
			v := &e.voices.voices[i]
			if v.instrument == cmd.InstrumentID && v.state != VoiceIdle && v.state != VoiceFadingOut {
				v.beginFadeOut(e.sampleRate)
			}
		}
	}

	idx := e.voices.Acquire()
	v := e.voices.Voice(idx)
	*v = Voice{id: idx}
	v.instrument = cmd.InstrumentID
	v.buffer = inst.Sampler.Buffer
	v.pos = float64(inst.Sampler.SampleStart)
	v.sampleStart = inst.Sampler.SampleStart
	v.sampleEnd = inst.Sampler.SampleEnd
	v.rate = inst.PitchRatio(cmd.Pitch) * (inst.Sampler.Buffer.SampleRate / e.sampleRate)
	v.velocity = cmd.Velocity
	v.interp = inst.Sampler.Interpolation
	v.state = VoiceActive
	v.env = newADSRFromParams(inst.Sampler, e.sampleRate)
	if inst.Sampler.FilterEnabled {
		v.filter = newFilterFromParams(inst.Sampler, e.sampleRate)
	}

	// cmd.AtSample is the note's true onset sample; offsetting into this
	// block by how far blockStartSample already is gives the voice its
	// in-block start position, so a note scheduled mid-block actually
	// sounds mid-block instead of always at out[0] (spec §8 ±1 sample
	// onset accuracy).
	offset := int(cmd.AtSample - blockStartSample)
	if offset < 0 {
		offset = 0
	}
	v.startOffset = offset
}

func (e *Engine) handleNoteOff(instruments map[InstrumentID]*Instrument, cmd Command) {
	for i := range e.voices.voices {
		v := &e.voices.voices[i]
		if v.instrument == cmd.InstrumentID && v.state == VoiceActive {
			v.NoteOff()
		}
	}
}

func (e *Engine) publishMeters(graph *MixerGraph) {
	for id, ch := range graph.Channels {
		peakDB, rms := meterBlock(ch.bufL, ch.bufR)
		reading := MeterReading{ChannelID: id, PeakDB: peakDB, RMS: rms}
		for _, slot := range ch.Inserts.Slots() {
			if gr, ok := slot.Effect.(interface{ GainReductionDB() float64 }); ok && !slot.Effect.Bypassed() {
				if v := float32(gr.GainReductionDB()); v > reading.GainReduc {
					reading.GainReduc = v
				}
			}
		}
		e.meterRing.Push(reading)
	}
}
