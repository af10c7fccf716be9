package daw

import (
	"container/heap"

	"github.com/go-daw/core/internal/ring"
)

// Song is the arrangement: a pool of Patterns plus, in song mode, the Clips
// that place them on tracks (spec §3). Pattern mode ignores Clips entirely
// and just loops CurrentPattern.
type Song struct {
	Patterns       map[PatternID]*Pattern
	Clips          []Clip
	CurrentPattern PatternID
}

// NewSong creates an empty song.
func NewSong() *Song {
	return &Song{Patterns: make(map[PatternID]*Pattern)}
}

// scheduledEventKind mirrors the subset of CommandKind the scheduler itself
// emits (spec §4.3).
type scheduledEventKind int

const (
	eventNoteOn scheduledEventKind = iota
	eventNoteOff
	eventParam
)

// scheduledEvent is one entry in the scheduler's time-ordered horizon queue
// (spec §4.3 "Scheduled Event ... priority structure keyed by time").
type scheduledEvent struct {
	tick  float64
	epoch uint64
	kind  scheduledEventKind

	instrument InstrumentID
	noteID     NoteID
	pitch      int
	velocity   float64

	channelID  ChannelID
	effectID   EffectID
	paramIndex int
	value      float64

	index int // heap.Interface bookkeeping
}

// eventHeap is a min-heap ordered by tick, then by CommandKind priority for
// same-tick ties (spec §4.3's "Event priorities" table, reused here since
// the scheduler's own NoteOff/NoteOn ordering follows the same rule).
type eventHeap []*scheduledEvent

func (h eventHeap) Len() int { return len(h) }
func (h eventHeap) Less(i, j int) bool {
	if h[i].tick != h[j].tick {
		return h[i].tick < h[j].tick
	}
	return eventKindPriority(h[i].kind) < eventKindPriority(h[j].kind)
}

// eventKindPriority mirrors CommandKind.Priority()'s ordering (commands.go):
// NoteOff before NoteOn before Param, so a note retrigger on the same tick
// always releases the old voice before starting the new one.
func eventKindPriority(k scheduledEventKind) int {
	switch k {
	case eventNoteOff:
		return 0
	case eventNoteOn:
		return 1
	default:
		return 2
	}
}
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}
func (h *eventHeap) Push(x any) {
	e := x.(*scheduledEvent)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Scheduler turns Pattern/Song data into sample-accurate NoteOn/NoteOff/Param
// commands pushed onto the control->audio ring, staying a fixed horizon
// ahead of the transport's current position (spec §4.3). It is the
// generalization of the teacher's sequenceTick row-at-a-time row emission
// (player.go) from "emit the current row now" to "emit every onset inside
// [now, now+horizon)".
type Scheduler struct {
	transport *Transport
	song      *Song
	mode      PlaybackMode

	horizonTicks   float64
	scheduledUpTo  float64 // exclusive upper bound of ticks already scheduled
	pending        eventHeap
	scheduledNotes map[NoteID]bool // notes already pushed for the current pass, cleared by Reset (seek, stop, loop wrap, mode/song change)

	nextVoiceByNote map[NoteID]int // NoteID -> voiceID, for NoteOff pairing
}

// NewScheduler constructs a Scheduler over transport/song with the given
// lookahead horizon in ticks (engine.go passes 200ms worth of ticks, based
// on SecondsPerTick).
func NewScheduler(transport *Transport, song *Song, horizonTicks float64) *Scheduler {
	s := &Scheduler{
		transport:       transport,
		song:            song,
		mode:            PlaybackModePattern,
		horizonTicks:    horizonTicks,
		scheduledNotes:  make(map[NoteID]bool),
		nextVoiceByNote: make(map[NoteID]int),
	}
	heap.Init(&s.pending)
	transport.OnLoopWrap(s.handleLoopWrap)
	transport.OnStop(s.handleStop)
	return s
}

// SetMode switches between pattern-mode looping and song-mode arrangement
// playback (spec §6 setPlaybackMode).
func (s *Scheduler) SetMode(mode PlaybackMode) {
	s.mode = mode
	s.Reset()
}

// SetSong replaces the song data wholesale (control-thread only).
func (s *Scheduler) SetSong(song *Song) {
	s.song = song
	s.Reset()
}

// Reset clears all pending scheduled events and the dedup set, used on
// seek/stop/song-change so nothing from the old timeline leaks through
// (spec §4.3 "epoch-tagged cancellation").
func (s *Scheduler) Reset() {
	s.pending = s.pending[:0]
	heap.Init(&s.pending)
	s.scheduledUpTo = s.transport.CurrentTick()
	s.scheduledNotes = make(map[NoteID]bool)
}

func (s *Scheduler) handleLoopWrap() {
	s.Reset()
}

func (s *Scheduler) handleStop() {
	s.Reset()
}

// GenerateHorizon extends scheduling up to transport.CurrentTick() +
// horizonTicks, enqueuing any new onsets (spec §4.3 step-by-step: "advance
// horizon", "find events in window", "push to ring"). Control-thread only,
// called on a fixed cadence (engine.go's scheduler pump, ~25ms).
func (s *Scheduler) GenerateHorizon() {
	if s.transport == nil || s.song == nil {
		return
	}
	now := s.transport.CurrentTick()
	target := now + s.horizonTicks
	if target <= s.scheduledUpTo {
		return
	}

	ppq := s.transport.PPQ()
	stepTicks := float64(TicksPerStep(ppq))
	epoch := s.transport.Epoch()

	startStep := int(s.scheduledUpTo / stepTicks)
	endStep := int(target / stepTicks)

	for step := startStep; step <= endStep; step++ {
		stepStartTick := float64(step) * stepTicks
		if stepStartTick < s.scheduledUpTo || stepStartTick >= target {
			continue
		}
		pattern, localStep := s.patternAtStep(step)
		if pattern == nil {
			continue
		}
		for instrument, notes := range pattern.Notes {
			for _, n := range notes {
				if n.StepStart != localStep {
					continue
				}
				s.enqueueNote(instrument, n, stepStartTick, stepTicks, epoch)
			}
		}
	}

	s.scheduledUpTo = target
}

func (s *Scheduler) patternAtStep(step int) (*Pattern, int) {
	if s.mode == PlaybackModePattern {
		p := s.song.Patterns[s.song.CurrentPattern]
		if p == nil || p.LengthSteps == 0 {
			return nil, 0
		}
		return p, step % p.LengthSteps
	}
	for _, clip := range s.song.Clips {
		if clip.Contains(step) {
			p := s.song.Patterns[clip.PatternID]
			if p == nil {
				continue
			}
			localStep := (step - clip.StartStep + clip.OffsetSteps) % p.LengthSteps
			return p, localStep
		}
	}
	return nil, 0
}

func (s *Scheduler) enqueueNote(instrument InstrumentID, n Note, onsetTick, stepTicks float64, epoch uint64) {
	if s.scheduledNotes[n.ID] {
		return
	}
	s.scheduledNotes[n.ID] = true

	onEvt := &scheduledEvent{
		tick: onsetTick, epoch: epoch, kind: eventNoteOn,
		instrument: instrument, noteID: n.ID, pitch: n.Pitch, velocity: n.Velocity,
	}
	heap.Push(&s.pending, onEvt)

	if n.DurationSteps > 0 {
		offTick := onsetTick + float64(n.DurationSteps)*stepTicks
		offEvt := &scheduledEvent{
			tick: offTick, epoch: epoch, kind: eventNoteOff,
			instrument: instrument, noteID: n.ID,
		}
		heap.Push(&s.pending, offEvt)
	}
}

// AddLiveNote implements the live-edit path (spec §4.3 edge case: "note
// added to a pattern while it's already playing"): if the note's onset is
// still within the current horizon window, schedule it immediately;
// otherwise it's picked up by the next GenerateHorizon pass naturally. If
// the onset has already passed, the note is skipped this cycle by design
// (spec: "note in the past = skip").
func (s *Scheduler) AddLiveNote(instrument InstrumentID, n Note) {
	ppq := s.transport.PPQ()
	stepTicks := float64(TicksPerStep(ppq))
	now := s.transport.CurrentTick()
	onsetTick := float64(n.StepStart) * stepTicks

	if onsetTick < now || onsetTick >= s.scheduledUpTo {
		return
	}
	s.enqueueNote(instrument, n, onsetTick, stepTicks, s.transport.Epoch())
}

// RemoveLiveNote cancels a not-yet-drained scheduled event for a note,
// if any remain in the pending heap (spec: "note removed" live edit).
func (s *Scheduler) RemoveLiveNote(noteID NoteID) {
	filtered := s.pending[:0]
	for _, e := range s.pending {
		if e.noteID == noteID {
			continue
		}
		filtered = append(filtered, e)
	}
	s.pending = filtered
	heap.Init(&s.pending)
	delete(s.scheduledNotes, noteID)
}

// DrainInto pushes every pending event into the command ring as a Command,
// converting its tick position to an absolute future sample index via
// atSample right now, at drain time. This is the whole point of the §4.3
// lookahead horizon: GenerateHorizon already scheduled these events up to
// horizonTicks ahead of transport.CurrentTick(), so pushing them immediately
// - rather than waiting for each event's own tick to arrive - is what gives
// the audio thread a genuinely future AtSample to hold via
// Engine.pendingFuture and fire at the exact sample (spec §8: onset accuracy
// within ±1 sample, not ±block-size). Events are drained in tick order;
// if the ring is full, draining stops early and resumes on the next call
// (spec §5 back-pressure: "drop lowest priority first" - Param events are
// cheapest to simply retry later since they only set one target level, not
// trigger a discrete audio event). Returns the number of events drained.
func (s *Scheduler) DrainInto(r *ring.SPSC[Command], atSample func(tick float64) int64) int {
	drained := 0
	for len(s.pending) > 0 {
		top := s.pending[0]
		cmd := s.toCommand(top, atSample(top.tick))
		if !r.Push(cmd) {
			break
		}
		heap.Pop(&s.pending)
		drained++
	}
	return drained
}

func (s *Scheduler) toCommand(e *scheduledEvent, atSample int64) Command {
	switch e.kind {
	case eventNoteOn:
		return Command{Kind: CmdNoteOn, Epoch: e.epoch, AtSample: atSample,
			InstrumentID: e.instrument, NoteID: e.noteID, Pitch: e.pitch, Velocity: e.velocity}
	case eventNoteOff:
		return Command{Kind: CmdNoteOff, Epoch: e.epoch, AtSample: atSample,
			InstrumentID: e.instrument, NoteID: e.noteID}
	default:
		return Command{Kind: CmdParamChange, Epoch: e.epoch, AtSample: atSample,
			ChannelID: e.channelID, EffectID: e.effectID, ParamIndex: e.paramIndex, Value: e.value}
	}
}

// Pending reports how many events are queued but not yet drained, for
// diagnostics/tests.
func (s *Scheduler) Pending() int {
	return len(s.pending)
}
