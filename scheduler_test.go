package daw

import (
	"testing"

	"github.com/go-daw/core/internal/epoch"
	"github.com/go-daw/core/internal/ring"
)

func newTestScheduler(lengthSteps int, horizonTicks float64) (*Scheduler, *Transport) {
	shared := NewSharedState(44100)
	ep := &epoch.Counter{}
	tr := NewTransport(shared, ep, DefaultPPQ)
	_ = tr.SetBPM(120)

	song := NewSong()
	pattern := NewPattern("p1", lengthSteps)
	song.Patterns[pattern.ID] = pattern
	song.CurrentPattern = pattern.ID

	s := NewScheduler(tr, song, horizonTicks)
	return s, tr
}

func TestGenerateHorizonSchedulesNotesWithinWindow(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, _ := newTestScheduler(16, 4*stepTicks)

	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n2", StepStart: 2, DurationSteps: 1, Pitch: 62, Velocity: 1})
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n8", StepStart: 8, DurationSteps: 1, Pitch: 64, Velocity: 1})

	s.GenerateHorizon()

	if !s.scheduledNotes["n0"] || !s.scheduledNotes["n2"] {
		t.Error("notes within the horizon window should be scheduled")
	}
	if s.scheduledNotes["n8"] {
		t.Error("note outside the horizon window should not be scheduled yet")
	}
}

func TestEnqueueNoteIsIdempotent(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, _ := newTestScheduler(16, 4*stepTicks)
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})

	s.GenerateHorizon()
	firstPending := s.Pending()
	s.GenerateHorizon()
	if s.Pending() != firstPending {
		t.Errorf("Pending() after a second GenerateHorizon at the same position = %d, want unchanged %d", s.Pending(), firstPending)
	}
}

func TestNoteOffOrdersBeforeNoteOnAtSameTick(t *testing.T) {
	s, _ := newTestScheduler(16, 100)
	e1 := &scheduledEvent{tick: 10, kind: eventNoteOff}
	e2 := &scheduledEvent{tick: 10, kind: eventNoteOn}
	s.pending = append(s.pending, e1, e2)
	if !s.pending.Less(1, 0) {
		t.Error("at equal tick, NoteOff must sort before NoteOn")
	}
}

func TestDrainIntoPushesAllHorizonEventsWithFutureAtSample(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, tr := newTestScheduler(16, 4*stepTicks)
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n2", StepStart: 2, DurationSteps: 1, Pitch: 62, Velocity: 1})
	s.GenerateHorizon()

	r := ring.New[Command](16)
	atSample := func(tick float64) int64 { return int64(tick) }

	// Transport is still at tick 0, so every horizon event (both notes' on
	// and off, 4 total) is still in the future - DrainInto must push all of
	// them now, with their real future AtSample, not hold them back until
	// each one's own tick arrives.
	drained := s.DrainInto(r, atSample)
	if drained != 4 {
		t.Fatalf("DrainInto drained %d events, want 4 (n0 on/off + n2 on/off, all within the horizon)", drained)
	}

	first, ok := r.Pop()
	if !ok {
		t.Fatal("expected a command in the ring after DrainInto")
	}
	if first.Kind != CmdNoteOn || first.AtSample != 0 {
		t.Errorf("first drained command = %+v, want NoteOn at AtSample 0", first)
	}
	second, _ := r.Pop()
	if second.AtSample <= first.AtSample {
		t.Errorf("second drained command AtSample = %d, want > first's %d (future events keep increasing AtSample)", second.AtSample, first.AtSample)
	}
	_ = tr
}

func TestRemoveLiveNoteCancelsPendingEvent(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, _ := newTestScheduler(16, 4*stepTicks)
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})
	s.GenerateHorizon()

	before := s.Pending()
	s.RemoveLiveNote("n0")
	if s.Pending() >= before {
		t.Errorf("Pending() after RemoveLiveNote = %d, want fewer than %d", s.Pending(), before)
	}
	if s.scheduledNotes["n0"] {
		t.Error("RemoveLiveNote should clear the note from the dedup set")
	}
}

func TestResetClearsPendingAndDedup(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, _ := newTestScheduler(16, 4*stepTicks)
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})
	s.GenerateHorizon()

	if s.Pending() == 0 {
		t.Fatal("expected at least one pending event before Reset")
	}
	s.Reset()
	if s.Pending() != 0 {
		t.Errorf("Pending() after Reset = %d, want 0", s.Pending())
	}
	if len(s.scheduledNotes) != 0 {
		t.Error("Reset should clear the scheduledNotes dedup set")
	}
}

func TestLoopWrapResetsScheduler(t *testing.T) {
	stepTicks := float64(TicksPerStep(DefaultPPQ))
	s, tr := newTestScheduler(16, 4*stepTicks)
	if err := tr.SetLoop(0, 64, true); err != nil {
		t.Fatal(err)
	}
	s.song.Patterns["p1"].AddNote("inst1", Note{ID: "n0", StepStart: 0, DurationSteps: 1, Pitch: 60, Velocity: 1})
	s.GenerateHorizon()
	if s.Pending() == 0 {
		t.Fatal("expected a pending event before loop wrap")
	}

	tr.Play(nil)
	tr.AdvanceBlock(441000, 44100) // 10s worth of samples, well past loopEnd
	if s.Pending() != 0 {
		t.Errorf("Pending() after a loop wrap = %d, want 0 (scheduler resets on wrap)", s.Pending())
	}
}
