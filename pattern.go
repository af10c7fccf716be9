package daw

// Types in this file model spec.md §3's Pattern / Note / Arrangement Clip
// data, generalizing the teacher's tracker-specific song.patterns [][]note
// model (mod.go, s3m.go) into a project-agnostic pattern map keyed by
// instrument id instead of a fixed channel index.

// InstrumentID identifies an Instrument (spec §3).
type InstrumentID string

// PatternID identifies a Pattern (spec §3).
type PatternID string

// ChannelID identifies a Mixer Channel strip (spec §3).
type ChannelID string

// EffectID identifies an Effect instance on a channel's insert chain.
type EffectID string

// NoteID identifies a single Note within a Pattern, stable across edits so
// the scheduler can invalidate/reschedule a specific note (spec §4.3).
type NoteID string

// ClipID identifies an Arrangement Clip (spec §3).
type ClipID string

// TrackID identifies an arrangement track (song mode).
type TrackID string

// Note is one note event inside a Pattern (spec §3).
type Note struct {
	ID            NoteID
	StepStart     int     // 16th-note step within the pattern
	DurationSteps int     // 0 = no NoteOff (open-ended)
	Pitch         int     // MIDI note number
	Velocity      float64 // 0..1

	// Effect/Param optionally carry a legacy tracker-style automation byte
	// pair, so notes imported from a MOD/S3M-shaped project keep it. The
	// scheduler does not read them: no Param event is produced from these
	// bytes. Zero value means "no automation attached".
	Effect byte
	Param  byte
}

// Pattern is a fixed-length grid of notes per instrument (spec §3). Notes
// are not required to be time-sorted at rest; the scheduler sorts them per
// scheduling pass.
type Pattern struct {
	ID          PatternID
	LengthSteps int
	Notes       map[InstrumentID][]Note
}

// NewPattern creates an empty pattern of the given length.
func NewPattern(id PatternID, lengthSteps int) *Pattern {
	return &Pattern{
		ID:          id,
		LengthSteps: lengthSteps,
		Notes:       make(map[InstrumentID][]Note),
	}
}

// AddNote appends a note to the given instrument's note list. Patterns don't
// need to stay sorted; see Pattern doc comment.
func (p *Pattern) AddNote(instrument InstrumentID, n Note) {
	p.Notes[instrument] = append(p.Notes[instrument], n)
}

// RemoveNote deletes the note with the given id from instrument's list, if
// present. Reports whether a note was removed.
func (p *Pattern) RemoveNote(instrument InstrumentID, id NoteID) bool {
	notes := p.Notes[instrument]
	for i, n := range notes {
		if n.ID == id {
			p.Notes[instrument] = append(notes[:i], notes[i+1:]...)
			return true
		}
	}
	return false
}

// Clip is one placement of a Pattern on an arrangement track (song mode,
// spec §3).
type Clip struct {
	ID          ClipID
	PatternID   PatternID
	TrackID     TrackID
	StartStep   int
	LengthSteps int
	OffsetSteps int // offset into the source pattern the clip starts playing from
}

// EndStep is the (exclusive) step at which this clip stops playing.
func (c Clip) EndStep() int {
	return c.StartStep + c.LengthSteps
}

// Contains reports whether step falls within [StartStep, EndStep).
func (c Clip) Contains(step int) bool {
	return step >= c.StartStep && step < c.EndStep()
}

// PlaybackMode selects whether the engine plays a single looping Pattern or
// an Arrangement of Clips (spec §6 setPlaybackMode).
type PlaybackMode int

const (
	PlaybackModePattern PlaybackMode = iota
	PlaybackModeSong
)
