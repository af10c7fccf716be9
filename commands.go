package daw

// CommandKind tags the single-producer/single-consumer command ring that
// carries the sample-accurate control->audio mutations (spec §4.1):
// SetChannelParam, SetEffectParam, ToggleBypass, SwapBuffer, Stop, plus the
// scheduler's NoteOn/NoteOff/Param events,
// which travel the same ring (spec §4.3 step 4: "Push events into the
// audio-thread command ring"). Representing the ring payload as one tagged
// struct (rather than an interface per command) keeps Command a fixed-size
// value so Push never allocates, matching §5's "no allocation" rule for the
// audio thread - the same "tagged variant" approach spec.md §9 calls for to
// replace the source's dynamic-dispatch registries. The structural kinds
// (AddEffect, RemoveEffect, ReorderEffect, CreateChannel, RemoveChannel,
// RouteInstrument, CreateSend, RemoveSend) and LoopChanged, LoopWrap and
// Meter exist in the enum but the engine does not handle them; structural
// changes go through Mixer.Commit instead.
type CommandKind int

const (
	CmdNoteOn CommandKind = iota
	CmdNoteOff
	CmdParamChange
	CmdAddEffect
	CmdRemoveEffect
	CmdReorderEffect
	CmdToggleBypass
	CmdSetEffectParam
	CmdSetChannelParam
	CmdCreateChannel
	CmdRemoveChannel
	CmdRouteInstrument
	CmdCreateSend
	CmdRemoveSend
	CmdSwapBuffer
	CmdLoopChanged
	CmdStop
	CmdLoopWrap
	CmdMeter
)

// Priority orders command kinds for tie-breaking when several land in the
// same block (spec §4.3 "Event priorities (highest first): Stop, LoopWrap,
// NoteOff, NoteOn, ParamChange, Meter"). Lower value = higher priority.
func (k CommandKind) Priority() int {
	switch k {
	case CmdStop:
		return 0
	case CmdLoopWrap:
		return 1
	case CmdNoteOff:
		return 2
	case CmdNoteOn:
		return 3
	case CmdParamChange, CmdSetChannelParam, CmdSetEffectParam, CmdAddEffect,
		CmdRemoveEffect, CmdReorderEffect, CmdToggleBypass, CmdCreateChannel,
		CmdRemoveChannel, CmdRouteInstrument, CmdCreateSend, CmdRemoveSend,
		CmdSwapBuffer, CmdLoopChanged:
		return 4
	case CmdMeter:
		return 5
	default:
		return 6
	}
}

// Command is one entry in the control->audio ring. AtSample is the absolute
// output-sample index the command should take effect at; untimed commands
// (SetChannelParam, SetEffectParam, ...) are applied at the start of
// whichever block they're drained in regardless of AtSample, while
// NoteOn/NoteOff use AtSample to compute a sample-accurate in-block offset
// (spec §5 "Ordering guarantees").
type Command struct {
	Kind  CommandKind
	Epoch uint64

	AtSample int64

	InstrumentID InstrumentID
	ChannelID    ChannelID
	EffectID     EffectID
	NoteID       NoteID

	EffectKind EffectKind
	ParamIndex int
	Value      float64

	Pitch    int
	Velocity float64
	VoiceID  int

	Buffer *SampleBuffer

	SrcIdx, DstIdx int // reorderEffect

	LoopStart, LoopEnd int32
	LoopEnabled        bool

	SendTarget ChannelID
	SendLevel  float64
	PreFader   bool
}
