package daw

import (
	"errors"
	"fmt"
)

// Error taxonomy, see spec §7. The control API returns these, except that
// AddEffect passes on the effect registry's own error for an unknown kind;
// the audio thread never returns an error at all — faults there are
// recovered locally (bypass, skip, steal). Only a NoteOn for an instrument
// without a buffer is reported, as a message through Engine.SetWarnFunc's
// hook.

var (
	// ErrChannelNotFound is returned when a command references a mixer
	// channel id that doesn't exist in the live graph.
	ErrChannelNotFound = errors.New("daw: channel not found")

	// ErrEffectNotFound is returned when a command references an effect id
	// that isn't present on the target channel.
	ErrEffectNotFound = errors.New("daw: effect not found")

	// ErrInstrumentNotFound is returned when a command references an
	// instrument id that doesn't exist.
	ErrInstrumentNotFound = errors.New("daw: instrument not found")

	// ErrNoMaster is returned if a graph is committed with no Master channel,
	// or more than one.
	ErrNoMaster = errors.New("daw: graph must have exactly one master channel")

	// ErrUnreachableMaster is returned if committing a graph would leave a
	// Track or Bus channel that cannot reach Master via outputTarget/sends.
	ErrUnreachableMaster = errors.New("daw: channel cannot reach master")

	// ErrBufferUnavailable describes an instrument triggered before a sample
	// buffer has been attached. The engine does not return it: handleNoteOn
	// skips the note and passes a warning message to the SetWarnFunc hook.
	ErrBufferUnavailable = errors.New("daw: instrument has no attached buffer")
)

// InvalidArgumentError rejects a control command before it ever reaches the
// audio thread, e.g. a non-positive BPM.
type InvalidArgumentError struct {
	Field  string
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("daw: invalid argument %s: %s", e.Field, e.Reason)
}

// GraphError rejects a mixer topology mutation; the live graph is left
// unchanged.
type GraphError struct {
	Op     string
	Reason string
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("daw: graph error during %s: %s", e.Op, e.Reason)
}

// ErrGraphCycle is the specific GraphError reason used when a send would
// introduce a cycle in the send graph.
func ErrGraphCycle(src, dst ChannelID) error {
	return &GraphError{Op: "createSend", Reason: fmt.Sprintf("send %s -> %s would create a cycle", src, dst)}
}

// ResourceExhaustedError reports back-pressure on a critical command (the
// command ring is full) or a voice pool that has no stealable voice.
type ResourceExhaustedError struct {
	Resource string
}

func (e *ResourceExhaustedError) Error() string {
	return fmt.Sprintf("daw: resource exhausted: %s", e.Resource)
}

// EngineStoppedError is the Fatal-class error surfaced to control when the
// audio device is lost; playback has already been force-stopped and every
// voice released by the time this is observed.
type EngineStoppedError struct {
	Reason string
}

func (e *EngineStoppedError) Error() string {
	return fmt.Sprintf("daw: engine stopped: %s", e.Reason)
}
