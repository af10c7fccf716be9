package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"atomicgo.dev/keyboard"
	"atomicgo.dev/keyboard/keys"
	"github.com/fatih/color"
	"github.com/gordonklaus/portaudio"

	daw "github.com/go-daw/core"
)

var (
	white  = color.New(color.FgWhite).SprintfFunc()
	cyan   = color.New(color.FgCyan).SprintfFunc()
	green  = color.New(color.FgGreen).SprintfFunc()
	yellow = color.New(color.FgYellow).SprintfFunc()
)

const (
	escape      = "\x1b["
	hideCursor  = escape + "?25l"
	showCursor  = escape + "?25h"
	uiLineCount = 6
)

// EnginePlayer drives the engine live against a real output device and
// renders transport/meter state to the terminal, generalizing the teacher's
// cmd/modplay/play.go AudioPlayer from tracker-row display to DAW
// transport/channel-meter display.
type EnginePlayer struct {
	engine *daw.Engine
	ctl    *daw.Control
	instID daw.InstrumentID

	sampleRate int
	stream     *portaudio.Stream

	uiWriter io.Writer

	ctx            context.Context
	cancelFn       context.CancelFunc
	wg             sync.WaitGroup
	stopOnce       sync.Once
	terminated     bool
	keyboardDoneCh chan struct{}
}

// NewEnginePlayer constructs a player bound to an already-started engine.
func NewEnginePlayer(engine *daw.Engine, ctl *daw.Control, instID daw.InstrumentID, sampleRate int) *EnginePlayer {
	ctx, cancel := context.WithCancel(context.Background())
	return &EnginePlayer{
		engine:         engine,
		ctl:            ctl,
		instID:         instID,
		sampleRate:     sampleRate,
		uiWriter:       os.Stdout,
		ctx:            ctx,
		cancelFn:       cancel,
		keyboardDoneCh: make(chan struct{}),
	}
}

// Run opens the audio stream, installs signal/keyboard handlers, and renders
// the UI on a fixed cadence until stopped.
func (ep *EnginePlayer) Run() error {
	if err := portaudio.Initialize(); err != nil {
		return err
	}

	if err := ep.setupAudioStream(); err != nil {
		return err
	}

	ep.setupSignalHandlers()
	ep.setupKeyboardHandlers()

	fmt.Fprint(ep.uiWriter, hideCursor)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ep.ctx.Done():
			goto exit
		case <-ticker.C:
			ep.renderUI()
		}
	}

exit:
	fmt.Fprint(ep.uiWriter, showCursor)

	select {
	case <-ep.keyboardDoneCh:
	case <-time.After(500 * time.Millisecond):
	}

	ep.wg.Wait()
	return nil
}

func (ep *EnginePlayer) setupAudioStream() error {
	stream, err := portaudio.OpenDefaultStream(0, 2, float64(ep.sampleRate), portaudio.FramesPerBufferUnspecified, ep.streamCallback)
	if err != nil {
		return err
	}
	ep.stream = stream
	if err := stream.Start(); err != nil {
		stream.Close()
		return err
	}
	return nil
}

func (ep *EnginePlayer) streamCallback(out []float32) {
	ep.engine.RenderBlock(out, len(out)/2)
}

func (ep *EnginePlayer) setupSignalHandlers() {
	sigch := make(chan os.Signal, 5)
	signal.Notify(sigch, syscall.SIGINT)

	ep.wg.Add(1)
	go func() {
		defer ep.wg.Done()
		for {
			select {
			case <-ep.ctx.Done():
				return
			case sig := <-sigch:
				if sig == syscall.SIGINT {
					ep.Stop()
					return
				}
			}
		}
	}()
}

func (ep *EnginePlayer) setupKeyboardHandlers() {
	ep.wg.Add(1)
	go func() {
		defer ep.wg.Done()
		keyboard.Listen(func(key keys.Key) (stop bool, err error) {
			if key.Code == keys.CtrlC || key.Code == keys.Escape {
				ep.Stop()
				return true, nil
			}
			ep.handleKeyPress(key)
			return false, nil
		})
		close(ep.keyboardDoneCh)
	}()
}

func (ep *EnginePlayer) handleKeyPress(key keys.Key) {
	switch key.Code {
	case keys.Space:
		if ep.engine.SharedState().PlayState() == daw.Playing {
			ep.ctl.Pause()
		} else {
			ep.ctl.Resume()
		}
	case keys.Up:
		bpm := ep.engine.SharedState().BPM() + 1
		_ = ep.ctl.SetBPM(bpm)
	case keys.Down:
		bpm := ep.engine.SharedState().BPM() - 1
		_ = ep.ctl.SetBPM(bpm)
	case keys.RuneKey:
		if len(key.Runes) > 0 {
			switch key.Runes[0] {
			case 'a':
				ep.ctl.AuditionOn(ep.instID, 60, 1.0)
			case 'z':
				ep.ctl.AuditionOff(ep.instID, 60)
			}
		}
	}
}

// Stop performs clean shutdown, idempotent.
func (ep *EnginePlayer) Stop() {
	ep.stopOnce.Do(func() {
		ep.ctl.Stop()
		ep.cancelFn()

		if ep.stream != nil {
			ep.stream.Stop()
			ep.stream.Close()
		}

		if !ep.terminated {
			portaudio.Terminate()
			ep.terminated = true
		}

		fmt.Fprint(ep.uiWriter, showCursor)
	})
}

func (ep *EnginePlayer) renderUI() {
	bar, beat, sixteenth := ep.engine.Transport().BarBeatSixteenth()
	state := ep.engine.SharedState().PlayState()
	stats := ep.engine.Stats()

	fmt.Fprintf(ep.uiWriter, "%s %03d:%d:%d  %s %s  %s %.0f  %s %d  %s %.1f%%\n",
		cyan("pos"), bar, beat, sixteenth,
		yellow("state"), state,
		cyan("bpm"), ep.engine.SharedState().BPM(),
		green("voices"), stats.ActiveVoices,
		white("cpu"), stats.CPULoad*100)

	if reading, ok := ep.engine.MeterReading("track-1"); ok {
		fmt.Fprintf(ep.uiWriter, "%s peak %.1fdB rms %.1fdB\n", green("track-1"), reading.PeakDB, reading.RMS)
	}

	fmt.Fprintf(ep.uiWriter, escape+"%dF", uiLineCount)
}
