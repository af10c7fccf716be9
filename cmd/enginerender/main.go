package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	daw "github.com/go-daw/core"

	"github.com/go-daw/core/cmd/enginerender/wav"
)

var (
	flagHz    = flag.Int("hz", 44100, "output sample rate")
	flagBlock = flag.Int("block", 512, "render block size in frames")
	flagBPM   = flag.Float64("bpm", 120, "tempo")
	flagBars  = flag.Int("bars", 4, "number of bars to render")
	flagOut   = flag.String("out", "out.wav", "output WAV path")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("enginerender: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing sample file (8-bit mono PCM raw)")
	}

	sample, err := loadRawSample(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	engine := daw.NewEngine(float64(*flagHz), *flagBlock)
	engine.SetWarnFunc(func(format string, args ...any) { log.Printf(format, args...) })
	ctl := daw.NewControl(engine)

	if err := ctl.SetBPM(float32(*flagBPM)); err != nil {
		log.Fatal(err)
	}

	trackID := daw.ChannelID("track-1")
	if err := ctl.CreateChannel(trackID, daw.ChannelTrack, "Track 1"); err != nil {
		log.Fatal(err)
	}
	if _, err := ctl.AddEffect(trackID, daw.EffectReverb, nil); err != nil {
		log.Fatal(err)
	}

	instID := ctl.CreateInstrument(daw.InstrumentDescriptor{
		Name:    "Sample 1",
		Channel: trackID,
		Sampler: daw.SamplerParams{
			Buffer:        sample,
			BaseMIDI:      60,
			AttackSec:     0.001,
			DecaySec:      0,
			Sustain:       1.0,
			ReleaseSec:    0.05,
			Interpolation: daw.InterpolationCubic,
		},
	})

	pattern := daw.NewPattern("p1", 16)
	for step := 0; step < 16; step += 4 {
		pattern.AddNote(instID, daw.Note{
			ID:            daw.NoteID(fmt.Sprintf("n%d", step)),
			StepStart:     step,
			DurationSteps: 2,
			Pitch:         60,
			Velocity:      0.9,
		})
	}
	song := daw.NewSong()
	song.Patterns[pattern.ID] = pattern
	song.CurrentPattern = pattern.ID
	engine.Scheduler().SetSong(song)

	ctl.Play(nil)

	ppq := engine.Transport().PPQ()
	ticksPerBar := daw.TicksPerBar(ppq, 4)
	totalTicks := float64(*flagBars * ticksPerBar)
	totalSamples := int(totalTicks * engine.Transport().SecondsPerTick() * float64(*flagHz))

	f, err := os.Create(*flagOut)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	w, err := wav.NewWriter(f, *flagHz)
	if err != nil {
		log.Fatal(err)
	}

	out := make([]float32, 2*(*flagBlock))
	int16Buf := make([]int16, 2*(*flagBlock))
	rendered := 0
	for rendered < totalSamples {
		n := *flagBlock
		if rendered+n > totalSamples {
			n = totalSamples - rendered
		}

		engine.Scheduler().GenerateHorizon()
		engine.Scheduler().DrainInto(engine.CommandRing(), ticksToSampleOffset(engine, rendered))

		engine.RenderBlock(out[:2*n], n)
		for i := 0; i < 2*n; i++ {
			int16Buf[i] = floatToInt16(out[i])
		}
		if err := w.WriteFrame(int16Buf[:2*n]); err != nil {
			log.Fatal(err)
		}
		rendered += n
	}

	if _, err := w.Finish(); err != nil {
		log.Fatal(err)
	}
}

func floatToInt16(v float32) int16 {
	if v > 1 {
		v = 1
	} else if v < -1 {
		v = -1
	}
	return int16(v * 32767)
}

// ticksToSampleOffset builds the atSample conversion func offline mode needs:
// it has no wall-clock drift to correct for (unlike the live engine pump), so
// it converts relative to the render cursor directly.
func ticksToSampleOffset(engine *daw.Engine, renderedSamples int) func(tick float64) int64 {
	now := engine.Transport().CurrentTick()
	secondsPerTick := engine.Transport().SecondsPerTick()
	sampleRate := float64(engine.SharedState().SampleRate())
	return func(tick float64) int64 {
		deltaTicks := tick - now
		return int64(renderedSamples) + int64(deltaTicks*secondsPerTick*sampleRate)
	}
}
