package main

import (
	"context"
	"flag"
	"log"

	daw "github.com/go-daw/core"
)

var (
	flagHz        = flag.Int("hz", 44100, "output sample rate")
	flagBPM       = flag.Float64("bpm", 120, "starting tempo")
	flagBlockSize = flag.Int("block", 512, "render block size in frames")
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("enginectl: ")
	flag.Parse()

	if len(flag.Args()) == 0 {
		log.Fatal("Missing sample file (8-bit mono PCM raw)")
	}

	sampleData, err := loadRawSample(flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}

	engine := daw.NewEngine(float64(*flagHz), *flagBlockSize)
	engine.SetWarnFunc(func(format string, args ...any) { log.Printf(format, args...) })
	ctl := daw.NewControl(engine)

	if err := ctl.SetBPM(float32(*flagBPM)); err != nil {
		log.Fatal(err)
	}

	trackID := daw.ChannelID("track-1")
	if err := ctl.CreateChannel(trackID, daw.ChannelTrack, "Track 1"); err != nil {
		log.Fatal(err)
	}

	instID := ctl.CreateInstrument(daw.InstrumentDescriptor{
		Name:    "Sample 1",
		Channel: trackID,
		Sampler: daw.SamplerParams{
			Buffer:        sampleData,
			BaseMIDI:      60,
			AttackSec:     0.001,
			DecaySec:      0,
			Sustain:       1.0,
			ReleaseSec:    0.02,
			Interpolation: daw.InterpolationLinear,
		},
	})

	engine.Start(context.Background())
	defer engine.Stop()

	ap := NewEnginePlayer(engine, ctl, instID, *flagHz)
	if err := ap.Run(); err != nil {
		log.Fatal(err)
	}
}
