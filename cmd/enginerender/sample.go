package main

import (
	"os"

	daw "github.com/go-daw/core"
)

// loadRawSample reads a headerless 8-bit signed mono PCM file and wraps it
// as a daw.SampleBuffer at a nominal 22050Hz native rate, non-looping.
func loadRawSample(path string) (*daw.SampleBuffer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data := make([]int8, len(raw))
	for i, b := range raw {
		data[i] = int8(b)
	}
	return &daw.SampleBuffer{
		ID:         path,
		Data:       data,
		SampleRate: 22050,
	}, nil
}
