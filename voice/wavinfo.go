package voice

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-audio/wav"
)

var ErrInvalidWAV = errors.New("invalid wav file")

type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	Duration   time.Duration
}

// InspectWAV reads the header of a RIFF/WAVE file.
func InspectWAV(filename string) (WAVInfo, error) {
	f, err := os.Open(filename)
	if err != nil {
		return WAVInfo{}, fmt.Errorf("failed to open wav; %w", err)
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		if err := d.Err(); err != nil {
			return WAVInfo{}, fmt.Errorf("%w; %v", ErrInvalidWAV, err)
		}
		return WAVInfo{}, ErrInvalidWAV
	}

	duration, err := d.Duration()
	if err != nil {
		return WAVInfo{}, fmt.Errorf("failed to compute wav duration; %w", err)
	}

	return WAVInfo{
		SampleRate: int(d.SampleRate),
		Channels:   int(d.NumChans),
		BitDepth:   int(d.BitDepth),
		Duration:   duration,
	}, nil
}
