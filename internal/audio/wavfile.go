package audio

import (
	"fmt"

	"github.com/unixpickle/wav"
)

// FileSource replays a WAV file through the Source interface for offline
// analysis. ReadSamples advances through the file one hop at a time, so the
// same detector loop works on recordings and live input alike.
type FileSource struct {
	samples    []float32
	sampleRate uint32
	pos        int
	hop        int
}

// OpenFile loads a WAV file and downmixes it to mono.
func OpenFile(path string) (*FileSource, error) {
	sound, err := wav.ReadSoundFile(path)
	if err != nil {
		return nil, fmt.Errorf("read wav %s: %w", path, err)
	}

	channels := sound.Channels()
	if channels < 1 {
		return nil, fmt.Errorf("read wav %s: no channels", path)
	}

	raw := sound.Samples()
	mono := make([]float32, 0, len(raw)/channels)
	for i := 0; i+channels <= len(raw); i += channels {
		var sum float64
		for c := 0; c < channels; c++ {
			sum += float64(raw[i+c])
		}
		mono = append(mono, float32(sum/float64(channels)))
	}

	rate := uint32(sound.SampleRate())
	return &FileSource{
		samples:    mono,
		sampleRate: rate,
		hop:        int(rate / 4),
	}, nil
}

// ReadSamples copies the next window of the file into buf, advancing by a
// quarter second per call. Returns 0 at end of file.
func (f *FileSource) ReadSamples(buf []float32) int {
	if f.pos >= len(f.samples) {
		return 0
	}
	n := copy(buf, f.samples[f.pos:])
	f.pos += f.hop
	return n
}

// SampleRate returns the file's sample rate in Hz.
func (f *FileSource) SampleRate() uint32 {
	return f.sampleRate
}

// Duration returns the file length in seconds.
func (f *FileSource) Duration() float64 {
	return float64(len(f.samples)) / float64(f.sampleRate)
}
