package audio

import (
	"encoding/binary"
	"fmt"
	"math"
	"sync"

	"github.com/gen2brain/malgo"
)

// Tone generates pure sine waves for reference playback.
type Tone struct {
	sampleRate uint32
}

// NewTone creates a generator at the given sample rate.
func NewTone(sampleRate uint32) *Tone {
	return &Tone{sampleRate: sampleRate}
}

// Generate renders a sine wave at frequency Hz for the given duration, with a
// short linear fade at both ends to avoid clicks.
func (t *Tone) Generate(frequency float64, seconds float64) []float32 {
	n := int(float64(t.sampleRate) * seconds)
	fade := int(t.sampleRate / 100) // 10 ms
	if fade*2 > n {
		fade = n / 2
	}

	samples := make([]float32, n)
	for i := range samples {
		v := math.Sin(2 * math.Pi * frequency * float64(i) / float64(t.sampleRate))
		if i < fade {
			v *= float64(i) / float64(fade)
		} else if i >= n-fade {
			v *= float64(n-i) / float64(fade)
		}
		samples[i] = float32(v)
	}
	return samples
}

// Play renders the tone and writes it to the sink.
func (t *Tone) Play(sink Sink, frequency float64, seconds float64) error {
	return sink.WriteSamples(t.Generate(frequency, seconds))
}

// Playback is a Sink backed by the default output device.
type Playback struct {
	ctx        *malgo.AllocatedContext
	sampleRate uint32

	mu      sync.Mutex
	pending []float32
	done    chan struct{}
}

// NewPlayback opens an audio context for output at the given sample rate.
func NewPlayback(sampleRate uint32) (*Playback, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}
	return &Playback{ctx: ctx, sampleRate: sampleRate}, nil
}

// SampleRate returns the playback sample rate in Hz.
func (p *Playback) SampleRate() uint32 {
	return p.sampleRate
}

// WriteSamples plays the mono samples through the default output device,
// blocking until playback finishes.
func (p *Playback) WriteSamples(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	p.mu.Lock()
	p.pending = samples
	p.done = make(chan struct{})
	p.mu.Unlock()

	config := malgo.DefaultDeviceConfig(malgo.Playback)
	config.Playback.Format = malgo.FormatF32
	config.Playback.Channels = 1
	config.SampleRate = p.sampleRate
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(output, _ []byte, frameCount uint32) {
			p.fill(output, int(frameCount))
		},
	}

	device, err := malgo.InitDevice(p.ctx.Context, config, callbacks)
	if err != nil {
		return fmt.Errorf("open playback device: %w", err)
	}
	defer device.Uninit()

	if err := device.Start(); err != nil {
		return fmt.Errorf("start playback device: %w", err)
	}
	<-p.done
	return device.Stop()
}

// fill copies pending samples into the device's output buffer, padding with
// silence once the tone is exhausted.
func (p *Playback) fill(output []byte, frames int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := 0; i < frames; i++ {
		var v float32
		if len(p.pending) > 0 {
			v = p.pending[0]
			p.pending = p.pending[1:]
			if len(p.pending) == 0 {
				close(p.done)
			}
		}
		binary.LittleEndian.PutUint32(output[i*4:], math.Float32bits(v))
	}
}

// Close releases the audio context.
func (p *Playback) Close() error {
	if p.ctx != nil {
		err := p.ctx.Uninit()
		p.ctx.Free()
		p.ctx = nil
		return err
	}
	return nil
}
