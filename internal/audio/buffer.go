package audio

import "sync"

// CaptureBuffer hands audio frames from the real-time capture callback to a
// consumer polling on its own schedule. The producer appends, the consumer
// copies out the newest window; neither side ever blocks on the other. Older
// samples are dropped rather than queued, so a slow consumer always sees the
// most recent audio.
type CaptureBuffer struct {
	mu      sync.Mutex
	samples []float32
	maxLen  int
	fresh   bool
}

// NewCaptureBuffer creates a buffer retaining about half a second of audio at
// the given sample rate.
func NewCaptureBuffer(sampleRate uint32) *CaptureBuffer {
	maxLen := int(sampleRate / 2)
	return &CaptureBuffer{
		samples: make([]float32, 0, maxLen),
		maxLen:  maxLen,
	}
}

// Push downmixes one interleaved frame block to mono and appends it. The
// buffer is trimmed from the front when it grows past the retention ceiling.
// Safe to call from the device callback thread.
func (b *CaptureBuffer) Push(frame []float32, channels int) {
	if channels < 1 || len(frame) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if channels == 1 {
		b.samples = append(b.samples, frame...)
	} else {
		for i := 0; i+channels <= len(frame); i += channels {
			var sum float32
			for c := 0; c < channels; c++ {
				sum += frame[i+c]
			}
			b.samples = append(b.samples, sum/float32(channels))
		}
	}

	if len(b.samples) > b.maxLen {
		excess := len(b.samples) - b.maxLen
		b.samples = b.samples[:copy(b.samples, b.samples[excess:])]
	}

	b.fresh = true
}

// Read copies the most recent min(len(out), available) samples into out and
// returns the count. Returns 0 immediately when no new audio has arrived
// since the previous read, so the caller never re-analyzes a stale window.
func (b *CaptureBuffer) Read(out []float32) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.fresh || len(b.samples) == 0 {
		return 0
	}
	b.fresh = false

	n := len(out)
	if n > len(b.samples) {
		n = len(b.samples)
	}
	copy(out, b.samples[len(b.samples)-n:])
	return n
}

// Len reports how many samples are currently retained.
func (b *CaptureBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.samples)
}
