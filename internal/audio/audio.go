// Package audio moves samples between the platform's audio devices and the
// rest of the application. Live capture, WAV files, and test fixtures all sit
// behind the same Source interface so the analysis code never knows where its
// samples came from.
package audio

// Source is an audio input. ReadSamples is non-blocking: it fills buf with the
// most recent samples available and returns how many were written, or 0 when
// nothing new has arrived since the last read.
type Source interface {
	ReadSamples(buf []float32) int
	SampleRate() uint32
}

// Sink is an audio output for reference tone playback.
type Sink interface {
	WriteSamples(samples []float32) error
	SampleRate() uint32
}
