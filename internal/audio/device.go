package audio

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gen2brain/malgo"
)

const (
	captureRate     = 44100
	captureChannels = 2
)

// Capture reads from the default input device via miniaudio. The device
// callback pushes into a CaptureBuffer; ReadSamples drains it.
type Capture struct {
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	buffer  *CaptureBuffer
	scratch []float32
}

// NewCapture opens the default capture device at 44.1 kHz stereo F32.
// Device errors here are terminal for the run: the caller reports them and
// exits rather than retrying.
func NewCapture() (*Capture, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("init audio context: %w", err)
	}

	c := &Capture{
		ctx:    ctx,
		buffer: NewCaptureBuffer(captureRate),
	}

	config := malgo.DefaultDeviceConfig(malgo.Capture)
	config.Capture.Format = malgo.FormatF32
	config.Capture.Channels = captureChannels
	config.SampleRate = captureRate
	config.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, frameCount uint32) {
			if len(input) == 0 {
				return
			}
			c.buffer.Push(c.decodeF32(input), captureChannels)
		},
	}

	device, err := malgo.InitDevice(ctx.Context, config, callbacks)
	if err != nil {
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("open capture device: %w", err)
	}
	if err := device.Start(); err != nil {
		device.Uninit()
		ctx.Uninit()
		ctx.Free()
		return nil, fmt.Errorf("start capture device: %w", err)
	}

	c.device = device
	return c, nil
}

// decodeF32 converts the raw callback bytes to float32 samples, reusing a
// scratch slice so the real-time callback does not allocate per invocation.
func (c *Capture) decodeF32(input []byte) []float32 {
	n := len(input) / 4
	if cap(c.scratch) < n {
		c.scratch = make([]float32, n)
	}
	c.scratch = c.scratch[:n]
	for i := 0; i < n; i++ {
		bits := binary.LittleEndian.Uint32(input[i*4:])
		c.scratch[i] = math.Float32frombits(bits)
	}
	return c.scratch
}

// ReadSamples copies the newest captured window into buf.
func (c *Capture) ReadSamples(buf []float32) int {
	return c.buffer.Read(buf)
}

// SampleRate returns the capture sample rate in Hz.
func (c *Capture) SampleRate() uint32 {
	return captureRate
}

// Close stops the device and releases the audio context.
func (c *Capture) Close() error {
	if c.device != nil {
		_ = c.device.Stop()
		c.device.Uninit()
		c.device = nil
	}
	if c.ctx != nil {
		err := c.ctx.Uninit()
		c.ctx.Free()
		c.ctx = nil
		return err
	}
	return nil
}
