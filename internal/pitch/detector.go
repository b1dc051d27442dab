// Package pitch estimates the fundamental frequency of a mono sample window
// using the YIN difference-function method.
package pitch

import "math"

const (
	// DefaultThreshold is the YIN absolute threshold for the normalized
	// difference function.
	DefaultThreshold = 0.1

	// lowestHz bounds the largest lag worth searching. A0 on a piano is
	// 27.5 Hz.
	lowestHz = 27.5

	// Detected frequencies outside this range are discarded as artifacts.
	minValidHz = 20.0
	maxValidHz = 5000.0

	minWindow = 128
)

// Estimate is a single pitch detection result.
type Estimate struct {
	// Frequency is the detected fundamental in Hz.
	Frequency float64
	// Confidence is 1 minus the normalized difference at the chosen lag,
	// in [0, 1].
	Confidence float64
}

// Detector runs YIN over fixed-size windows at a fixed sample rate. It holds
// no per-call state; Detect is a pure function of its input.
type Detector struct {
	sampleRate uint32
	threshold  float64
}

// NewDetector creates a detector for the given sample rate with the default
// threshold.
func NewDetector(sampleRate uint32) *Detector {
	return &Detector{sampleRate: sampleRate, threshold: DefaultThreshold}
}

// WithThreshold overrides the absolute threshold.
func (d *Detector) WithThreshold(threshold float64) *Detector {
	d.threshold = threshold
	return d
}

// SampleRate returns the detector's sample rate in Hz.
func (d *Detector) SampleRate() uint32 {
	return d.sampleRate
}

// Detect estimates the fundamental frequency of samples. The second return
// value is false when the window is silent, too short, or yields no
// frequency inside the instrument range.
func (d *Detector) Detect(samples []float32) (Estimate, bool) {
	w := len(samples)
	if w < minWindow {
		return Estimate{}, false
	}

	tauMax := w / 2
	if limit := int(float64(d.sampleRate) / lowestHz); tauMax > limit {
		tauMax = limit
	}
	if tauMax < 2 {
		return Estimate{}, false
	}

	// Step 1: squared difference function.
	diff := make([]float64, tauMax)
	for tau := 1; tau < tauMax; tau++ {
		var sum float64
		for i := 0; i < w-tau; i++ {
			delta := float64(samples[i]) - float64(samples[i+tau])
			sum += delta * delta
		}
		diff[tau] = sum
	}

	// Step 2: cumulative mean normalized difference. A vanishing cumulative
	// sum means the signal is flat; those lags are pinned to 1 so they can
	// never look like minima.
	cmnd := make([]float64, tauMax)
	cmnd[0] = 1
	var runningSum float64
	for tau := 1; tau < tauMax; tau++ {
		runningSum += diff[tau]
		if runningSum < 1e-12 {
			cmnd[tau] = 1
		} else {
			cmnd[tau] = diff[tau] * float64(tau) / runningSum
		}
	}

	// Step 3: first lag under the threshold that is a local minimum, else
	// the global minimum over the scanned range.
	tau := -1
	for t := 1; t < tauMax-1; t++ {
		if cmnd[t] < d.threshold && cmnd[t] <= cmnd[t+1] {
			tau = t
			break
		}
	}
	if tau < 0 {
		best := 1.0
		for t := 1; t < tauMax; t++ {
			if cmnd[t] < best {
				best = cmnd[t]
				tau = t
			}
		}
		if tau < 0 {
			return Estimate{}, false
		}
	}

	confidence := 1 - cmnd[tau]
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}

	// Step 4: parabolic interpolation around the integer lag.
	refined := interpolate(cmnd, tau)

	frequency := float64(d.sampleRate) / refined
	if frequency < minValidHz || frequency > maxValidHz {
		return Estimate{}, false
	}

	return Estimate{Frequency: frequency, Confidence: confidence}, true
}

// interpolate refines an integer lag by fitting a parabola through the
// normalized difference at tau-1, tau, tau+1.
func interpolate(cmnd []float64, tau int) float64 {
	if tau <= 0 || tau >= len(cmnd)-1 {
		return float64(tau)
	}
	s0, s1, s2 := cmnd[tau-1], cmnd[tau], cmnd[tau+1]
	denom := 2*s1 - s2 - s0
	if math.Abs(denom) < 1e-12 {
		return float64(tau)
	}
	adjustment := (s2 - s0) / (2 * denom)
	if adjustment > 0.5 || adjustment < -0.5 {
		return float64(tau)
	}
	return float64(tau) + adjustment
}
