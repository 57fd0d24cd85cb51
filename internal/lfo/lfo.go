package lfo

import "math"

// Waveforms for the vibrato oscillator.
const (
	WaveSine = iota
	WaveTriangle
)

// Oscillator is a low-frequency oscillator shared by all voices of an
// instrument. The melodic voice uses it for pitch vibrato; depth is in
// semitones.
type Oscillator struct {
	depth    float64
	rateHz   float64
	waveform int
	phase    float64 // [0, 1)
}

func (o *Oscillator) Set(depth, rateHz float64, waveform int) {
	o.depth = depth
	o.rateHz = rateHz
	if waveform != WaveSine && waveform != WaveTriangle {
		waveform = WaveSine
	}
	o.waveform = waveform
}

// Sample advances one frame and returns a value in [-depth, +depth].
func (o *Oscillator) Sample(sampleRate float64) float64 {
	if o.depth == 0 || o.rateHz == 0 || sampleRate == 0 {
		return 0
	}
	var v float64
	switch o.waveform {
	case WaveTriangle:
		if o.phase < 0.5 {
			v = 4.0*o.phase - 1.0
		} else {
			v = 3.0 - 4.0*o.phase
		}
	default:
		v = math.Sin(2 * math.Pi * o.phase)
	}
	o.phase += o.rateHz / sampleRate
	for o.phase >= 1.0 {
		o.phase -= 1.0
	}
	return v * o.depth
}

func (o *Oscillator) Active() bool {
	return o.depth != 0 && o.rateHz != 0
}

func (o *Oscillator) Reset() {
	o.phase = 0
}
