package voice

import (
	"math"

	"github.com/beatsmith/groovebox/internal/song"
)

// drumParams is the fixed timbre recipe for one drum type: a sine body with
// a falling pitch plus an LFSR noise burst, each with its own decay.
type drumParams struct {
	startFreq float64 // body start frequency in Hz
	endFreq   float64 // body settles here as the pitch envelope decays
	pitchTau  float64 // pitch decay time constant in seconds
	ampTau    float64 // amplitude decay time constant in seconds
	toneMix   float64 // 0 = all noise, 1 = all body
	noiseTau  float64 // noise burst decay in seconds
	gain      float64
	pan       float64 // -1..1 stereo placement
}

func drumParamsFor(track int) drumParams {
	switch track {
	case song.DrumKick:
		return drumParams{startFreq: 160, endFreq: 52, pitchTau: 0.03, ampTau: 0.22, toneMix: 0.97, noiseTau: 0.01, gain: 1.0, pan: 0}
	case song.DrumSnare:
		return drumParams{startFreq: 220, endFreq: 170, pitchTau: 0.02, ampTau: 0.12, toneMix: 0.35, noiseTau: 0.12, gain: 0.8, pan: 0.06}
	case song.DrumHatClosed:
		return drumParams{startFreq: 0, endFreq: 0, ampTau: 0.04, toneMix: 0, noiseTau: 0.04, gain: 0.45, pan: -0.25}
	case song.DrumHatOpen:
		return drumParams{startFreq: 0, endFreq: 0, ampTau: 0.35, toneMix: 0, noiseTau: 0.35, gain: 0.45, pan: -0.25}
	case song.DrumCrash:
		return drumParams{startFreq: 0, endFreq: 0, ampTau: 1.1, toneMix: 0, noiseTau: 1.1, gain: 0.55, pan: 0.4}
	case song.DrumRide:
		return drumParams{startFreq: 0, endFreq: 0, ampTau: 0.6, toneMix: 0, noiseTau: 0.6, gain: 0.4, pan: 0.35}
	case song.DrumTomHigh:
		return drumParams{startFreq: 300, endFreq: 210, pitchTau: 0.04, ampTau: 0.18, toneMix: 0.9, noiseTau: 0.02, gain: 0.8, pan: -0.15}
	case song.DrumTomMid:
		return drumParams{startFreq: 220, endFreq: 150, pitchTau: 0.04, ampTau: 0.2, toneMix: 0.9, noiseTau: 0.02, gain: 0.8, pan: 0}
	case song.DrumTomLow:
		return drumParams{startFreq: 150, endFreq: 95, pitchTau: 0.05, ampTau: 0.25, toneMix: 0.9, noiseTau: 0.02, gain: 0.85, pan: 0.15}
	default:
		return drumParams{startFreq: 200, endFreq: 120, pitchTau: 0.03, ampTau: 0.15, toneMix: 0.7, noiseTau: 0.05, gain: 0.7, pan: 0}
	}
}

// drumVoice is monophonic per drum type: retriggering restarts the hit,
// which is the behavior a step grid wants.
type drumVoice struct {
	params     drumParams
	sampleRate float64
	ampCoef    float64
	pitchCoef  float64
	noiseCoef  float64
	panL, panR float32

	active   bool
	velocity float64
	phase    float64
	freq     float64
	amp      float64
	noiseAmp float64
	lfsr     uint16
	noiseLP  float64
}

func (d *drumVoice) init(params drumParams, sampleRate float64) {
	d.params = params
	d.sampleRate = sampleRate
	d.ampCoef = decayCoef(params.ampTau, sampleRate)
	d.pitchCoef = decayCoef(params.pitchTau, sampleRate)
	d.noiseCoef = decayCoef(params.noiseTau, sampleRate)
	d.panL, d.panR = equalPowerPan(params.pan)
	d.lfsr = 0xACE1
}

func (d *drumVoice) trigger(velocity float64) {
	if velocity > 1 {
		velocity = 1
	}
	d.active = true
	d.velocity = velocity
	d.phase = 0
	d.freq = d.params.startFreq
	d.amp = 1
	d.noiseAmp = 1
}

func (d *drumVoice) render() (float32, float32) {
	if !d.active {
		return 0, 0
	}
	var sample float64
	if d.params.toneMix > 0 {
		sample += d.params.toneMix * math.Sin(2*math.Pi*d.phase) * d.amp
		d.phase += d.freq / d.sampleRate
		if d.phase >= 1 {
			d.phase -= 1
		}
		d.freq = d.params.endFreq + (d.freq-d.params.endFreq)*d.pitchCoef
	}
	if d.params.toneMix < 1 {
		sample += (1 - d.params.toneMix) * d.noise() * d.noiseAmp
		d.noiseAmp *= d.noiseCoef
	}
	d.amp *= d.ampCoef
	if d.amp < 1e-4 && d.noiseAmp < 1e-4 {
		d.active = false
	}
	out := float32(sample * d.velocity * d.params.gain)
	return out * d.panL, out * d.panR
}

// noise steps a 16-bit LFSR and lightly lowpasses it so cymbals are not
// pure white hiss.
func (d *drumVoice) noise() float64 {
	bit := (d.lfsr ^ (d.lfsr >> 1)) & 1
	d.lfsr = (d.lfsr >> 1) | (bit << 14)
	raw := float64(int(d.lfsr&0xFF))/127.5 - 1
	d.noiseLP += 0.45 * (raw - d.noiseLP)
	return d.noiseLP
}

func decayCoef(tau, sampleRate float64) float64 {
	if tau <= 0 {
		return 0
	}
	return math.Exp(-1.0 / (tau * sampleRate))
}
