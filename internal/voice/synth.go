package voice

import (
	"math"

	"github.com/beatsmith/groovebox/internal/lfo"
)

type envState int

const (
	envAttack envState = iota
	envDecay
	envSustain
	envRelease
	envOff
)

// synthParams shapes a polyphonic pitched voice: a two-operator FM pair with
// an ADSR amplitude envelope.
type synthParams struct {
	attackSec  float64
	decaySec   float64
	sustainLvl float64
	releaseSec float64
	modRatio   float64 // modulator/carrier frequency ratio
	modIndex   float64 // FM brightness
	gain       float64
	pan        float64
}

func melodicParams() synthParams {
	return synthParams{
		attackSec:  0.008,
		decaySec:   0.10,
		sustainLvl: 0.7,
		releaseSec: 0.18,
		modRatio:   2.0,
		modIndex:   1.4,
		gain:       0.5,
		pan:        -0.1,
	}
}

func chordalParams() synthParams {
	return synthParams{
		attackSec:  0.02,
		decaySec:   0.25,
		sustainLvl: 0.55,
		releaseSec: 0.35,
		modRatio:   1.0,
		modIndex:   0.6,
		gain:       0.3,
		pan:        0.1,
	}
}

type synthVoice struct {
	active    bool
	age       int
	freq      float64
	phase     float64
	modPhase  float64
	env       float64
	state     envState
	velocity  float64
	remaining int // gate frames until release begins
}

// polySynth keeps a fixed slot array; triggering steals the oldest voice
// when the pool is full, so the hot path never allocates.
type polySynth struct {
	params     synthParams
	sampleRate float64
	voices     []synthVoice
	ageCounter int
	panL, panR float32
	vibrato    lfo.Oscillator
}

func (ps *polySynth) init(params synthParams, sampleRate float64, polyphony int) {
	ps.params = params
	ps.sampleRate = sampleRate
	ps.voices = make([]synthVoice, polyphony)
	ps.panL, ps.panR = equalPowerPan(params.pan)
}

func (ps *polySynth) trigger(pitch int, velocity float64, durationFrames int) {
	if velocity <= 0 {
		return
	}
	if velocity > 1 {
		velocity = 1
	}
	slot := -1
	oldest := 0
	for i := range ps.voices {
		if !ps.voices[i].active {
			slot = i
			break
		}
		if ps.voices[i].age < ps.voices[oldest].age {
			oldest = i
		}
	}
	if slot < 0 {
		slot = oldest
	}
	ps.ageCounter++
	if durationFrames < 1 {
		durationFrames = 1
	}
	ps.voices[slot] = synthVoice{
		active:    true,
		age:       ps.ageCounter,
		freq:      midiToFreq(pitch),
		env:       0,
		state:     envAttack,
		velocity:  velocity,
		remaining: durationFrames,
	}
}

func (ps *polySynth) render() (float32, float32) {
	var sum float64
	vib := 0.0
	if ps.vibrato.Active() {
		vib = ps.vibrato.Sample(ps.sampleRate)
	}
	for i := range ps.voices {
		v := &ps.voices[i]
		if !v.active {
			continue
		}
		ps.stepEnvelope(v)
		if !v.active {
			continue
		}
		freq := v.freq
		if vib != 0 {
			freq *= math.Pow(2, vib/12)
		}
		mod := math.Sin(2*math.Pi*v.modPhase) * ps.params.modIndex * v.env
		sum += math.Sin(2*math.Pi*v.phase+mod) * v.env * v.velocity
		v.phase += freq / ps.sampleRate
		if v.phase >= 1 {
			v.phase -= 1
		}
		v.modPhase += freq * ps.params.modRatio / ps.sampleRate
		if v.modPhase >= 1 {
			v.modPhase -= 1
		}
		if v.remaining > 0 {
			v.remaining--
			if v.remaining == 0 && v.state != envRelease {
				v.state = envRelease
			}
		}
	}
	out := float32(sum * ps.params.gain)
	return out * ps.panL, out * ps.panR
}

func (ps *polySynth) stepEnvelope(v *synthVoice) {
	switch v.state {
	case envAttack:
		v.env += 1.0 / (ps.params.attackSec * ps.sampleRate)
		if v.env >= 1 {
			v.env = 1
			v.state = envDecay
		}
	case envDecay:
		v.env -= (1 - ps.params.sustainLvl) / (ps.params.decaySec * ps.sampleRate)
		if v.env <= ps.params.sustainLvl {
			v.env = ps.params.sustainLvl
			v.state = envSustain
		}
	case envSustain:
		// Held until the gate closes.
	case envRelease:
		v.env -= ps.params.sustainLvl / (ps.params.releaseSec * ps.sampleRate)
		if v.env <= 1e-4 {
			v.env = 0
			v.state = envOff
			v.active = false
		}
	}
}

func (ps *polySynth) activeCount() int {
	n := 0
	for i := range ps.voices {
		if ps.voices[i].active {
			n++
		}
	}
	return n
}

func (ps *polySynth) silence() {
	for i := range ps.voices {
		ps.voices[i].active = false
		ps.voices[i].env = 0
		ps.voices[i].state = envOff
	}
}
