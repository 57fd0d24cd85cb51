// Package voice owns the synthesis instances triggered by the schedulers:
// one fixed-timbre percussive voice per drum type, a polyphonic melodic
// voice and a polyphonic chordal voice. Triggers are allocation-free and are
// only ever called from the render goroutine (inside a scheduler callback),
// so voice state needs no locking; disposal and silencing are atomic flags
// because they legitimately race the render loop from other goroutines.
package voice

import (
	"math"
	"sync/atomic"

	"github.com/beatsmith/groovebox/internal/song"
)

type Pool struct {
	sampleRate float64
	disposed   atomic.Bool
	silenceReq atomic.Bool
	drums      [song.DrumCount]drumVoice
	melodic    polySynth
	chordal    polySynth
}

func NewPool(sampleRate int) *Pool {
	p := &Pool{sampleRate: float64(sampleRate)}
	for i := range p.drums {
		p.drums[i].init(drumParamsFor(i), float64(sampleRate))
	}
	p.melodic.init(melodicParams(), float64(sampleRate), 8)
	p.melodic.vibrato.Set(0.08, 5.5, 0)
	p.chordal.init(chordalParams(), float64(sampleRate), 12)
	return p
}

// TriggerDrum fires the percussive voice for a grid track at the given
// velocity. A no-op for unknown tracks, zero velocity, or a disposed pool.
func (p *Pool) TriggerDrum(track int, velocity float64) {
	if p.disposed.Load() {
		return
	}
	if track < 0 || track >= len(p.drums) || velocity <= 0 {
		return
	}
	p.drums[track].trigger(velocity)
}

// TriggerNote fires the melodic voice. durationFrames is the gate length;
// the release tail runs past it.
func (p *Pool) TriggerNote(pitch int, velocity float64, durationFrames int) {
	if p.disposed.Load() {
		return
	}
	p.melodic.trigger(pitch, velocity, durationFrames)
}

// TriggerChord fires one chordal voice per pitch. The slice is owned by the
// caller and only read during this call, so schedulers can precompute
// voicings once and reuse them on the hot path.
func (p *Pool) TriggerChord(pitches []int, velocity float64, durationFrames int) {
	if p.disposed.Load() {
		return
	}
	for _, pitch := range pitches {
		p.chordal.trigger(pitch, velocity, durationFrames)
	}
}

// RenderFrame mixes one stereo frame from all sounding voices. The beat,
// melody and harmony sub-mixes are returned separately so the session can
// route each through its own gain stage.
func (p *Pool) RenderFrame() (beatL, beatR, melL, melR, harmL, harmR float32) {
	if p.disposed.Load() {
		return
	}
	if p.silenceReq.Swap(false) {
		p.cutAll()
	}
	for i := range p.drums {
		l, r := p.drums[i].render()
		beatL += l
		beatR += r
	}
	melL, melR = p.melodic.render()
	harmL, harmR = p.chordal.render()
	return
}

// ActiveVoices reports how many voices are still sounding, release tails
// included.
func (p *Pool) ActiveVoices() int {
	if p.disposed.Load() {
		return 0
	}
	n := 0
	for i := range p.drums {
		if p.drums[i].active {
			n++
		}
	}
	return n + p.melodic.activeCount() + p.chordal.activeCount()
}

// Silence requests that every sounding voice be cut, tails included. Safe
// from any goroutine: the request is a flag the render goroutine consumes at
// the top of the next frame, so voice state is still only ever touched from
// the render path. Used on transport stop so played state resets without
// waiting for tails.
func (p *Pool) Silence() {
	p.silenceReq.Store(true)
}

// cutAll deactivates every voice. Render goroutine only.
func (p *Pool) cutAll() {
	for i := range p.drums {
		p.drums[i].active = false
	}
	p.melodic.silence()
	p.chordal.silence()
}

// Dispose makes every subsequent trigger a safe no-op. Scheduled callbacks
// can fire after async teardown begins; they must never panic.
func (p *Pool) Dispose() {
	p.disposed.Store(true)
}

func (p *Pool) Disposed() bool {
	return p.disposed.Load()
}

func midiToFreq(note int) float64 {
	return 440.0 * math.Pow(2, float64(note-69)/12.0)
}

// equalPowerPan maps pan in [-1,1] to left/right gains.
func equalPowerPan(pan float64) (float32, float32) {
	angle := (pan + 1) * math.Pi / 4
	return float32(math.Cos(angle)), float32(math.Sin(angle))
}
