// Package sched converts pattern, melody and harmony data into transport
// event streams that trigger voices. A scheduler is immutable once built:
// any edit to the underlying data tears the scheduler down (dispose the
// binding) and constructs a fresh one, so no callback can ever reference
// discarded state.
package sched

import (
	"github.com/beatsmith/groovebox/internal/song"
)

// TriggerSink is the slice of the voice pool that schedulers drive. Tests
// substitute a counting fake.
type TriggerSink interface {
	TriggerDrum(track int, velocity float64)
	TriggerNote(pitch int, velocity float64, durationFrames int)
	TriggerChord(pitches []int, velocity float64, durationFrames int)
}

const (
	noteVelocity  = 0.85
	chordVelocity = 0.75
)

// beatsToFrames converts a musical length to sample frames at the tempo in
// effect when the event fires.
func beatsToFrames(beats, bpm float64, sampleRate int) int {
	if bpm <= 0 {
		return 0
	}
	frames := int(60.0 / bpm * beats * float64(sampleRate))
	if frames < 1 {
		frames = 1
	}
	return frames
}

// Grid walks a drum pattern one sixteenth at a time and loops indefinitely
// until its binding is disposed.
type Grid struct {
	pattern    *song.Pattern
	sink       TriggerSink
	onStep     func(step int)
	step       int
	trackCount int
}

// NewGrid snapshots the pattern so later edits to the editable copy cannot
// race the render loop.
func NewGrid(p *song.Pattern, sink TriggerSink, onStep func(int)) *Grid {
	return &Grid{
		pattern:    p.Clone(),
		sink:       sink,
		onStep:     onStep,
		trackCount: len(p.Tracks),
	}
}

func (g *Grid) Reset() { g.step = 0 }

func (g *Grid) HeadOffset() float64 { return 0 }

func (g *Grid) Fire(beat, bpm float64) (float64, bool) {
	step := g.step
	for track := 0; track < g.trackCount; track++ {
		if v := g.pattern.Velocity(track, step); v > 0 {
			g.sink.TriggerDrum(track, v)
		}
	}
	if g.onStep != nil {
		g.onStep(step)
	}
	g.step = step + 1
	if g.step >= g.pattern.Steps() {
		g.step = 0
	}
	return song.StepBeats, true
}

// MelodyLoop plays a note sequence and loops over its total computed
// duration. Note offsets are recomputed wholesale at construction; nothing
// is patched afterwards.
type MelodyLoop struct {
	events []song.NoteEvent
	total  float64
	sink   TriggerSink
	rate   int
	idx    int
}

func NewMelodyLoop(m *song.Melody, sink TriggerSink, sampleRate int) *MelodyLoop {
	return &MelodyLoop{
		events: m.Events(),
		total:  m.TotalBeats(),
		sink:   sink,
		rate:   sampleRate,
	}
}

func (ml *MelodyLoop) Reset() { ml.idx = 0 }

func (ml *MelodyLoop) HeadOffset() float64 {
	if len(ml.events) == 0 {
		return 0
	}
	return ml.events[0].StartOffset
}

func (ml *MelodyLoop) Fire(beat, bpm float64) (float64, bool) {
	if len(ml.events) == 0 {
		return 0, false
	}
	ev := ml.events[ml.idx]
	ml.sink.TriggerNote(ev.Pitch, noteVelocity, beatsToFrames(ev.Duration, bpm, ml.rate))
	if ml.idx+1 < len(ml.events) {
		next := ml.events[ml.idx+1].StartOffset - ev.StartOffset
		ml.idx++
		return next, true
	}
	// Wrap: remaining time of the last note, then the head offset again.
	wrap := ml.total - ev.StartOffset + ml.events[0].StartOffset
	ml.idx = 0
	return wrap, true
}

// HarmonyLoop plays a chord progression, one chord per bar, looping over the
// progression length. Voicings are resolved once at construction so the fire
// path stays allocation-free.
type HarmonyLoop struct {
	voicings [][]int
	beats    []float64 // per-chord duration in beats
	total    float64
	sink     TriggerSink
	rate     int
	idx      int
}

func NewHarmonyLoop(h *song.Harmony, sink TriggerSink, sampleRate int) *HarmonyLoop {
	events := h.Events()
	hl := &HarmonyLoop{
		voicings: make([][]int, len(events)),
		beats:    make([]float64, len(events)),
		total:    h.TotalBeats(),
		sink:     sink,
		rate:     sampleRate,
	}
	for i, ev := range events {
		hl.voicings[i] = song.ChordPitches(ev.Symbol, h.Key)
		hl.beats[i] = ev.Duration * song.BeatsPerBar
	}
	return hl
}

func (hl *HarmonyLoop) Reset() { hl.idx = 0 }

func (hl *HarmonyLoop) HeadOffset() float64 { return 0 }

func (hl *HarmonyLoop) Fire(beat, bpm float64) (float64, bool) {
	if len(hl.voicings) == 0 {
		return 0, false
	}
	dur := hl.beats[hl.idx]
	hl.sink.TriggerChord(hl.voicings[hl.idx], chordVelocity, beatsToFrames(dur, bpm, hl.rate))
	hl.idx++
	if hl.idx >= len(hl.voicings) {
		hl.idx = 0
	}
	return dur, true
}
