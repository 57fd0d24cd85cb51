// Package projector maps pattern, melody and harmony data to drawable
// primitives. Pure functions: no side effects, identical inputs always
// produce identical output. The renderer that consumes the rectangles lives
// outside this module.
package projector

import (
	"fmt"

	"github.com/beatsmith/groovebox/internal/song"
)

// Rect is one drawable primitive: position, size and fill color.
type Rect struct {
	X, Y, W, H float64
	Color      string
}

// Palette for grid cells. Velocity shades run dark to bright.
const (
	colorEmpty     = "#2b2b33"
	colorActiveCol = "#3d3d4d"
	colorHit       = "#4CAF50"
	colorHitActive = "#a5ffb0"
	colorNote      = "#2196F3"
	colorNoteLive  = "#90caf9"
	colorWave      = "#607D8B"
)

// StepGrid lays out a drum pattern as one cell per (track, step).
// activeStep highlights the playing column; pass -1 when stopped.
func StepGrid(p *song.Pattern, activeStep int, cellW, cellH, gap float64) []Rect {
	rects := make([]Rect, 0, len(p.Tracks)*p.Steps())
	for track := range p.Tracks {
		for step := 0; step < p.Steps(); step++ {
			c := colorEmpty
			hit := p.Velocity(track, step) > 0
			switch {
			case hit && step == activeStep:
				c = colorHitActive
			case hit:
				c = colorHit
			case step == activeStep:
				c = colorActiveCol
			}
			rects = append(rects, Rect{
				X:     float64(step) * (cellW + gap),
				Y:     float64(track) * (cellH + gap),
				W:     cellW,
				H:     cellH,
				Color: c,
			})
		}
	}
	return rects
}

// PianoRoll lays out a melody with time on X and pitch on Y (higher pitches
// up). activeBeat marks notes sounding at that transport position; pass a
// negative value when stopped.
func PianoRoll(m *song.Melody, activeBeat float64, pxPerBeat, rowH float64) []Rect {
	events := m.Events()
	if len(events) == 0 {
		return nil
	}
	lo, hi := events[0].Pitch, events[0].Pitch
	for _, ev := range events {
		if ev.Pitch < lo {
			lo = ev.Pitch
		}
		if ev.Pitch > hi {
			hi = ev.Pitch
		}
	}
	rects := make([]Rect, 0, len(events))
	for _, ev := range events {
		c := colorNote
		if activeBeat >= ev.StartOffset && activeBeat < ev.StartOffset+ev.Duration {
			c = colorNoteLive
		}
		rects = append(rects, Rect{
			X:     ev.StartOffset * pxPerBeat,
			Y:     float64(hi-ev.Pitch) * rowH,
			W:     ev.Duration * pxPerBeat,
			H:     rowH,
			Color: c,
		})
	}
	return rects
}

// ChordLane lays out a progression as one block per bar, colored by degree.
// activeBar highlights the sounding chord; pass -1 when stopped.
func ChordLane(h *song.Harmony, activeBar int, barW, laneH float64) []Rect {
	rects := make([]Rect, 0, len(h.Chords))
	for i, sym := range h.Chords {
		c := song.ChordColor(sym)
		if i == activeBar {
			c = lighten(c)
		}
		rects = append(rects, Rect{
			X:     float64(i) * barW,
			Y:     0,
			W:     barW,
			H:     laneH,
			Color: c,
		})
	}
	return rects
}

// Waveform buckets a sample buffer into width columns of peak amplitude,
// drawn as vertical bars centered on the midline.
func Waveform(samples []float32, width int, height float64) []Rect {
	if width <= 0 || len(samples) == 0 {
		return nil
	}
	rects := make([]Rect, 0, width)
	per := len(samples) / width
	if per < 1 {
		per = 1
	}
	mid := height / 2
	for col := 0; col < width; col++ {
		start := col * per
		if start >= len(samples) {
			break
		}
		end := start + per
		if end > len(samples) {
			end = len(samples)
		}
		var peak float32
		for _, s := range samples[start:end] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
		h := float64(peak) * height
		if h < 1 {
			h = 1
		}
		rects = append(rects, Rect{
			X:     float64(col),
			Y:     mid - h/2,
			W:     1,
			H:     h,
			Color: colorWave,
		})
	}
	return rects
}

// lighten nudges a #rrggbb color toward white for the active highlight.
func lighten(hex string) string {
	var r, g, b int
	if _, err := fmt.Sscanf(hex, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return hex
	}
	f := func(v int) int { return v + (255-v)/2 }
	return fmt.Sprintf("#%02x%02x%02x", f(r), f(g), f(b))
}
