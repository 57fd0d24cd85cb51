package song

// Genre seed grids, one bar each, repeated across the requested bar count.
// These mirror the generation backend's built-in templates and back the demo
// content when no backend is reachable.
var genreSeeds = map[string]map[int][]float64{
	"hip-hop": {
		DrumKick:      {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		DrumSnare:     {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		DrumHatClosed: {1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0, 1, 0},
	},
	"rock": {
		DrumKick:      {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		DrumSnare:     {0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
		DrumHatClosed: {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
	},
	"jazz": {
		DrumKick:  {1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 0},
		DrumSnare: {0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0, 0, 1, 0},
		DrumRide:  {1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 1, 0, 1, 0},
	},
	"electronic": {
		DrumKick:      {1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0},
		DrumSnare:     {0, 0, 0, 0, 1, 0, 0, 0, 0, 0, 0, 0, 1, 0, 0, 0},
		DrumHatClosed: {0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0, 0, 0, 1, 0},
	},
}

// SeedPattern builds a full pattern for a genre. Unknown genres get the
// hip-hop seed.
func SeedPattern(genre string, bars int) *Pattern {
	seed, ok := genreSeeds[genre]
	if !ok {
		seed = genreSeeds["hip-hop"]
	}
	p := NewPattern(DrumCount, bars)
	for track, row := range seed {
		for bar := 0; bar < p.Bars; bar++ {
			for step, v := range row {
				p.SetStep(track, bar*StepsPerBar+step, v)
			}
		}
	}
	return p
}

// SeedMelody is the backend's fallback melody: a stepwise C-major phrase in
// eighth notes, repeated per bar.
func SeedMelody(bars int) *Melody {
	if bars <= 0 {
		bars = 1
	}
	phrase := []int{60, 62, 64, 65, 67, 65, 64, 62}
	m := &Melody{Key: "C", Scale: "major"}
	for i := 0; i < bars; i++ {
		m.Notes = append(m.Notes, phrase...)
		for range phrase {
			m.Durations = append(m.Durations, 0.5)
		}
	}
	return m
}

// SeedHarmony is the four-chord pop progression, tiled to the bar count.
func SeedHarmony(bars int) *Harmony {
	if bars <= 0 {
		bars = 4
	}
	base := []string{"I", "V", "vi", "IV"}
	h := &Harmony{Key: "C"}
	for len(h.Chords) < bars {
		h.Chords = append(h.Chords, base...)
	}
	h.Chords = h.Chords[:bars]
	return h
}
