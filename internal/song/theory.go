package song

import "strings"

var noteToMIDI = map[string]int{
	"C": 60, "C#": 61, "D": 62, "D#": 63,
	"E": 64, "F": 65, "F#": 66, "G": 67,
	"G#": 68, "A": 69, "A#": 70, "B": 71,
}

// KeyRoot maps a key name to its MIDI root around middle C. Unknown keys
// fall back to C, matching the backend's behavior.
func KeyRoot(key string) int {
	if v, ok := noteToMIDI[strings.TrimSpace(key)]; ok {
		return v
	}
	return 60
}

// ScaleIntervals lists semitone offsets from the root for each supported mode.
var ScaleIntervals = map[string][]int{
	"major":      {0, 2, 4, 5, 7, 9, 11},
	"minor":      {0, 2, 3, 5, 7, 8, 10},
	"dorian":     {0, 2, 3, 5, 7, 9, 10},
	"phrygian":   {0, 1, 3, 5, 7, 8, 10},
	"lydian":     {0, 2, 4, 6, 7, 9, 11},
	"mixolydian": {0, 2, 4, 5, 7, 9, 10},
	"aeolian":    {0, 2, 3, 5, 7, 8, 10},
	"locrian":    {0, 1, 3, 5, 6, 8, 10},
}

// chordIntervals maps roman-numeral degrees to semitone offsets from the key
// root. Seventh-chord suffixes are stripped before lookup; the triad carries
// the voicing.
var chordIntervals = map[string][]int{
	"I":    {0, 4, 7},
	"i":    {0, 3, 7},
	"ii":   {2, 5, 9},
	"iii":  {4, 7, 11},
	"III":  {4, 8, 11},
	"bIII": {3, 7, 10},
	"IV":   {5, 9, 12},
	"iv":   {5, 8, 12},
	"V":    {7, 11, 14},
	"v":    {7, 10, 14},
	"vi":   {9, 12, 16},
	"bVI":  {8, 12, 15},
	"vii°": {11, 14, 17},
	"VII":  {10, 14, 17},
	"bVII": {10, 14, 17},
}

// normalizeChord strips quality suffixes (Maj7, 7, °) so colored and seventh
// variants resolve to their base degree.
func normalizeChord(symbol string) string {
	s := strings.TrimSpace(symbol)
	s = strings.ReplaceAll(s, "Maj7", "")
	s = strings.TrimSuffix(s, "7")
	if s != "vii°" {
		s = strings.TrimSuffix(s, "°")
	}
	return s
}

// ChordPitches resolves a roman-numeral symbol to MIDI pitches in the given
// key. Unknown symbols default to the tonic major triad.
func ChordPitches(symbol string, key string) []int {
	root := KeyRoot(key)
	intervals, ok := chordIntervals[normalizeChord(symbol)]
	if !ok {
		intervals = chordIntervals["I"]
	}
	pitches := make([]int, len(intervals))
	for i, iv := range intervals {
		pitches[i] = root + iv
	}
	return pitches
}

// ChordColor returns the display color for a chord degree. Used by the
// projector for the chord lane.
func ChordColor(symbol string) string {
	colors := map[string]string{
		"I":    "#4CAF50",
		"i":    "#4CAF50",
		"ii":   "#2196F3",
		"iii":  "#9C27B0",
		"IV":   "#FF9800",
		"iv":   "#FF9800",
		"V":    "#F44336",
		"v":    "#F44336",
		"vi":   "#795548",
		"vii°": "#607D8B",
	}
	if c, ok := colors[normalizeChord(symbol)]; ok {
		return c
	}
	return "#888888"
}
