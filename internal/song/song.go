package song

// Fixed sixteenth-note grid: 16 steps per bar, 4 beats per bar.
const (
	StepsPerBar = 16
	BeatsPerBar = 4.0
	StepBeats   = BeatsPerBar / StepsPerBar
)

// Drum track indices. The grid row order matches the generation backend's
// drum mapping, so track 0 of a received pattern is always the kick.
const (
	DrumKick = iota
	DrumSnare
	DrumHatClosed
	DrumHatOpen
	DrumCrash
	DrumRide
	DrumTomHigh
	DrumTomMid
	DrumTomLow
	DrumCount
)

var DrumNames = [DrumCount]string{
	"kick", "snare", "hihat_closed", "hihat_open", "crash",
	"ride", "tom_high", "tom_mid", "tom_low",
}

// DrumIndex resolves a track name back to its index, or -1 if unknown.
func DrumIndex(name string) int {
	for i, n := range DrumNames {
		if n == name {
			return i
		}
	}
	return -1
}

// Pattern is a drum step grid: one row of per-step velocities per track.
// All rows have length StepsPerBar*Bars; velocities are in [0,1].
type Pattern struct {
	Tracks [][]float64
	Bars   int
}

func NewPattern(tracks, bars int) *Pattern {
	if tracks <= 0 {
		tracks = DrumCount
	}
	if bars <= 0 {
		bars = 1
	}
	p := &Pattern{Bars: bars}
	p.Tracks = make([][]float64, tracks)
	for i := range p.Tracks {
		p.Tracks[i] = make([]float64, StepsPerBar*bars)
	}
	return p
}

func (p *Pattern) Steps() int {
	return StepsPerBar * p.Bars
}

// Velocity returns the velocity at (track, step), or 0 when either index is
// out of range. Schedulers rely on this so a short row never panics mid-loop.
func (p *Pattern) Velocity(track, step int) float64 {
	if track < 0 || track >= len(p.Tracks) {
		return 0
	}
	row := p.Tracks[track]
	if step < 0 || step >= len(row) {
		return 0
	}
	return row[step]
}

// SetStep writes a velocity, clamped to [0,1]. Out-of-range indices are ignored.
func (p *Pattern) SetStep(track, step int, velocity float64) {
	if track < 0 || track >= len(p.Tracks) {
		return
	}
	row := p.Tracks[track]
	if step < 0 || step >= len(row) {
		return
	}
	if velocity < 0 {
		velocity = 0
	}
	if velocity > 1 {
		velocity = 1
	}
	row[step] = velocity
}

// Toggle flips a cell between silent and full velocity.
func (p *Pattern) Toggle(track, step int) {
	if p.Velocity(track, step) > 0 {
		p.SetStep(track, step, 0)
	} else {
		p.SetStep(track, step, 1)
	}
}

func (p *Pattern) Clear() {
	for _, row := range p.Tracks {
		for i := range row {
			row[i] = 0
		}
	}
}

// Clone returns a deep copy. Schedulers hold a clone so concurrent edits to
// the editable pattern can never race the render loop.
func (p *Pattern) Clone() *Pattern {
	out := &Pattern{Bars: p.Bars}
	out.Tracks = make([][]float64, len(p.Tracks))
	for i, row := range p.Tracks {
		out.Tracks[i] = append([]float64(nil), row...)
	}
	return out
}

// NoteEvent is one melodic note placed on the timeline. StartOffset is the
// prefix sum of all preceding durations and is only ever produced wholesale
// by Melody.Events; it is never patched in place.
type NoteEvent struct {
	Pitch       int     // MIDI note number
	Duration    float64 // beats
	StartOffset float64 // beats from melody start
}

// Melody is the backend's parallel-array melody form: Notes[i] sounds for
// Durations[i] beats. The two slices are the source of truth; offsets are
// derived.
type Melody struct {
	Notes     []int
	Durations []float64
	Key       string
	Scale     string
}

// Events computes the note event list with fresh start offsets. Any edit to
// Notes/Durations invalidates previously returned events; callers rebuild.
func (m *Melody) Events() []NoteEvent {
	n := len(m.Notes)
	if len(m.Durations) < n {
		n = len(m.Durations)
	}
	events := make([]NoteEvent, n)
	offset := 0.0
	for i := 0; i < n; i++ {
		events[i] = NoteEvent{
			Pitch:       m.Notes[i],
			Duration:    m.Durations[i],
			StartOffset: offset,
		}
		offset += m.Durations[i]
	}
	return events
}

// TotalBeats is the full musical length of the melody, i.e. its loop period
// in beats.
func (m *Melody) TotalBeats() float64 {
	total := 0.0
	n := len(m.Notes)
	if len(m.Durations) < n {
		n = len(m.Durations)
	}
	for _, d := range m.Durations[:n] {
		total += d
	}
	return total
}

// ChordEvent is one chord in a progression. Duration is in bars.
type ChordEvent struct {
	Symbol   string
	Duration float64
}

// Harmony is a roman-numeral chord progression, one chord per bar.
type Harmony struct {
	Chords []string
	Key    string
}

func (h *Harmony) Events() []ChordEvent {
	events := make([]ChordEvent, len(h.Chords))
	for i, sym := range h.Chords {
		events[i] = ChordEvent{Symbol: sym, Duration: 1}
	}
	return events
}

// TotalBeats is the loop period of the progression in beats.
func (h *Harmony) TotalBeats() float64 {
	return float64(len(h.Chords)) * BeatsPerBar
}
