package midifile

import (
	"math"
	"path/filepath"
	"testing"

	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/beatsmith/groovebox/internal/song"
)

func TestWriteFileRoundTrip(t *testing.T) {
	m := &song.Melody{Notes: []int{60, 62, 64}, Durations: []float64{0.5, 0.5, 1}, Key: "C"}
	h := &song.Harmony{Chords: []string{"I", "V"}, Key: "C"}
	path := filepath.Join(t.TempDir(), "session.mid")

	if err := WriteFile(path, m, h, 96); err != nil {
		t.Fatal(err)
	}
	rd, err := smf.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// Tempo track plus one each for melody and harmony.
	if n := len(rd.Tracks); n != 3 {
		t.Fatalf("expected 3 tracks, got %d", n)
	}
	tempos := rd.TempoChanges()
	if len(tempos) == 0 || math.Abs(tempos[0].BPM-96) > 0.01 {
		t.Fatalf("tempo not recorded: %+v", tempos)
	}
}

func TestBuildSkipsAbsentLayers(t *testing.T) {
	m := &song.Melody{Notes: []int{60}, Durations: []float64{1}}
	sm, err := Build(m, nil, 120)
	if err != nil {
		t.Fatal(err)
	}
	if n := sm.NumTracks(); n != 2 {
		t.Fatalf("expected tempo + melody, got %d tracks", n)
	}
}

func TestBuildRejectsEmptyExport(t *testing.T) {
	if _, err := Build(nil, nil, 120); err == nil {
		t.Fatal("empty export must fail")
	}
}

func TestBeatsToTicks(t *testing.T) {
	if got := beatsToTicks(1); got != 960 {
		t.Fatalf("one beat should be %d ticks, got %d", 960, got)
	}
	if got := beatsToTicks(0.25); got != 240 {
		t.Fatalf("a sixteenth should be 240 ticks, got %d", got)
	}
	if got := beatsToTicks(-1); got != 0 {
		t.Fatalf("negative durations clamp to zero, got %d", got)
	}
}
