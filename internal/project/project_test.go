package project

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/beatsmith/groovebox/internal/song"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	p := song.SeedPattern("rock", 2)
	m := &song.Melody{Notes: []int{60, 64, 67}, Durations: []float64{0.5, 0.5, 1}, Key: "C", Scale: "major"}
	h := &song.Harmony{Chords: []string{"I", "IV", "V", "I"}, Key: "C"}
	levels := map[string]float64{"master": 0.8, "beat": 1.0, "melody": 0.6}

	doc := New("demo", 96, p, m, h, levels)
	path := filepath.Join(t.TempDir(), "demo.yaml")
	if err := doc.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "demo" || got.Tempo != 96 {
		t.Fatalf("header lost: %+v", got)
	}
	gp := got.SongPattern()
	if gp.Bars != 2 || gp.Steps() != p.Steps() {
		t.Fatalf("pattern shape lost: bars=%d steps=%d", gp.Bars, gp.Steps())
	}
	for track := 0; track < song.DrumCount; track++ {
		for step := 0; step < p.Steps(); step++ {
			if gp.Velocity(track, step) != p.Velocity(track, step) {
				t.Fatalf("velocity mismatch at track %d step %d", track, step)
			}
		}
	}
	if gm := got.SongMelody(); !reflect.DeepEqual(gm, m) {
		t.Fatalf("melody mismatch: %+v", gm)
	}
	if gh := got.SongHarmony(); !reflect.DeepEqual(gh, h) {
		t.Fatalf("harmony mismatch: %+v", gh)
	}
	if got.Levels["beat"] != 1.0 {
		t.Fatalf("levels mismatch: %v", got.Levels)
	}
}

func TestNilLayersStayNil(t *testing.T) {
	doc := New("sparse", 120, nil, nil, nil, nil)
	path := filepath.Join(t.TempDir(), "sparse.yaml")
	if err := doc.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.SongPattern() != nil || got.SongMelody() != nil || got.SongHarmony() != nil {
		t.Fatal("absent layers must load as nil")
	}
}

func TestLoadIgnoresUnknownTracks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "odd.yaml")
	data := `version: 1
name: odd
tempo: 120
pattern:
  bars: 1
  tracks:
    kick: [1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0]
    cowbell: [1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1]
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	p := got.SongPattern()
	if p.Velocity(song.DrumKick, 0) != 1 {
		t.Fatal("known track dropped")
	}
	for track := 0; track < song.DrumCount; track++ {
		if track != song.DrumKick && p.Velocity(track, 0) != 0 {
			t.Fatal("unknown track leaked into the pattern")
		}
	}
}

func TestNewDropsTracksPastTheKit(t *testing.T) {
	p := song.NewPattern(song.DrumCount+1, 1)
	p.SetStep(song.DrumKick, 0, 1)
	p.SetStep(song.DrumCount, 0, 1)

	doc := New("wide", 120, p, nil, nil, nil)
	if len(doc.Pattern.Tracks) != song.DrumCount {
		t.Fatalf("expected %d named tracks, got %d", song.DrumCount, len(doc.Pattern.Tracks))
	}
	if doc.Pattern.Tracks[song.DrumNames[song.DrumKick]][0] != 1 {
		t.Fatal("known track dropped")
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "future.yaml")
	if err := os.WriteFile(path, []byte("version: 99\nname: x\ntempo: 120\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("future versions must be rejected")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
