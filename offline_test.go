package groovebox

import (
	"testing"

	intcombined "github.com/beatsmith/groovebox/internal/combined"
	intsong "github.com/beatsmith/groovebox/internal/song"
)

func TestRenderPatternOneLoop(t *testing.T) {
	p := intsong.SeedPattern("electronic", 1)
	samples, err := RenderPattern(p, 120, 48000)
	if err != nil {
		t.Fatal(err)
	}
	// 16 sixteenths at 120 bpm is exactly 2 seconds.
	if want := 48000 * 2 * 2; len(samples) != want {
		t.Fatalf("expected %d samples, got %d", want, len(samples))
	}
	if energy(samples) == 0 {
		t.Fatal("rendered loop is silent")
	}
}

func TestRenderPatternEmptyInput(t *testing.T) {
	samples, err := RenderPattern(nil, 120, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if samples != nil {
		t.Fatal("nil pattern should render nothing")
	}
}

func TestRenderSongAllLayers(t *testing.T) {
	p := intsong.SeedPattern("hip-hop", 1)
	m := intsong.SeedMelody(1)
	h := intsong.SeedHarmony(1)
	samples, err := RenderSong(p, m, h, 100, 2, 48000)
	if err != nil {
		t.Fatal(err)
	}
	if energy(samples) == 0 {
		t.Fatal("full arrangement rendered silence")
	}
	for _, v := range samples {
		if v > 1.05 || v < -1.05 {
			t.Fatalf("limiter let %v through", v)
		}
	}
}

func TestEncodeWAVRoundTrip(t *testing.T) {
	src := []float32{0.5, -0.5, 0.25, -0.25}
	wav := EncodeWAVFloat32LE(src, 48000, 2)
	if string(wav[0:4]) != "RIFF" || string(wav[8:12]) != "WAVE" {
		t.Fatal("bad container header")
	}
	got, rate, err := intcombined.DecodeWAV(wav)
	if err != nil {
		t.Fatal(err)
	}
	if rate != 48000 {
		t.Fatalf("rate %d", rate)
	}
	if len(got) != len(src) {
		t.Fatalf("length %d", len(got))
	}
	for i := range src {
		if got[i] != src[i] {
			t.Fatalf("sample %d: %v != %v", i, got[i], src[i])
		}
	}
}
