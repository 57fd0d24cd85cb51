package combined

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

func encodeWAV(t *testing.T, samples []float32, sampleRate, channels int, asPCM16 bool) []byte {
	t.Helper()
	bytesPer := 4
	format := uint16(wavFormatFloat32)
	bits := uint16(32)
	if asPCM16 {
		bytesPer = 2
		format = wavFormatPCM
		bits = 16
	}
	dataSize := len(samples) * bytesPer
	out := make([]byte, 44+dataSize)
	copy(out[0:], "RIFF")
	binary.LittleEndian.PutUint32(out[4:], uint32(36+dataSize))
	copy(out[8:], "WAVE")
	copy(out[12:], "fmt ")
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], format)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(sampleRate*channels*bytesPer))
	binary.LittleEndian.PutUint16(out[32:], uint16(channels*bytesPer))
	binary.LittleEndian.PutUint16(out[34:], bits)
	copy(out[36:], "data")
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		if asPCM16 {
			binary.LittleEndian.PutUint16(out[44+i*2:], uint16(int16(s*32767)))
		} else {
			binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
		}
	}
	return out
}

func TestDecodeFloat32Stereo(t *testing.T) {
	src := []float32{0.5, -0.5, 0.25, -0.25}
	got, rate, err := DecodeWAV(encodeWAV(t, src, 48000, 2, false))
	if err != nil {
		t.Fatal(err)
	}
	if rate != 48000 {
		t.Fatalf("sample rate %d", rate)
	}
	if len(got) != 4 || got[0] != 0.5 || got[3] != -0.25 {
		t.Fatalf("samples %v", got)
	}
}

func TestDecodePCM16MonoDuplicates(t *testing.T) {
	got, _, err := DecodeWAV(encodeWAV(t, []float32{0.5, -0.5}, 48000, 1, true))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 4 {
		t.Fatalf("mono should widen to stereo, got %d samples", len(got))
	}
	if got[0] != got[1] || got[2] != got[3] {
		t.Fatalf("channels should match: %v", got)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, _, err := DecodeWAV([]byte("OGGSnotawav")); err == nil {
		t.Fatal("expected error for non-WAV input")
	}
	wav := encodeWAV(t, []float32{0.1, 0.2}, 48000, 2, false)
	if _, _, err := DecodeWAV(wav[:50]); err == nil {
		t.Fatal("expected error for truncated data chunk")
	}
}

func TestLoadFailureKeepsPreviousTrack(t *testing.T) {
	p := NewPlayer(48000)
	if err := p.Load(encodeWAV(t, []float32{0.3, 0.3, 0.3, 0.3}, 48000, 2, false)); err != nil {
		t.Fatal(err)
	}
	err := p.Load([]byte("broken"))
	var le *LoadError
	if !errors.As(err, &le) {
		t.Fatalf("expected LoadError, got %v", err)
	}
	if !p.Loaded() {
		t.Fatal("failed load must not eject the installed track")
	}
}

func TestPlaybackStopsAtEndOfClip(t *testing.T) {
	p := NewPlayer(48000)
	if err := p.Load(encodeWAV(t, []float32{0.4, 0.4, 0.2, 0.2}, 48000, 2, false)); err != nil {
		t.Fatal(err)
	}
	p.Play()
	l, r := p.RenderFrame()
	if l != 0.4 || r != 0.4 {
		t.Fatalf("first frame %v %v", l, r)
	}
	p.RenderFrame()
	l, _ = p.RenderFrame()
	if l != 0 {
		t.Fatal("exhausted clip should render silence")
	}
	if p.Playing() {
		t.Fatal("player should stop itself at end of clip")
	}
}

func TestStopRewinds(t *testing.T) {
	p := NewPlayer(48000)
	if err := p.Load(encodeWAV(t, []float32{0.9, 0.9, 0.1, 0.1}, 48000, 2, false)); err != nil {
		t.Fatal(err)
	}
	p.Play()
	p.RenderFrame()
	p.Stop()
	if l, _ := p.RenderFrame(); l != 0 {
		t.Fatal("stopped player must be silent")
	}
	p.Play()
	if l, _ := p.RenderFrame(); l != 0.9 {
		t.Fatalf("restart should play from the top, got %v", l)
	}
}

func TestPlayWithoutTrackIsNoOp(t *testing.T) {
	p := NewPlayer(48000)
	p.Play()
	if p.Playing() {
		t.Fatal("nothing to play")
	}
}

func TestLoadResamples(t *testing.T) {
	// One second of audio at 24 kHz should land near one second at 48 kHz.
	src := make([]float32, 24000*2)
	p := NewPlayer(48000)
	if err := p.Load(encodeWAV(t, src, 24000, 2, false)); err != nil {
		t.Fatal(err)
	}
	c := p.track.Load()
	frames := len(c.samples) / 2
	if frames < 47000 || frames > 49000 {
		t.Fatalf("resampled frame count %d", frames)
	}
}
