package groovebox

import (
	"encoding/binary"
	"math"

	intsong "github.com/beatsmith/groovebox/internal/song"
)

// RenderSong renders a session's worth of material to interleaved stereo
// float32 samples without touching the audio device. Any layer may be nil.
func RenderSong(p *intsong.Pattern, m *intsong.Melody, h *intsong.Harmony, bpm float64, seconds float64, sampleRate int) ([]float32, error) {
	s, err := NewSession(sampleRate)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	s.SetTempo(bpm)
	s.SetPattern(p)
	s.SetMelody(m)
	s.SetHarmony(h)
	s.startTransport()

	frames := int(float64(sampleRate) * seconds)
	out := make([]float32, frames*2)
	// Render in device-sized chunks so the offline path exercises the same
	// per-buffer behavior as live playback.
	const chunkFrames = 512
	for off := 0; off < len(out); off += chunkFrames * 2 {
		end := off + chunkFrames*2
		if end > len(out) {
			end = len(out)
		}
		s.Process(out[off:end])
	}
	return out, nil
}

// RenderPattern renders one full loop of a drum pattern.
func RenderPattern(p *intsong.Pattern, bpm float64, sampleRate int) ([]float32, error) {
	if p == nil || p.Steps() == 0 {
		return nil, nil
	}
	loopBeats := float64(p.Steps()) * intsong.StepBeats
	seconds := 60.0 / bpm * loopBeats
	return RenderSong(p, nil, nil, bpm, seconds, sampleRate)
}

// startTransport starts the clock without the activation gate. Offline
// rendering never reaches the device, so the user-gesture rule does not
// apply.
func (s *Session) startTransport() {
	s.clock.Start()
	s.combined.Play()
}

// EncodeWAVFloat32LE wraps samples in a RIFF/WAVE container (format 3,
// 32-bit float, little endian).
func EncodeWAVFloat32LE(samples []float32, sampleRate int, channels int) []byte {
	dataSize := len(samples) * 4
	byteRate := sampleRate * channels * 4
	blockAlign := channels * 4
	chunkSize := 36 + dataSize
	out := make([]byte, 44+dataSize)
	copy(out[0:], []byte("RIFF"))
	binary.LittleEndian.PutUint32(out[4:], uint32(chunkSize))
	copy(out[8:], []byte("WAVE"))
	copy(out[12:], []byte("fmt "))
	binary.LittleEndian.PutUint32(out[16:], 16)
	binary.LittleEndian.PutUint16(out[20:], 3)
	binary.LittleEndian.PutUint16(out[22:], uint16(channels))
	binary.LittleEndian.PutUint32(out[24:], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:], 32)
	copy(out[36:], []byte("data"))
	binary.LittleEndian.PutUint32(out[40:], uint32(dataSize))
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[44+i*4:], math.Float32bits(s))
	}
	return out
}
