// Package combined plays a rendered backing track alongside the live
// synthesis graph. The player never drives the transport; it only mirrors
// start and stop, so a failed load leaves the sequencers untouched.
package combined

import (
	"fmt"
	"sync/atomic"
)

// LoadError wraps a failure to decode or install a backing track. It is
// recoverable: the player keeps its previous state and stays stopped.
type LoadError struct {
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("combined track: %s: %v", e.Reason, e.Err)
	}
	return "combined track: " + e.Reason
}

func (e *LoadError) Unwrap() error { return e.Err }

// clip is an immutable decoded track. Swapped in atomically so the render
// goroutine never sees a half-installed buffer.
type clip struct {
	samples []float32 // interleaved stereo at the player's sample rate
}

// Player streams a decoded clip one stereo frame at a time. Control methods
// are safe from any goroutine; RenderFrame belongs to the render goroutine
// alone.
type Player struct {
	rate    int
	track   atomic.Pointer[clip]
	playing atomic.Bool
	rewind  atomic.Bool
	pos     int
}

func NewPlayer(sampleRate int) *Player {
	return &Player{rate: sampleRate}
}

// Load decodes WAV data and installs it as the current track, resampling to
// the player's rate when the file disagrees. On error the previous track
// survives.
func (p *Player) Load(wav []byte) error {
	samples, fileRate, err := DecodeWAV(wav)
	if err != nil {
		return &LoadError{Reason: "decode", Err: err}
	}
	if len(samples) == 0 {
		return &LoadError{Reason: "empty audio data"}
	}
	if fileRate != p.rate {
		samples = resampleStereo(samples, fileRate, p.rate)
	}
	p.track.Store(&clip{samples: samples})
	p.rewind.Store(true)
	return nil
}

// Loaded reports whether a track is installed.
func (p *Player) Loaded() bool { return p.track.Load() != nil }

// Play starts playback from the top. No-op without a track.
func (p *Player) Play() {
	if p.track.Load() == nil {
		return
	}
	p.rewind.Store(true)
	p.playing.Store(true)
}

// Stop halts playback and rewinds. Idempotent.
func (p *Player) Stop() {
	p.playing.Store(false)
	p.rewind.Store(true)
}

func (p *Player) Playing() bool { return p.playing.Load() }

// Eject drops the current track.
func (p *Player) Eject() {
	p.playing.Store(false)
	p.track.Store(nil)
}

// RenderFrame produces the next stereo frame, or silence when stopped or
// exhausted. Playback stops itself at the end of the clip.
func (p *Player) RenderFrame() (float32, float32) {
	if !p.playing.Load() {
		return 0, 0
	}
	c := p.track.Load()
	if c == nil {
		return 0, 0
	}
	if p.rewind.Swap(false) {
		p.pos = 0
	}
	if p.pos+1 >= len(c.samples) {
		p.playing.Store(false)
		return 0, 0
	}
	l := c.samples[p.pos]
	r := c.samples[p.pos+1]
	p.pos += 2
	return l, r
}

// resampleStereo performs linear interpolation per channel. Quality is fine
// for backing tracks; anything better belongs in an offline tool.
func resampleStereo(in []float32, fromRate, toRate int) []float32 {
	inFrames := len(in) / 2
	if inFrames < 2 || fromRate == toRate {
		return in
	}
	outFrames := int(float64(inFrames) * float64(toRate) / float64(fromRate))
	out := make([]float32, outFrames*2)
	ratio := float64(fromRate) / float64(toRate)
	for i := 0; i < outFrames; i++ {
		src := float64(i) * ratio
		j := int(src)
		if j >= inFrames-1 {
			j = inFrames - 2
		}
		frac := float32(src - float64(j))
		out[i*2] = in[j*2]*(1-frac) + in[(j+1)*2]*frac
		out[i*2+1] = in[j*2+1]*(1-frac) + in[(j+1)*2+1]*frac
	}
	return out
}
