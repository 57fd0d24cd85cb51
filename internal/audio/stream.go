// Package audio wraps the platform audio subsystem. The device context
// starts suspended and is only created by Activate, which callers invoke
// from an explicit user gesture; output construction before that fails with
// ErrSuspended rather than producing a context the platform would mute.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// ErrSuspended is returned when output is requested before Activate.
var ErrSuspended = errors.New("audio subsystem suspended: activation gesture required")

// SampleSource produces interleaved stereo float32 frames on demand. Process
// is called from the audio goroutine; it must be non-blocking.
type SampleSource interface {
	Process(dst []float32)
}

// StreamReader adapts a SampleSource to the byte stream the device player
// pulls from.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	buf    []float32
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.buf) < need {
		r.buf = make([]float32, need)
	}
	r.buf = r.buf[:need]
	r.source.Process(r.buf)
	for i := 0; i < need; i++ {
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(r.buf[i]))
	}
	return frames * 8, nil
}

func (r *StreamReader) Close() error { return nil }

var (
	contextMu        sync.Mutex
	deviceContext    *ebitaudio.Context
	deviceSampleRate int
)

// Activate creates the process-wide device context. The platform allows one
// context per process, so the first sample rate wins; a mismatched repeat
// call is an error, a matching one is a no-op.
func Activate(sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("invalid sample rate %d", sampleRate)
	}
	contextMu.Lock()
	defer contextMu.Unlock()
	if deviceContext != nil {
		if deviceSampleRate != sampleRate {
			return fmt.Errorf("audio context already active at %d Hz (requested %d Hz)", deviceSampleRate, sampleRate)
		}
		return nil
	}
	deviceContext = ebitaudio.NewContext(sampleRate)
	deviceSampleRate = sampleRate
	return nil
}

// Activated reports whether the device context exists.
func Activated() bool {
	contextMu.Lock()
	defer contextMu.Unlock()
	return deviceContext != nil
}

// Output streams a SampleSource to the device.
type Output struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

// NewOutput fails with ErrSuspended until Activate has run.
func NewOutput(sampleRate int, source SampleSource) (*Output, error) {
	contextMu.Lock()
	ctx := deviceContext
	rate := deviceSampleRate
	contextMu.Unlock()
	if ctx == nil {
		return nil, ErrSuspended
	}
	if rate != sampleRate {
		return nil, fmt.Errorf("audio context at %d Hz cannot serve a %d Hz source", rate, sampleRate)
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Output{player: pl, reader: reader}, nil
}

func (o *Output) Play()           { o.player.Play() }
func (o *Output) Pause()          { o.player.Pause() }
func (o *Output) IsPlaying() bool { return o.player.IsPlaying() }

// Position reports what the listener actually hears right now.
func (o *Output) Position() time.Duration {
	return o.player.Position()
}

func (o *Output) Stop() error {
	o.player.Pause()
	o.player.Close()
	return o.reader.Close()
}
