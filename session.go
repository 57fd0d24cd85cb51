// Package groovebox is a programmable groove engine: a drum grid, a melody
// line and a chord progression scheduled against one transport and rendered
// through a hierarchical gain graph. The Session facade owns all of it; the
// internal packages are wired together here and nowhere else.
package groovebox

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	intaudio "github.com/beatsmith/groovebox/internal/audio"
	intcombined "github.com/beatsmith/groovebox/internal/combined"
	intmidi "github.com/beatsmith/groovebox/internal/midifile"
	intmix "github.com/beatsmith/groovebox/internal/mix"
	intproject "github.com/beatsmith/groovebox/internal/project"
	intsched "github.com/beatsmith/groovebox/internal/sched"
	intsong "github.com/beatsmith/groovebox/internal/song"
	inttransport "github.com/beatsmith/groovebox/internal/transport"
	intvoice "github.com/beatsmith/groovebox/internal/voice"
)

// ErrNotActivated is returned when playback is requested before Activate.
// Platform audio starts suspended until a user gesture; the caller is
// expected to surface this and retry after activation.
var ErrNotActivated = errors.New("audio not activated: call Activate from a user gesture first")

const (
	minTempo = 60
	maxTempo = 200
)

// Role names one node of the gain graph.
type Role int

const (
	RoleMaster Role = iota
	RoleBeat
	RoleMelody
	RoleHarmony
	RoleCombined
)

var roleNames = map[Role]string{
	RoleMaster:   "master",
	RoleBeat:     "beat",
	RoleMelody:   "melody",
	RoleHarmony:  "harmony",
	RoleCombined: "combined",
}

// Session is the top-level engine instance. Control methods are safe from
// any goroutine; Process runs on the audio goroutine only.
type Session struct {
	sampleRate int

	clock    *inttransport.Clock
	pool     *intvoice.Pool
	graph    *intmix.Graph
	limiter  *intmix.Limiter
	stages   map[Role]*intmix.Stage
	combined *intcombined.Player

	mu             sync.Mutex
	activated      bool
	output         *intaudio.Output
	pattern        *intsong.Pattern
	melody         *intsong.Melody
	harmony        *intsong.Harmony
	beatBinding    *inttransport.Binding
	melodyBinding  *inttransport.Binding
	harmonyBinding *inttransport.Binding

	activeStep atomic.Int64

	eventMu sync.Mutex
	eventCh chan Event

	// Render-side state for end-of-track detection.
	combinedWasOn bool
}

// NewSession builds the full graph: transport, voice pool, gain stages and
// limiter. Nothing touches the audio device until Activate.
func NewSession(sampleRate int) (*Session, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sampleRate must be positive, got %d", sampleRate)
	}
	s := &Session{
		sampleRate: sampleRate,
		clock:      inttransport.NewClock(120),
		pool:       intvoice.NewPool(sampleRate),
		graph:      intmix.NewGraph(sampleRate),
		limiter:    intmix.NewLimiter(sampleRate),
		combined:   intcombined.NewPlayer(sampleRate),
	}
	s.stages = map[Role]*intmix.Stage{
		RoleMaster:   s.graph.Master,
		RoleBeat:     s.graph.NewStage(1.0, s.graph.Master),
		RoleMelody:   s.graph.NewStage(0.9, s.graph.Master),
		RoleHarmony:  s.graph.NewStage(0.7, s.graph.Master),
		RoleCombined: s.graph.NewStage(1.0, s.graph.Master),
	}
	s.activeStep.Store(-1)
	s.clock.Observe(func(st inttransport.State) {
		switch st {
		case inttransport.Running:
			s.sendEvent(Event{Kind: EventStarted})
		case inttransport.Stopped:
			s.pool.Silence()
			s.combined.Stop()
			s.activeStep.Store(-1)
			s.sendEvent(Event{Kind: EventStopped})
		}
	})
	return s, nil
}

// Activate creates the device context and connects the session to it. Must
// be called from a user gesture on platforms that gate audio output; until
// then Start returns ErrNotActivated.
func (s *Session) Activate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activated {
		return nil
	}
	if err := intaudio.Activate(s.sampleRate); err != nil {
		return err
	}
	out, err := intaudio.NewOutput(s.sampleRate, s)
	if err != nil {
		return err
	}
	s.output = out
	s.activated = true
	return nil
}

// Activated reports whether the session can produce audible output.
func (s *Session) Activated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activated
}

// Start begins playback. Idempotent: calling while running does not restart
// the timeline. The backing track, if loaded, starts from the top alongside
// the transport.
func (s *Session) Start() error {
	s.mu.Lock()
	if !s.activated {
		s.mu.Unlock()
		return ErrNotActivated
	}
	out := s.output
	s.mu.Unlock()

	alreadyRunning := s.clock.State() == inttransport.Running
	s.clock.Start()
	if !alreadyRunning {
		s.combined.Play()
	}
	if out != nil {
		out.Play()
	}
	return nil
}

// Stop halts playback, cancels pending events and rewinds the transport to
// zero. Idempotent.
func (s *Session) Stop() {
	s.clock.Stop()
}

// Playing reports whether the transport is running.
func (s *Session) Playing() bool {
	return s.clock.State() == inttransport.Running
}

// Beat returns the transport position in beats.
func (s *Session) Beat() float64 { return s.clock.Beat() }

// SetTempo changes the tempo, clamped to [60,200] BPM. Applies to playback
// immediately; queued events keep their musical positions.
func (s *Session) SetTempo(bpm float64) {
	if bpm < minTempo {
		bpm = minTempo
	}
	if bpm > maxTempo {
		bpm = maxTempo
	}
	s.clock.SetTempo(bpm)
}

func (s *Session) Tempo() float64 { return s.clock.Tempo() }

// Stage returns the gain node for a role. Level, mute and unmute go through
// the stage directly.
func (s *Session) Stage(role Role) *intmix.Stage {
	return s.stages[role]
}

// ActiveStep is the grid column currently sounding, or -1 when stopped.
func (s *Session) ActiveStep() int {
	return int(s.activeStep.Load())
}

// SetPattern installs a drum pattern, replacing the previous one. The old
// scheduler is disposed before the new one binds, so no stale trigger can
// fire in between. The session keeps its own editable copy.
func (s *Session) SetPattern(p *intsong.Pattern) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != nil {
		p = p.Clone()
	}
	s.setPatternLocked(p)
}

// setPatternLocked takes ownership of p and swaps it in. Installed patterns
// are never mutated afterwards, so snapshots handed out earlier stay intact.
// Callers hold s.mu.
func (s *Session) setPatternLocked(p *intsong.Pattern) {
	if s.beatBinding != nil {
		s.beatBinding.Dispose()
		s.beatBinding = nil
	}
	s.pattern = p
	if p == nil {
		return
	}
	grid := intsched.NewGrid(p, s.pool, func(step int) {
		s.activeStep.Store(int64(step))
		s.sendEvent(Event{Kind: EventStep, Step: step})
	})
	s.beatBinding = s.clock.Bind(grid)
}

// ToggleStep flips one grid cell and reinstalls the scheduler so the edit is
// heard from the next pass. The edit lands on a clone swapped in under the
// lock, so concurrent readers never observe a half-written row.
func (s *Session) ToggleStep(track, step int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pattern == nil {
		return
	}
	next := s.pattern.Clone()
	next.Toggle(track, step)
	s.setPatternLocked(next)
}

// Pattern returns the installed pattern, or nil. Treat it as read-only;
// edits go through ToggleStep or SetPattern.
func (s *Session) Pattern() *intsong.Pattern {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pattern
}

// SetMelody installs a melody, replacing the previous one. nil clears the
// layer.
func (s *Session) SetMelody(m *intsong.Melody) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.melodyBinding != nil {
		s.melodyBinding.Dispose()
		s.melodyBinding = nil
	}
	s.melody = m
	if m == nil || len(m.Notes) == 0 {
		return
	}
	s.melodyBinding = s.clock.Bind(intsched.NewMelodyLoop(m, s.pool, s.sampleRate))
}

// Melody returns the current melody, or nil.
func (s *Session) Melody() *intsong.Melody {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.melody
}

// SetHarmony installs a chord progression, replacing the previous one. nil
// clears the layer.
func (s *Session) SetHarmony(h *intsong.Harmony) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.harmonyBinding != nil {
		s.harmonyBinding.Dispose()
		s.harmonyBinding = nil
	}
	s.harmony = h
	if h == nil || len(h.Chords) == 0 {
		return
	}
	s.harmonyBinding = s.clock.Bind(intsched.NewHarmonyLoop(h, s.pool, s.sampleRate))
}

// Harmony returns the current progression, or nil.
func (s *Session) Harmony() *intsong.Harmony {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.harmony
}

// LoadCombined decodes a rendered backing track and arms it. It plays and
// stops with the transport through its own gain stage. A decode failure is
// recoverable: the error is returned, published as an EventLoadFailed status,
// and playback state is untouched.
func (s *Session) LoadCombined(wav []byte) error {
	if err := s.combined.Load(wav); err != nil {
		s.sendEvent(Event{Kind: EventLoadFailed, Message: err.Error()})
		return err
	}
	if s.clock.State() == inttransport.Running {
		s.combined.Play()
	}
	return nil
}

// EjectCombined drops the backing track.
func (s *Session) EjectCombined() {
	s.combined.Eject()
}

// CombinedPlaying reports whether the backing track is sounding.
func (s *Session) CombinedPlaying() bool {
	return s.combined.Playing()
}

// Watch returns a channel receiving session events: transport transitions,
// grid steps and backing-track end. The channel is buffered; events are
// dropped rather than blocking the render path. Only the most recent Watch
// channel receives events.
func (s *Session) Watch() <-chan Event {
	ch := make(chan Event, 64)
	s.eventMu.Lock()
	s.eventCh = ch
	s.eventMu.Unlock()
	return ch
}

func (s *Session) sendEvent(ev Event) {
	s.eventMu.Lock()
	ch := s.eventCh
	s.eventMu.Unlock()
	if ch != nil {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Levels snapshots every stage level for persistence.
func (s *Session) Levels() map[string]float64 {
	out := make(map[string]float64, len(s.stages))
	for role, st := range s.stages {
		out[roleNames[role]] = st.Level()
	}
	return out
}

// SetLevels applies persisted stage levels; unknown names are ignored.
func (s *Session) SetLevels(levels map[string]float64) {
	for role, st := range s.stages {
		if v, ok := levels[roleNames[role]]; ok {
			st.SetLevel(v)
		}
	}
}

// SaveProject writes the session's material and mix to a YAML file.
func (s *Session) SaveProject(path, name string) error {
	s.mu.Lock()
	p, m, h := s.pattern, s.melody, s.harmony
	s.mu.Unlock()
	doc := intproject.New(name, s.Tempo(), p, m, h, s.Levels())
	return doc.Save(path)
}

// LoadProject restores a session from a YAML file, replacing all layers.
func (s *Session) LoadProject(path string) error {
	doc, err := intproject.Load(path)
	if err != nil {
		return err
	}
	s.SetTempo(doc.Tempo)
	s.SetPattern(doc.SongPattern())
	s.SetMelody(doc.SongMelody())
	s.SetHarmony(doc.SongHarmony())
	s.SetLevels(doc.Levels)
	return nil
}

// ExportMIDI writes the melody and harmony layers as a standard MIDI file.
func (s *Session) ExportMIDI(path string) error {
	s.mu.Lock()
	m, h := s.melody, s.harmony
	s.mu.Unlock()
	return intmidi.WriteFile(path, m, h, s.Tempo())
}

// Process renders interleaved stereo frames. It is the audio goroutine's
// entry point and the sole driver of the transport: each frame advances the
// clock, fires due triggers, steps every gain ramp and mixes the sub-graphs
// through the limiter.
func (s *Session) Process(dst []float32) {
	secPerFrame := 1.0 / float64(s.sampleRate)
	beatStage := s.stages[RoleBeat]
	melStage := s.stages[RoleMelody]
	harmStage := s.stages[RoleHarmony]
	combStage := s.stages[RoleCombined]

	for i := 0; i+1 < len(dst); i += 2 {
		s.clock.AdvanceSeconds(secPerFrame)
		s.graph.StepFrame()

		bl, br, ml, mr, hl, hr := s.pool.RenderFrame()
		cl, cr := s.combined.RenderFrame()

		bg := float32(beatStage.Gain())
		mg := float32(melStage.Gain())
		hg := float32(harmStage.Gain())
		cg := float32(combStage.Gain())

		l := bl*bg + ml*mg + hl*hg + cl*cg
		r := br*bg + mr*mg + hr*hg + cr*cg
		dst[i], dst[i+1] = s.limiter.Process(l, r)
	}

	on := s.combined.Playing()
	if s.combinedWasOn && !on && s.clock.State() == inttransport.Running {
		s.sendEvent(Event{Kind: EventCombinedEnded})
	}
	s.combinedWasOn = on
}

// Close tears the session down: playback stops, the voice pool is disposed
// so any still-queued trigger becomes a no-op, and the device connection is
// released. The session must not be used afterwards.
func (s *Session) Close() error {
	s.clock.Reset()
	s.pool.Dispose()
	s.mu.Lock()
	out := s.output
	s.output = nil
	s.activated = false
	s.mu.Unlock()
	if out != nil {
		return out.Stop()
	}
	return nil
}
