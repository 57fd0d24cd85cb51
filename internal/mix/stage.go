// Package mix implements the hierarchical attenuation graph: a tree of gain
// stages with Master at the root, smoothed level changes, and a soft limiter
// on the summed output.
package mix

import (
	"math"
	"sync"
	"sync/atomic"
)

// rampSeconds is the smoothing time for level changes. Short enough to feel
// immediate, long enough to avoid audible clicks.
const rampSeconds = 0.1

// Stage is one attenuation node. The level is the caller-facing target in
// [0,1]; the audio goroutine ramps the effective gain toward it. A stage is
// exclusively owned by its creating component; the parent link is a
// non-owning reference. A stage with no parent feeds the output sink
// directly, so audio is never silently dropped when construction order puts
// a leaf before Master.
type Stage struct {
	sampleRate float64
	target     uint64 // atomic float64 bits
	parent     atomic.Pointer[Stage]

	// Render-side ramp state, touched only by the audio goroutine.
	current    float64
	lastTarget float64
	step       float64

	mu      sync.Mutex
	muted   bool
	restore float64
}

// NewStage creates a stage at the given level. parent may be nil; it can be
// resolved later with SetParent once Master exists.
func NewStage(sampleRate int, level float64, parent *Stage) *Stage {
	s := &Stage{sampleRate: float64(sampleRate)}
	level = clampUnit(level)
	atomic.StoreUint64(&s.target, math.Float64bits(level))
	s.current = level
	s.lastTarget = level
	if parent != nil {
		s.parent.Store(parent)
	}
	return s
}

// SetLevel sets the target level, clamped to [0,1]. The effective gain
// reaches it over the ramp time. Setting a level while muted updates the
// value that Unmute will restore instead of unmuting.
func (s *Stage) SetLevel(v float64) {
	v = clampUnit(v)
	s.mu.Lock()
	if s.muted {
		s.restore = v
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()
	atomic.StoreUint64(&s.target, math.Float64bits(v))
}

// Level returns the caller-facing level: the restore value while muted,
// otherwise the ramp target.
func (s *Stage) Level() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted {
		return s.restore
	}
	return math.Float64frombits(atomic.LoadUint64(&s.target))
}

// Mute captures the level at the moment of muting and ramps to silence.
func (s *Stage) Mute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.muted {
		return
	}
	s.muted = true
	s.restore = math.Float64frombits(atomic.LoadUint64(&s.target))
	atomic.StoreUint64(&s.target, math.Float64bits(0))
}

// Unmute ramps back to the captured pre-mute level.
func (s *Stage) Unmute() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.muted {
		return
	}
	s.muted = false
	atomic.StoreUint64(&s.target, math.Float64bits(s.restore))
}

func (s *Stage) Muted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.muted
}

// SetParent resolves the parent link after construction. nil detaches the
// stage back to the sink-fallback rule.
func (s *Stage) SetParent(p *Stage) {
	s.parent.Store(p)
}

// StepFrame advances the ramp by one sample frame. Audio goroutine only.
func (s *Stage) StepFrame() {
	t := math.Float64frombits(atomic.LoadUint64(&s.target))
	if t != s.lastTarget {
		s.lastTarget = t
		frames := rampSeconds * s.sampleRate
		if frames < 1 {
			frames = 1
		}
		s.step = (t - s.current) / frames
	}
	if s.step != 0 {
		s.current += s.step
		done := (s.step > 0 && s.current >= t) || (s.step < 0 && s.current <= t)
		if done {
			s.current = t
			s.step = 0
		}
	}
}

// Gain returns the effective gain: this stage's smoothed value multiplied up
// the parent chain. Audio goroutine only.
func (s *Stage) Gain() float64 {
	g := s.current
	for p := s.parent.Load(); p != nil; p = p.parent.Load() {
		g *= p.current
	}
	return g
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Graph groups the session's stages so the render loop can advance every
// ramp exactly once per frame.
type Graph struct {
	sampleRate int
	Master     *Stage

	mu     sync.Mutex
	stages []*Stage
}

func NewGraph(sampleRate int) *Graph {
	g := &Graph{sampleRate: sampleRate}
	g.Master = NewStage(sampleRate, 0.8, nil)
	g.stages = []*Stage{g.Master}
	return g
}

// NewStage creates and registers a child stage. parent nil means the stage
// connects straight to the sink until SetParent is called.
func (g *Graph) NewStage(level float64, parent *Stage) *Stage {
	s := NewStage(g.sampleRate, level, parent)
	g.mu.Lock()
	g.stages = append(g.stages, s)
	g.mu.Unlock()
	return s
}

// StepFrame advances all ramps one frame. Audio goroutine only.
func (g *Graph) StepFrame() {
	g.mu.Lock()
	stages := g.stages
	g.mu.Unlock()
	for _, s := range stages {
		s.StepFrame()
	}
}
