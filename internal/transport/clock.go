// Package transport owns the shared timeline: tempo, play/stop state and the
// time-ordered event queue every scheduler binds to. Events are queued in
// musical time (beats) and converted to wall-clock time lazily while the
// audio render loop advances the clock, so tempo changes apply without
// rebuilding schedulers.
package transport

import (
	"container/heap"
	"sync"
)

type State int

const (
	Stopped State = iota
	Running
)

// Observer is called after every Start/Stop transition, outside the clock
// lock.
type Observer func(State)

// Source supplies a stream of musical-time events to the clock. Fire runs on
// the render goroutine and must be short and non-blocking: no allocation, no
// I/O, no calls back into the clock.
type Source interface {
	// Reset rewinds the source to its first event. Called on Start and when
	// the source is bound to an already-running transport.
	Reset()
	// HeadOffset is the offset in beats of the first event relative to the
	// transport position at the moment of binding or Start.
	HeadOffset() float64
	// Fire triggers the event due at beat and returns the offset in beats to
	// the following event. ok=false ends the stream. bpm is the transport
	// tempo at fire time, for lazy musical-to-wall-clock conversion of note
	// lengths.
	Fire(beat, bpm float64) (next float64, ok bool)
}

type event struct {
	beat    float64
	seq     uint64
	binding *Binding
}

// eventQueue orders by (beat, seq): equal-time events fire in the order they
// were scheduled, which keeps dispatch deterministic across sources.
type eventQueue []event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].beat != q[j].beat {
		return q[i].beat < q[j].beat
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *eventQueue) Push(x any) { *q = append(*q, x.(event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	ev := old[n-1]
	*q = old[:n-1]
	return ev
}

// Binding ties one Source to the clock. At most one live binding per
// instrument role is the caller's invariant; the session enforces it by
// disposing the old binding before installing a replacement.
type Binding struct {
	clock    *Clock
	source   Source
	disposed bool
}

// Dispose detaches the binding and cancels its not-yet-fired events. Other
// bindings are unaffected. Safe to call more than once.
func (b *Binding) Dispose() {
	c := b.clock
	c.mu.Lock()
	defer c.mu.Unlock()
	if b.disposed {
		return
	}
	b.disposed = true
	for i := range c.bindings {
		if c.bindings[i] == b {
			c.bindings = append(c.bindings[:i], c.bindings[i+1:]...)
			break
		}
	}
	// Queued events are cancelled lazily: Advance skips disposed bindings.
}

// Clock is the transport. One instance per session, injected into every
// scheduler; nothing reaches it through ambient lookup.
type Clock struct {
	mu        sync.Mutex
	bpm       float64
	state     State
	beat      float64 // monotonic while running, reset on Stop
	seq       uint64
	queue     eventQueue
	bindings  []*Binding
	observers []Observer
}

func NewClock(bpm float64) *Clock {
	if bpm <= 0 {
		bpm = 120
	}
	return &Clock{bpm: bpm}
}

// SetTempo stores the tempo as given. Range validation (e.g. [60,200]) is a
// caller concern.
func (c *Clock) SetTempo(bpm float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.bpm = bpm
}

func (c *Clock) Tempo() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bpm
}

func (c *Clock) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Beat returns the current transport position in beats.
func (c *Clock) Beat() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.beat
}

// BeatsToSeconds converts musical time to wall-clock time at the current
// tempo: seconds = 60/bpm * beats.
func (c *Clock) BeatsToSeconds(beats float64) float64 {
	return 60.0 / c.Tempo() * beats
}

func (c *Clock) SecondsToBeats(seconds float64) float64 {
	return seconds * c.Tempo() / 60.0
}

// Observe registers a state-transition observer.
func (c *Clock) Observe(fn Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, fn)
}

// Bind attaches a source. If the transport is already running the source's
// head event is scheduled immediately, so a scheduler installed mid-playback
// joins the timeline without a restart.
func (c *Clock) Bind(s Source) *Binding {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := &Binding{clock: c, source: s}
	c.bindings = append(c.bindings, b)
	if c.state == Running {
		s.Reset()
		c.schedule(b, c.beat+s.HeadOffset())
	}
	return b
}

// Start moves stopped->running. Calling while running is a no-op. The head
// event of every bound source is scheduled at its musical-time offset.
func (c *Clock) Start() {
	c.mu.Lock()
	if c.state == Running {
		c.mu.Unlock()
		return
	}
	c.state = Running
	for _, b := range c.bindings {
		b.source.Reset()
		c.schedule(b, c.beat+b.source.HeadOffset())
	}
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()
	for _, fn := range obs {
		fn(Running)
	}
}

// Stop moves running->stopped, cancels every not-yet-fired event across all
// bindings and resets the position. Calling while stopped is a no-op.
func (c *Clock) Stop() {
	c.mu.Lock()
	if c.state == Stopped {
		c.mu.Unlock()
		return
	}
	c.state = Stopped
	c.queue = c.queue[:0]
	c.beat = 0
	obs := append([]Observer(nil), c.observers...)
	c.mu.Unlock()
	for _, fn := range obs {
		fn(Stopped)
	}
}

// Reset is the session-teardown path: stop and drop every binding.
func (c *Clock) Reset() {
	c.Stop()
	c.mu.Lock()
	for _, b := range c.bindings {
		b.disposed = true
	}
	c.bindings = c.bindings[:0]
	c.mu.Unlock()
}

func (c *Clock) schedule(b *Binding, beat float64) {
	c.seq++
	heap.Push(&c.queue, event{beat: beat, seq: c.seq, binding: b})
}

// Advance moves the transport forward by deltaBeats, firing every due event
// in non-decreasing beat order across all bindings. It must only be called
// from the single render goroutine; that caller is the queue's sole drain.
func (c *Clock) Advance(deltaBeats float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Running || deltaBeats <= 0 {
		return
	}
	target := c.beat + deltaBeats
	for len(c.queue) > 0 && c.queue[0].beat <= target {
		ev := heap.Pop(&c.queue).(event)
		if ev.binding.disposed {
			continue
		}
		c.beat = ev.beat
		// A non-positive next offset would respawn inside the current
		// window forever; treat it as end of stream.
		next, ok := ev.binding.source.Fire(ev.beat, c.bpm)
		if ok && next > 0 {
			c.schedule(ev.binding, ev.beat+next)
		}
	}
	c.beat = target
}

// AdvanceSeconds converts a wall-clock span to beats at the current tempo
// and advances. This is the lazy musical-to-wall-clock conversion point.
func (c *Clock) AdvanceSeconds(seconds float64) {
	c.mu.Lock()
	bpm := c.bpm
	c.mu.Unlock()
	c.Advance(seconds * bpm / 60.0)
}

// Pending reports the number of queued events, counting only live bindings.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, ev := range c.queue {
		if !ev.binding.disposed {
			n++
		}
	}
	return n
}
