package voice

import (
	"math"
	"testing"

	"github.com/beatsmith/groovebox/internal/song"
)

const testRate = 48000

func energy(p *Pool, frames int) (beat, mel, harm float64) {
	for i := 0; i < frames; i++ {
		bl, br, ml, mr, hl, hr := p.RenderFrame()
		beat += math.Abs(float64(bl)) + math.Abs(float64(br))
		mel += math.Abs(float64(ml)) + math.Abs(float64(mr))
		harm += math.Abs(float64(hl)) + math.Abs(float64(hr))
	}
	return
}

func TestDrumTriggerProducesSound(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerDrum(song.DrumKick, 1)
	beat, mel, harm := energy(p, testRate/10)
	if beat == 0 {
		t.Fatal("expected kick energy in the beat submix")
	}
	if mel != 0 || harm != 0 {
		t.Fatal("drum trigger leaked into pitched submixes")
	}
}

func TestDrumVelocityScalesOutput(t *testing.T) {
	loud := NewPool(testRate)
	loud.TriggerDrum(song.DrumSnare, 1)
	soft := NewPool(testRate)
	soft.TriggerDrum(song.DrumSnare, 0.2)
	lb, _, _ := energy(loud, testRate/10)
	sb, _, _ := energy(soft, testRate/10)
	if sb >= lb {
		t.Fatalf("velocity 0.2 should be quieter than 1.0: %v vs %v", sb, lb)
	}
}

func TestNoteTriggerAndReleaseTail(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerNote(60, 0.9, testRate/20)
	_, mel, _ := energy(p, testRate/10)
	if mel == 0 {
		t.Fatal("expected melodic energy")
	}
	// Render past gate plus release; everything should fall silent.
	energy(p, testRate)
	if p.ActiveVoices() != 0 {
		t.Fatalf("expected all voices off, %d still active", p.ActiveVoices())
	}
}

func TestChordTriggerUsesOneVoicePerPitch(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerChord([]int{60, 64, 67}, 0.8, testRate/4)
	if got := p.ActiveVoices(); got != 3 {
		t.Fatalf("expected 3 chordal voices, got %d", got)
	}
}

func TestVoiceStealingPastPolyphony(t *testing.T) {
	p := NewPool(testRate)
	for i := 0; i < 40; i++ {
		p.TriggerNote(48+i, 0.8, testRate)
	}
	// Must not grow past the preallocated slots and must keep rendering.
	if got := p.ActiveVoices(); got > 8 {
		t.Fatalf("melodic polyphony exceeded: %d", got)
	}
	_, mel, _ := energy(p, testRate/20)
	if mel == 0 {
		t.Fatal("stolen voices should still sound")
	}
}

func TestDisposedPoolTriggersAreNoOps(t *testing.T) {
	p := NewPool(testRate)
	p.Dispose()
	// A scheduled callback can fire after teardown begins; these must not
	// panic and must stay silent.
	p.TriggerDrum(song.DrumKick, 1)
	p.TriggerNote(60, 1, testRate)
	p.TriggerChord([]int{60, 64, 67}, 1, testRate)
	beat, mel, harm := energy(p, testRate/20)
	if beat != 0 || mel != 0 || harm != 0 {
		t.Fatal("disposed pool produced audio")
	}
	if p.ActiveVoices() != 0 {
		t.Fatal("disposed pool reports active voices")
	}
}

func TestUnknownTrackIsIgnored(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerDrum(-1, 1)
	p.TriggerDrum(song.DrumCount+3, 1)
	beat, _, _ := energy(p, testRate/20)
	if beat != 0 {
		t.Fatal("out-of-range track triggered a voice")
	}
}

func TestSilenceCutsTails(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerDrum(song.DrumCrash, 1)
	p.TriggerNote(72, 1, testRate)
	p.Silence()
	// The request lands at the top of the next rendered frame.
	beat, mel, _ := energy(p, 100)
	if beat != 0 || mel != 0 {
		t.Fatal("silenced pool produced audio")
	}
	if p.ActiveVoices() != 0 {
		t.Fatal("silence left voices sounding")
	}
}

func TestSilenceIsSafeOffTheRenderGoroutine(t *testing.T) {
	p := NewPool(testRate)
	p.TriggerNote(60, 1, testRate)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < testRate/10; i++ {
			p.RenderFrame()
		}
	}()
	// Transport stop can arrive from any goroutine while audio renders; the
	// request must not touch voice state directly.
	for i := 0; i < 100; i++ {
		p.Silence()
	}
	<-done
	p.RenderFrame()
	if p.ActiveVoices() != 0 {
		t.Fatal("silence request never consumed")
	}
}
