package mix

import (
	"math"
	"testing"
)

const testRate = 48000

func stepFrames(s *Stage, n int) {
	for i := 0; i < n; i++ {
		s.StepFrame()
	}
}

func TestSetLevelRampsSmoothly(t *testing.T) {
	s := NewStage(testRate, 1, nil)
	s.SetLevel(0)
	prev := s.Gain()
	maxJump := 0.0
	for i := 0; i < testRate/10+10; i++ {
		s.StepFrame()
		g := s.Gain()
		if jump := math.Abs(g - prev); jump > maxJump {
			maxJump = jump
		}
		prev = g
	}
	if s.Gain() != 0 {
		t.Fatalf("expected ramp to reach 0, at %v", s.Gain())
	}
	// A 100 ms ramp over a unit swing moves ~1/4800 per frame; anything much
	// bigger would be an audible click.
	if maxJump > 0.001 {
		t.Fatalf("per-frame jump too large: %v", maxJump)
	}
}

func TestRampCompletesNearHundredMilliseconds(t *testing.T) {
	s := NewStage(testRate, 0, nil)
	s.SetLevel(1)
	stepFrames(s, testRate/10-100)
	if s.Gain() >= 1 {
		t.Fatal("ramp finished too early")
	}
	stepFrames(s, 200)
	if s.Gain() != 1 {
		t.Fatalf("ramp should be complete, at %v", s.Gain())
	}
}

func TestLevelClampsToUnitRange(t *testing.T) {
	s := NewStage(testRate, 0.5, nil)
	s.SetLevel(1.7)
	if s.Level() != 1 {
		t.Fatalf("expected clamp to 1, got %v", s.Level())
	}
	s.SetLevel(-0.3)
	if s.Level() != 0 {
		t.Fatalf("expected clamp to 0, got %v", s.Level())
	}
}

func TestOrphanStageFallsBackToSink(t *testing.T) {
	// Construction order between a leaf and Master is not guaranteed; a
	// parentless stage must still pass audio.
	leaf := NewStage(testRate, 0.5, nil)
	if g := leaf.Gain(); g != 0.5 {
		t.Fatalf("orphan stage should feed the sink at its own level, got %v", g)
	}
	master := NewStage(testRate, 0.5, nil)
	leaf.SetParent(master)
	if g := leaf.Gain(); g != 0.25 {
		t.Fatalf("expected parent attenuation after late wiring, got %v", g)
	}
}

func TestMuteRestoresCapturedLevel(t *testing.T) {
	s := NewStage(testRate, 1, nil)
	s.SetLevel(0.63)
	s.Mute()
	s.Mute() // no-op
	stepFrames(s, testRate/5)
	if s.Gain() != 0 {
		t.Fatalf("expected silence while muted, got %v", s.Gain())
	}
	if s.Level() != 0.63 {
		t.Fatalf("mute must not lose the caller-facing level, got %v", s.Level())
	}
	s.Unmute()
	stepFrames(s, testRate/5)
	if math.Abs(s.Gain()-0.63) > 1e-9 {
		t.Fatalf("expected restore to 0.63, got %v", s.Gain())
	}
}

func TestSetLevelWhileMutedUpdatesRestore(t *testing.T) {
	s := NewStage(testRate, 0.8, nil)
	s.Mute()
	s.SetLevel(0.4)
	stepFrames(s, testRate/5)
	if s.Gain() != 0 {
		t.Fatal("SetLevel while muted must not unmute")
	}
	s.Unmute()
	stepFrames(s, testRate/5)
	if math.Abs(s.Gain()-0.4) > 1e-9 {
		t.Fatalf("expected restore to updated level 0.4, got %v", s.Gain())
	}
}

func TestGraphStepsAllStages(t *testing.T) {
	g := NewGraph(testRate)
	beat := g.NewStage(1, g.Master)
	melody := g.NewStage(1, g.Master)
	beat.SetLevel(0)
	melody.SetLevel(0)
	for i := 0; i < testRate/5; i++ {
		g.StepFrame()
	}
	if beat.Gain() != 0 || melody.Gain() != 0 {
		t.Fatal("graph step did not advance every stage")
	}
}

func TestLimiterKeepsOutputBounded(t *testing.T) {
	lm := NewLimiter(testRate)
	var peak float32
	for i := 0; i < testRate; i++ {
		x := float32(math.Sin(float64(i)*0.05)) * 3
		l, r := lm.Process(x, x)
		if a := float32(math.Abs(float64(l))); a > peak {
			peak = a
		}
		if a := float32(math.Abs(float64(r))); a > peak {
			peak = a
		}
	}
	if peak > 1.05 {
		t.Fatalf("limiter let output through at %v", peak)
	}
	lm.Reset()
	l, _ := lm.Process(0.1, 0.1)
	if l != 0.1 {
		t.Fatalf("below-ceiling signal should pass unchanged, got %v", l)
	}
}
