package mix

import "math"

// Limiter keeps the summed master output inside [-1,1] without hard
// clipping: an envelope follower with fast attack and slow release drives
// gain reduction above the ceiling.
type Limiter struct {
	ceiling float32
	attack  float32
	release float32
	envL    float32
	envR    float32
}

func NewLimiter(sampleRate int) *Limiter {
	sr := float64(sampleRate)
	return &Limiter{
		ceiling: 0.95,
		attack:  float32(1.0 - math.Exp(-1.0/(0.002*sr))),
		release: float32(1.0 - math.Exp(-1.0/(0.120*sr))),
	}
}

func (lm *Limiter) Process(l, r float32) (float32, float32) {
	absL := float32(math.Abs(float64(l)))
	absR := float32(math.Abs(float64(r)))
	if absL > lm.envL {
		lm.envL += lm.attack * (absL - lm.envL)
	} else {
		lm.envL += lm.release * (absL - lm.envL)
	}
	if absR > lm.envR {
		lm.envR += lm.attack * (absR - lm.envR)
	} else {
		lm.envR += lm.release * (absR - lm.envR)
	}
	// Clamp against the instantaneous peak as well: the envelope lags on the
	// very first transient and the ceiling is a hard guarantee.
	return l * lm.gainFor(maxF32(lm.envL, absL)), r * lm.gainFor(maxF32(lm.envR, absR))
}

func (lm *Limiter) gainFor(env float32) float32 {
	if env <= lm.ceiling {
		return 1
	}
	return lm.ceiling / env
}

func maxF32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

func (lm *Limiter) Reset() {
	lm.envL = 0
	lm.envR = 0
}
