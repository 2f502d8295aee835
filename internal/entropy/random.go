// Package entropy provides the random source behind chance-driven state
// transitions. Production code uses crypto/rand; tests inject a seeded or
// fixed source for deterministic outcomes.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1). A single draw decides a single
// outcome; callers must not resample within one decision.
type Source interface {
	Float64() float64
}

type cryptoSource struct{}

// Crypto returns a Source backed by crypto/rand.
func Crypto() Source {
	return cryptoSource{}
}

func (cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; 0.5 is a safe middle-of-the-road default.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

type seededSource struct {
	mu  sync.Mutex
	rng *mathrand.Rand
}

// Seeded returns a deterministic Source for tests and replays.
func Seeded(seed int64) Source {
	return &seededSource{rng: mathrand.New(mathrand.NewSource(seed))}
}

func (s *seededSource) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Fixed returns a Source that always yields v. Test helper.
func Fixed(v float64) Source {
	return fixedSource(v)
}

type fixedSource float64

func (f fixedSource) Float64() float64 { return float64(f) }
