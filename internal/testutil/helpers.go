package testutil

import (
	"math/rand"
	"testing"

	"github.com/rs/zerolog"
)

// NewTestRNG creates a deterministic random number generator for tests
func NewTestRNG(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NopLogger returns a no-op logger for tests
func NopLogger() zerolog.Logger {
	return zerolog.Nop()
}

// scriptedSource replays die faces through rand.Rand.Intn. Intn(n) reduces
// Int31() = Int63()>>32 modulo n, so storing face-1 in the high word makes
// Intn(n)+1 return face for any n > face-1.
type scriptedSource struct {
	t     testing.TB
	faces []int
	next  int
}

func (s *scriptedSource) Int63() int64 {
	if s.next >= len(s.faces) {
		s.t.Fatalf("scripted dice exhausted after %d rolls", len(s.faces))
	}
	face := s.faces[s.next]
	s.next++
	return int64(face-1) << 32
}

func (s *scriptedSource) Seed(int64) {}

// NewScriptedRNG returns a *rand.Rand whose Intn(sides)+1 yields faces in order
func NewScriptedRNG(t testing.TB, faces ...int) *rand.Rand {
	t.Helper()
	return rand.New(&scriptedSource{t: t, faces: faces})
}
