// Package rng builds the random sources that draw round targets.
//
// New seeds a PCG generator from crypto/rand. FromSeed derives both PCG
// seeds from HMAC-SHA256(key, seed) so a configured seed replays the same
// sequence of targets, which is handy for demos and reproducing reports.
package rng

import (
	"crypto/hmac"
	crand "crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/robalobadob/guess/internal/game"
)

const hmacKey = "guess-the-number"

var _ game.Source = (*rand.Rand)(nil)

// New returns a generator seeded from the operating system's entropy.
func New() *rand.Rand {
	var b [16]byte
	_, _ = crand.Read(b[:])
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(b[:8]), binary.BigEndian.Uint64(b[8:])))
}

// FromSeed returns a deterministic generator for seed.
func FromSeed(seed string) *rand.Rand {
	h := hmac.New(sha256.New, []byte(hmacKey))
	h.Write([]byte(seed))
	sum := h.Sum(nil)
	return rand.New(rand.NewPCG(binary.BigEndian.Uint64(sum[:8]), binary.BigEndian.Uint64(sum[8:16])))
}

// Factory returns a constructor for per-owner sources: seeded when seed is
// set, entropy-backed otherwise.
func Factory(seed string) func() game.Source {
	if seed == "" {
		return func() game.Source { return New() }
	}
	return func() game.Source { return FromSeed(seed) }
}
