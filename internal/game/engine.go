// internal/game/engine.go
//
// Round engine for a single hidden number.
// Responsibilities:
//   - Start rounds: draw a uniform target and compute the adaptive try limit.
//   - Parse and evaluate guesses (empty / not an integer / out of range).
//   - Track state transitions: active → correct | tries exhausted.
//
// Notes:
//   - The engine is synchronous and owns no timers; shells schedule the
//     "reveal, then start a new round" pause themselves.
//   - Rejected input never consumes a try.
package game

import (
	"errors"
	"fmt"
	"math/bits"
	"strconv"
	"strings"
)

const minTries = 3

// Round holds the state of one hidden number and its guesses.
type Round struct {
	rng       Range
	target    int
	triesUsed int
	triesMax  int
	finished  bool
}

// TriesFor returns the try limit for a range: max(3, ceil(log2(size)) + 1).
func TriesFor(r Range) int {
	// bits.Len(n-1) == ceil(log2(n)) for n >= 1.
	return max(minTries, bits.Len(uint(r.Size()-1))+1)
}

// NewRound starts a round over r with a target drawn from src.
// The range is caller-guaranteed; an invalid one is a programming error.
func NewRound(r Range, src Source) *Round {
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return &Round{
		rng:      r,
		target:   r.Min + src.IntN(r.Size()),
		triesMax: TriesFor(r),
	}
}

func (r *Round) Range() Range   { return r.rng }
func (r *Round) TriesUsed() int { return r.triesUsed }
func (r *Round) TriesMax() int  { return r.triesMax }
func (r *Round) Remaining() int { return r.triesMax - r.triesUsed }
func (r *Round) Finished() bool { return r.finished }

// Evaluate parses text as a guess and applies it to the round.
// Parse failures come back as outcomes; the only error is ErrRoundOver.
//
// State transitions:
//   - guess == target → Correct, round finished.
//   - otherwise, if the try count reaches the limit → TriesExhausted
//     (with the target revealed), round finished.
func (r *Round) Evaluate(text string) (Outcome, error) {
	if r.finished {
		return Outcome{}, ErrRoundOver
	}
	out := Outcome{TriesUsed: r.triesUsed, TriesMax: r.triesMax, Min: r.rng.Min, Max: r.rng.Max}

	guess, kind := parseGuess(text, r.rng)
	if kind != "" {
		out.Kind = kind
		return out, nil
	}

	r.triesUsed++
	if r.triesUsed > r.triesMax {
		panic(fmt.Sprintf("game: tries used %d exceeds limit %d", r.triesUsed, r.triesMax))
	}
	out.Guess = guess
	out.TriesUsed = r.triesUsed

	switch {
	case guess < r.target:
		out.Kind = TooLow
	case guess > r.target:
		out.Kind = TooHigh
	default:
		out.Kind = Correct
		out.Target = r.target
		r.finished = true
		return out, nil
	}

	if r.triesUsed == r.triesMax {
		out.Kind = TriesExhausted
		out.Target = r.target
		r.finished = true
	}
	return out, nil
}

// parseGuess trims and parses text, returning a rejection kind on failure.
// Integers too large for int are necessarily outside any range.
func parseGuess(text string, rng Range) (int, OutcomeKind) {
	txt := strings.TrimSpace(text)
	if txt == "" {
		return 0, InvalidInput
	}
	n, err := strconv.Atoi(txt)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, OutOfRange
		}
		return 0, NotAnInteger
	}
	if !rng.Contains(n) {
		return 0, OutOfRange
	}
	return n, ""
}
