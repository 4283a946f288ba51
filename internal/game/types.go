// internal/game/types.go
//
// Core type definitions for the round engine.
// Defines:
//   - Range: inclusive guessable interval for a round.
//   - Difficulty: one of the three fixed presets (easy/medium/hard).
//   - OutcomeKind / Outcome: discrete result of evaluating one guess.
//   - Source: injectable random source used to draw targets.

package game

import (
	"errors"
	"fmt"

	"github.com/samber/lo"
)

// Range is an inclusive integer interval [Min, Max] with Min < Max.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Validate reports whether the range can host a round.
func (r Range) Validate() error {
	if r.Min >= r.Max {
		return fmt.Errorf("invalid range %d–%d: min must be below max", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether n lies inside the range (inclusive).
func (r Range) Contains(n int) bool { return n >= r.Min && n <= r.Max }

// Size is the number of integers in the range.
func (r Range) Size() int { return r.Max - r.Min + 1 }

// Difficulty is a named range preset.
type Difficulty struct {
	Name  string `json:"name"`  // "easy" | "medium" | "hard"
	Label string `json:"label"` // menu text
	Range Range  `json:"range"`
}

var (
	Easy   = Difficulty{Name: "easy", Label: "Easy (1–50)", Range: Range{Min: 1, Max: 50}}
	Medium = Difficulty{Name: "medium", Label: "Medium (1–100)", Range: Range{Min: 1, Max: 100}}
	Hard   = Difficulty{Name: "hard", Label: "Hard (1–500)", Range: Range{Min: 1, Max: 500}}
)

// Difficulties lists the presets in menu order.
var Difficulties = []Difficulty{Easy, Medium, Hard}

// LookupDifficulty finds a preset by name.
func LookupDifficulty(name string) (Difficulty, bool) {
	return lo.Find(Difficulties, func(d Difficulty) bool { return d.Name == name })
}

// OutcomeKind is the tag of an Outcome.
// Possible values:
//   - "too_low", "too_high":        valid guess, round continues.
//   - "correct", "tries_exhausted": valid guess, round is over.
//   - "invalid_input", "not_an_integer", "out_of_range": rejected input, no try used.
type OutcomeKind string

const (
	TooLow         OutcomeKind = "too_low"
	TooHigh        OutcomeKind = "too_high"
	Correct        OutcomeKind = "correct"
	TriesExhausted OutcomeKind = "tries_exhausted"
	InvalidInput   OutcomeKind = "invalid_input"
	NotAnInteger   OutcomeKind = "not_an_integer"
	OutOfRange     OutcomeKind = "out_of_range"
)

var (
	ErrEmptyGuess = errors.New("empty guess")
	ErrNotInteger = errors.New("guess is not an integer")
	ErrOutOfRange = errors.New("guess is out of range")

	// ErrRoundOver is returned when a finished round is asked to evaluate
	// another guess. Callers start a new round instead.
	ErrRoundOver = errors.New("round is over")
)

// Outcome is the result of evaluating a single guess.
type Outcome struct {
	Kind      OutcomeKind `json:"kind"`
	Guess     int         `json:"guess,omitempty"`
	TriesUsed int         `json:"triesUsed"`
	TriesMax  int         `json:"triesMax"`
	Target    int         `json:"target,omitempty"` // only set once the round is over
	Min       int         `json:"min"`
	Max       int         `json:"max"`
}

// Terminal reports whether the outcome ends the round.
func (o Outcome) Terminal() bool {
	return o.Kind == Correct || o.Kind == TriesExhausted
}

// Consumed reports whether the guess used up a try.
func (o Outcome) Consumed() bool {
	switch o.Kind {
	case TooLow, TooHigh, Correct, TriesExhausted:
		return true
	}
	return false
}

// Err maps rejected input to its sentinel error; nil for evaluated guesses.
func (o Outcome) Err() error {
	switch o.Kind {
	case InvalidInput:
		return ErrEmptyGuess
	case NotAnInteger:
		return ErrNotInteger
	case OutOfRange:
		return ErrOutOfRange
	}
	return nil
}

// Message is the player-facing text for the outcome.
func (o Outcome) Message() string {
	switch o.Kind {
	case InvalidInput:
		return "Please enter a number."
	case NotAnInteger:
		return "Please enter a valid integer."
	case OutOfRange:
		return fmt.Sprintf("Please enter a number between %d–%d.", o.Min, o.Max)
	case TooLow:
		return "Try a bigger number."
	case TooHigh:
		return "Try a smaller number."
	case Correct:
		return "Correct! New number picked 🎉"
	case TriesExhausted:
		return fmt.Sprintf("Out of tries! The correct number was %d. New number picked.", o.Target)
	}
	return ""
}

// Source draws uniform integers in [0, n). *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}
