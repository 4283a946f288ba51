// internal/game/session.go
//
// Session: cross-round score accumulator for one difficulty selection.
// Also defines the exported snapshot types used by storage backends.

package game

import (
	"errors"
	"fmt"
	"time"
)

// Session tracks the active round and the score for one difficulty.
// A new Session (score 0) is created whenever a difficulty is picked.
type Session struct {
	ID         string
	difficulty Difficulty
	score      int
	round      *Round
	src        Source
}

// NewSession starts a session on d with its first round already running.
func NewSession(d Difficulty, src Source) *Session {
	return &Session{difficulty: d, src: src, round: NewRound(d.Range, src)}
}

func (s *Session) Difficulty() Difficulty { return s.difficulty }
func (s *Session) Score() int             { return s.score }
func (s *Session) Round() *Round          { return s.round }

// Guess evaluates text against the active round and bumps the score on a
// correct answer. The caller starts the next round with NextRound.
func (s *Session) Guess(text string) (Outcome, error) {
	out, err := s.round.Evaluate(text)
	if err != nil {
		return out, err
	}
	if out.Kind == Correct {
		s.score++
	}
	return out, nil
}

// NextRound replaces the active round with a fresh one over the same range.
func (s *Session) NextRound() {
	s.round = NewRound(s.difficulty.Range, s.src)
}

// RoundState is a storable snapshot of a Round, target included.
// It must never be sent to a player.
type RoundState struct {
	Min       int  `json:"min"`
	Max       int  `json:"max"`
	Target    int  `json:"target"`
	TriesUsed int  `json:"triesUsed"`
	TriesMax  int  `json:"triesMax"`
	Finished  bool `json:"finished"`
}

// SessionState is a storable snapshot of a Session.
type SessionState struct {
	ID         string     `json:"id"`
	Difficulty string     `json:"difficulty"`
	Score      int        `json:"score"`
	Round      RoundState `json:"round"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// State snapshots the session. UpdatedAt is left for the caller to stamp.
func (s *Session) State() SessionState {
	r := s.round
	return SessionState{
		ID:         s.ID,
		Difficulty: s.difficulty.Name,
		Score:      s.score,
		Round: RoundState{
			Min:       r.rng.Min,
			Max:       r.rng.Max,
			Target:    r.target,
			TriesUsed: r.triesUsed,
			TriesMax:  r.triesMax,
			Finished:  r.finished,
		},
	}
}

var errCorruptState = errors.New("corrupt session state")

// RestoreSession rebuilds a Session from a snapshot, checking every round
// invariant. src draws the targets of subsequent rounds.
func RestoreSession(st SessionState, src Source) (*Session, error) {
	d, ok := LookupDifficulty(st.Difficulty)
	if !ok {
		return nil, fmt.Errorf("%w: unknown difficulty %q", errCorruptState, st.Difficulty)
	}
	rs := st.Round
	rng := Range{Min: rs.Min, Max: rs.Max}
	switch {
	case rng != d.Range:
		return nil, fmt.Errorf("%w: range %d–%d does not match %s", errCorruptState, rs.Min, rs.Max, d.Name)
	case !rng.Contains(rs.Target):
		return nil, fmt.Errorf("%w: target outside range", errCorruptState)
	case rs.TriesMax != TriesFor(rng):
		return nil, fmt.Errorf("%w: try limit %d, want %d", errCorruptState, rs.TriesMax, TriesFor(rng))
	case rs.TriesUsed < 0 || rs.TriesUsed > rs.TriesMax:
		return nil, fmt.Errorf("%w: tries used %d of %d", errCorruptState, rs.TriesUsed, rs.TriesMax)
	case !rs.Finished && rs.TriesUsed == rs.TriesMax:
		return nil, fmt.Errorf("%w: active round with no tries left", errCorruptState)
	case st.Score < 0:
		return nil, fmt.Errorf("%w: negative score", errCorruptState)
	}
	return &Session{
		ID:         st.ID,
		difficulty: d,
		score:      st.Score,
		src:        src,
		round: &Round{
			rng:       rng,
			target:    rs.Target,
			triesUsed: rs.TriesUsed,
			triesMax:  rs.TriesMax,
			finished:  rs.Finished,
		},
	}, nil
}

// IsCorrupt reports whether err came from RestoreSession rejecting a snapshot.
func IsCorrupt(err error) bool { return errors.Is(err, errCorruptState) }
