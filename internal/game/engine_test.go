package game

import (
	"errors"
	"math/rand/v2"
	"testing"
)

// fixedSource always draws the same offset, pinning the target at Min+offset.
type fixedSource int

func (f fixedSource) IntN(n int) int { return int(f) % n }

// roundWithTarget starts a round over r whose target is target.
func roundWithTarget(t *testing.T, r Range, target int) *Round {
	t.Helper()
	rd := NewRound(r, fixedSource(target-r.Min))
	if rd.target != target {
		t.Fatalf("target = %d, want %d", rd.target, target)
	}
	return rd
}

func mustEvaluate(t *testing.T, r *Round, text string) Outcome {
	t.Helper()
	out, err := r.Evaluate(text)
	if err != nil {
		t.Fatalf("Evaluate(%q): %v", text, err)
	}
	return out
}

func TestTriesFor(t *testing.T) {
	tests := []struct {
		r    Range
		want int
	}{
		{Range{1, 50}, 7},
		{Range{1, 100}, 8},
		{Range{1, 500}, 10},
		{Range{1, 2}, 3},
		{Range{1, 4}, 3},
		{Range{1, 8}, 4},
		{Range{1, 64}, 7},
		{Range{1, 65}, 8},
		{Range{-10, 10}, 6},
	}
	for _, tt := range tests {
		if got := TriesFor(tt.r); got != tt.want {
			t.Errorf("TriesFor(%v) = %d, want %d", tt.r, got, tt.want)
		}
	}
}

func TestTriesForNeverBelowThree(t *testing.T) {
	for hi := 2; hi < 2000; hi++ {
		if got := TriesFor(Range{1, hi}); got < 3 {
			t.Fatalf("TriesFor(1,%d) = %d, want >= 3", hi, got)
		}
	}
}

func TestPresetsTryLimits(t *testing.T) {
	want := map[string]int{"easy": 7, "medium": 8, "hard": 10}
	for _, d := range Difficulties {
		r := NewRound(d.Range, rand.New(rand.NewPCG(1, 2)))
		if r.TriesMax() != want[d.Name] {
			t.Errorf("%s: TriesMax = %d, want %d", d.Name, r.TriesMax(), want[d.Name])
		}
		if r.TriesUsed() != 0 {
			t.Errorf("%s: TriesUsed = %d, want 0", d.Name, r.TriesUsed())
		}
	}
}

func TestTargetAlwaysInRange(t *testing.T) {
	src := rand.New(rand.NewPCG(42, 7))
	for _, d := range Difficulties {
		seenMin, seenMax := false, false
		for i := 0; i < 20000; i++ {
			r := NewRound(d.Range, src)
			if !d.Range.Contains(r.target) {
				t.Fatalf("%s: target %d outside %v", d.Name, r.target, d.Range)
			}
			seenMin = seenMin || r.target == d.Range.Min
			seenMax = seenMax || r.target == d.Range.Max
		}
		if !seenMin || !seenMax {
			t.Errorf("%s: bounds never drawn (min=%v max=%v)", d.Name, seenMin, seenMax)
		}
	}
}

func TestNewRoundPanicsOnInvalidRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for min >= max")
		}
	}()
	NewRound(Range{5, 5}, fixedSource(0))
}

func TestEvaluateCorrect(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 25)
	out := mustEvaluate(t, r, "25")
	if out.Kind != Correct {
		t.Fatalf("kind = %s, want correct", out.Kind)
	}
	if out.TriesUsed != 1 || r.TriesUsed() != 1 {
		t.Errorf("tries used = %d/%d, want 1", out.TriesUsed, r.TriesUsed())
	}
	if !out.Terminal() || !r.Finished() {
		t.Error("correct guess should finish the round")
	}
}

func TestEvaluateLowHigh(t *testing.T) {
	r := roundWithTarget(t, Range{1, 100}, 50)
	steps := []struct {
		guess string
		want  OutcomeKind
	}{
		{"10", TooLow},
		{"90", TooHigh},
		{"49", TooLow},
		{"51", TooHigh},
		{"50", Correct},
	}
	for i, s := range steps {
		out := mustEvaluate(t, r, s.guess)
		if out.Kind != s.want {
			t.Fatalf("guess %d (%s): kind = %s, want %s", i+1, s.guess, out.Kind, s.want)
		}
		if out.TriesUsed != i+1 {
			t.Fatalf("guess %d: tries used = %d", i+1, out.TriesUsed)
		}
		if out.TriesMax != 8 {
			t.Fatalf("guess %d: tries max = %d, want 8", i+1, out.TriesMax)
		}
	}
}

func TestRejectedInputKeepsTries(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 30)
	mustEvaluate(t, r, "10")

	tests := []struct {
		in   string
		kind OutcomeKind
		err  error
	}{
		{"", InvalidInput, ErrEmptyGuess},
		{"   \t ", InvalidInput, ErrEmptyGuess},
		{"abc", NotAnInteger, ErrNotInteger},
		{"12.5", NotAnInteger, ErrNotInteger},
		{"1e3", NotAnInteger, ErrNotInteger},
		{"0", OutOfRange, ErrOutOfRange},
		{"51", OutOfRange, ErrOutOfRange},
		{"-3", OutOfRange, ErrOutOfRange},
		{"99999999999999999999999", OutOfRange, ErrOutOfRange},
	}
	for _, tt := range tests {
		out := mustEvaluate(t, r, tt.in)
		if out.Kind != tt.kind {
			t.Errorf("%q: kind = %s, want %s", tt.in, out.Kind, tt.kind)
		}
		if !errors.Is(out.Err(), tt.err) {
			t.Errorf("%q: Err() = %v, want %v", tt.in, out.Err(), tt.err)
		}
		if out.Consumed() {
			t.Errorf("%q: rejected input reported as consumed", tt.in)
		}
		if r.TriesUsed() != 1 {
			t.Fatalf("%q: tries used changed to %d", tt.in, r.TriesUsed())
		}
	}
}

func TestWhitespaceAndSignsAccepted(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 7)
	if out := mustEvaluate(t, r, "  +7\n"); out.Kind != Correct {
		t.Fatalf("kind = %s, want correct", out.Kind)
	}
}

func TestTriesExhausted(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 42)
	wrong := []string{"1", "2", "3", "4", "5", "6", "7"}
	for i, g := range wrong {
		out := mustEvaluate(t, r, g)
		if i < len(wrong)-1 {
			if out.Kind != TooLow {
				t.Fatalf("guess %d: kind = %s, want too_low", i+1, out.Kind)
			}
			if out.Target != 0 {
				t.Fatalf("guess %d: target leaked", i+1)
			}
			continue
		}
		if out.Kind != TriesExhausted {
			t.Fatalf("7th guess: kind = %s, want tries_exhausted", out.Kind)
		}
		if out.Target != 42 {
			t.Errorf("revealed target = %d, want 42", out.Target)
		}
		if out.TriesUsed != 7 || out.TriesMax != 7 {
			t.Errorf("tries = %d/%d, want 7/7", out.TriesUsed, out.TriesMax)
		}
	}
	if _, err := r.Evaluate("42"); !errors.Is(err, ErrRoundOver) {
		t.Fatalf("err = %v, want ErrRoundOver", err)
	}
	if r.TriesUsed() != r.TriesMax() {
		t.Errorf("tries used %d exceeds or misses limit %d", r.TriesUsed(), r.TriesMax())
	}
}

func TestCorrectOnLastTry(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 50)
	for i := 0; i < 6; i++ {
		mustEvaluate(t, r, "1")
	}
	out := mustEvaluate(t, r, "50")
	if out.Kind != Correct {
		t.Fatalf("kind = %s, want correct", out.Kind)
	}
	if r.TriesUsed() != r.TriesMax() {
		t.Errorf("tries used = %d, want %d", r.TriesUsed(), r.TriesMax())
	}
}

func TestRoundOverAfterCorrect(t *testing.T) {
	r := roundWithTarget(t, Range{1, 50}, 3)
	mustEvaluate(t, r, "3")
	if _, err := r.Evaluate("3"); !errors.Is(err, ErrRoundOver) {
		t.Fatalf("err = %v, want ErrRoundOver", err)
	}
	if r.TriesUsed() != 1 {
		t.Errorf("tries used = %d, want 1", r.TriesUsed())
	}
}

func TestOutcomeMessages(t *testing.T) {
	tests := []struct {
		o    Outcome
		want string
	}{
		{Outcome{Kind: TooLow}, "Try a bigger number."},
		{Outcome{Kind: TooHigh}, "Try a smaller number."},
		{Outcome{Kind: OutOfRange, Min: 1, Max: 50}, "Please enter a number between 1–50."},
		{Outcome{Kind: TriesExhausted, Target: 17}, "Out of tries! The correct number was 17. New number picked."},
	}
	for _, tt := range tests {
		if got := tt.o.Message(); got != tt.want {
			t.Errorf("%s: Message() = %q, want %q", tt.o.Kind, got, tt.want)
		}
	}
}
