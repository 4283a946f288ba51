package httpserver

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/robalobadob/guess/internal/game"
)

func dialPlay(t *testing.T, offset int) (context.Context, *websocket.Conn) {
	t.Helper()
	s, _ := newTestServer(t, offset, testConfig())
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	c, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(ts.URL, "http")+"/play", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { c.Close(websocket.StatusNormalClosure, "") })
	return ctx, c
}

func exchange(t *testing.T, ctx context.Context, c *websocket.Conn, m clientMsg) serverMsg {
	t.Helper()
	if err := wsjson.Write(ctx, c, m); err != nil {
		t.Fatalf("write %+v: %v", m, err)
	}
	return read(t, ctx, c)
}

func read(t *testing.T, ctx context.Context, c *websocket.Conn) serverMsg {
	t.Helper()
	var got serverMsg
	if err := wsjson.Read(ctx, c, &got); err != nil {
		t.Fatalf("read: %v", err)
	}
	return got
}

func TestPlayCorrectThenNextRound(t *testing.T) {
	ctx, c := dialPlay(t, 24) // target 25

	if got := exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "1"}); got.Error != "no_session" {
		t.Fatalf("guess before start = %+v", got)
	}
	if got := exchange(t, ctx, c, clientMsg{Type: "start", Difficulty: "insane"}); got.Error != "unknown_difficulty" {
		t.Fatalf("bad start = %+v", got)
	}

	got := exchange(t, ctx, c, clientMsg{Type: "start", Difficulty: "easy"})
	if got.Type != "round" || got.Session == nil || got.Session.Round.TriesMax != 7 {
		t.Fatalf("start = %+v", got)
	}

	got = exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "25"})
	if got.Type != "outcome" || got.Outcome == nil || got.Outcome.Kind != game.Correct || got.Session.Score != 1 {
		t.Fatalf("correct guess = %+v", got)
	}

	// The finished round stays up until the reveal delay passes.
	if got := exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "25"}); got.Error != "round_over" {
		t.Fatalf("guess during reveal = %+v", got)
	}

	got = read(t, ctx, c)
	if got.Type != "round" || got.Session.Round.TriesUsed != 0 || got.Session.Score != 1 {
		t.Fatalf("next round = %+v", got)
	}
}

func TestPlayExhaustion(t *testing.T) {
	ctx, c := dialPlay(t, 41) // target 42
	exchange(t, ctx, c, clientMsg{Type: "start", Difficulty: "easy"})

	var got serverMsg
	for i := 0; i < 7; i++ {
		got = exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "1"})
	}
	if got.Outcome == nil || got.Outcome.Kind != game.TriesExhausted || got.Outcome.Target != 42 {
		t.Fatalf("7th guess = %+v", got)
	}
	if next := read(t, ctx, c); next.Type != "round" || next.Session.Score != 0 {
		t.Fatalf("next round = %+v", next)
	}
}

func TestPlayRejectsUnknownType(t *testing.T) {
	ctx, c := dialPlay(t, 0)
	if got := exchange(t, ctx, c, clientMsg{Type: "dance"}); got.Error != "unknown_type" {
		t.Fatalf("got %+v", got)
	}
}

func TestPlayStartCancelsPendingReveal(t *testing.T) {
	ctx, c := dialPlay(t, 24) // target 25, reveal 300ms
	exchange(t, ctx, c, clientMsg{Type: "start", Difficulty: "easy"})
	if got := exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "25"}); got.Outcome == nil || got.Outcome.Kind != game.Correct {
		t.Fatalf("correct guess = %+v", got)
	}

	got := exchange(t, ctx, c, clientMsg{Type: "start", Difficulty: "medium"})
	if got.Type != "round" || got.Session.Difficulty != "medium" || got.Session.Score != 0 {
		t.Fatalf("restart = %+v", got)
	}

	// Once the old reveal delay has passed, the next message must still be
	// the reply to our guess, not a stray round from the cancelled timer.
	time.Sleep(500 * time.Millisecond)
	got = exchange(t, ctx, c, clientMsg{Type: "guess", Guess: "10"})
	if got.Type != "outcome" || got.Outcome.Kind != game.TooLow || got.Session.Round.TriesUsed != 1 {
		t.Fatalf("after cancelled reveal = %+v", got)
	}
}
