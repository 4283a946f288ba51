package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/robalobadob/guess/internal/game"
)

// clientMsg is what a /play client sends.
//
//	{"type":"start","difficulty":"easy"}
//	{"type":"guess","guess":"25"}
type clientMsg struct {
	Type       string `json:"type"`
	Difficulty string `json:"difficulty,omitempty"`
	Guess      string `json:"guess,omitempty"`
}

// serverMsg is what /play pushes back: "round", "outcome" or "error".
type serverMsg struct {
	Type    string        `json:"type"`
	Session *sessionView  `json:"session,omitempty"`
	Outcome *game.Outcome `json:"outcome,omitempty"`
	Message string        `json:"message,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// handlePlay accepts the WebSocket connection and runs one game session on it.
// The session lives exactly as long as the connection.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.originPatterns()})
	if err != nil {
		log.Warn().Err(err).Msg("websocket accept")
		return
	}
	defer c.CloseNow()

	err = s.play(r.Context(), c)
	if errors.Is(err, context.Canceled) ||
		websocket.CloseStatus(err) == websocket.StatusNormalClosure ||
		websocket.CloseStatus(err) == websocket.StatusGoingAway {
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("play connection")
	}
}

// play owns the connection's session. A reader goroutine feeds client
// messages in; everything that touches the session happens in this loop,
// including the reveal timer that starts the next round.
func (s *Server) play(ctx context.Context, c *websocket.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	msgs := make(chan clientMsg)
	errc := make(chan error, 1)
	go func() {
		l := rate.NewLimiter(rate.Every(100*time.Millisecond), 10)
		for {
			if err := l.Wait(ctx); err != nil {
				errc <- err
				return
			}
			var m clientMsg
			if err := wsjson.Read(ctx, c, &m); err != nil {
				errc <- err
				return
			}
			select {
			case msgs <- m:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	var (
		src    = s.newSource()
		sess   *game.Session
		timer  *time.Timer
		reveal <-chan time.Time
	)
	stopReveal := func() {
		if timer != nil {
			timer.Stop()
		}
		reveal = nil
	}
	defer stopReveal()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case <-reveal:
			reveal = nil
			sess.NextRound()
			if err := send(ctx, c, roundMsg(sess)); err != nil {
				return err
			}
		case m := <-msgs:
			var reply serverMsg
			switch m.Type {
			case "start":
				d, ok := game.LookupDifficulty(m.Difficulty)
				if !ok {
					reply = serverMsg{Type: "error", Error: "unknown_difficulty"}
					break
				}
				stopReveal()
				sess = game.NewSession(d, src)
				reply = roundMsg(sess)
			case "guess":
				if sess == nil {
					reply = serverMsg{Type: "error", Error: "no_session"}
					break
				}
				out, err := sess.Guess(m.Guess)
				if errors.Is(err, game.ErrRoundOver) {
					reply = serverMsg{Type: "error", Error: "round_over"}
					break
				}
				v := viewOf(sess)
				reply = serverMsg{Type: "outcome", Session: &v, Outcome: &out, Message: out.Message()}
				if out.Terminal() {
					timer = time.NewTimer(s.revealDelay(out))
					reveal = timer.C
				}
			default:
				reply = serverMsg{Type: "error", Error: "unknown_type"}
			}
			if err := send(ctx, c, reply); err != nil {
				return err
			}
		}
	}
}

// revealDelay is how long a finished round stays on screen.
func (s *Server) revealDelay(out game.Outcome) time.Duration {
	if out.Kind == game.Correct {
		return s.cfg.RevealCorrect
	}
	return s.cfg.RevealExhausted
}

func roundMsg(sess *game.Session) serverMsg {
	v := viewOf(sess)
	return serverMsg{Type: "round", Session: &v}
}

// send writes one JSON message with a 5s write timeout.
func send(ctx context.Context, c *websocket.Conn, m serverMsg) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return wsjson.Write(ctx, c, m)
}
