// internal/httpserver/server.go
//
// HTTP server wiring for the guessing game.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs, rate limits).
//   - Public endpoints: "/", "/health", "/difficulties".
//   - Game endpoints: POST /game/new, GET /game, POST /game/guess, DELETE /game.
//   - WebSocket play endpoint: GET /play (see ws.go).
//   - Session token cookie handling and idle-session sweeping.
//
// Notes:
//   - Engine calls are serialised by s.mu; the round engine itself is single-threaded.
//   - On a terminal outcome the server starts the next round straight away;
//     the reveal pause is the client's job.
//   - The hidden target is never serialised to clients except when revealed
//     by a terminal outcome.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/robalobadob/guess/internal/config"
	"github.com/robalobadob/guess/internal/game"
	"github.com/robalobadob/guess/internal/store"
)

// Server bundles router, session store and the shared random source.
type Server struct {
	r         *chi.Mux
	store     store.Store
	cfg       config.Config
	tokens    tokenIssuer
	limiters  *limiterSet
	newSource func() game.Source
	now       func() time.Time

	mu  sync.Mutex  // serialises engine calls and guards src
	src game.Source // draws targets for HTTP sessions
}

// New constructs a Server, installs middleware, and registers routes.
// newSource is called once for HTTP sessions and once per WebSocket connection.
func New(st store.Store, cfg config.Config, newSource func() game.Source) *Server {
	s := &Server{
		r:         chi.NewRouter(),
		store:     st,
		cfg:       cfg,
		newSource: newSource,
		now:       time.Now,
		src:       newSource(),
	}
	s.tokens = tokenIssuer{secret: []byte(cfg.TokenSecret), ttl: cfg.SessionTTL, now: func() time.Time { return s.now() }}
	s.limiters = newLimiterSet(cfg.RateLimitRPS, cfg.RateLimitBurst, func() time.Time { return s.now() })

	// --- middleware ---
	s.r.Use(chimw.RequestID) // add X-Request-ID
	s.r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(cors(cfg.ClientOrigin))

	// WebSocket play stays outside the timeout / wrapped-writer middleware.
	s.r.Get("/play", s.handlePlay)

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second)) // bound handler time
		r.Use(requestLogger)
		r.Use(jsonContentType)

		// --- diagnostics ---
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"service":"guess-go","endpoints":["/health","/difficulties","POST /game/new","GET /game","POST /game/guess","DELETE /game","GET /play"]}`))
		})
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"ok":true}`))
		})
		r.Get("/difficulties", s.handleDifficulties)

		r.Get("/game", s.handleGetGame)
		r.Delete("/game", s.handleQuit)
		r.With(s.limiters.rateLimit).Post("/game/new", s.handleNewGame)
		r.With(s.limiters.rateLimit).Post("/game/guess", s.handleGuess)
	})

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found")
	})

	return s
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// Run serves HTTP on addr until ctx is cancelled, sweeping idle sessions meanwhile.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go s.sweepLoop(ctx)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// sweepLoop periodically drops sessions idle for longer than SessionTTL.
func (s *Server) sweepLoop(ctx context.Context) {
	interval := max(s.cfg.SessionTTL/4, time.Second)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.SweepExpired(ctx); err != nil {
				log.Warn().Err(err).Msg("sweep sessions")
			}
			if n := s.limiters.evict(s.now().Add(-limiterIdle)); n > 0 {
				log.Debug().Int("count", n).Msg("evicted idle rate limiters")
			}
		}
	}
}

// SweepExpired removes sessions idle for longer than SessionTTL.
func (s *Server) SweepExpired(ctx context.Context) (int, error) {
	n, err := s.store.Sweep(ctx, s.now().Add(-s.cfg.SessionTTL))
	if n > 0 {
		log.Info().Int("count", n).Msg("swept idle sessions")
	}
	return n, err
}

// originPatterns converts CLIENT_ORIGIN into a host pattern for WebSocket checks.
func (s *Server) originPatterns() []string {
	u, err := url.Parse(s.cfg.ClientOrigin)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// ------------------------------ views --------------------------------------

// roundView is the public face of a round: no target.
type roundView struct {
	Min       int  `json:"min"`
	Max       int  `json:"max"`
	TriesUsed int  `json:"triesUsed"`
	TriesMax  int  `json:"triesMax"`
	Remaining int  `json:"remaining"`
	Finished  bool `json:"finished"`
}

type sessionView struct {
	Difficulty string    `json:"difficulty"`
	Label      string    `json:"label"`
	Score      int       `json:"score"`
	Round      roundView `json:"round"`
}

func viewOf(sess *game.Session) sessionView {
	r := sess.Round()
	return sessionView{
		Difficulty: sess.Difficulty().Name,
		Label:      sess.Difficulty().Label,
		Score:      sess.Score(),
		Round: roundView{
			Min:       r.Range().Min,
			Max:       r.Range().Max,
			TriesUsed: r.TriesUsed(),
			TriesMax:  r.TriesMax(),
			Remaining: r.Remaining(),
			Finished:  r.Finished(),
		},
	}
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": code})
}

// ---------------------------- difficulties ---------------------------------

type difficultyView struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Min      int    `json:"min"`
	Max      int    `json:"max"`
	TriesMax int    `json:"triesMax"`
}

func (s *Server) handleDifficulties(w http.ResponseWriter, r *http.Request) {
	out := lo.Map(game.Difficulties, func(d game.Difficulty, _ int) difficultyView {
		return difficultyView{Name: d.Name, Label: d.Label, Min: d.Range.Min, Max: d.Range.Max, TriesMax: game.TriesFor(d.Range)}
	})
	_ = json.NewEncoder(w).Encode(out)
}

// ------------------------------ GAME ---------------------------------------

// newGameReq/Res payloads for POST /game/new.
type newGameReq struct {
	Difficulty string `json:"difficulty"` // "easy" | "medium" | "hard"
}
type newGameRes struct {
	Token   string      `json:"token"` // same value as the cookie, for bearer clients
	Session sessionView `json:"session"`
}

// handleNewGame starts a fresh session (score 0) on the chosen difficulty.
// A caller that already holds a valid token keeps its session id.
func (s *Server) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req newGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}
	d, ok := game.LookupDifficulty(req.Difficulty)
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown_difficulty")
		return
	}

	id, err := s.sessionID(r)
	if err != nil {
		id = uuid.NewString()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess := game.NewSession(d, s.src)
	sess.ID = id
	if err := s.save(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("session", id).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	tok, exp, err := s.tokens.Sign(id)
	if err != nil {
		log.Error().Err(err).Msg("sign session token")
		writeError(w, http.StatusInternalServerError, "sign_failed")
		return
	}
	s.setSessionCookie(w, tok, exp)
	log.Info().Str("session", id).Str("difficulty", d.Name).Msg("session started")
	_ = json.NewEncoder(w).Encode(newGameRes{Token: tok, Session: viewOf(sess)})
}

// handleGetGame returns the caller's current session.
func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	s.renewToken(w, sess.ID)
	_ = json.NewEncoder(w).Encode(viewOf(sess))
}

// guessReq/Res payloads for POST /game/guess.
type guessReq struct {
	Guess string `json:"guess"`
}
type guessRes struct {
	Outcome   game.Outcome `json:"outcome"`
	Message   string       `json:"message"`
	NextRound bool         `json:"nextRound"` // a new round replaced the finished one
	Session   sessionView  `json:"session"`
	Token     string       `json:"token,omitempty"` // renewed session token
}

// handleGuess evaluates a guess against the caller's active round.
// Rejected input (empty, not an integer, out of range) is still a 200 with
// the matching outcome kind; it consumes no try.
func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_json")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.loadSession(w, r)
	if !ok {
		return
	}
	out, err := sess.Guess(req.Guess)
	if errors.Is(err, game.ErrRoundOver) {
		// Terminal outcomes start the next round before saving, so a
		// finished round is only stored if that save failed. Recover here.
		sess.NextRound()
		if err := s.save(r.Context(), sess); err != nil {
			log.Warn().Err(err).Str("session", sess.ID).Msg("save session")
		}
		writeError(w, http.StatusConflict, "round_over")
		return
	}

	res := guessRes{Outcome: out, Message: out.Message()}
	if out.Terminal() {
		log.Debug().Str("session", sess.ID).Str("outcome", string(out.Kind)).Int("tries", out.TriesUsed).Msg("round finished")
		sess.NextRound()
		res.NextRound = true
	}
	if err := s.save(r.Context(), sess); err != nil {
		log.Error().Err(err).Str("session", sess.ID).Msg("save session")
		writeError(w, http.StatusInternalServerError, "save_failed")
		return
	}
	res.Session = viewOf(sess)
	res.Token = s.renewToken(w, sess.ID)
	_ = json.NewEncoder(w).Encode(res)
}

// handleQuit ends the caller's session and clears the cookie (back to the menu).
func (s *Server) handleQuit(w http.ResponseWriter, r *http.Request) {
	if id, err := s.sessionID(r); err == nil {
		if err := s.store.Delete(r.Context(), id); err != nil {
			log.Warn().Err(err).Str("session", id).Msg("delete session")
		}
	}
	s.clearSessionCookie(w)
	_ = json.NewEncoder(w).Encode(map[string]bool{"ok": true})
}

// loadSession resolves the caller's token to a playable session, writing an
// error response and returning false when it cannot. Caller holds s.mu.
func (s *Server) loadSession(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	id, err := s.sessionID(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "no_session")
		return nil, false
	}
	st, err := s.store.Get(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if err != nil {
		log.Error().Err(err).Str("session", id).Msg("load session")
		writeError(w, http.StatusInternalServerError, "load_failed")
		return nil, false
	}
	sess, err := game.RestoreSession(st, s.src)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("dropping corrupt session")
		_ = s.store.Delete(r.Context(), id)
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	return sess, true
}

// save stamps and persists a session snapshot.
func (s *Server) save(ctx context.Context, sess *game.Session) error {
	st := sess.State()
	st.UpdatedAt = s.now()
	return s.store.Save(ctx, st)
}
