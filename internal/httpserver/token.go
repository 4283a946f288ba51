// internal/httpserver/token.go
//
// Session tokens: an HS256 JWT whose subject is the session ID.
// Clients present it as a cookie (browser) or Authorization: Bearer header.
// The token only proves the client was handed that session; the session
// itself lives in the store. Both expire SESSION_TTL after the last request:
// the store row is restamped on save and the token is renewed on every read
// or guess.

package httpserver

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

const (
	sessionCookieName  = "guess_session"
	sessionTokenHeader = "X-Session-Token"
)

var errNoToken = errors.New("no session token")

// tokenIssuer signs and verifies session tokens.
type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// Sign creates a token for session id, valid for the configured TTL.
func (t tokenIssuer) Sign(id string) (string, time.Time, error) {
	now := t.now()
	exp := now.Add(t.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   id,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	ss, err := tok.SignedString(t.secret)
	return ss, exp, err
}

// Parse verifies a token and returns its session id.
func (t tokenIssuer) Parse(raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return t.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return "", err
	}
	if !tok.Valid || claims.Subject == "" {
		return "", errors.New("invalid session token")
	}
	return claims.Subject, nil
}

// renewToken re-signs the token for an active session so it expires
// SessionTTL after the last request, like the stored session does. The new
// token goes out as the cookie and in X-Session-Token; "" if signing failed.
func (s *Server) renewToken(w http.ResponseWriter, id string) string {
	tok, exp, err := s.tokens.Sign(id)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("renew session token")
		return ""
	}
	s.setSessionCookie(w, tok, exp)
	w.Header().Set(sessionTokenHeader, tok)
	return tok
}

// sessionID extracts and verifies the caller's session id.
func (s *Server) sessionID(r *http.Request) (string, error) {
	raw := bearerOrCookie(r)
	if raw == "" {
		return "", errNoToken
	}
	return s.tokens.Parse(raw)
}

// bearerOrCookie extracts a bearer token from the Authorization header or the session cookie.
func bearerOrCookie(r *http.Request) string {
	if a := r.Header.Get("Authorization"); strings.HasPrefix(strings.ToLower(a), "bearer ") {
		return strings.TrimSpace(a[7:])
	}
	if c, err := r.Cookie(sessionCookieName); err == nil {
		return c.Value
	}
	return ""
}

// setSessionCookie writes the token cookie. Cross-site origins need
// SameSite=None, which browsers only accept on Secure cookies.
func (s *Server) setSessionCookie(w http.ResponseWriter, token string, exp time.Time) {
	http.SetCookie(w, s.sessionCookie(token, exp, 0))
}

// clearSessionCookie deletes the token cookie.
func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, s.sessionCookie("", time.Time{}, -1))
}

func (s *Server) sessionCookie(value string, exp time.Time, maxAge int) *http.Cookie {
	secure := strings.HasPrefix(s.cfg.ClientOrigin, "https://")
	sameSite := http.SameSiteLaxMode
	if secure {
		sameSite = http.SameSiteNoneMode
	}
	return &http.Cookie{
		Name:     sessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: sameSite,
		Expires:  exp,
		MaxAge:   maxAge,
	}
}
