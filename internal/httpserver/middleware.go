package httpserver

import (
	"net"
	"net/http"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for a single origin (cookies must flow).
func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Vary", "Origin")
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", sessionTokenHeader)
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// requestLogger logs one line per request with status and latency.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("requestId", chimw.GetReqID(r.Context())).
			Msg("request")
	})
}

// limiterIdle is how long a client bucket may go unused before evict drops it.
// An idle bucket has long since refilled, so dropping it loses nothing.
const limiterIdle = 10 * time.Minute

// limiterSet hands out one token bucket per client key.
type limiterSet struct {
	mu    sync.Mutex
	rps   int
	burst int
	now   func() time.Time
	byKey map[string]*clientLimiter
}

type clientLimiter struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func newLimiterSet(rps, burst int, now func() time.Time) *limiterSet {
	return &limiterSet{rps: max(rps, 1), burst: burst, now: now, byKey: make(map[string]*clientLimiter)}
}

func (l *limiterSet) get(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	cl, ok := l.byKey[key]
	if !ok {
		cl = &clientLimiter{lim: rate.NewLimiter(rate.Every(time.Second/time.Duration(l.rps)), l.burst)}
		l.byKey[key] = cl
	}
	cl.lastSeen = l.now()
	return cl.lim
}

// evict drops buckets not used since cutoff and reports how many went.
func (l *limiterSet) evict(cutoff time.Time) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for key, cl := range l.byKey {
		if cl.lastSeen.Before(cutoff) {
			delete(l.byKey, key)
			n++
		}
	}
	return n
}

// rateLimit rejects clients that exceed their bucket with 429.
func (l *limiterSet) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.get(clientKey(r)).Allow() {
			writeError(w, http.StatusTooManyRequests, "rate_limited")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientKey is the caller's IP (RemoteAddr is already rewritten by RealIP).
func clientKey(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
