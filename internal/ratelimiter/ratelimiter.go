// Package ratelimiter throttles the web API per client address.
//
// Each client gets its own token bucket so one chatty peer cannot starve the
// others. The fast transfer port is intentionally not limited: throughput is
// its whole point, and a LAN peer that wants to saturate it is using it as
// intended.
package ratelimiter

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// unlimited stands in for rate.Inf, which skips token accounting entirely
// and makes Tokens() meaningless for monitoring.
const unlimited = 1_000_000_000

// ClientLimiter hands out a token bucket per client address and evicts
// buckets that have been idle long enough to be full again anyway.
type ClientLimiter struct {
	rps   rate.Limit
	burst int

	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// New creates a ClientLimiter allowing requestsPerSecond sustained per
// client with the given burst capacity. A zero rate disables limiting.
func New(requestsPerSecond, burst uint) *ClientLimiter {
	if requestsPerSecond == 0 {
		requestsPerSecond = unlimited
		burst = unlimited
	}
	return &ClientLimiter{
		rps:     rate.Limit(requestsPerSecond),
		burst:   int(burst),
		clients: make(map[string]*clientBucket),
	}
}

// Allow reports whether the client may make a request now, consuming one
// token if so.
func (l *ClientLimiter) Allow(client string) bool {
	return l.bucket(client).Allow()
}

// Tokens returns the client's current token count, for monitoring.
func (l *ClientLimiter) Tokens(client string) float64 {
	return l.bucket(client).Tokens()
}

func (l *ClientLimiter) bucket(client string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.clients[client]
	if !ok {
		b = &clientBucket{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[client] = b
	}
	b.lastSeen = time.Now()
	return b.limiter
}

// Prune drops buckets idle longer than maxIdle and returns how many were
// removed. Callers run this periodically; an evicted client simply gets a
// fresh full bucket on its next request.
func (l *ClientLimiter) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for client, b := range l.clients {
		if b.lastSeen.Before(cutoff) {
			delete(l.clients, client)
			removed++
		}
	}
	return removed
}

// Middleware wraps an http.Handler, answering 429 when the client's bucket
// is empty. The client key is the remote IP without the ephemeral port.
func (l *ClientLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(clientKey(r.RemoteAddr)) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
