package api

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// clientIdle is how long a client's bucket is kept after its last
// request. Any bucket idle this long has refilled completely.
const clientIdle = 3 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clientLimiter keeps one token bucket per client address. The burst is
// a quarter of the per-minute limit.
type clientLimiter struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	clients   map[string]*client
	lastPrune time.Time
	now       func() time.Time
}

func newClientLimiter(perMinute int) *clientLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	burst := perMinute / 4
	if burst < 1 {
		burst = 1
	}

	return &clientLimiter{
		limit:     rate.Limit(float64(perMinute) / 60.0),
		burst:     burst,
		clients:   make(map[string]*client),
		lastPrune: time.Now(),
		now:       time.Now,
	}
}

// allow takes a token from key's bucket. When none is left it reports
// how long until one is.
func (c *clientLimiter) allow(key string) (bool, time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if now.Sub(c.lastPrune) >= clientIdle {
		c.pruneLocked(now)
	}

	cl, ok := c.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.clients[key] = cl
	}
	cl.lastSeen = now

	if cl.limiter.AllowN(now, 1) {
		return true, 0
	}
	res := cl.limiter.ReserveN(now, 1)
	wait := res.DelayFrom(now)
	res.CancelAt(now)
	return false, wait
}

func (c *clientLimiter) pruneLocked(now time.Time) {
	for key, cl := range c.clients {
		if now.Sub(cl.lastSeen) >= clientIdle {
			delete(c.clients, key)
		}
	}
	c.lastPrune = now
}

// size returns the number of tracked clients.
func (c *clientLimiter) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

// middleware rejects requests from clients that exhausted their bucket.
func (c *clientLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip limits for health checks
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		ok, wait := c.allow(clientKey(r))
		if !ok {
			secs := int(wait.Seconds()) + 1
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientKey is the request's peer address. It only reflects forwarding
// headers when middleware.RealIP ran first.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
