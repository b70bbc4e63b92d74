package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hongminglow/lapse-be/internal/http/respond"
	"github.com/hongminglow/lapse-be/internal/logger"
)

// RateLimitConfig configures per-client rate limiting.
type RateLimitConfig struct {
	RequestsPerMinute int
	BurstSize         int
	// KeyFunc identifies the client; defaults to ForwardedClientIP(TrustedProxies).
	KeyFunc func(r *http.Request) string
	// TrustedProxies are peers allowed to report the client in X-Forwarded-For.
	TrustedProxies []netip.Prefix
	// IdleTTL drops limiters for clients that have been quiet this long.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client key.
type RateLimiter struct {
	cfg      RateLimitConfig
	mu       sync.Mutex
	visitors map[string]*visitor
	lastGC   time.Time
}

// NewRateLimiter returns a limiter; a non-positive rate disables limiting.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = 1
	}
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = ForwardedClientIP(cfg.TrustedProxies)
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 10 * time.Minute
	}
	return &RateLimiter{cfg: cfg, visitors: make(map[string]*visitor)}
}

// Allow reports whether the client identified by key may proceed now.
func (l *RateLimiter) Allow(key string) bool {
	if l.cfg.RequestsPerMinute <= 0 {
		return true
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastGC) > l.cfg.IdleTTL {
		for k, v := range l.visitors {
			if now.Sub(v.lastSeen) > l.cfg.IdleTTL {
				delete(l.visitors, k)
			}
		}
		l.lastGC = now
	}

	v, ok := l.visitors[key]
	if !ok {
		every := time.Minute / time.Duration(l.cfg.RequestsPerMinute)
		v = &visitor{limiter: rate.NewLimiter(rate.Every(every), l.cfg.BurstSize)}
		l.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := l.cfg.KeyFunc(r)
		if !l.Allow(key) {
			logger.Warningf("rate limit exceeded for %s on %s", key, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			respond.Error(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the host part of the peer address. Request headers are ignored.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ForwardedClientIP honors X-Forwarded-For only when the peer is a trusted
// proxy. The client is the rightmost hop that is not itself trusted.
func ForwardedClientIP(trusted []netip.Prefix) func(r *http.Request) string {
	return func(r *http.Request) string {
		peer := ClientIP(r)
		if !isTrustedProxy(trusted, peer) {
			return peer
		}
		var hops []string
		for _, v := range r.Header.Values("X-Forwarded-For") {
			hops = append(hops, strings.Split(v, ",")...)
		}
		for i := len(hops) - 1; i >= 0; i-- {
			addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				return peer
			}
			if !prefixesContain(trusted, addr.Unmap()) {
				return addr.Unmap().String()
			}
		}
		return peer
	}
}

func isTrustedProxy(trusted []netip.Prefix, ip string) bool {
	if len(trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	return prefixesContain(trusted, addr.Unmap())
}

func prefixesContain(prefixes []netip.Prefix, addr netip.Addr) bool {
	for _, p := range prefixes {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
