// Package ratelimit provides a Redis fixed-window request limiter for the
// intake endpoints.
//
// Each (scope, client IP, minute) triple owns one counter key. The first
// request in a window creates the key with a short TTL, so abandoned windows
// clean themselves up. When Redis is unreachable the limiter lets the
// request through and logs a warning.
//
// Clients are keyed by the TCP peer recorded by CapturePeer. Forwarded
// headers are honored only when that peer is a configured trusted proxy.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/careconnect/intake/internal/pkg/httputil"
	"github.com/careconnect/intake/internal/pkg/logger"
)

const (
	keyWindowCounter = "ratelimit:intake:%s:%s:%s"
	windowLayout     = "200601021504"
	windowTTL        = 2 * time.Minute
)

// Limiter counts requests per client in one-minute windows.
type Limiter struct {
	client  *redis.Client
	limit   int64
	now     func() time.Time
	trusted []netip.Prefix
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the window clock.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// WithTrustedProxies lets requests arriving from these networks be keyed by
// the forwarded client address instead of the proxy's own.
func WithTrustedProxies(prefixes []netip.Prefix) Option {
	return func(l *Limiter) { l.trusted = prefixes }
}

// ParseTrustedProxies accepts CIDR blocks and bare addresses.
func ParseTrustedProxies(entries []string) ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(entries))
	for _, e := range entries {
		if p, err := netip.ParsePrefix(e); err == nil {
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(e)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: not an address or CIDR", e)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

type peerKey struct{}

// CapturePeer stores the connection's remote address before any middleware
// rewrites RemoteAddr from forwarded headers. It must run ahead of
// middleware.RealIP.
func CapturePeer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), peerKey{}, r.RemoteAddr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// New creates a limiter allowing perMinute requests per client and scope.
func New(client *redis.Client, perMinute int, opts ...Option) *Limiter {
	l := &Limiter{client: client, limit: int64(perMinute), now: time.Now}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Allow records one request and reports whether it fits in the current window.
func (l *Limiter) Allow(ctx context.Context, scope, client string) (bool, error) {
	key := fmt.Sprintf(keyWindowCounter, scope, client, l.now().UTC().Format(windowLayout))

	pipe := l.client.Pipeline()
	count := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, windowTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("rate limit %s: %w", key, err)
	}
	return count.Val() <= l.limit, nil
}

// Middleware rejects requests over the limit with 429. onLimited, if set, is
// called for every rejected request.
func (l *Limiter) Middleware(scope string, onLimited func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := l.clientIP(r)
			ok, err := l.Allow(r.Context(), scope, ip)
			if err != nil {
				logger.Warn("rate limiter unavailable, allowing request", "scope", scope, "error", err)
			}
			if !ok {
				if onLimited != nil {
					onLimited()
				}
				httputil.TooManyRequests(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the TCP peer, or the forwarded address when the peer is
// a trusted proxy.
func (l *Limiter) clientIP(r *http.Request) string {
	peer := hostOnly(r.RemoteAddr)
	if v, ok := r.Context().Value(peerKey{}).(string); ok {
		peer = hostOnly(v)
	}
	if l.isTrusted(peer) {
		return hostOnly(r.RemoteAddr)
	}
	return peer
}

func (l *Limiter) isTrusted(host string) bool {
	if len(l.trusted) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range l.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func hostOnly(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
