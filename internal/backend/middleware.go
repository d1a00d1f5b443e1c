package backend

import (
	"bytes"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/valyala/fastjson"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// LatencyConfig injects artificial delay so the mock behaves like a remote
// service: a fixed delay on reads, a random one on mutating calls. A zero
// config disables the delay (tests).
type LatencyConfig struct {
	Read     time.Duration
	WriteMin time.Duration
	WriteMax time.Duration
}

// DefaultLatency mirrors the delays the original mock used.
var DefaultLatency = LatencyConfig{
	Read:     time.Second,
	WriteMin: 500 * time.Millisecond,
	WriteMax: 2 * time.Second,
}

func (c LatencyConfig) delayFor(method string) time.Duration {
	if method == http.MethodGet {
		return c.Read
	}
	if c.WriteMax <= c.WriteMin {
		return c.WriteMin
	}
	return c.WriteMin + time.Duration(rand.Int63n(int64(c.WriteMax-c.WriteMin)))
}

// Latency returns a middleware that sleeps before handling, honoring
// request cancellation.
func Latency(cfg LatencyConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if d := cfg.delayFor(r.Method); d > 0 {
				t := time.NewTimer(d)
				select {
				case <-t.C:
				case <-r.Context().Done():
					t.Stop()
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per handled request.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	}
}

// ValidateJSON rejects JSON POST bodies that are not well-formed before they
// reach a handler. Multipart uploads pass through untouched.
func ValidateJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if r.Method != http.MethodPost || strings.HasPrefix(ct, "multipart/") {
			next.ServeHTTP(w, r)
			return
		}

		var buf bytes.Buffer
		body, err := io.ReadAll(io.TeeReader(r.Body, &buf))
		if err != nil {
			respondError(w, http.StatusBadRequest, "cannot read request body")
			return
		}
		if len(body) == 0 {
			respondError(w, http.StatusBadRequest, "no body provided")
			return
		}
		if err := fastjson.ValidateBytes(body); err != nil {
			respondError(w, http.StatusBadRequest, "malformed JSON")
			return
		}
		r.Body = io.NopCloser(&buf)
		next.ServeHTTP(w, r)
	})
}

// ClientRateLimiter applies a token-bucket limit per remote address.
type ClientRateLimiter struct {
	mu     sync.Mutex
	limits map[string]*rate.Limiter
	r      rate.Limit
	b      int
}

// NewClientRateLimiter allows r events per second with burst b per client.
func NewClientRateLimiter(r rate.Limit, b int) *ClientRateLimiter {
	return &ClientRateLimiter{
		limits: make(map[string]*rate.Limiter),
		r:      r,
		b:      b,
	}
}

func (l *ClientRateLimiter) limiterFor(addr string) *rate.Limiter {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limits[host]
	if !ok {
		lim = rate.NewLimiter(l.r, l.b)
		l.limits[host] = lim
	}
	return lim
}

// Middleware responds 429 when a client exceeds its budget.
func (l *ClientRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.limiterFor(r.RemoteAddr).Allow() {
			respondError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
