package backend

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RouterConfig tunes the HTTP surface of the mock service.
type RouterConfig struct {
	Latency   LatencyConfig
	RateLimit rate.Limit // events/sec per client; 0 disables
	RateBurst int
}

// NewRouter exposes the service over its HTTP-shaped endpoint surface.
func NewRouter(svc *Service, logger *zap.Logger, cfg RouterConfig) http.Handler {
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(RequestLogger(logger))
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit)
		}
		r.Use(NewClientRateLimiter(cfg.RateLimit, burst).Middleware)
	}
	r.Use(Latency(cfg.Latency))
	r.Use(ValidateJSON)

	r.Post("/auth/login", h.login)
	r.Get("/chats", h.listChats)
	r.Post("/chats", h.createChat)
	r.Get("/chats/{id}/messages", h.listMessages)
	r.Post("/chats/{id}/messages", h.postMessage)
	r.Get("/users", h.listUsers)
	r.Post("/upload", h.upload)

	return r
}
