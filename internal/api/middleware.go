package api

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/insightdelivered/card-statement-converter/internal/logger"
	"github.com/insightdelivered/card-statement-converter/internal/models"
)

// RequestObserver receives one observation per completed request.
type RequestObserver interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger attaches a request scoped logger to the user context and
// logs each completed request.
func RequestLogger(base zerolog.Logger, observer RequestObserver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		requestID := c.GetRespHeader(fiber.HeaderXRequestID)

		reqLog := base.With().Str("request_id", requestID).Logger()
		c.SetUserContext(logger.WithContext(c.UserContext(), reqLog))

		if err := c.Next(); err != nil {
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		elapsed := time.Since(start)
		status := c.Response().StatusCode()
		route := c.Route().Path

		event := reqLog.Info()
		switch {
		case status >= 500:
			event = reqLog.Error()
		case status >= 400:
			event = reqLog.Warn()
		}
		event.
			Str("method", c.Method()).
			Str("path", c.Path()).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("ip", c.IP()).
			Msg("request completed")

		if observer != nil {
			observer.ObserveRequest(c.Method(), route, status, elapsed)
		}
		return nil
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter limits requests per client IP with a token bucket.
type RateLimiter struct {
	mu          sync.Mutex
	visitors    map[string]*visitor
	limit       rate.Limit
	burst       int
	idle        time.Duration
	lastCleanup time.Time
	now         func() time.Time
}

// NewRateLimiter allows perSecond requests per IP with the given burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		visitors:    make(map[string]*visitor),
		limit:       rate.Limit(perSecond),
		burst:       burst,
		idle:        3 * time.Minute,
		lastCleanup: time.Now(),
		now:         time.Now,
	}
}

// Handler is the fiber middleware.
func (rl *RateLimiter) Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !rl.allow(c.IP()) {
			c.Set(fiber.HeaderRetryAfter, "1")
			return c.Status(fiber.StatusTooManyRequests).JSON(
				models.ErrorResult("Too many requests", "Rate limit exceeded, please retry shortly"))
		}
		return c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastCleanup) > time.Minute {
		for key, v := range rl.visitors {
			if now.Sub(v.lastSeen) > rl.idle {
				delete(rl.visitors, key)
			}
		}
		rl.lastCleanup = now
	}

	v, exists := rl.visitors[ip]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}
