package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dunamismax/seamflow/internal/ratelimit"
)

type RateLimiter interface {
	AllowN(ctx context.Context, subject string, cost int) (ratelimit.Decision, error)
}

// withRateLimit charges one token for job creation. Job starts are charged in
// the handler, where the pipeline length is known.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.rateLimiter == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || routeLabel(r.URL.Path) != "/v1/jobs" {
			next.ServeHTTP(w, r)
			return
		}
		if !s.allow(w, r, r.Header.Get(s.userHeader), 1) {
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allow checks the caller's bucket and writes the rejection when it is empty.
// Limiter failures let the request through.
func (s *Server) allow(w http.ResponseWriter, r *http.Request, userID string, cost int) bool {
	if s.rateLimiter == nil {
		return true
	}

	subject := strings.TrimSpace(userID)
	if subject == "" {
		subject = "anonymous"
	}
	route := routeLabel(r.URL.Path)
	subject = subject + ":" + route

	decision, err := s.rateLimiter.AllowN(r.Context(), subject, cost)
	if errors.Is(err, ratelimit.ErrCostExceedsCapacity) {
		s.metrics.rateLimitRejected.WithLabelValues(route).Inc()
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{
			"error": "pipeline has more steps than the rate limit allows",
		})
		return false
	}
	if err != nil {
		s.logger.Printf("rate limiter check failed subject=%s err=%v", subject, err)
		return true
	}

	if decision.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
	}
	w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
	if decision.Allowed {
		return true
	}

	retryAfter := int(decision.RetryAfter.Round(time.Second).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	s.metrics.rateLimitRejected.WithLabelValues(route).Inc()
	writeJSON(w, http.StatusTooManyRequests, map[string]string{
		"error": "rate limit exceeded",
	})
	return false
}
