package middleware

import (
	"encoding/json"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/xavierca1/studio-funnel/internal/infra/ratelimit"
)

type rateLimitResponse struct {
	Error   string    `json:"error"`
	ResetAt time.Time `json:"resetAt"`
}

// RateLimit rejects a client that used up policy p with 429 and the time
// its window resets. The handler does not run for a rejected request.
func RateLimit(l *ratelimit.Limiter, p ratelimit.Policy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ratelimit.ClientIdentifier(r)
			res := l.Check(id, p)

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			if res.Allowed {
				next.ServeHTTP(w, r)
				return
			}

			RecordRateLimited(p.Name)
			slog.Warn("rate limited", slog.String("policy", p.Name), slog.String("client", id))

			wait := math.Ceil(time.Until(res.ResetAt).Seconds())
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Max(wait, 1))))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(rateLimitResponse{
				Error:   "Too many requests. Please try again later.",
				ResetAt: res.ResetAt,
			})
		})
	}
}

// BearerToken guards admin routes. An empty token leaves the route open.
func BearerToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
