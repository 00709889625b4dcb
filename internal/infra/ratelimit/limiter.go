package ratelimit

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Unknown is the bucket shared by every client without an address header.
const Unknown = "unknown"

type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

var (
	ContactPolicy    = Policy{Name: "contact", Limit: 5, Window: 15 * time.Minute}
	BriefPolicy      = Policy{Name: "brief", Limit: 10, Window: time.Hour}
	BriefPDFPolicy   = Policy{Name: "brief-pdf", Limit: 20, Window: time.Hour}
	CalculatorPolicy = Policy{Name: "calculator", Limit: 10, Window: time.Hour}
	ImageProxyPolicy = Policy{Name: "image-proxy", Limit: 120, Window: time.Minute}
)

type Result struct {
	Allowed   bool      `json:"allowed"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

type Limiter struct {
	store Store
	now   func() time.Time
}

func NewLimiter(store Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

// WithClock replaces the time source, for tests.
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Check counts one attempt for id under p. A denied attempt is not recorded.
func (l *Limiter) Check(id string, p Policy) Result {
	now := l.now()
	var res Result

	l.store.Update(p.Name+":"+id, func(rec *Record) *Record {
		if rec == nil || !now.Before(rec.ResetAt) {
			rec = &Record{ResetAt: now.Add(p.Window)}
		}

		cutoff := now.Add(-p.Window)
		kept := rec.Attempts[:0]
		for _, at := range rec.Attempts {
			if at.After(cutoff) {
				kept = append(kept, at)
			}
		}
		rec.Attempts = kept

		remaining := p.Limit - len(rec.Attempts)
		if remaining < 1 {
			res = Result{Allowed: false, Remaining: 0, ResetAt: rec.ResetAt}
			return rec
		}

		rec.Attempts = append(rec.Attempts, now)
		res = Result{Allowed: true, Remaining: remaining - 1, ResetAt: rec.ResetAt}
		return rec
	})
	return res
}

// StartSweeper removes expired records every interval until ctx is done.
func (l *Limiter) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := l.store.Sweep(l.now()); n > 0 {
					slog.Debug("rate limit records swept", slog.Int("removed", n))
				}
			}
		}
	}()
}

// ClientIdentifier picks the first forwarded address, then the real-ip and
// connecting-ip headers.
func ClientIdentifier(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	for _, h := range []string{"X-Real-IP", "CF-Connecting-IP"} {
		if ip := strings.TrimSpace(r.Header.Get(h)); ip != "" {
			return ip
		}
	}
	return Unknown
}
