package middleware

import (
	"context"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type ChaosOptions struct {
	LatencyMin      time.Duration
	LatencyMax      time.Duration
	FailRate        float64
	ReorderFailRate float64
}

// Chaos injects latency into every request and random 500s into writes, so UIs can be
// exercised against an unreliable backend. Reads never fail.
type Chaos struct {
	opts  ChaosOptions
	log   *zap.Logger
	roll  func() float64
	delay func(lo, hi time.Duration) time.Duration
	sleep func(ctx context.Context, d time.Duration)
}

func NewChaos(opts ChaosOptions, log *zap.Logger) *Chaos {
	if log == nil {
		log = zap.NewNop()
	}
	return &Chaos{
		opts:  opts,
		log:   log.Named("chaos"),
		roll:  rand.Float64,
		delay: randomDelay,
		sleep: sleepCtx,
	}
}

func randomDelay(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + rand.N(hi-lo+1)
}

func sleepCtx(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (c *Chaos) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}
		c.sleep(r.Context(), c.delay(c.opts.LatencyMin, c.opts.LatencyMax))
		if IsWrite(r.Method) {
			rate := c.opts.FailRate
			if strings.HasSuffix(r.URL.Path, "/reorder") {
				rate = c.opts.ReorderFailRate
			}
			if c.roll() < rate {
				c.log.Info("simulated write failure",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("request_id", RequestIDFromContext(r.Context())))
				writeMessage(w, r, http.StatusInternalServerError, "error.chaos")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
