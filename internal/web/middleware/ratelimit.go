package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
)

// RateLimit returns middleware allowing perMinute requests per client IP.
//
// Each call gets its own in-memory store, keyed under prefix, so a route
// group can carry a tighter limit than the global one without sharing counters.
// Clients over the limit receive 429 with a JSON body.
func RateLimit(prefix string, perMinute int) func(http.Handler) http.Handler {
	store := memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
	instance := limiter.New(store, limiter.Rate{
		Period: time.Minute,
		Limit:  int64(perMinute),
	})

	mw := stdlib.NewMiddleware(instance,
		stdlib.WithKeyGetter(ClientIP),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			slog.Warn("rate limit exceeded",
				"limiter", prefix,
				"path", r.URL.Path,
				"ip", ClientIP(r),
			)
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded", "RATE001")
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			slog.Error("rate limiter failure", "limiter", prefix, "error", err)
			writeJSONError(w, http.StatusInternalServerError, "rate limiter unavailable", "ERR000")
		}),
	)
	return mw.Handler
}
