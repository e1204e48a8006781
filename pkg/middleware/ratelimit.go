package middleware

import (
	"net/http"
	"time"

	"github.com/Rishabh-k-Paliwal/astrologix/pkg/utils"

	"github.com/go-chi/httprate"
)

// RateLimitByIP caps requests per client IP per minute. A limit below one
// disables it.
func RateLimitByIP(perMinute int) func(http.Handler) http.Handler {
	if perMinute < 1 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			utils.ResponseError(w, utils.NewError(utils.CodeRateLimited, "Too many requests, please try again later"))
		}),
	)
}
