package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/rate"
)

// RateLimit throttles requests per authenticated user, falling back to the
// remote address for anonymous callers.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			key := r.RemoteAddr
			if clm, err := claims.Get(ctx); err == nil {
				key = clm.UserID
			}

			if !lim.Check(key) {
				return weberr.TooManyRequests(errors.New("rate limit exceeded"), weberr.WithField("client", key))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
