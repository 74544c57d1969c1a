package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
)

func Cors(origin string) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, PUT, GET, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Authorization, X-Request-Id")
			w.Header().Set("Access-Control-Max-Age", "86400")

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
