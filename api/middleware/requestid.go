package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/random"
)

const (
	RequestIDHeader = "X-Request-Id"

	DefaultRequestIDLengthLimit = 128
)

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

var reqID int64

var reqPrefix string

func init() {
	prefix, err := random.StringSecure(10)
	if err != nil {
		prefix = random.String(10)
	}
	reqPrefix = prefix
}

// RequestID propagates the caller's X-Request-Id or mints a new one, and
// echoes it back on the response.
func RequestID() web.Middleware {
	lengthLimit := DefaultRequestIDLengthLimit
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.Header.Get(RequestIDHeader)
			if id == "" {
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqID, 1))
			} else if lengthLimit >= 0 && len(id) > lengthLimit {
				id = id[:lengthLimit]
			}
			ctx = context.WithValue(ctx, reqIDKey, id)
			w.Header().Set(RequestIDHeader, id)

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func ContextRequestID(ctx context.Context) (reqID string) {
	id := ctx.Value(reqIDKey)
	if id != nil {
		reqID = id.(string)
	}
	return
}
