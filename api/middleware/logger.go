package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes one access log entry per request. Health checks are logged
// at debug level to keep them out of the default output.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			entry := log.WithFields(logrus.Fields{
				"req_id":     ContextRequestID(ctx),
				"method":     r.Method,
				"path":       r.URL.Path,
				"remoteaddr": r.RemoteAddr,
				"statuscode": lw.Status(),
				"bytes":      lw.BytesWritten(),
				"since":      time.Since(start).Milliseconds(),
			})

			if r.URL.Path == "/api/health" {
				entry.Debug("request completed")
			} else {
				entry.Info("request completed")
			}
			return err
		}
		return h
	}
	return m
}
