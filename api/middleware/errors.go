package middleware

import (
	"context"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors turns any error returned by the handler chain into a JSON response.
// Errors built with weberr carry their own body and status; everything else
// is reported as a 500 without leaking the cause.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			fields := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if f, ok := weberr.Fields(err); ok {
				for k, v := range f {
					fields[k] = v
				}
			}

			body, code, ok := weberr.Response(err)
			if !ok {
				body = weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
				code = http.StatusInternalServerError
			}

			fields["statuscode"] = code
			if code >= http.StatusInternalServerError {
				log.WithFields(fields).Error("ERROR")
			} else {
				log.WithFields(fields).Warn("request failed")
			}

			return web.Respond(ctx, w, body, code)
		}
		return h
	}
	return m
}
