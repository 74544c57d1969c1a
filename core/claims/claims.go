// Package claims carries the authenticated caller through the request
// context.
package claims

import (
	"context"
	"errors"

	"github.com/irsalhamdi/course-market/api/weberr"
)

var ErrMissing = errors.New("claims missing from context")

// Claims identifies the caller. UserID is the token subject issued by the
// identity provider.
type Claims struct {
	UserID string
	Admin  bool
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func Get(ctx context.Context) (Claims, error) {
	c, ok := ctx.Value(claimsKey).(Claims)
	if !ok || c.UserID == "" {
		return Claims{}, ErrMissing
	}
	return c, nil
}

// User is Get for handlers: a missing caller becomes a 401.
func User(ctx context.Context) (Claims, error) {
	c, err := Get(ctx)
	if err != nil {
		return Claims{}, weberr.NotAuthorized(err)
	}
	return c, nil
}
