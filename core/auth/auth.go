// Package auth authenticates requests against an external OpenID Connect
// identity provider and decides which identities may manage content.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/claims"
)

// Verifier resolves a raw bearer token into the verified user ID.
type Verifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

// Authorizer reports whether a user may perform content-management operations.
type Authorizer func(userID string) bool

// AdminID grants administration to exactly one configured identity.
func AdminID(id string) Authorizer {
	return func(userID string) bool {
		return id != "" && userID == id
	}
}

type OIDCVerifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewOIDCVerifier discovers the issuer configuration. The context bounds the
// discovery request only.
func NewOIDCVerifier(ctx context.Context, issuer string, clientID string) (*OIDCVerifier, error) {
	prov, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering provider %s: %w", issuer, err)
	}

	return &OIDCVerifier{verifier: prov.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

func (v *OIDCVerifier) Verify(ctx context.Context, token string) (string, error) {
	idt, err := v.verifier.Verify(ctx, token)
	if err != nil {
		return "", err
	}
	if idt.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return idt.Subject, nil
}

func bearer(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// Authenticate verifies the bearer token and stores the caller's claims in
// the request context.
func Authenticate(v Verifier, isAdmin Authorizer) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			token, ok := bearer(r)
			if !ok {
				return weberr.NotAuthorized(errors.New("missing bearer token"))
			}

			userID, err := v.Verify(ctx, token)
			if err != nil {
				return weberr.NotAuthorized(fmt.Errorf("verifying token: %w", err))
			}

			ctx = claims.Set(ctx, claims.Claims{
				UserID: userID,
				Admin:  isAdmin(userID),
			})

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin must run after Authenticate.
func Admin() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			clm, err := claims.User(ctx)
			if err != nil {
				return err
			}

			if !clm.Admin {
				return weberr.Forbidden(fmt.Errorf("user[%s] is not an administrator", clm.UserID))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
