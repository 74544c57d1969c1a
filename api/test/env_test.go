package test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/irsalhamdi/course-market/api"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/auth"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/core/muxdata/muxtest"
	"github.com/irsalhamdi/course-market/database/dbtest"
	"github.com/irsalhamdi/course-market/rate"
	"github.com/jmoiron/sqlx"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

const (
	AdminID   = "user_admin"
	LearnerID = "user_learner"
)

// tokenVerifier accepts any token and uses it as the user ID.
type tokenVerifier struct{}

func (tokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	if token == "invalid" {
		return "", errors.New("token expired")
	}
	return token, nil
}

type TestEnv struct {
	*httptest.Server
	DB            *sqlx.DB
	Assets        *muxtest.Assets
	Stripe        *mockStripe
	WebhookSecret string
}

func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()

	db := dbtest.New(t)
	log, _ := logtest.NewNullLogger()

	ms := &mockStripe{}
	stripeSrv := httptest.NewServer(ms.handle())
	t.Cleanup(stripeSrv.Close)

	strp := &stripecl.API{}
	strp.Init("sk_test_courses", &stripe.Backends{
		API: stripe.GetBackendWithConfig(stripe.APIBackend, &stripe.BackendConfig{
			URL:               stripe.String(stripeSrv.URL),
			MaxNetworkRetries: stripe.Int64(0),
		}),
	})

	stripeCfg := config.Stripe{
		Currency:      "jpy",
		WebhookSecret: "whsec_courses",
		SuccessURL:    "https://courses.example.com/success",
		CancelURL:     "https://courses.example.com/cancel",
	}

	limiter := rate.NewLimiter(100, 1, rate.PerSecond(100))
	t.Cleanup(limiter.Stop)

	assets := muxtest.New()

	h := api.APIMux(api.APIConfig{
		Log:       log,
		DB:        db,
		Verifier:  tokenVerifier{},
		IsAdmin:   auth.AdminID(AdminID),
		Assets:    assets,
		Cleaner:   muxdata.NewCleaner(db, assets, log),
		Stripe:    strp,
		StripeCfg: stripeCfg,
		Limiter:   limiter,
	})

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return &TestEnv{
		Server:        srv,
		DB:            db,
		Assets:        assets,
		Stripe:        ms,
		WebhookSecret: stripeCfg.WebhookSecret,
	}
}

// Do sends body as JSON on behalf of user and checks the status code. The
// response is decoded into out when out is not nil.
func (e *TestEnv) Do(t *testing.T, method string, path string, user string, body any, status int, out any) {
	t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(b)
	}

	r, err := http.NewRequest(method, e.URL+path, rd)
	if err != nil {
		t.Fatal(err)
	}
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if user != "" {
		r.Header.Set("Authorization", "Bearer "+user)
	}

	w, err := e.Client().Do(r)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Body.Close()

	if w.StatusCode != status {
		msg, _ := io.ReadAll(w.Body)
		t.Fatalf("%s %s: expected status %d, got %s: %s", method, path, status, w.Status, msg)
	}

	if out != nil {
		if err := json.NewDecoder(w.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
}
