package test

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/random"
	mock "github.com/stripe/stripe-mock/param"
)

type checkoutCall struct {
	CourseID string
	UserID   string
	Amount   int
	Currency string
}

type mockStripe struct {
	mu    sync.Mutex
	calls []checkoutCall
}

func (m *mockStripe) Calls() []checkoutCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]checkoutCall(nil), m.calls...)
}

func (m *mockStripe) handle() http.Handler {
	checkout := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params, err := mock.ParseParams(r)
		if err != nil {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		lines, ok := params["line_items"].(map[string]any)
		if !ok || len(lines) != 1 {
			web.Respond(context.Background(), w, nil, 400)
			return
		}

		var call checkoutCall
		for _, li := range lines {
			it := li.(map[string]any)

			if it["quantity"] != "1" {
				web.Respond(context.Background(), w, nil, 400)
				return
			}

			pd := it["price_data"].(map[string]any)
			amount, err := strconv.Atoi(pd["unit_amount"].(string))
			if err != nil {
				web.Respond(context.Background(), w, err, 400)
				return
			}

			call.Amount = amount
			call.Currency, _ = pd["currency"].(string)
		}

		meta, _ := params["metadata"].(map[string]any)
		call.CourseID, _ = meta["course_id"].(string)
		call.UserID, _ = meta["user_id"].(string)

		m.mu.Lock()
		m.calls = append(m.calls, call)
		m.mu.Unlock()

		randID := random.ID("cs_test", 24)
		sess := map[string]any{
			"id":     randID,
			"object": "checkout.session",
			"url":    "https://checkout.stripe.com/pay/" + randID,
			"mode":   "payment",
		}
		web.Respond(context.Background(), w, sess, 200)
	})

	r := mux.NewRouter()
	r.Handle("/v1/checkout/sessions", checkout).Methods("POST")
	return r
}
