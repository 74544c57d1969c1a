package course

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	stripecl "github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

const (
	metaCourseID = "course_id"
	metaUserID   = "user_id"
)

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// WebhookWarning acknowledges a payment event that could not be applied.
type WebhookWarning struct {
	Warning string `json:"warning"`
}

// HandleStripeCheckout opens a Stripe Checkout Session for a paid course.
// Prices are stored in the smallest unit of the configured currency.
func HandleStripeCheckout(uc *UseCase, strp *stripecl.API, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.User(ctx)
		if err != nil {
			return err
		}

		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		c, err := uc.PrepareCheckout(ctx, id, clm.UserID)
		if err != nil {
			return apperr.Web(fmt.Errorf("preparing checkout of course[%s]: %w", id, err))
		}

		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(c.Title),
		}
		if filled(c.Description) {
			product.Description = c.Description
		}
		if filled(c.ImageURL) {
			product.Images = []*string{c.ImageURL}
		}

		params := &stripe.CheckoutSessionParams{
			SuccessURL:        stripe.String(cfg.SuccessURL),
			CancelURL:         stripe.String(cfg.CancelURL),
			Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
			ClientReferenceID: stripe.String(clm.UserID),
			LineItems: []*stripe.CheckoutSessionLineItemParams{{
				Quantity: stripe.Int64(1),

				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency:    stripe.String(cfg.Currency),
					UnitAmount:  stripe.Int64(int64(*c.Price)),
					ProductData: product,
				},
			}},
		}

		params.AddMetadata(metaCourseID, c.ID)
		params.AddMetadata(metaUserID, clm.UserID)

		s, err := strp.CheckoutSessions.New(params)
		if err != nil {
			return fmt.Errorf("creating stripe session for course[%s]: %w", id, err)
		}

		return web.Respond(ctx, w, CheckoutSession{ID: s.ID, URL: s.URL}, http.StatusOK)
	}
}

// HandleStripeWebhook records the purchase once Stripe reports the session
// as completed.
func HandleStripeWebhook(uc *UseCase, cfg config.Stripe) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		b, err := io.ReadAll(r.Body)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot read the request body: %w", err))
		}

		sig := r.Header.Get("Stripe-Signature")
		if sig == "" {
			return weberr.BadRequest(errors.New("received stripe event is not signed"))
		}

		event, err := webhook.ConstructEvent(b, sig, cfg.WebhookSecret)
		if err != nil {
			return weberr.BadRequest(fmt.Errorf("cannot construct stripe event: %w", err))
		}

		if event.Type != "checkout.session.completed" {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		var session stripe.CheckoutSession
		if err = json.Unmarshal(event.Data.Raw, &session); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode stripe event: %w", err))
		}

		if session.Mode != stripe.CheckoutSessionModePayment {
			return web.Respond(ctx, w, nil, http.StatusNoContent)
		}

		courseID, userID := session.Metadata[metaCourseID], session.Metadata[metaUserID]
		if courseID == "" || userID == "" {
			return weberr.BadRequest(fmt.Errorf("session[%s] misses purchase metadata", session.ID))
		}

		err = uc.CompleteCheckout(ctx, courseID, userID)
		if errors.Is(err, apperr.ErrCourseNotFound) {
			// Stripe retries any non 2xx answer and the course will not come back.
			uc.log.WithFields(logrus.Fields{
				"session_id": session.ID,
				"course_id":  courseID,
				"user_id":    userID,
			}).Warn("paid course was deleted before the purchase was recorded")

			return web.Respond(ctx, w, WebhookWarning{Warning: "course not found, purchase not recorded"}, http.StatusOK)
		}
		if err != nil {
			return apperr.Web(fmt.Errorf("the course was paid but the purchase failed, session[%s]: %w", session.ID, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
