package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/irsalhamdi/course-market/api/middleware"
	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/config"
	"github.com/irsalhamdi/course-market/core/auth"
	"github.com/irsalhamdi/course-market/core/category"
	"github.com/irsalhamdi/course-market/core/chapter"
	"github.com/irsalhamdi/course-market/core/course"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/rate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	stripecl "github.com/stripe/stripe-go/v74/client"
)

type APIConfig struct {
	CorsOrigin string
	Log        logrus.FieldLogger
	DB         *sqlx.DB
	Verifier   auth.Verifier
	IsAdmin    auth.Authorizer
	Assets     muxdata.AssetService
	Cleaner    *muxdata.Cleaner
	Stripe     *stripecl.API
	StripeCfg  config.Stripe
	Limiter    *rate.Limiter
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Verifier, cfg.IsAdmin)
	admin := auth.Admin()
	limit := middleware.RateLimit(cfg.Limiter)

	categories := category.NewUseCase(cfg.DB)
	courses := course.NewUseCase(cfg.DB, cfg.Cleaner, cfg.Log)
	chapters := chapter.NewUseCase(cfg.DB, cfg.Assets, cfg.Cleaner, cfg.Log)

	a.Handle(http.MethodGet, "/api/health", handleHealth(cfg.DB))

	a.Handle(http.MethodGet, "/api/categories", category.HandleList(categories), authen)
	a.Handle(http.MethodPost, "/api/categories", category.HandleCreate(categories), authen, admin)
	a.Handle(http.MethodPut, "/api/categories/{id}", category.HandleUpdate(categories), authen, admin)
	a.Handle(http.MethodDelete, "/api/categories/{id}", category.HandleDelete(categories), authen, admin)

	a.Handle(http.MethodGet, "/api/courses/publish", course.HandleListPublished(courses), authen)
	a.Handle(http.MethodGet, "/api/courses/purchased", course.HandleListPurchased(courses), authen)
	a.Handle(http.MethodGet, "/api/courses", course.HandleList(courses), authen, admin)
	a.Handle(http.MethodPost, "/api/courses", course.HandleCreate(courses), authen, admin)
	a.Handle(http.MethodGet, "/api/courses/{id}/publish", course.HandleShowPublished(courses), authen)
	a.Handle(http.MethodGet, "/api/courses/{id}", course.HandleShow(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/title", course.HandleUpdateTitle(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/description", course.HandleUpdateDescription(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/thumbnail", course.HandleUpdateThumbnail(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/price", course.HandleUpdatePrice(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/category", course.HandleUpdateCategory(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/source_url", course.HandleUpdateSourceURL(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/publish", course.HandlePublish(courses), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{id}/unpublish", course.HandleUnpublish(courses), authen, admin)
	a.Handle(http.MethodDelete, "/api/courses/{id}", course.HandleDelete(courses), authen, admin)
	a.Handle(http.MethodPost, "/api/courses/{id}/checkout_free", course.HandleCheckoutFree(courses), authen, limit)
	a.Handle(http.MethodPost, "/api/courses/{id}/checkout", course.HandleStripeCheckout(courses, cfg.Stripe, cfg.StripeCfg), authen, limit)
	a.Handle(http.MethodPost, "/api/webhooks/stripe", course.HandleStripeWebhook(courses, cfg.StripeCfg))

	a.Handle(http.MethodGet, "/api/courses/{course_id}/chapters/publish", chapter.HandleListPublished(chapters), authen)
	a.Handle(http.MethodGet, "/api/courses/{course_id}/chapters", chapter.HandleList(chapters), authen, admin)
	a.Handle(http.MethodPost, "/api/courses/{course_id}/chapters", chapter.HandleCreate(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/reorder", chapter.HandleReorder(chapters), authen, admin)
	a.Handle(http.MethodGet, "/api/courses/{course_id}/chapters/{chapter_id}", chapter.HandleShow(chapters), authen, admin)
	a.Handle(http.MethodDelete, "/api/courses/{course_id}/chapters/{chapter_id}", chapter.HandleDelete(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/{chapter_id}/title", chapter.HandleUpdateTitle(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/{chapter_id}/description", chapter.HandleUpdateDescription(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/{chapter_id}/video", chapter.HandleUpdateVideo(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/{chapter_id}/publish", chapter.HandlePublish(chapters), authen, admin)
	a.Handle(http.MethodPut, "/api/courses/{course_id}/chapters/{chapter_id}/unpublish", chapter.HandleUnpublish(chapters), authen, admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}

func handleHealth(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := database.StatusCheck(ctx, db); err != nil {
			return fmt.Errorf("database not ready: %w", err)
		}

		status := struct {
			Status string `json:"status"`
		}{"ok"}
		return web.Respond(ctx, w, status, http.StatusOK)
	}
}
