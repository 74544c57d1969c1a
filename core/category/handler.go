package category

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/validate"
)

func HandleList(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cats, err := uc.List(ctx)
		if err != nil {
			return fmt.Errorf("listing categories: %w", err)
		}

		return web.Respond(ctx, w, cats, http.StatusOK)
	}
}

func HandleCreate(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CategoryNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		c, err := uc.Create(ctx, cn.Name)
		if err != nil {
			return fmt.Errorf("creating category: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

func HandleUpdate(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		var cu CategoryUp
		if err := web.Decode(w, r, &cu); err != nil {
			return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
		}

		if err := validate.Check(cu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusBadRequest)
		}

		c, err := uc.Rename(ctx, id, cu.Name)
		if err != nil {
			return apperr.Web(fmt.Errorf("renaming category[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
		}

		if err := uc.Delete(ctx, id); err != nil {
			return apperr.Web(fmt.Errorf("deleting category[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
