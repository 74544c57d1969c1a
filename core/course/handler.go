package course

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/claims"
	"github.com/irsalhamdi/course-market/validate"
)

func courseID(r *http.Request) (string, error) {
	id := web.Param(r, "id")
	if err := validate.CheckID(id); err != nil {
		return "", weberr.BadRequest(fmt.Errorf("passed id is not valid: %w", err))
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, val any) error {
	if err := web.Decode(w, r, val); err != nil {
		return weberr.BadRequest(fmt.Errorf("unable to decode payload: %w", err))
	}

	if err := validate.Check(val); err != nil {
		return weberr.NewError(err, err.Error(), http.StatusBadRequest)
	}
	return nil
}

func HandleList(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		cs, err := uc.List(ctx)
		if err != nil {
			return fmt.Errorf("listing courses: %w", err)
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}

func HandleListPublished(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.User(ctx)
		if err != nil {
			return err
		}

		f := Filter{
			Title:      web.Query(r, "title"),
			CategoryID: web.Query(r, "categoryId"),
		}

		cs, err := uc.ListPublished(ctx, clm.UserID, f)
		if err != nil {
			return fmt.Errorf("listing published courses: %w", err)
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}

func HandleListPurchased(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.User(ctx)
		if err != nil {
			return err
		}

		cs, err := uc.ListPurchased(ctx, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing courses purchased by user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, cs, http.StatusOK)
	}
}

func HandleShow(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := courseID(r)
		if err != nil {
			return err
		}

		c, err := uc.Get(ctx, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("getting course[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleShowPublished(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.User(ctx)
		if err != nil {
			return err
		}

		id, err := courseID(r)
		if err != nil {
			return err
		}

		c, err := uc.GetPublished(ctx, id, clm.UserID)
		if err != nil {
			return apperr.Web(fmt.Errorf("getting published course[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleCreate(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var cn CourseNew
		if err := decode(w, r, &cn); err != nil {
			return err
		}

		c, err := uc.Create(ctx, cn.Title)
		if err != nil {
			return fmt.Errorf("creating course: %w", err)
		}

		return web.Respond(ctx, w, c, http.StatusCreated)
	}
}

// handleUpdate decodes the field-scoped payload T and hands it to apply.
func handleUpdate[T any](what string, apply func(ctx context.Context, id string, in T) (Course, error)) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := courseID(r)
		if err != nil {
			return err
		}

		var in T
		if err := decode(w, r, &in); err != nil {
			return err
		}

		c, err := apply(ctx, id, in)
		if err != nil {
			return apperr.Web(fmt.Errorf("updating %s of course[%s]: %w", what, id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUpdateTitle(uc *UseCase) web.Handler {
	return handleUpdate("title", func(ctx context.Context, id string, in TitleUp) (Course, error) {
		return uc.UpdateTitle(ctx, id, in.Title)
	})
}

func HandleUpdateDescription(uc *UseCase) web.Handler {
	return handleUpdate("description", func(ctx context.Context, id string, in DescriptionUp) (Course, error) {
		return uc.UpdateDescription(ctx, id, in.Description)
	})
}

func HandleUpdateThumbnail(uc *UseCase) web.Handler {
	return handleUpdate("thumbnail", func(ctx context.Context, id string, in ImageUp) (Course, error) {
		return uc.UpdateImage(ctx, id, in.ImageURL)
	})
}

func HandleUpdatePrice(uc *UseCase) web.Handler {
	return handleUpdate("price", func(ctx context.Context, id string, in PriceUp) (Course, error) {
		return uc.UpdatePrice(ctx, id, *in.Price)
	})
}

func HandleUpdateCategory(uc *UseCase) web.Handler {
	return handleUpdate("category", func(ctx context.Context, id string, in CategoryUp) (Course, error) {
		return uc.UpdateCategory(ctx, id, in.CategoryID)
	})
}

func HandleUpdateSourceURL(uc *UseCase) web.Handler {
	return handleUpdate("source url", func(ctx context.Context, id string, in SourceURLUp) (Course, error) {
		return uc.UpdateSourceURL(ctx, id, in.SourceURL)
	})
}

func HandlePublish(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := courseID(r)
		if err != nil {
			return err
		}

		c, err := uc.Publish(ctx, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("publishing course[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleUnpublish(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := courseID(r)
		if err != nil {
			return err
		}

		c, err := uc.Unpublish(ctx, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("unpublishing course[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, c, http.StatusOK)
	}
}

func HandleDelete(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id, err := courseID(r)
		if err != nil {
			return err
		}

		res, err := uc.Delete(ctx, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("deleting course[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, res, http.StatusOK)
	}
}

func HandleCheckoutFree(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.User(ctx)
		if err != nil {
			return err
		}

		id, err := courseID(r)
		if err != nil {
			return err
		}

		p, err := uc.CheckoutFree(ctx, id, clm.UserID)
		if err != nil {
			return apperr.Web(fmt.Errorf("free checkout of course[%s] by user[%s]: %w", id, clm.UserID, err))
		}

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}
