package chapter

import (
	"context"
	"fmt"
	"net/http"

	"github.com/irsalhamdi/course-market/api/web"
	"github.com/irsalhamdi/course-market/api/weberr"
	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/validate"
)

func params(r *http.Request, withChapter bool) (courseID string, chapterID string, err error) {
	courseID = web.Param(r, "course_id")
	if err := validate.CheckID(courseID); err != nil {
		return "", "", weberr.BadRequest(fmt.Errorf("passed course id is not valid: %w", err))
	}

	if !withChapter {
		return courseID, "", nil
	}

	chapterID = web.Param(r, "chapter_id")
	if err := validate.CheckID(chapterID); err != nil {
		return "", "", weberr.BadRequest(fmt.Errorf("passed chapter id is not valid: %w", err))
	}
	return courseID, chapterID, nil
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
		courseID, _, err := params(r, false)
		if err != nil {
			return err
		}

		chs, err := uc.List(ctx, courseID)
		if err != nil {
			return apperr.Web(fmt.Errorf("listing chapters of course[%s]: %w", courseID, err))
		}

		return web.Respond(ctx, w, chs, http.StatusOK)
	}
}

func HandleListPublished(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, _, err := params(r, false)
		if err != nil {
			return err
		}

		chs, err := uc.ListPublished(ctx, courseID)
		if err != nil {
			return apperr.Web(fmt.Errorf("listing published chapters of course[%s]: %w", courseID, err))
		}

		return web.Respond(ctx, w, chs, http.StatusOK)
	}
}

func HandleShow(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		ch, err := uc.Get(ctx, courseID, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("getting chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandleCreate(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, _, err := params(r, false)
		if err != nil {
			return err
		}

		var cn ChapterNew
		if err := decode(w, r, &cn); err != nil {
			return err
		}

		ch, err := uc.Create(ctx, courseID, cn.Title)
		if err != nil {
			return apperr.Web(fmt.Errorf("creating chapter in course[%s]: %w", courseID, err))
		}

		return web.Respond(ctx, w, ch, http.StatusCreated)
	}
}

func HandleUpdateTitle(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		var tu TitleUp
		if err := decode(w, r, &tu); err != nil {
			return err
		}

		ch, err := uc.UpdateTitle(ctx, courseID, id, tu.Title)
		if err != nil {
			return apperr.Web(fmt.Errorf("updating title of chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandleUpdateDescription(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		var du DescriptionUp
		if err := decode(w, r, &du); err != nil {
			return err
		}

		ch, err := uc.UpdateDescription(ctx, courseID, id, du.Description)
		if err != nil {
			return apperr.Web(fmt.Errorf("updating description of chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandleUpdateVideo(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		var vu VideoUp
		if err := decode(w, r, &vu); err != nil {
			return err
		}

		ch, err := uc.UpdateVideo(ctx, courseID, id, vu.VideoURL)
		if err != nil {
			return apperr.Web(fmt.Errorf("updating video of chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandlePublish(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		ch, err := uc.Publish(ctx, courseID, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("publishing chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandleUnpublish(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		ch, err := uc.Unpublish(ctx, courseID, id)
		if err != nil {
			return apperr.Web(fmt.Errorf("unpublishing chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, ch, http.StatusOK)
	}
}

func HandleReorder(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, _, err := params(r, false)
		if err != nil {
			return err
		}

		var ro Reorder
		if err := decode(w, r, &ro); err != nil {
			return err
		}

		if err := uc.Reorder(ctx, courseID, ro.List); err != nil {
			return apperr.Web(fmt.Errorf("reordering chapters of course[%s]: %w", courseID, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(uc *UseCase) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		courseID, id, err := params(r, true)
		if err != nil {
			return err
		}

		if err := uc.Delete(ctx, courseID, id); err != nil {
			return apperr.Web(fmt.Errorf("deleting chapter[%s]: %w", id, err))
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
