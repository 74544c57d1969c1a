package chapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type UseCase struct {
	db      *sqlx.DB
	assets  muxdata.AssetService
	cleaner *muxdata.Cleaner
	log     logrus.FieldLogger
}

func NewUseCase(db *sqlx.DB, assets muxdata.AssetService, cleaner *muxdata.Cleaner, log logrus.FieldLogger) *UseCase {
	return &UseCase{
		db:      db,
		assets:  assets,
		cleaner: cleaner,
		log:     log,
	}
}

func (uc *UseCase) List(ctx context.Context, courseID string) ([]Chapter, error) {
	if err := courseExists(ctx, uc.db, courseID); err != nil {
		return nil, err
	}
	return List(ctx, uc.db, courseID)
}

// ListPublished is the learner view of the chapters. Courses that are not
// visible in the catalog do not expose their chapters either.
func (uc *UseCase) ListPublished(ctx context.Context, courseID string) ([]Chapter, error) {
	var chs []Chapter
	err := database.Snapshot(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := courseVisible(ctx, tx, courseID); err != nil {
			return err
		}

		var err error
		chs, err = ListPublished(ctx, tx, courseID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return chs, nil
}

func (uc *UseCase) Get(ctx context.Context, courseID string, id string) (WithMuxData, error) {
	ch, err := uc.fetch(ctx, courseID, id)
	if err != nil {
		return WithMuxData{}, err
	}

	out := WithMuxData{Chapter: ch}

	m, err := muxdata.FetchByChapter(ctx, uc.db, id)
	switch {
	case err == nil:
		out.MuxData = &m
	case !errors.Is(err, muxdata.ErrNotFound):
		return WithMuxData{}, err
	}
	return out, nil
}

// Create appends the chapter after the last position of the course.
func (uc *UseCase) Create(ctx context.Context, courseID string, title string) (Chapter, error) {
	now := time.Now().UTC()
	ch := Chapter{
		ID:        validate.GenerateID(),
		CourseID:  courseID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		pos, err := NextPosition(ctx, tx, courseID)
		if err != nil {
			return err
		}
		ch.Position = pos

		return Create(ctx, tx, ch)
	})
	if err != nil {
		return Chapter{}, err
	}
	return ch, nil
}

func (uc *UseCase) UpdateTitle(ctx context.Context, courseID string, id string, title string) (Chapter, error) {
	return uc.update(ctx, courseID, id, func(ch *Chapter) error {
		ch.Title = title
		return nil
	})
}

func (uc *UseCase) UpdateDescription(ctx context.Context, courseID string, id string, description string) (Chapter, error) {
	return uc.update(ctx, courseID, id, func(ch *Chapter) error {
		ch.Description = &description
		return nil
	})
}

// UpdateVideo points the chapter at a new video and swaps its hosted asset.
// The new asset is created before anything is written; the previous one is
// deleted remotely once the swap is committed.
func (uc *UseCase) UpdateVideo(ctx context.Context, courseID string, id string, url string) (WithMuxData, error) {
	ch, err := uc.fetch(ctx, courseID, id)
	if err != nil {
		return WithMuxData{}, err
	}

	asset, err := uc.assets.CreateAsset(ctx, url)
	if err != nil {
		return WithMuxData{}, fmt.Errorf("creating asset for chapter[%s]: %w", id, err)
	}

	m := muxdata.MuxData{
		ID:         validate.GenerateID(),
		ChapterID:  id,
		AssetID:    asset.ID,
		PlaybackID: asset.PlaybackID,
	}

	var old *muxdata.MuxData
	err = database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		var err error
		if ch, err = Fetch(ctx, tx, courseID, id); err != nil {
			return err
		}

		prev, err := muxdata.FetchByChapter(ctx, tx, id)
		switch {
		case err == nil:
			old = &prev
			if err := muxdata.Delete(ctx, tx, prev.ID); err != nil {
				return err
			}
			if err := muxdata.Schedule(ctx, tx, prev.AssetID, time.Now().UTC()); err != nil {
				return err
			}
		case !errors.Is(err, muxdata.ErrNotFound):
			return err
		}

		if err := muxdata.Create(ctx, tx, m); err != nil {
			return err
		}

		ch.VideoURL = &url
		ch.UpdatedAt = time.Now().UTC()
		return Update(ctx, tx, ch)
	})
	if err != nil {
		if _, cerr := uc.cleaner.Remove(ctx, asset.ID); cerr != nil {
			uc.log.WithField("asset_id", asset.ID).Error(cerr)
		}
		return WithMuxData{}, err
	}

	if old != nil {
		if _, err := uc.cleaner.Remove(ctx, old.AssetID); err != nil {
			return WithMuxData{}, err
		}
	}

	return WithMuxData{Chapter: ch, MuxData: &m}, nil
}

func (uc *UseCase) Publish(ctx context.Context, courseID string, id string) (Chapter, error) {
	return uc.update(ctx, courseID, id, func(ch *Chapter) error {
		if !ch.Publishable() {
			return fmt.Errorf("chapter[%s]: %w", id, apperr.ErrChapterRequiredFieldsEmpty)
		}
		ch.PublishFlag = true
		return nil
	})
}

// Unpublish also unpublishes the course when this was its last published
// chapter.
func (uc *UseCase) Unpublish(ctx context.Context, courseID string, id string) (Chapter, error) {
	var ch Chapter
	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		var err error
		if ch, err = Fetch(ctx, tx, courseID, id); err != nil {
			return err
		}

		now := time.Now().UTC()
		ch.PublishFlag = false
		ch.UpdatedAt = now
		if err := Update(ctx, tx, ch); err != nil {
			return err
		}

		_, err = unpublishEmptyCourse(ctx, tx, courseID, now)
		return err
	})
	if err != nil {
		return Chapter{}, err
	}
	return ch, nil
}

// Reorder rewrites the positions of the listed chapters. Every listed chapter
// must belong to the course, otherwise nothing is changed.
func (uc *UseCase) Reorder(ctx context.Context, courseID string, list []Position) error {
	return database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, p := range list {
			ok, err := UpdatePosition(ctx, tx, courseID, p.ID, p.Position, now)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("chapter[%s]: %w", p.ID, apperr.ErrChapterNotFound)
			}
		}
		return nil
	})
}

// Delete removes the chapter and its hosted asset.
func (uc *UseCase) Delete(ctx context.Context, courseID string, id string) error {
	var assetID string
	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		if _, err := Fetch(ctx, tx, courseID, id); err != nil {
			return err
		}

		m, err := muxdata.FetchByChapter(ctx, tx, id)
		switch {
		case err == nil:
			assetID = m.AssetID
			if err := muxdata.Schedule(ctx, tx, assetID, time.Now().UTC()); err != nil {
				return err
			}
		case !errors.Is(err, muxdata.ErrNotFound):
			return err
		}

		if err := Delete(ctx, tx, id); err != nil {
			return err
		}

		_, err = unpublishEmptyCourse(ctx, tx, courseID, time.Now().UTC())
		return err
	})
	if err != nil {
		return err
	}

	if assetID != "" {
		if _, err := uc.cleaner.Remove(ctx, assetID); err != nil {
			return err
		}
	}
	return nil
}

func (uc *UseCase) fetch(ctx context.Context, courseID string, id string) (Chapter, error) {
	if err := courseExists(ctx, uc.db, courseID); err != nil {
		return Chapter{}, err
	}
	return Fetch(ctx, uc.db, courseID, id)
}

// update applies a change to the chapter while holding the course lock, so
// it cannot race with publish state changes of the course.
func (uc *UseCase) update(ctx context.Context, courseID string, id string, apply func(*Chapter) error) (Chapter, error) {
	var ch Chapter
	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if err := lockCourse(ctx, tx, courseID); err != nil {
			return err
		}

		var err error
		if ch, err = Fetch(ctx, tx, courseID, id); err != nil {
			return err
		}

		if err := apply(&ch); err != nil {
			return err
		}
		ch.UpdatedAt = time.Now().UTC()

		return Update(ctx, tx, ch)
	})
	if err != nil {
		return Chapter{}, err
	}
	return ch, nil
}
