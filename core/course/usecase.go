package course

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/category"
	"github.com/irsalhamdi/course-market/core/chapter"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/irsalhamdi/course-market/core/purchase"
	"github.com/irsalhamdi/course-market/database"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type UseCase struct {
	db      *sqlx.DB
	cleaner *muxdata.Cleaner
	log     logrus.FieldLogger
}

func NewUseCase(db *sqlx.DB, cleaner *muxdata.Cleaner, log logrus.FieldLogger) *UseCase {
	return &UseCase{
		db:      db,
		cleaner: cleaner,
		log:     log,
	}
}

func (uc *UseCase) List(ctx context.Context) ([]AdminCourse, error) {
	return ListAdmin(ctx, uc.db)
}

func (uc *UseCase) ListPublished(ctx context.Context, userID string, f Filter) ([]PublishCourse, error) {
	var out []PublishCourse
	err := database.Snapshot(ctx, uc.db, func(tx sqlx.ExtContext) error {
		var err error
		if out, err = ListPublished(ctx, tx, userID, f); err != nil {
			return err
		}

		ids := make([]string, 0, len(out))
		for _, c := range out {
			ids = append(ids, c.Course.ID)
		}

		chs, err := chapter.ListPublishedByCourses(ctx, tx, ids)
		if err != nil {
			return err
		}

		for i := range out {
			out[i].Chapters = chs[out[i].Course.ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) ListPurchased(ctx context.Context, userID string) ([]PurchaseCourse, error) {
	var out []PurchaseCourse
	err := database.Snapshot(ctx, uc.db, func(tx sqlx.ExtContext) error {
		var err error
		if out, err = ListPurchased(ctx, tx, userID); err != nil {
			return err
		}

		ids := make([]string, 0, len(out))
		for _, c := range out {
			ids = append(ids, c.Course.ID)
		}

		chs, err := chapter.ListPublishedByCourses(ctx, tx, ids)
		if err != nil {
			return err
		}

		for i := range out {
			out[i].Chapters = chs[out[i].Course.ID]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (uc *UseCase) Get(ctx context.Context, id string) (Course, error) {
	return Fetch(ctx, uc.db, id)
}

// GetPublished assembles the learner view of one course from a single
// snapshot of the store.
func (uc *UseCase) GetPublished(ctx context.Context, id string, userID string) (PublishCourseWithMuxData, error) {
	var out PublishCourseWithMuxData
	err := database.Snapshot(ctx, uc.db, func(tx sqlx.ExtContext) error {
		var err error
		if out, err = FetchPublished(ctx, tx, id, userID); err != nil {
			return err
		}

		chs, err := chapter.ListPublished(ctx, tx, id)
		if err != nil {
			return err
		}

		mux, err := ListPublishedMuxData(ctx, tx, id)
		if err != nil {
			return err
		}

		out.Chapters = make([]ChapterWithMuxData, 0, len(chs))
		for _, ch := range chs {
			out.Chapters = append(out.Chapters, ChapterWithMuxData{Chapter: ch, MuxData: mux[ch.ID]})
		}
		return nil
	})
	if err != nil {
		return PublishCourseWithMuxData{}, err
	}
	return out, nil
}

func (uc *UseCase) Create(ctx context.Context, title string) (Course, error) {
	now := time.Now().UTC()
	c := Course{
		ID:        validate.GenerateID(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := Create(ctx, uc.db, c); err != nil {
		return Course{}, err
	}
	return c, nil
}

func (uc *UseCase) UpdateTitle(ctx context.Context, id string, title string) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.Title = title
		return nil
	})
}

func (uc *UseCase) UpdateDescription(ctx context.Context, id string, description string) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.Description = &description
		return nil
	})
}

func (uc *UseCase) UpdateImage(ctx context.Context, id string, imageURL string) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.ImageURL = &imageURL
		return nil
	})
}

func (uc *UseCase) UpdatePrice(ctx context.Context, id string, price int) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.Price = &price
		return nil
	})
}

func (uc *UseCase) UpdateCategory(ctx context.Context, id string, categoryID string) (Course, error) {
	return uc.update(ctx, id, func(tx sqlx.ExtContext, c *Course) error {
		ok, err := category.Exists(ctx, tx, categoryID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("category[%s]: %w", categoryID, apperr.ErrCategoryNotFound)
		}

		c.CategoryID = &categoryID
		return nil
	})
}

func (uc *UseCase) UpdateSourceURL(ctx context.Context, id string, sourceURL string) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.SourceURL = &sourceURL
		return nil
	})
}

func (uc *UseCase) Unpublish(ctx context.Context, id string) (Course, error) {
	return uc.update(ctx, id, func(_ sqlx.ExtContext, c *Course) error {
		c.PublishFlag = false
		return nil
	})
}

// Publish exposes the course to learners. The checks and the flag change
// happen under the course row lock; a failed check changes nothing.
func (uc *UseCase) Publish(ctx context.Context, id string) (Course, error) {
	return uc.update(ctx, id, func(tx sqlx.ExtContext, c *Course) error {
		chs, err := chapter.ListPublished(ctx, tx, id)
		if err != nil {
			return err
		}

		if !c.Publishable(len(chs)) {
			return fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseRequiredFieldsEmpty)
		}

		c.PublishFlag = true
		return nil
	})
}

// Delete removes the course and then the hosted assets of its chapters. The
// assets are read and marked for deletion under the course lock, in the same
// transaction that deletes the course, so a concurrent video swap either
// lands before and is seen here or fails on the missing course. Assets whose
// remote deletion fails stay pending for the reconciler.
func (uc *UseCase) Delete(ctx context.Context, id string) (DeleteResult, error) {
	var assets []string
	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		if _, err := Lock(ctx, tx, id); err != nil {
			return err
		}

		data, err := muxdata.ListByCourse(ctx, tx, id)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		for _, m := range data {
			if err := muxdata.Schedule(ctx, tx, m.AssetID, now); err != nil {
				return err
			}
			assets = append(assets, m.AssetID)
		}

		return Delete(ctx, tx, id)
	})
	if err != nil {
		return DeleteResult{}, err
	}

	pending, err := uc.cleaner.Remove(ctx, assets...)
	if err != nil {
		uc.log.WithFields(logrus.Fields{
			"course_id": id,
			"message":   err,
		}).Error("course deleted, asset deletions left to the reconciler")
		return DeleteResult{PendingAssets: len(assets)}, nil
	}

	if pending > 0 {
		uc.log.WithFields(logrus.Fields{
			"course_id": id,
			"pending":   pending,
		}).Warn("course deleted with pending asset deletions")
	}

	return DeleteResult{
		DeletedAssets: len(assets) - pending,
		PendingAssets: pending,
	}, nil
}

// CheckoutFree grants a free course to the user. The purchase insert is
// guarded by the (course, user) unique constraint, so retries and concurrent
// calls leave a single purchase.
func (uc *UseCase) CheckoutFree(ctx context.Context, id string, userID string) (purchase.Purchase, error) {
	c, err := Fetch(ctx, uc.db, id)
	if err != nil {
		return purchase.Purchase{}, err
	}

	if !c.Free() {
		return purchase.Purchase{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotFree)
	}

	p := purchase.Purchase{
		ID:        validate.GenerateID(),
		CourseID:  id,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := purchase.Create(ctx, uc.db, p); err != nil {
		return purchase.Purchase{}, err
	}
	return p, nil
}

// PrepareCheckout validates that the user may start paying for the course.
func (uc *UseCase) PrepareCheckout(ctx context.Context, id string, userID string) (Course, error) {
	pc, err := FetchPublished(ctx, uc.db, id, userID)
	if err != nil {
		return Course{}, err
	}

	if pc.Course.Price == nil || *pc.Course.Price <= 0 {
		return Course{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotPaid)
	}

	if pc.Purchased {
		return Course{}, fmt.Errorf("course[%s] user[%s]: %w", id, userID, apperr.ErrPurchaseAlreadyExists)
	}
	return pc.Course, nil
}

// CompleteCheckout records a paid purchase. A purchase that already exists
// is not an error since payment notifications may be delivered more than
// once.
func (uc *UseCase) CompleteCheckout(ctx context.Context, id string, userID string) error {
	ok, err := Exists(ctx, uc.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotFound)
	}

	p := purchase.Purchase{
		ID:        validate.GenerateID(),
		CourseID:  id,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	err = purchase.Create(ctx, uc.db, p)
	if err != nil && !errors.Is(err, apperr.ErrPurchaseAlreadyExists) {
		return err
	}
	return nil
}

func (uc *UseCase) update(ctx context.Context, id string, apply func(sqlx.ExtContext, *Course) error) (Course, error) {
	var c Course
	err := database.Transaction(ctx, uc.db, func(tx sqlx.ExtContext) error {
		var err error
		if c, err = Lock(ctx, tx, id); err != nil {
			return err
		}

		if err := apply(tx, &c); err != nil {
			return err
		}
		c.UpdatedAt = time.Now().UTC()

		return Update(ctx, tx, c)
	})
	if err != nil {
		return Course{}, err
	}
	return c, nil
}
