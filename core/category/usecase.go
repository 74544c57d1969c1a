package category

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/validate"
	"github.com/jmoiron/sqlx"
)

type UseCase struct {
	db *sqlx.DB
}

func NewUseCase(db *sqlx.DB) *UseCase {
	return &UseCase{db: db}
}

func (uc *UseCase) List(ctx context.Context) ([]Category, error) {
	return List(ctx, uc.db)
}

func (uc *UseCase) Create(ctx context.Context, name string) (Category, error) {
	c := Category{
		ID:   validate.GenerateID(),
		Name: name,
	}

	if err := Create(ctx, uc.db, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

func (uc *UseCase) Rename(ctx context.Context, id string, name string) (Category, error) {
	if err := uc.mustExist(ctx, id); err != nil {
		return Category{}, err
	}

	c := Category{ID: id, Name: name}
	if err := Update(ctx, uc.db, c); err != nil {
		return Category{}, err
	}
	return c, nil
}

// Delete leaves the referencing courses without a category.
func (uc *UseCase) Delete(ctx context.Context, id string) error {
	if err := uc.mustExist(ctx, id); err != nil {
		return err
	}
	return Delete(ctx, uc.db, id)
}

func (uc *UseCase) mustExist(ctx context.Context, id string) error {
	ok, err := Exists(ctx, uc.db, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("category[%s]: %w", id, apperr.ErrCategoryNotFound)
	}
	return nil
}
