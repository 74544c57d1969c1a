package category

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/jmoiron/sqlx"
)

func List(ctx context.Context, db sqlx.ExtContext) ([]Category, error) {
	const q = `
	SELECT
		category_id, name
	FROM categories
	ORDER BY name ASC, category_id ASC`

	cats := []Category{}
	if err := sqlx.SelectContext(ctx, db, &cats, q); err != nil {
		return nil, fmt.Errorf("selecting categories: %w", err)
	}
	return cats, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Category, error) {
	const q = `
	SELECT
		category_id, name
	FROM categories
	WHERE category_id = $1`

	var c Category
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Category{}, apperr.ErrCategoryNotFound
		}
		return Category{}, fmt.Errorf("selecting category[%s]: %w", id, err)
	}
	return c, nil
}

func Exists(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM categories WHERE category_id = $1)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, id); err != nil {
		return false, fmt.Errorf("checking category[%s]: %w", id, err)
	}
	return ok, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	INSERT INTO categories
		(category_id, name)
	VALUES
		(:category_id, :name)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting category: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Category) error {
	const q = `
	UPDATE categories SET
		name = :name
	WHERE category_id = :category_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating category[%s]: %w", c.ID, err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM categories WHERE category_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting category[%s]: %w", id, err)
	}
	return nil
}
