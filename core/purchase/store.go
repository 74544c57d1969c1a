package purchase

import (
	"context"
	"fmt"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/database"
	"github.com/jmoiron/sqlx"
)

// Create relies on the (course_id, user_id) unique constraint, so concurrent
// checkouts of the same course by the same user store a single row.
func Create(ctx context.Context, db sqlx.ExtContext, p Purchase) error {
	const q = `
	INSERT INTO purchases
		(purchase_id, course_id, user_id, created_at)
	VALUES
		(:purchase_id, :course_id, :user_id, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("course[%s] user[%s]: %w", p.CourseID, p.UserID, apperr.ErrPurchaseAlreadyExists)
		}
		return fmt.Errorf("inserting purchase: %w", err)
	}
	return nil
}

func Count(ctx context.Context, db sqlx.ExtContext, courseID string, userID string) (int, error) {
	const q = `SELECT count(*) FROM purchases WHERE course_id = $1 AND user_id = $2`

	var n int
	if err := sqlx.GetContext(ctx, db, &n, q, courseID, userID); err != nil {
		return 0, fmt.Errorf("counting purchases of course[%s] by user[%s]: %w", courseID, userID, err)
	}
	return n, nil
}
