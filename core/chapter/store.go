package chapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const columns = `chapter_id, course_id, title, description, video_url, position, publish_flag, created_at, updated_at`

func List(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Chapter, error) {
	q := `
	SELECT ` + columns + `
	FROM chapters
	WHERE course_id = $1
	ORDER BY position ASC, created_at ASC`

	chs := []Chapter{}
	if err := sqlx.SelectContext(ctx, db, &chs, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting chapters of course[%s]: %w", courseID, err)
	}
	return chs, nil
}

func ListPublished(ctx context.Context, db sqlx.ExtContext, courseID string) ([]Chapter, error) {
	q := `
	SELECT ` + columns + `
	FROM chapters
	WHERE course_id = $1 AND publish_flag
	ORDER BY position ASC, created_at ASC`

	chs := []Chapter{}
	if err := sqlx.SelectContext(ctx, db, &chs, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting published chapters of course[%s]: %w", courseID, err)
	}
	return chs, nil
}

// ListPublishedByCourses groups the published chapters of several courses by
// course ID, each group ordered by position.
func ListPublishedByCourses(ctx context.Context, db sqlx.ExtContext, courseIDs []string) (map[string][]Chapter, error) {
	out := make(map[string][]Chapter, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}

	q := `
	SELECT ` + columns + `
	FROM chapters
	WHERE course_id = ANY($1) AND publish_flag
	ORDER BY course_id, position ASC, created_at ASC`

	chs := []Chapter{}
	if err := sqlx.SelectContext(ctx, db, &chs, q, pq.Array(courseIDs)); err != nil {
		return nil, fmt.Errorf("selecting published chapters: %w", err)
	}

	for _, ch := range chs {
		out[ch.CourseID] = append(out[ch.CourseID], ch)
	}
	return out, nil
}

// Fetch only finds the chapter inside the given course.
func Fetch(ctx context.Context, db sqlx.ExtContext, courseID string, id string) (Chapter, error) {
	q := `
	SELECT ` + columns + `
	FROM chapters
	WHERE chapter_id = $1 AND course_id = $2`

	var ch Chapter
	if err := sqlx.GetContext(ctx, db, &ch, q, id, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Chapter{}, fmt.Errorf("chapter[%s]: %w", id, apperr.ErrChapterNotFound)
		}
		return Chapter{}, fmt.Errorf("selecting chapter[%s]: %w", id, err)
	}
	return ch, nil
}

func NextPosition(ctx context.Context, db sqlx.ExtContext, courseID string) (int, error) {
	const q = `SELECT COALESCE(MAX(position), 0) + 1 FROM chapters WHERE course_id = $1`

	var pos int
	if err := sqlx.GetContext(ctx, db, &pos, q, courseID); err != nil {
		return 0, fmt.Errorf("computing next position in course[%s]: %w", courseID, err)
	}
	return pos, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, ch Chapter) error {
	q := `
	INSERT INTO chapters
		(` + columns + `)
	VALUES
		(:chapter_id, :course_id, :title, :description, :video_url, :position, :publish_flag, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ch); err != nil {
		return fmt.Errorf("inserting chapter: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, ch Chapter) error {
	const q = `
	UPDATE chapters SET
		title = :title,
		description = :description,
		video_url = :video_url,
		position = :position,
		publish_flag = :publish_flag,
		updated_at = :updated_at
	WHERE chapter_id = :chapter_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, ch); err != nil {
		return fmt.Errorf("updating chapter[%s]: %w", ch.ID, err)
	}
	return nil
}

// UpdatePosition reports false when no chapter with that ID belongs to the
// course.
func UpdatePosition(ctx context.Context, db sqlx.ExtContext, courseID string, id string, pos int, now time.Time) (bool, error) {
	const q = `
	UPDATE chapters SET
		position = $1,
		updated_at = $2
	WHERE chapter_id = $3 AND course_id = $4`

	res, err := db.ExecContext(ctx, q, pos, now, id, courseID)
	if err != nil {
		return false, fmt.Errorf("updating position of chapter[%s]: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("updating position of chapter[%s]: %w", id, err)
	}
	return n > 0, nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM chapters WHERE chapter_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting chapter[%s]: %w", id, err)
	}
	return nil
}

func courseExists(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `SELECT EXISTS (SELECT 1 FROM courses WHERE course_id = $1)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, courseID); err != nil {
		return fmt.Errorf("checking course[%s]: %w", courseID, err)
	}
	if !ok {
		return fmt.Errorf("course[%s]: %w", courseID, apperr.ErrCourseNotFound)
	}
	return nil
}

// courseVisible fails unless learners can see the course: it must be
// published and hold at least one published chapter.
func courseVisible(ctx context.Context, db sqlx.ExtContext, courseID string) error {
	const q = `
	SELECT
		c.publish_flag AND EXISTS (
			SELECT 1 FROM chapters ch WHERE ch.course_id = c.course_id AND ch.publish_flag
		)
	FROM courses c
	WHERE c.course_id = $1`

	var visible bool
	if err := sqlx.GetContext(ctx, db, &visible, q, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("course[%s]: %w", courseID, apperr.ErrCourseNotFound)
		}
		return fmt.Errorf("checking course[%s]: %w", courseID, err)
	}
	if !visible {
		return fmt.Errorf("course[%s]: %w", courseID, apperr.ErrCourseNotPublished)
	}
	return nil
}

// lockCourse serializes chapter changes of one course until the transaction
// ends.
func lockCourse(ctx context.Context, tx sqlx.ExtContext, courseID string) error {
	const q = `SELECT course_id FROM courses WHERE course_id = $1 FOR UPDATE`

	var id string
	if err := sqlx.GetContext(ctx, tx, &id, q, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("course[%s]: %w", courseID, apperr.ErrCourseNotFound)
		}
		return fmt.Errorf("locking course[%s]: %w", courseID, err)
	}
	return nil
}

// unpublishEmptyCourse keeps a published course from outliving its last
// published chapter.
func unpublishEmptyCourse(ctx context.Context, tx sqlx.ExtContext, courseID string, now time.Time) (bool, error) {
	const q = `
	UPDATE courses SET
		publish_flag = false,
		updated_at = $2
	WHERE course_id = $1
		AND publish_flag
		AND NOT EXISTS (
			SELECT 1 FROM chapters WHERE course_id = $1 AND publish_flag
		)`

	res, err := tx.ExecContext(ctx, q, courseID, now)
	if err != nil {
		return false, fmt.Errorf("unpublishing course[%s]: %w", courseID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("unpublishing course[%s]: %w", courseID, err)
	}
	return n > 0, nil
}
