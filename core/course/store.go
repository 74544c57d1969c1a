package course

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/irsalhamdi/course-market/core/apperr"
	"github.com/irsalhamdi/course-market/core/category"
	"github.com/irsalhamdi/course-market/core/muxdata"
	"github.com/jmoiron/sqlx"
)

const columns = `c.course_id, c.title, c.description, c.image_url, c.price, c.category_id, c.source_url, c.publish_flag, c.created_at, c.updated_at`

const categoryColumns = `cat.category_id AS cat_id, cat.name AS cat_name`

const hasPublishedChapter = `EXISTS (SELECT 1 FROM chapters ch WHERE ch.course_id = c.course_id AND ch.publish_flag)`

type courseRow struct {
	Course
	CatID   sql.NullString `db:"cat_id"`
	CatName sql.NullString `db:"cat_name"`
}

func (r courseRow) category() *category.Category {
	if !r.CatID.Valid {
		return nil
	}
	return &category.Category{ID: r.CatID.String, Name: r.CatName.String}
}

type adminRow struct {
	courseRow
	Chapters  int `db:"chapters"`
	Purchases int `db:"purchases"`
}

type publishRow struct {
	courseRow
	Visible   bool `db:"visible"`
	Purchased bool `db:"purchased"`
}

type chapterMuxRow struct {
	ChapterID   string         `db:"chapter_id"`
	MuxID       sql.NullString `db:"mux_id"`
	MuxAsset    sql.NullString `db:"mux_asset_id"`
	MuxPlayback sql.NullString `db:"mux_playback_id"`
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func ListAdmin(ctx context.Context, db sqlx.ExtContext) ([]AdminCourse, error) {
	q := `
	SELECT ` + columns + `, ` + categoryColumns + `,
		(SELECT count(*) FROM chapters ch WHERE ch.course_id = c.course_id AND ch.publish_flag) AS chapters,
		(SELECT count(*) FROM purchases p WHERE p.course_id = c.course_id) AS purchases
	FROM courses c
	LEFT JOIN categories cat ON cat.category_id = c.category_id
	ORDER BY c.created_at DESC`

	var rows []adminRow
	if err := sqlx.SelectContext(ctx, db, &rows, q); err != nil {
		return nil, fmt.Errorf("selecting courses: %w", err)
	}

	out := make([]AdminCourse, 0, len(rows))
	for _, r := range rows {
		out = append(out, AdminCourse{
			Course:          r.Course,
			Category:        r.category(),
			ChapterLength:   r.Chapters,
			PurchasedNumber: r.Purchases,
		})
	}
	return out, nil
}

// ListPublished returns the visible courses matching the filter, with the
// purchased flag computed for userID. Chapters are not filled.
func ListPublished(ctx context.Context, db sqlx.ExtContext, userID string, f Filter) ([]PublishCourse, error) {
	q := `
	SELECT ` + columns + `, ` + categoryColumns + `,
		EXISTS (SELECT 1 FROM purchases p WHERE p.course_id = c.course_id AND p.user_id = $1) AS purchased
	FROM courses c
	LEFT JOIN categories cat ON cat.category_id = c.category_id
	WHERE c.publish_flag
		AND ` + hasPublishedChapter + `
		AND ($2::text = '' OR c.title ILIKE '%' || $2::text || '%')
		AND ($3::text = '' OR c.category_id = $3::text)
	ORDER BY c.created_at DESC`

	var rows []publishRow
	if err := sqlx.SelectContext(ctx, db, &rows, q, userID, likeEscaper.Replace(f.Title), f.CategoryID); err != nil {
		return nil, fmt.Errorf("selecting published courses: %w", err)
	}

	out := make([]PublishCourse, 0, len(rows))
	for _, r := range rows {
		out = append(out, PublishCourse{
			Course:    r.Course,
			Category:  r.category(),
			Purchased: r.Purchased,
		})
	}
	return out, nil
}

// ListPurchased returns the visible courses bought by userID, most recent
// purchase first. Chapters are not filled.
func ListPurchased(ctx context.Context, db sqlx.ExtContext, userID string) ([]PurchaseCourse, error) {
	q := `
	SELECT ` + columns + `, ` + categoryColumns + `
	FROM courses c
	JOIN purchases p ON p.course_id = c.course_id AND p.user_id = $1
	LEFT JOIN categories cat ON cat.category_id = c.category_id
	WHERE c.publish_flag
		AND ` + hasPublishedChapter + `
	ORDER BY p.created_at DESC`

	var rows []courseRow
	if err := sqlx.SelectContext(ctx, db, &rows, q, userID); err != nil {
		return nil, fmt.Errorf("selecting purchased courses of user[%s]: %w", userID, err)
	}

	out := make([]PurchaseCourse, 0, len(rows))
	for _, r := range rows {
		out = append(out, PurchaseCourse{
			Course:   r.Course,
			Category: r.category(),
		})
	}
	return out, nil
}

// FetchPublished tells apart a missing course from a course learners cannot
// see yet. Chapters are not filled.
func FetchPublished(ctx context.Context, db sqlx.ExtContext, id string, userID string) (PublishCourseWithMuxData, error) {
	q := `
	SELECT ` + columns + `, ` + categoryColumns + `,
		c.publish_flag AND ` + hasPublishedChapter + ` AS visible,
		EXISTS (SELECT 1 FROM purchases p WHERE p.course_id = c.course_id AND p.user_id = $2) AS purchased
	FROM courses c
	LEFT JOIN categories cat ON cat.category_id = c.category_id
	WHERE c.course_id = $1`

	var r publishRow
	if err := sqlx.GetContext(ctx, db, &r, q, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return PublishCourseWithMuxData{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotFound)
		}
		return PublishCourseWithMuxData{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}

	if !r.Visible {
		return PublishCourseWithMuxData{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotPublished)
	}

	return PublishCourseWithMuxData{
		Course:    r.Course,
		Category:  r.category(),
		Purchased: r.Purchased,
	}, nil
}

// ListPublishedMuxData maps the chapter IDs of the published chapters of the
// course to their hosted asset, when there is one.
func ListPublishedMuxData(ctx context.Context, db sqlx.ExtContext, id string) (map[string]*muxdata.MuxData, error) {
	const q = `
	SELECT
		ch.chapter_id,
		m.mux_data_id AS mux_id,
		m.asset_id AS mux_asset_id,
		m.playback_id AS mux_playback_id
	FROM chapters ch
	LEFT JOIN mux_data m ON m.chapter_id = ch.chapter_id
	WHERE ch.course_id = $1 AND ch.publish_flag`

	var rows []chapterMuxRow
	if err := sqlx.SelectContext(ctx, db, &rows, q, id); err != nil {
		return nil, fmt.Errorf("selecting mux data of course[%s]: %w", id, err)
	}

	out := make(map[string]*muxdata.MuxData, len(rows))
	for _, r := range rows {
		if !r.MuxID.Valid {
			continue
		}
		out[r.ChapterID] = &muxdata.MuxData{
			ID:         r.MuxID.String,
			ChapterID:  r.ChapterID,
			AssetID:    r.MuxAsset.String,
			PlaybackID: r.MuxPlayback.String,
		}
	}
	return out, nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (Course, error) {
	q := `
	SELECT ` + columns + `
	FROM courses c
	WHERE c.course_id = $1`

	var c Course
	if err := sqlx.GetContext(ctx, db, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotFound)
		}
		return Course{}, fmt.Errorf("selecting course[%s]: %w", id, err)
	}
	return c, nil
}

// Lock fetches the course and holds its row lock until the transaction ends.
func Lock(ctx context.Context, tx sqlx.ExtContext, id string) (Course, error) {
	q := `
	SELECT ` + columns + `
	FROM courses c
	WHERE c.course_id = $1
	FOR UPDATE`

	var c Course
	if err := sqlx.GetContext(ctx, tx, &c, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Course{}, fmt.Errorf("course[%s]: %w", id, apperr.ErrCourseNotFound)
		}
		return Course{}, fmt.Errorf("locking course[%s]: %w", id, err)
	}
	return c, nil
}

func Exists(ctx context.Context, db sqlx.ExtContext, id string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM courses WHERE course_id = $1)`

	var ok bool
	if err := sqlx.GetContext(ctx, db, &ok, q, id); err != nil {
		return false, fmt.Errorf("checking course[%s]: %w", id, err)
	}
	return ok, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	INSERT INTO courses
		(course_id, title, description, image_url, price, category_id, source_url, publish_flag, created_at, updated_at)
	VALUES
		(:course_id, :title, :description, :image_url, :price, :category_id, :source_url, :publish_flag, :created_at, :updated_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

func Update(ctx context.Context, db sqlx.ExtContext, c Course) error {
	const q = `
	UPDATE courses SET
		title = :title,
		description = :description,
		image_url = :image_url,
		price = :price,
		category_id = :category_id,
		source_url = :source_url,
		publish_flag = :publish_flag,
		updated_at = :updated_at
	WHERE course_id = :course_id`

	if _, err := sqlx.NamedExecContext(ctx, db, q, c); err != nil {
		return fmt.Errorf("updating course[%s]: %w", c.ID, err)
	}
	return nil
}

// Delete removes the course. Chapters, their mux data and the purchases of
// the course go with it.
func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM courses WHERE course_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting course[%s]: %w", id, err)
	}
	return nil
}
