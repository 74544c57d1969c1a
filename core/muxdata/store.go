package muxdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a chapter has no registered asset.
var ErrNotFound = errors.New("mux data not found")

func ListByCourse(ctx context.Context, db sqlx.ExtContext, courseID string) ([]MuxData, error) {
	const q = `
	SELECT
		m.mux_data_id, m.chapter_id, m.asset_id, m.playback_id
	FROM mux_data m
	JOIN chapters ch ON ch.chapter_id = m.chapter_id
	WHERE ch.course_id = $1
	ORDER BY ch.position ASC`

	data := []MuxData{}
	if err := sqlx.SelectContext(ctx, db, &data, q, courseID); err != nil {
		return nil, fmt.Errorf("selecting mux data of course[%s]: %w", courseID, err)
	}
	return data, nil
}

func FetchByChapter(ctx context.Context, db sqlx.ExtContext, chapterID string) (MuxData, error) {
	const q = `
	SELECT
		mux_data_id, chapter_id, asset_id, playback_id
	FROM mux_data
	WHERE chapter_id = $1`

	var m MuxData
	if err := sqlx.GetContext(ctx, db, &m, q, chapterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return MuxData{}, ErrNotFound
		}
		return MuxData{}, fmt.Errorf("selecting mux data of chapter[%s]: %w", chapterID, err)
	}
	return m, nil
}

func Create(ctx context.Context, db sqlx.ExtContext, m MuxData) error {
	const q = `
	INSERT INTO mux_data
		(mux_data_id, chapter_id, asset_id, playback_id)
	VALUES
		(:mux_data_id, :chapter_id, :asset_id, :playback_id)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, m); err != nil {
		return fmt.Errorf("inserting mux data: %w", err)
	}
	return nil
}

func Delete(ctx context.Context, db sqlx.ExtContext, id string) error {
	const q = `DELETE FROM mux_data WHERE mux_data_id = $1`

	if _, err := db.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("deleting mux data[%s]: %w", id, err)
	}
	return nil
}

// Schedule records that the asset is about to be deleted remotely, so a
// crash between the database change and the remote call still leaves it to
// Reconcile. An asset that is already pending keeps its attempt counter.
func Schedule(ctx context.Context, db sqlx.ExtContext, assetID string, now time.Time) error {
	const q = `
	INSERT INTO asset_deletions
		(asset_id, attempts, last_error, created_at, updated_at)
	VALUES
		($1, 0, '', $2, $2)
	ON CONFLICT (asset_id) DO NOTHING`

	if _, err := db.ExecContext(ctx, q, assetID, now); err != nil {
		return fmt.Errorf("scheduling deletion of asset[%s]: %w", assetID, err)
	}
	return nil
}

// AddPending records a failed remote deletion, bumping the attempt counter
// when the asset is already pending.
func AddPending(ctx context.Context, db sqlx.ExtContext, assetID string, cause error, now time.Time) error {
	const q = `
	INSERT INTO asset_deletions
		(asset_id, attempts, last_error, created_at, updated_at)
	VALUES
		($1, 1, $2, $3, $3)
	ON CONFLICT (asset_id) DO UPDATE SET
		attempts = asset_deletions.attempts + 1,
		last_error = EXCLUDED.last_error,
		updated_at = EXCLUDED.updated_at`

	if _, err := db.ExecContext(ctx, q, assetID, cause.Error(), now); err != nil {
		return fmt.Errorf("recording pending deletion of asset[%s]: %w", assetID, err)
	}
	return nil
}

func ListPending(ctx context.Context, db sqlx.ExtContext) ([]PendingDeletion, error) {
	const q = `
	SELECT
		asset_id, attempts, last_error, created_at, updated_at
	FROM asset_deletions
	ORDER BY created_at ASC`

	pds := []PendingDeletion{}
	if err := sqlx.SelectContext(ctx, db, &pds, q); err != nil {
		return nil, fmt.Errorf("selecting pending deletions: %w", err)
	}
	return pds, nil
}

func RemovePending(ctx context.Context, db sqlx.ExtContext, assetID string) error {
	const q = `DELETE FROM asset_deletions WHERE asset_id = $1`

	if _, err := db.ExecContext(ctx, q, assetID); err != nil {
		return fmt.Errorf("removing pending deletion of asset[%s]: %w", assetID, err)
	}
	return nil
}
