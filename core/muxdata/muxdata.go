package muxdata

import (
	"context"
	"time"

	"github.com/irsalhamdi/course-market/muxapi"
)

// MuxData mirrors the identifiers of the hosted asset backing a chapter video.
type MuxData struct {
	ID         string `json:"id" db:"mux_data_id"`
	ChapterID  string `json:"chapterId" db:"chapter_id"`
	AssetID    string `json:"assetId" db:"asset_id"`
	PlaybackID string `json:"playbackId" db:"playback_id"`
}

type PendingDeletion struct {
	AssetID   string    `db:"asset_id"`
	Attempts  int       `db:"attempts"`
	LastError string    `db:"last_error"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type AssetDeleter interface {
	DeleteAsset(ctx context.Context, assetID string) error
}

type AssetService interface {
	AssetDeleter
	CreateAsset(ctx context.Context, url string) (muxapi.Asset, error)
}
