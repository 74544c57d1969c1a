// Package muxapi is a small client for the Mux video REST API covering the
// asset operations the marketplace needs.
package muxapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

type Asset struct {
	ID         string
	PlaybackID string
}

type Client struct {
	rc *resty.Client
}

func New(baseURL string, tokenID string, tokenSecret string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(tokenID, tokenSecret).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &Client{rc: rc}
}

type assetInput struct {
	URL string `json:"url"`
}

type createAssetReq struct {
	Input          []assetInput `json:"input"`
	PlaybackPolicy []string     `json:"playback_policy"`
}

type playbackID struct {
	ID     string `json:"id"`
	Policy string `json:"policy"`
}

type assetResp struct {
	Data struct {
		ID          string       `json:"id"`
		Status      string       `json:"status"`
		PlaybackIDs []playbackID `json:"playback_ids"`
	} `json:"data"`
}

type errorResp struct {
	Error struct {
		Type     string   `json:"type"`
		Messages []string `json:"messages"`
	} `json:"error"`
}

// CreateAsset asks Mux to ingest the video at url with a public playback ID.
func (c *Client) CreateAsset(ctx context.Context, url string) (Asset, error) {
	var out assetResp
	var fail errorResp

	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(createAssetReq{
			Input:          []assetInput{{URL: url}},
			PlaybackPolicy: []string{"public"},
		}).
		SetResult(&out).
		SetError(&fail).
		Post("/video/v1/assets")
	if err != nil {
		return Asset{}, fmt.Errorf("creating asset: %w", err)
	}
	if resp.IsError() {
		return Asset{}, fmt.Errorf("creating asset: status %d: %s", resp.StatusCode(), describe(fail))
	}

	if out.Data.ID == "" {
		return Asset{}, errors.New("creating asset: response has no asset id")
	}

	a := Asset{ID: out.Data.ID}
	if len(out.Data.PlaybackIDs) > 0 {
		a.PlaybackID = out.Data.PlaybackIDs[0].ID
	}
	return a, nil
}

// DeleteAsset removes the asset. An asset that no longer exists counts as
// deleted.
func (c *Client) DeleteAsset(ctx context.Context, assetID string) error {
	var fail errorResp

	resp, err := c.rc.R().
		SetContext(ctx).
		SetPathParam("asset_id", assetID).
		SetError(&fail).
		Delete("/video/v1/assets/{asset_id}")
	if err != nil {
		return fmt.Errorf("deleting asset[%s]: %w", assetID, err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil
	}
	if resp.IsError() {
		return fmt.Errorf("deleting asset[%s]: status %d: %s", assetID, resp.StatusCode(), describe(fail))
	}
	return nil
}

func describe(e errorResp) string {
	if len(e.Error.Messages) > 0 {
		return e.Error.Messages[0]
	}
	if e.Error.Type != "" {
		return e.Error.Type
	}
	return "unknown error"
}
