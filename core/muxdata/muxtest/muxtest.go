// Package muxtest provides an in-memory video platform for tests.
package muxtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/irsalhamdi/course-market/muxapi"
)

var ErrUnavailable = errors.New("video platform unavailable")

type Assets struct {
	mu      sync.Mutex
	next    int
	created []string
	deleted []string
	failing map[string]bool
	hook    func(assetID string)
}

func New() *Assets {
	return &Assets{failing: make(map[string]bool)}
}

func (a *Assets) CreateAsset(ctx context.Context, url string) (muxapi.Asset, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.next++
	id := fmt.Sprintf("asset-%d", a.next)
	a.created = append(a.created, id)
	return muxapi.Asset{ID: id, PlaybackID: fmt.Sprintf("playback-%d", a.next)}, nil
}

func (a *Assets) DeleteAsset(ctx context.Context, assetID string) error {
	a.mu.Lock()
	hook := a.hook
	a.mu.Unlock()

	if hook != nil {
		hook(assetID)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.deleted = append(a.deleted, assetID)
	if a.failing[assetID] {
		return ErrUnavailable
	}
	return nil
}

// OnDelete registers fn to run before every deletion call. A nil fn removes
// the hook.
func (a *Assets) OnDelete(fn func(assetID string)) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.hook = fn
}

// Fail makes the deletion of the given assets fail until Recover.
func (a *Assets) Fail(assetIDs ...string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, id := range assetIDs {
		a.failing[id] = true
	}
}

func (a *Assets) Recover() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.failing = make(map[string]bool)
}

func (a *Assets) Created() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.created...)
}

// Deleted lists every deletion call, failed ones included.
func (a *Assets) Deleted() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]string(nil), a.deleted...)
}
