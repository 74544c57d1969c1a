package muxdata

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// Cleaner deletes remote assets. A failed deletion does not abort the caller:
// it is stored as pending and retried later by Reconcile.
type Cleaner struct {
	db     *sqlx.DB
	assets AssetDeleter
	log    logrus.FieldLogger
}

func NewCleaner(db *sqlx.DB, assets AssetDeleter, log logrus.FieldLogger) *Cleaner {
	return &Cleaner{db: db, assets: assets, log: log}
}

// Remove issues one remote deletion per asset and returns how many were left
// pending. A successful deletion clears any marker left by Schedule.
func (c *Cleaner) Remove(ctx context.Context, assetIDs ...string) (int, error) {
	pending := 0
	for _, id := range assetIDs {
		err := c.assets.DeleteAsset(ctx, id)
		if err == nil {
			if err := RemovePending(ctx, c.db, id); err != nil {
				return pending, err
			}
			continue
		}

		c.log.WithFields(logrus.Fields{
			"asset_id": id,
			"message":  err,
		}).Warn("remote asset deletion failed, scheduling retry")

		if err := AddPending(ctx, c.db, id, err, time.Now().UTC()); err != nil {
			return pending, err
		}
		pending++
	}
	return pending, nil
}

// Reconcile retries every pending deletion once and returns how many are
// still pending afterwards.
func (c *Cleaner) Reconcile(ctx context.Context) (int, error) {
	pds, err := ListPending(ctx, c.db)
	if err != nil {
		return 0, err
	}

	left := 0
	for _, pd := range pds {
		if err := ctx.Err(); err != nil {
			return left + 1, fmt.Errorf("reconciling asset deletions: %w", err)
		}

		if err := c.assets.DeleteAsset(ctx, pd.AssetID); err != nil {
			c.log.WithFields(logrus.Fields{
				"asset_id": pd.AssetID,
				"attempts": pd.Attempts + 1,
				"message":  err,
			}).Warn("retrying remote asset deletion failed")

			if err := AddPending(ctx, c.db, pd.AssetID, err, time.Now().UTC()); err != nil {
				return left, err
			}
			left++
			continue
		}

		if err := RemovePending(ctx, c.db, pd.AssetID); err != nil {
			return left, err
		}
	}
	return left, nil
}

// Job adapts Reconcile to a scheduler callback.
func (c *Cleaner) Job(timeout time.Duration) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		left, err := c.Reconcile(ctx)
		if err != nil {
			c.log.WithField("message", err).Error("reconciling asset deletions")
			return
		}
		if left > 0 {
			c.log.WithField("pending", left).Info("asset deletions still pending")
		}
	}
}
