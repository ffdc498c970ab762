package upstream

import (
	"context"

	"matchsync/internal/domain/profile"
)

// Push sends p to the matching service. The career page URLs are then
// forwarded to /update-urls/ on a best-effort basis: that secondary call
// is logged on failure and never fails Push.
func (c *Client) Push(ctx context.Context, p profile.Profile) error {
	payload, err := BuildPayload(p)
	if err != nil {
		return err
	}

	if _, err := c.UpdateUser(ctx, payload); err != nil {
		c.metrics.ObserveSyncPush(err)
		return err
	}
	c.metrics.ObserveSyncPush(nil)

	if len(payload.Links) > 0 {
		if err := c.UpdateURLs(ctx, payload.Links); err != nil {
			c.logger.Printf("[Upstream] update-urls failed user_id=%s links=%d err=%v", payload.UserID, len(payload.Links), err)
		}
	}
	return nil
}
