package dashboard

import (
	"context"
	"time"
)

// pollLoop fetches the task list now and then on every tick until ctx is
// cancelled. The ticker does not compensate for slow calls; a tick that
// arrives while a poll is running is dropped by the ticker itself.
func (c *Controller) pollLoop(ctx context.Context) {
	defer c.wg.Done()

	_ = c.Poll(ctx)

	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Poll(ctx)
		}
	}
}
