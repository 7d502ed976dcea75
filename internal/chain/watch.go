package chain

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// WatchBlocks polls the head block every interval and calls fn for each new
// head. The first observed head only sets the baseline. It returns nil when
// ctx is cancelled.
func (c *Client) WatchBlocks(ctx context.Context, interval time.Duration, fn func(ctx context.Context, block uint64)) error {
	if interval <= 0 {
		interval = 4 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last uint64
	seen := false

	poll := func() {
		n, err := c.BlockNumber(ctx)
		if err != nil {
			if ctx.Err() == nil {
				c.log.WithError(err).Debug("block poll failed")
			}
			return
		}
		if !seen {
			last, seen = n, true
			return
		}
		if n == last {
			return
		}
		last = n
		blocksSeen.Inc()
		c.log.WithFields(logrus.Fields{"block": n}).Debug("new block")
		fn(ctx, n)
	}

	poll()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		}
	}
}
