package network

import (
	"context"
	"time"

	"github.com/habiliai/agentrouter/internal/mylog"
)

// RunRefresher rebuilds the directory from addrs every interval until ctx is
// done.
func (d *Directory) RunRefresher(ctx context.Context, addrs []string, interval time.Duration) {
	if interval <= 0 {
		return
	}

	d.logger.Info("start directory refresher", "interval", interval)
	defer d.logger.Info("stop directory refresher")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			before := d.Len()
			if err := d.Rebuild(ctx, addrs); err != nil {
				d.logger.Debug("directory refresh interrupted", mylog.Err(err))
				continue
			}
			if after := d.Len(); after != before {
				d.logger.Info("agent directory changed", "before", before, "after", after)
			}
		}
	}
}
