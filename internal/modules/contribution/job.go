package contribution

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const purgeTimeout = 2 * time.Minute

// RegisterRetentionJob schedules PurgeExpired on c using a standard cron
// spec or descriptor such as "@daily".
func RegisterRetentionJob(c *cron.Cron, spec string, svc Service, log *zap.Logger) error {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
		defer cancel()
		if _, err := svc.PurgeExpired(ctx); err != nil {
			log.Error("offer retention job failed", zap.Error(err))
		}
	})
	return err
}
