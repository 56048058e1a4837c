package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/config"
	"github.com/encounter-space/core/internal/modules/storage/export"
	"github.com/encounter-space/core/internal/modules/sync/webhook"
	pkgcron "github.com/encounter-space/core/internal/pkg/cron"
	pkgredis "github.com/encounter-space/core/internal/pkg/redis"
	"github.com/encounter-space/core/internal/pkg/session"
	"github.com/encounter-space/core/internal/pkg/taskqueue"
)

// registerCronJobs wires all scheduled background jobs and returns the
// export service so the API can share it.
func registerCronJobs(sched *pkgcron.Scheduler, db *gorm.DB, rc *pkgredis.Client, cfg *config.AppConfig, logger *zap.Logger) *export.Service {
	cronLogger := logger.Named("cron")

	syncSvc := webhook.NewService(db, cfg.Webhook.Secret, logger.Named("sync"))
	sched.Register(pkgcron.Job{
		Name:        "replay_failed_events",
		Description: "re-run reconciliation for failed sync events",
		Interval:    time.Hour,
		Fn: func(ctx context.Context) error {
			report, err := syncSvc.Replay(ctx)
			if err != nil {
				cronLogger.Warn("replay pass failed", zap.Error(err))
				return err
			}
			if report.Scanned > 0 {
				cronLogger.Info("replay pass done",
					zap.Int("scanned", report.Scanned),
					zap.Int("recovered", report.Recovered),
				)
			}
			return nil
		},
	})

	sched.Register(pkgcron.Job{
		Name:        "prune_sessions",
		Description: "drop expired login sessions",
		Interval:    24 * time.Hour,
		Fn: func(ctx context.Context) error {
			pruned, err := session.PruneExpired(db.WithContext(ctx))
			if err != nil {
				cronLogger.Warn("session prune failed", zap.Error(err))
				return err
			}
			if pruned > 0 {
				cronLogger.Info("pruned expired sessions", zap.Int64("count", pruned))
			}
			return nil
		},
	})

	var s3 *export.S3Client
	if cfg.Export.Enable {
		client, err := export.NewS3Client(cfg.Export.S3)
		if err != nil {
			cronLogger.Warn("export disabled, s3 client unavailable", zap.Error(err))
		} else {
			s3 = client
		}
	}
	exportSvc := export.NewService(db, s3, taskqueue.NewService(rc), cfg.Export.Enable && s3 != nil, logger.Named("export"))

	if exportSvc.Enabled() {
		interval := time.Duration(cfg.Export.IntervalHours) * time.Hour
		sched.Register(pkgcron.Job{
			Name:        "audit_export",
			Description: "snapshot the sync audit trail to s3",
			Interval:    interval,
			Fn: func(ctx context.Context) error {
				_, err := exportSvc.Run(ctx)
				return err
			},
		})
	}

	return exportSvc
}
