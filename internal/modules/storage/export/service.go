package export

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/encounter-space/core/internal/modules/sync/webhook"
	"github.com/encounter-space/core/internal/pkg/taskqueue"
)

const (
	TaskType  = "audit_export"
	batchSize = 500
)

// Summary is the result recorded on a finished export task.
type Summary struct {
	Key    string `json:"key"`
	Events int    `json:"events"`
	Bytes  int    `json:"bytes"`
}

// Service snapshots the sync audit trail to S3 as gzipped NDJSON.
// Task records in Redis make the runs observable from the API.
type Service struct {
	store  *webhook.Store
	s3     *S3Client
	tasks  *taskqueue.Service
	log    *zap.Logger
	enable bool
}

func NewService(db *gorm.DB, s3 *S3Client, tasks *taskqueue.Service, enable bool, log *zap.Logger) *Service {
	return &Service{
		store:  webhook.NewStore(db),
		s3:     s3,
		tasks:  tasks,
		log:    log,
		enable: enable,
	}
}

// Enabled reports whether exports are configured for this deployment.
func (s *Service) Enabled() bool { return s.enable && s.s3 != nil }

// Trigger enqueues an export task and runs it. Deduplication keeps a
// second trigger from piling onto a run already in flight.
func (s *Service) Trigger(ctx context.Context) (*taskqueue.Task, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("export is not configured")
	}

	task, created, err := s.tasks.Enqueue(ctx, TaskType, nil, TaskType)
	if err != nil {
		return nil, err
	}
	if !created {
		// A run is already in flight.
		return task, nil
	}

	go s.execute(context.WithoutCancel(ctx), task.ID)
	return task, nil
}

// Run performs one export synchronously. The cron job calls this.
func (s *Service) Run(ctx context.Context) (*Summary, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("export is not configured")
	}

	cutoff := time.Now()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)

	count := 0
	afterID := ""
	for {
		events, err := s.store.OlderThan(ctx, cutoff, batchSize, afterID)
		if err != nil {
			return nil, err
		}
		if len(events) == 0 {
			break
		}
		for i := range events {
			line, err := json.Marshal(&events[i])
			if err != nil {
				return nil, err
			}
			if _, err := gz.Write(append(line, '\n')); err != nil {
				return nil, err
			}
			count++
		}
		afterID = events[len(events)-1].ID
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("sync-events-%s.ndjson.gz", cutoff.UTC().Format("20060102-150405"))
	key, err := s.s3.Upload(ctx, name, buf.Bytes())
	if err != nil {
		return nil, err
	}

	summary := &Summary{Key: key, Events: count, Bytes: buf.Len()}
	s.log.Info("audit export finished",
		zap.String("key", key),
		zap.Int("events", count),
		zap.Int("bytes", summary.Bytes),
	)
	return summary, nil
}

func (s *Service) execute(ctx context.Context, taskID string) {
	if err := s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskRunning, nil, ""); err != nil {
		s.log.Error("export task update failed", zap.String("task_id", taskID), zap.Error(err))
	}

	summary, err := s.Run(ctx)
	if err != nil {
		s.log.Error("audit export failed", zap.String("task_id", taskID), zap.Error(err))
		_ = s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskFailed, nil, err.Error())
		return
	}
	_ = s.tasks.UpdateStatus(ctx, taskID, taskqueue.TaskCompleted, summary, "")
}

// Tasks lists recent export task records.
func (s *Service) Tasks(ctx context.Context, limit int) ([]*taskqueue.Task, error) {
	return s.tasks.List(ctx, limit)
}
