package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// AuditCleanupJob removes audit entries older than the retention window.
type AuditCleanupJob struct {
	Audit  *shared.AuditLogger
	Logger *slog.Logger
}

// NewAuditCleanupJob initialises the audit cleanup handler.
func NewAuditCleanupJob(audit *shared.AuditLogger, logger *slog.Logger) *AuditCleanupJob {
	return &AuditCleanupJob{Audit: audit, Logger: logger}
}

// Handle executes one cleanup run.
func (j *AuditCleanupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("audit cleanup: handler not configured")
	}
	var payload AuditCleanupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.Retention <= 0 {
		payload.Retention = 365 * 24 * time.Hour
	}

	logger := j.logger().With(slog.Duration("retention", payload.Retention))
	removed, err := j.Audit.Cleanup(ctx, payload.Retention)
	if err != nil {
		logger.Error("cleanup failed", slog.Any("error", err))
		return err
	}
	logger.Info("completed audit cleanup", slog.Int64("removed", removed))
	return nil
}

func (j *AuditCleanupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAuditCleanup))
	}
	return slog.Default().With(slog.String("job", TaskAuditCleanup))
}
