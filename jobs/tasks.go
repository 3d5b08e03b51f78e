package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskDormantScan flags accounts that have not signed in recently.
	TaskDormantScan = "directory:dormant_scan"
	// TaskAuditCleanup prunes audit rows past the retention window.
	TaskAuditCleanup = "audit:cleanup"
)

// DormantScanPayload carries the inactivity threshold for a scan run.
type DormantScanPayload struct {
	DormantAfter time.Duration `json:"dormant_after"`
	ScheduledFor time.Time     `json:"scheduled_for"`
}

// NewDormantScanTask constructs an Asynq task for the dormancy scan.
func NewDormantScanTask(dormantAfter time.Duration, at time.Time) (*asynq.Task, error) {
	payload := DormantScanPayload{DormantAfter: dormantAfter, ScheduledFor: at}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskDormantScan, body, asynq.Queue(QueueDefault)), nil
}

// AuditCleanupPayload carries the retention window for a cleanup run.
type AuditCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewAuditCleanupTask constructs an Asynq task for audit log cleanup.
func NewAuditCleanupTask(retention time.Duration) (*asynq.Task, error) {
	payload := AuditCleanupPayload{Retention: retention}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditCleanup, body, asynq.Queue(QueueDefault)), nil
}
