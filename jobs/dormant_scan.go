package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/assetdesk/assetdesk/internal/shared"
)

// The principals table stores the account flag as is_active; this statement
// must stay in step with the directory repository's column names.
const dormantScanStmt = `UPDATE principals SET is_active = FALSE, updated_at = NOW() WHERE is_active = TRUE AND last_login IS NOT NULL AND last_login < $1 RETURNING id`

// DormantScanJob flags accounts whose last sign-in is older than the threshold.
type DormantScanJob struct {
	Pool   *pgxpool.Pool
	Audit  *shared.AuditLogger
	Logger *slog.Logger
	clock  func() time.Time
}

// NewDormantScanJob initialises the dormancy scan handler.
func NewDormantScanJob(pool *pgxpool.Pool, audit *shared.AuditLogger, logger *slog.Logger) *DormantScanJob {
	return &DormantScanJob{
		Pool:   pool,
		Audit:  audit,
		Logger: logger,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle executes one dormancy scan.
func (j *DormantScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("dormant scan: handler not configured")
	}
	var payload DormantScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.DormantAfter <= 0 {
		payload.DormantAfter = 90 * 24 * time.Hour
	}

	logger := j.logger().With(slog.Duration("dormant_after", payload.DormantAfter))
	logger.Info("starting dormancy scan")

	flagged, err := j.scan(ctx, payload)
	if err != nil {
		logger.Error("scan failed", slog.Any("error", err))
		return err
	}

	logger.Info("completed dormancy scan", slog.Int("flagged", len(flagged)))
	return nil
}

func (j *DormantScanJob) scan(ctx context.Context, payload DormantScanPayload) ([]int64, error) {
	if j.Pool == nil {
		return nil, errors.New("dormant scan: pool not configured")
	}
	cutoff := j.now().Add(-payload.DormantAfter)
	rows, err := j.Pool.Query(ctx, dormantScanStmt, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flagged := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		flagged = append(flagged, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, id := range flagged {
		entry := shared.AuditLog{
			Action:   shared.AuditActionDormantFlagged,
			Entity:   "principal",
			EntityID: strconv.FormatInt(id, 10),
			Meta:     map[string]any{"cutoff": cutoff.Format(time.RFC3339)},
		}
		if err := j.Audit.Record(ctx, entry); err != nil {
			j.logger().Warn("audit record failed", slog.Int64("principal_id", id), slog.Any("error", err))
		}
	}
	return flagged, nil
}

func (j *DormantScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDormantScan))
	}
	return slog.Default().With(slog.String("job", TaskDormantScan))
}

func (j *DormantScanJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
