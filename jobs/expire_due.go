package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// ExpirySweeper expires every overdue quotation and reports which ones.
type ExpirySweeper interface {
	ExpireDue(ctx context.Context) ([]string, error)
}

// ExpireDueJob runs the quotation expiry sweep.
type ExpireDueJob struct {
	Sweeper ExpirySweeper
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
	Timeout time.Duration
}

// NewExpireDueJob wires dependencies for the sweep handler.
func NewExpireDueJob(sweeper ExpirySweeper, logger *slog.Logger, metrics *jobmetrics.Metrics) *ExpireDueJob {
	return &ExpireDueJob{Sweeper: sweeper, Logger: logger, Metrics: metrics, Timeout: 5 * time.Minute}
}

// Handle processes TaskQuotationsExpireDue tasks. Individual quotation
// failures are logged and retried by the next sweep, not by asynq.
func (j *ExpireDueJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Sweeper == nil {
		return errors.New("expire due: handler not configured")
	}
	var payload ExpireDuePayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	tracker := j.metrics().Track(TaskQuotationsExpireDue)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	start := time.Now()
	logger := j.logger().With(slog.Time("requested_at", payload.RequestedAt))
	logger.Info("starting quotation expiry sweep")

	expired, err := j.Sweeper.ExpireDue(ctx)
	j.metrics().AddExpired(len(expired))
	if err != nil {
		logger.Warn("expiry sweep incomplete", slog.Int("expired", len(expired)), slog.Any("error", err))
		if len(expired) == 0 {
			resultErr = err
			return resultErr
		}
	}

	logger.Info("completed quotation expiry sweep",
		slog.Int("expired", len(expired)),
		slog.Duration("duration", time.Since(start)),
	)
	return resultErr
}

func (j *ExpireDueJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ExpireDueJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
