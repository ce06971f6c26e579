package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/rentdesk/rentdesk/internal/jobs"
)

// Invalidator drops cached reads that a conversion made stale.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// ConversionFollowupJob handles TaskOrdersConverted.
type ConversionFollowupJob struct {
	Invalidator Invalidator
	Logger      *slog.Logger
	Metrics     *jobmetrics.Metrics
}

// NewConversionFollowupJob wires dependencies for the follow-up handler.
func NewConversionFollowupJob(invalidator Invalidator, logger *slog.Logger, metrics *jobmetrics.Metrics) *ConversionFollowupJob {
	return &ConversionFollowupJob{Invalidator: invalidator, Logger: logger, Metrics: metrics}
}

// Handle refreshes dashboard reads and records the conversion.
func (j *ConversionFollowupJob) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ConversionPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.QuotationID == "" {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskOrdersConverted)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.String("quotation_id", payload.QuotationID))
	if j.Invalidator != nil {
		if err := j.Invalidator.Invalidate(ctx); err != nil {
			logger.Error("invalidate dashboard", slog.Any("error", err))
			resultErr = err
			return resultErr
		}
	}
	logger.Info("quotation conversion recorded",
		slog.Any("order_ids", payload.OrderIDs),
		slog.Int("resumed", payload.Resumed),
		slog.String("next_action", payload.NextAction),
	)
	return resultErr
}

func (j *ConversionFollowupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *ConversionFollowupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
