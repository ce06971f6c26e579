package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskQuotationsExpireDue sweeps overdue quotations into expired.
	TaskQuotationsExpireDue = "quotations:expire_due"
	// TaskOrdersConverted follows up on a completed quotation conversion.
	TaskOrdersConverted = "orders:converted"
)

// ExpireDuePayload carries the enqueue time for log correlation.
type ExpireDuePayload struct {
	RequestedAt time.Time `json:"requested_at"`
}

// NewExpireDueTask constructs the sweep task.
func NewExpireDueTask(at time.Time) (*asynq.Task, error) {
	data, err := json.Marshal(ExpireDuePayload{RequestedAt: at.UTC()})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskQuotationsExpireDue, data), nil
}

// ConversionPayload describes one completed conversion.
type ConversionPayload struct {
	QuotationID string   `json:"quotation_id"`
	OrderIDs    []string `json:"order_ids"`
	Resumed     int      `json:"resumed"`
	NextAction  string   `json:"next_action"`
}

// NewConversionTask constructs the follow-up task. The task id is derived
// from the quotation so a repeated notification is deduplicated by the queue.
func NewConversionTask(payload ConversionPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrdersConverted, data, asynq.TaskID(TaskOrdersConverted+":"+payload.QuotationID)), nil
}
