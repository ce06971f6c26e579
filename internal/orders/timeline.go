package orders

import "github.com/rentdesk/rentdesk/internal/rental"

// TimelineStep is one stage of the order progress display.
type TimelineStep struct {
	Status  rental.OrderStatus `json:"status"`
	Label   string             `json:"label"`
	Reached bool               `json:"reached"`
	Current bool               `json:"current"`
}

// Timeline is the display view of an order's progress. CurrentIndex is -1 for
// cancelled orders.
type Timeline struct {
	OrderID      string             `json:"order_id"`
	Status       rental.OrderStatus `json:"status"`
	CurrentIndex int                `json:"current_index"`
	Cancelled    bool               `json:"cancelled"`
	Steps        []TimelineStep     `json:"steps"`
}

var timelineSteps = []struct {
	status rental.OrderStatus
	label  string
}{
	{rental.OrderStatusPending, "Pending"},
	{rental.OrderStatusConfirmed, "Confirmed"},
	{rental.OrderStatusPickedUp, "Picked Up"},
	{rental.OrderStatusReturned, "Returned"},
	{rental.OrderStatusCompleted, "Completed"},
}

// TimelineIndex returns the display step for status; active rentals show as
// picked up and cancelled orders have no step.
func TimelineIndex(status rental.OrderStatus) int {
	if status == rental.OrderStatusActive {
		status = rental.OrderStatusPickedUp
	}
	for i, step := range timelineSteps {
		if step.status == status {
			return i
		}
	}
	return -1
}

// BuildTimeline renders whatever status the backend reports. No transition
// rules are enforced here.
func BuildTimeline(o *rental.Order) Timeline {
	current := TimelineIndex(o.Status)
	tl := Timeline{
		OrderID:      o.ID,
		Status:       o.Status,
		CurrentIndex: current,
		Cancelled:    o.Status == rental.OrderStatusCancelled,
		Steps:        make([]TimelineStep, 0, len(timelineSteps)),
	}
	for i, step := range timelineSteps {
		tl.Steps = append(tl.Steps, TimelineStep{
			Status:  step.status,
			Label:   step.label,
			Reached: current >= 0 && i <= current,
			Current: i == current,
		})
	}
	return tl
}
