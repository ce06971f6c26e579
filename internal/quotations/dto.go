package quotations

// ReviewRequest carries vendor price edits keyed by line.
type ReviewRequest struct {
	Lines []LinePrice `json:"lines" validate:"dive"`
}

type LinePrice struct {
	ID        string  `json:"id" validate:"required"`
	UnitPrice float64 `json:"unit_price" validate:"gte=0"`
}

// Edits flattens the request into the engine's line id to price map.
func (r ReviewRequest) Edits() map[string]float64 {
	edits := make(map[string]float64, len(r.Lines))
	for _, line := range r.Lines {
		edits[line.ID] = line.UnitPrice
	}
	return edits
}

// RespondRequest is the customer's decision on a reviewed quotation.
type RespondRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

func (r RespondRequest) Accept() bool {
	return r.Status == "accepted"
}
