package quotations

import "errors"

var (
	// ErrUnknownLine indicates a price edit for a line the quotation does not own.
	ErrUnknownLine = errors.New("quotation line not found")
	// ErrInvalidPrice indicates a negative unit price edit.
	ErrInvalidPrice = errors.New("unit price must not be negative")
	// ErrUnpricedLine indicates a review would leave a line without a positive price.
	ErrUnpricedLine = errors.New("every line needs a unit price before review")
	// ErrNotYetDue indicates an expiry attempt before the validity deadline.
	ErrNotYetDue = errors.New("quotation is not past its validity deadline")
)
