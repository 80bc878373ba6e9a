// Package walkerr defines the domain error kinds the booking engine can
// produce. Handlers translate them into flat {"error": ...} responses;
// anything else is treated as an infrastructure failure.
package walkerr

import "errors"

// FormatError reports an unparseable date, time, or phone number.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string { return e.Msg }

// RangeError reports a walk time outside business rules (past instant,
// outside 07:00-23:00, off the half-hour grid). Several violations may be
// folded into one message.
type RangeError struct {
	Msg string
}

func (e *RangeError) Error() string { return e.Msg }

// CapacityError reports a start slot that already holds the maximum number
// of active walks.
type CapacityError struct {
	Msg string
}

func (e *CapacityError) Error() string { return e.Msg }

// MissingPriceError reports that no rate is configured for the requested
// half-hour, or that a price-change request carried no usable price.
type MissingPriceError struct {
	Msg string
}

func (e *MissingPriceError) Error() string { return e.Msg }

// ValidationError reports a missing or inconsistent request field, including
// an illegal status transition.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NotFoundError reports an unknown walk or rate-slot identifier.
type NotFoundError struct {
	Msg string
}

func (e *NotFoundError) Error() string { return e.Msg }

// IsDomain reports whether err is one of the kinds above, i.e. safe to show
// to the caller verbatim.
func IsDomain(err error) bool {
	var (
		formatErr     *FormatError
		rangeErr      *RangeError
		capacityErr   *CapacityError
		priceErr      *MissingPriceError
		validationErr *ValidationError
		notFoundErr   *NotFoundError
	)
	switch {
	case errors.As(err, &formatErr),
		errors.As(err, &rangeErr),
		errors.As(err, &capacityErr),
		errors.As(err, &priceErr),
		errors.As(err, &validationErr),
		errors.As(err, &notFoundErr):
		return true
	}
	return false
}
