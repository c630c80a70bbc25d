package scheduling

import "errors"

var (
	ErrVoteNotFound         = errors.New("vote not found")
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrInvalidRule          = errors.New("invalid recurrence rule")
	ErrInvalidRange         = errors.New("invalid date range")
	ErrTooManyDates         = errors.New("recurrence expands to too many dates")
	ErrRecalculationFailed  = errors.New("recalculation failed")
	// ErrInvariantViolation marks stored state the schema should have prevented,
	// such as two votes for one participant.
	ErrInvariantViolation = errors.New("scheduling invariant violated")
)
