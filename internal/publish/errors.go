package publish

import "errors"

var (
	// ErrNoBroker is returned when no broker address is configured.
	ErrNoBroker = errors.New("publish: no broker configured")

	// ErrTimeout is returned when the broker does not answer in time.
	ErrTimeout = errors.New("publish: timed out")
)
