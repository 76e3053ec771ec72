/*
errors.go - Error types for the derivation engine

The engine never fails on numeric edge cases (division by zero, negative
deltas) - those produce a defined 0 fallback. The only condition it
reports is an end odometer reading below the start reading, and even
that comes with miles already clamped to 0 so callers can treat it as a
warning rather than an abort.
*/
package finance

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidOdometerReading is returned (wrapped) when an end odometer
// reading is below the start reading. Recoverable: the operator either
// re-enters the reading or proceeds with miles recorded as 0.
var ErrInvalidOdometerReading = errors.New("end odometer is less than start")

// InvalidOdometerError carries the offending readings.
type InvalidOdometerError struct {
	Start decimal.Decimal
	End   decimal.Decimal
}

func (e *InvalidOdometerError) Error() string {
	return fmt.Sprintf("end odometer %s is less than start %s", e.End, e.Start)
}

func (e *InvalidOdometerError) Unwrap() error {
	return ErrInvalidOdometerReading
}
