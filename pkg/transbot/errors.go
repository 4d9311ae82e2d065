package transbot

import (
	"errors"
	"fmt"
)

// ErrNoTelemetry indicates no MOTION_STATUS was reported.
var ErrNoTelemetry = errors.New("no telemetry")

// RangeError reports an argument outside the accepted range.
type RangeError struct {
	Field string
	Value int
	Min   int
	Max   int
}

// Error implements error.
func (e *RangeError) Error() string {
	return fmt.Sprintf("%s %d out of range [%d, %d]", e.Field, e.Value, e.Min, e.Max)
}

func checkRange(field string, val, min, max int) error {
	if val < min || val > max {
		return &RangeError{Field: field, Value: val, Min: min, Max: max}
	}
	return nil
}

func checkScaled(field string, val float64, max int) (uint16, error) {
	scaled := int(val*1000 + 0.5)
	if val < 0 {
		scaled = int(val*1000 - 0.5)
	}
	if err := checkRange(field, scaled, 0, max*1000); err != nil {
		return 0, err
	}
	return uint16(scaled), nil
}
