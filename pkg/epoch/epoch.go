// Package epoch converts millisecond offsets from the Unix epoch into calendar
// date-times and back. Results are naive: they carry time.UTC as a placeholder
// zone and no offset is ever applied.
package epoch

import (
	"fmt"
	"math"
	"time"

	"golang.org/x/exp/constraints"
)

// Number is any integer or floating point millisecond count.
type Number interface {
	constraints.Integer | constraints.Float
}

// Epoch is the zero point, 1970-01-01T00:00:00.
var Epoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Representable calendar range is years 1 through 9999.
const (
	minMillis = -62135596800000.0 // 0001-01-01T00:00:00
	maxMillis = 253402300800000.0 // 10000-01-01T00:00:00, exclusive
)

// RangeError reports a millisecond offset whose date-time cannot be represented.
type RangeError struct {
	Milliseconds float64
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("epoch: %v milliseconds is outside the representable date range", e.Milliseconds)
}

// MillisecondsToDate adds ms milliseconds to Epoch. Fractional milliseconds
// are kept down to the nanosecond.
func MillisecondsToDate[N Number](ms N) (time.Time, error) {
	f := float64(ms)
	if math.IsNaN(f) || f < minMillis || f >= maxMillis {
		return time.Time{}, &RangeError{Milliseconds: f}
	}

	sec := math.Floor(f / 1000)
	nsec := math.Round((f - sec*1000) * 1e6)
	return time.Unix(int64(sec), int64(nsec)).UTC(), nil
}

// DateToMilliseconds returns the offset of t from Epoch in milliseconds. The
// zone of t is ignored; only its wall clock reading counts.
func DateToMilliseconds(t time.Time) float64 {
	naive := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return float64(naive.Unix())*1000 + float64(naive.Nanosecond())/1e6
}
