package daterange

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

// DateRange represents a half-open stay interval [CheckIn, CheckOut).
// Both bounds are normalized to UTC midnight; a range therefore always
// covers a whole number of nights.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New builds a validated range. Inputs are truncated to their calendar day
// so that a checkout on 2024-01-04 and a checkin on 2024-01-04 compare
// equal for back-to-back stays.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Day truncates a timestamp to UTC midnight.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func (dr DateRange) Validate() error {
	if dr.CheckIn.IsZero() || dr.CheckOut.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights returns the number of nights covered by the range.
func (dr DateRange) Nights() int {
	return int(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24)
}

// Overlaps reports whether two half-open intervals intersect. Adjacent
// ranges (one's checkout equals the other's checkin) do not overlap:
// checkout day is a valid checkin day for the next guest.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

// Adjacent reports whether the ranges touch back-to-back without overlapping.
func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// ContainsDate reports whether t falls inside the range.
func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

// EndedBefore reports whether the stay is fully over at the given instant.
func (dr DateRange) EndedBefore(at time.Time) bool {
	return !dr.CheckOut.After(Day(at))
}

func (dr DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", dr.CheckIn.Format("2006-01-02"), dr.CheckOut.Format("2006-01-02"))
}
