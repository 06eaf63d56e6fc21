package reservation

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidStayPeriod = errors.New("check-out must be after check-in")

const dateLayout = "2006-01-02"

// StayPeriod is a half-open calendar interval [checkIn, checkOut). The open
// end makes back-to-back stays share a turnover day without overlapping.
type StayPeriod struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewStayPeriod truncates both instants to their UTC calendar date. A period
// must span at least one night.
func NewStayPeriod(checkIn, checkOut time.Time) (StayPeriod, error) {
	in := truncateToDate(checkIn)
	out := truncateToDate(checkOut)

	if !out.After(in) {
		return StayPeriod{}, ErrInvalidStayPeriod
	}

	return StayPeriod{checkIn: in, checkOut: out}, nil
}

func (s StayPeriod) CheckIn() time.Time  { return s.checkIn }
func (s StayPeriod) CheckOut() time.Time { return s.checkOut }

// Overlaps is the canonical half-open interval test: a shared turnover date
// (one check-out equal to another check-in) does not overlap.
func (s StayPeriod) Overlaps(other StayPeriod) bool {
	return s.checkIn.Before(other.checkOut) && other.checkIn.Before(s.checkOut)
}

func (s StayPeriod) Nights() int {
	return int(s.checkOut.Sub(s.checkIn).Hours() / 24)
}

func (s StayPeriod) IsZero() bool {
	return s.checkIn.IsZero() && s.checkOut.IsZero()
}

// StartsBefore reports whether check-in falls before the given day.
func (s StayPeriod) StartsBefore(day time.Time) bool {
	return s.checkIn.Before(truncateToDate(day))
}

func (s StayPeriod) String() string {
	return fmt.Sprintf("%s/%s", s.checkIn.Format(dateLayout), s.checkOut.Format(dateLayout))
}

func truncateToDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
