// internal/domain/birthday/monthday.go
package birthday

import (
	"fmt"
	"regexp"
	"time"
)

// MonthDay is a recurring calendar date without a year, e.g. "03-10".
type MonthDay struct {
	Month time.Month
	Day   int
}

var monthDayPattern = regexp.MustCompile(`^(\d{2})-(\d{2})$`)

// daysInMonth uses 29 for February so leap-day birthdays can be stored.
var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// ParseMonthDay parses an "MM-DD" string into a validated MonthDay.
func ParseMonthDay(s string) (MonthDay, error) {
	m := monthDayPattern.FindStringSubmatch(s)
	if m == nil {
		return MonthDay{}, fmt.Errorf("invalid month-day format %q, expected MM-DD", s)
	}
	var month, day int
	fmt.Sscanf(m[1], "%d", &month)
	fmt.Sscanf(m[2], "%d", &day)

	md := MonthDay{Month: time.Month(month), Day: day}
	if err := md.Validate(); err != nil {
		return MonthDay{}, err
	}
	return md, nil
}

// Validate checks the month is 1-12 and the day is valid for that month.
// February allows 29 so leap-day birthdays are representable.
func (md MonthDay) Validate() error {
	if md.Month < time.January || md.Month > time.December {
		return fmt.Errorf("invalid month: %d", md.Month)
	}
	if md.Day < 1 || md.Day > daysInMonth[md.Month] {
		return fmt.Errorf("invalid day %d for month %d", md.Day, md.Month)
	}
	return nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// MatchesExact reports whether the stored month-day equals today's month and
// day. The year never participates in the comparison. A stored Feb 29 only
// matches an actual Feb 29; there is no shifting to Feb 28 or Mar 1 in
// non-leap years.
func (md MonthDay) MatchesExact(today time.Time) bool {
	return today.Month() == md.Month && today.Day() == md.Day
}

// MatchesOffset reports whether the stored month-day equals the month and day
// of today plus offsetDays calendar days. AddDate rolls correctly across
// month and year boundaries (Dec 20 + 14 days is Jan 3).
func (md MonthDay) MatchesOffset(today time.Time, offsetDays int) bool {
	return md.MatchesExact(today.AddDate(0, 0, offsetDays))
}
