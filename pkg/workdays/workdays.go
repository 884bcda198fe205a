// Package workdays implements Monday to Friday business-day arithmetic. No holiday calendar is
// applied.
package workdays

import "time"

// IsWorkingDay reports whether t falls on Monday through Friday.
func IsWorkingDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// Date truncates t to midnight in its own location.
func Date(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Count returns the number of working days from start to end, both inclusive. It returns 0 when
// end is before start.
func Count(start, end time.Time) int {
	day := Date(start)
	last := Date(end.In(start.Location()))
	count := 0
	for !day.After(last) {
		if IsWorkingDay(day) {
			count++
		}
		day = day.AddDate(0, 0, 1)
	}
	return count
}

// Add moves start by n working days. A negative n counts backwards. Weekend days are stepped over
// without being counted, so for n != 0 the result is always a working day.
func Add(start time.Time, n int) time.Time {
	day := Date(start)
	step := 1
	if n < 0 {
		step = -1
		n = -n
	}
	for added := 0; added < n; {
		day = day.AddDate(0, 0, step)
		if IsWorkingDay(day) {
			added++
		}
	}
	return day
}

// Between returns the signed number of working days needed to move from `from` to `to`:
// positive when to is later, negative when it is earlier, 0 on the same calendar day.
func Between(from, to time.Time) int {
	from = Date(from)
	to = Date(to.In(from.Location()))
	switch {
	case to.After(from):
		return Count(from.AddDate(0, 0, 1), to)
	case to.Before(from):
		return -Count(to.AddDate(0, 0, 1), from)
	default:
		return 0
	}
}
