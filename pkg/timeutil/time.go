package timeutil

import "time"

// Now returns the current time in UTC
// Always use this instead of time.Now() to ensure timezone consistency
func Now() time.Time {
	return time.Now().UTC()
}

// ParseDate parses a date string and returns a UTC time
func ParseDate(layout, value string) (time.Time, error) {
	t, err := time.Parse(layout, value)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// StartOfDay returns the start of the day (midnight) in UTC
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// StartOfMonth returns midnight of the first day of t's month in UTC
func StartOfMonth(t time.Time) time.Time {
	year, month, _ := t.UTC().Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

// NextMonth returns midnight of the first day of the month after t's month
func NextMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0)
}

// StartOfISOWeek returns midnight of the Monday on or before t in UTC,
// so that the week runs Monday through Sunday
func StartOfISOWeek(t time.Time) time.Time {
	d := StartOfDay(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDate(0, 0, -offset)
}

// LastMonth returns the first and last day of the previous calendar
// month relative to ref, both at midnight UTC
func LastMonth(ref time.Time) (time.Time, time.Time) {
	firstOfThis := StartOfMonth(ref)
	firstOfLast := firstOfThis.AddDate(0, -1, 0)
	lastOfLast := firstOfThis.AddDate(0, 0, -1)
	return firstOfLast, lastOfLast
}

// ToUTC converts a time.Time to UTC if it isn't already
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}
