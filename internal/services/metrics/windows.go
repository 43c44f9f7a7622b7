package metrics

import (
	"fmt"
	"time"

	"github.com/kevin07696/payment-metrics/internal/domain/models"
	"github.com/kevin07696/payment-metrics/pkg/timeutil"
)

// WindowScheme selects how a historical range is partitioned into windows
type WindowScheme string

const (
	// SchemeSingle produces one window spanning the entire range
	SchemeSingle WindowScheme = "single"
	// SchemeCalendarMonth produces one window per calendar month touched by the range
	SchemeCalendarMonth WindowScheme = "calendar_month"
	// SchemeCalendarWeek produces one window per Monday-through-Sunday week
	SchemeCalendarWeek WindowScheme = "calendar_week"
	// SchemeRolling produces one trailing 14-day window per day in the range
	SchemeRolling WindowScheme = "rolling"
)

// RollingWindowDays is the lookback length of the rolling scheme: a
// trailing 14-day view re-evaluated daily, so adjacent windows overlap
// by 13 days.
const RollingWindowDays = 14

const labelLayout = "2006-01-02"

// Windows partitions [from, to] (dates, inclusive) into windows for the
// given scheme, in chronological order. Calendar schemes never gap or
// overlap; rolling windows overlap by design and extend past `to` when
// the lookback does.
//
// Calendar-month windows are computed directly from month boundaries.
// The first and last month are clamped to the range, so a range starting
// mid-month yields a leading partial month rather than dropping it.
func Windows(from, to time.Time, scheme WindowScheme) ([]models.Window, error) {
	from = timeutil.StartOfDay(from)
	to = timeutil.StartOfDay(to)
	if to.Before(from) {
		return nil, fmt.Errorf("invalid range: %s is after %s", from.Format(labelLayout), to.Format(labelLayout))
	}

	switch scheme {
	case SchemeSingle:
		return []models.Window{dayWindow(from, to, from.Format(labelLayout))}, nil

	case SchemeCalendarMonth:
		var windows []models.Window
		for anchor := timeutil.StartOfMonth(from); !anchor.After(to); anchor = anchor.AddDate(0, 1, 0) {
			start := anchor
			if start.Before(from) {
				start = from
			}
			lastDay := timeutil.NextMonth(anchor).AddDate(0, 0, -1)
			if lastDay.After(to) {
				lastDay = to
			}
			windows = append(windows, dayWindow(start, lastDay, anchor.Format(labelLayout)))
		}
		return windows, nil

	case SchemeCalendarWeek:
		var windows []models.Window
		for anchor := timeutil.StartOfISOWeek(from); !anchor.After(to); anchor = anchor.AddDate(0, 0, 7) {
			start := anchor
			if start.Before(from) {
				start = from
			}
			lastDay := anchor.AddDate(0, 0, 6) // week ends Sunday
			if lastDay.After(to) {
				lastDay = to
			}
			windows = append(windows, dayWindow(start, lastDay, lastDay.Format(labelLayout)))
		}
		return windows, nil

	case SchemeRolling:
		var windows []models.Window
		for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
			lastDay := day.AddDate(0, 0, RollingWindowDays-1)
			windows = append(windows, dayWindow(day, lastDay, lastDay.Format(labelLayout)))
		}
		return windows, nil

	default:
		return nil, fmt.Errorf("unknown window scheme %q", scheme)
	}
}

// dayWindow builds a half-open [start, end) window covering the days
// firstDay through lastDay inclusive
func dayWindow(firstDay, lastDay time.Time, label string) models.Window {
	return models.Window{
		Start: firstDay,
		End:   lastDay.AddDate(0, 0, 1),
		Label: label,
	}
}

// ParseScheme validates a scheme name from config or a request
func ParseScheme(s string) (WindowScheme, error) {
	switch WindowScheme(s) {
	case SchemeSingle, SchemeCalendarMonth, SchemeCalendarWeek, SchemeRolling:
		return WindowScheme(s), nil
	}
	return "", fmt.Errorf("unknown window scheme %q", s)
}
