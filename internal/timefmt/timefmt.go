// Package timefmt holds the pure date/time helpers used to render message
// timestamps and to bucket a conversation into day groups. All functions take
// an explicit reference time so behavior is fixed in tests; callers pass
// time.Now() in handlers.
package timefmt

import (
	"fmt"
	"time"

	"github.com/nevalis/whispr-backend/internal/models"
)

// MessageGroup is one day bucket of consecutive messages plus its header label.
type MessageGroup struct {
	Label    string           `json:"label"`
	Messages []models.Message `json:"messages"`
}

// FromMillis converts an epoch-milliseconds timestamp to local time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// ToMillis converts a time to epoch milliseconds.
func ToMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// startOfWeek returns midnight of the Monday of t's week.
func startOfWeek(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	return midnight.AddDate(0, 0, -offset)
}

func ordinal(day int) string {
	suffix := "th"
	if day%100 < 11 || day%100 > 13 {
		switch day % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", day, suffix)
}

// longDate renders "2nd January 2026".
func longDate(t time.Time) string {
	return fmt.Sprintf("%s %s %d", ordinal(t.Day()), t.Month().String(), t.Year())
}

// DateLabel returns "Today", "Yesterday", or the long-form date. Comparison is
// on local calendar-day components, not elapsed time.
func DateLabel(t, now time.Time) string {
	if sameDay(t, now) {
		return "Today"
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday"
	}
	return longDate(t)
}

// GroupByDay walks an already-sorted (ascending by CreatedAt) message slice
// once and opens a new group whenever the calendar day changes. Group labels
// follow the week/month refinement: days inside the current week (starting
// Monday) use DateLabel; older days in the current month read "Earlier this
// month"; anything else gets the long-form date. The input is never re-sorted.
func GroupByDay(msgs []models.Message, now time.Time) []MessageGroup {
	var groups []MessageGroup
	weekStart := startOfWeek(now)

	var currentDay time.Time
	for _, m := range msgs {
		t := FromMillis(m.CreatedAt)
		if len(groups) == 0 || !sameDay(t, currentDay) {
			currentDay = t
			label := DateLabel(t, now)
			if t.Before(weekStart) {
				if t.Month() == now.Month() && t.Year() == now.Year() {
					label = "Earlier this month"
				} else {
					label = longDate(t)
				}
			}
			groups = append(groups, MessageGroup{Label: label})
		}
		groups[len(groups)-1].Messages = append(groups[len(groups)-1].Messages, m)
	}
	return groups
}

// ClockTime renders a timestamp as 24-hour "HH:mm" in local time.
func ClockTime(t time.Time) string {
	return t.Format("15:04")
}

// SmartTimestamp renders a per-message stamp whose precision decays with age:
// same day "HH:mm", previous day "Yesterday HH:mm", under 7 elapsed days
// "Mon HH:mm", same year "Jan 2, HH:mm", otherwise "Jan 2, 2006 HH:mm".
// The 7-day cutoff uses the truncated elapsed-day delta, which is a different
// rule from GroupByDay's calendar bucketing; group headers and message stamps
// intentionally age at different rates.
func SmartTimestamp(t, now time.Time) string {
	if sameDay(t, now) {
		return t.Format("15:04")
	}
	if sameDay(t, now.AddDate(0, 0, -1)) {
		return "Yesterday " + t.Format("15:04")
	}
	if days := int(now.Sub(t).Hours() / 24); days < 7 {
		return t.Format("Mon 15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}
	return t.Format("Jan 2, 2006 15:04")
}
