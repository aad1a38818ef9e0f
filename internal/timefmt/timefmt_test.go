package timefmt

import (
	"testing"
	"time"

	"github.com/nevalis/whispr-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday, 18 March 2026, 15:30 local. The week starts Monday the 16th.
var now = time.Date(2026, time.March, 18, 15, 30, 0, 0, time.Local)

func at(year int, month time.Month, day, hour, min int) time.Time {
	return time.Date(year, month, day, hour, min, 0, 0, time.Local)
}

func msgAt(t time.Time) models.Message {
	return models.Message{SenderID: "u1", Text: "x", CreatedAt: ToMillis(t)}
}

func TestDateLabel(t *testing.T) {
	assert.Equal(t, "Today", DateLabel(at(2026, time.March, 18, 0, 1), now))
	assert.Equal(t, "Today", DateLabel(at(2026, time.March, 18, 23, 59), now))
	assert.Equal(t, "Yesterday", DateLabel(at(2026, time.March, 17, 9, 0), now))
	assert.Equal(t, "5th March 2026", DateLabel(at(2026, time.March, 5, 12, 0), now))
	assert.Equal(t, "20th December 2025", DateLabel(at(2025, time.December, 20, 12, 0), now))
}

func TestDateLabelOrdinals(t *testing.T) {
	cases := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd", 30: "30th", 31: "31st",
	}
	for day, want := range cases {
		got := DateLabel(at(2026, time.January, day, 10, 0), now)
		assert.Equal(t, want+" January 2026", got)
	}
}

func TestGroupByDayBuckets(t *testing.T) {
	msgs := []models.Message{
		msgAt(at(2026, time.February, 20, 8, 0)),  // older month
		msgAt(at(2026, time.March, 10, 9, 0)),     // this month, before this week
		msgAt(at(2026, time.March, 10, 9, 5)),     // same day as previous
		msgAt(at(2026, time.March, 16, 7, 30)),    // Monday of this week
		msgAt(at(2026, time.March, 17, 19, 0)),    // yesterday
		msgAt(at(2026, time.March, 18, 14, 59)),   // today
	}

	groups := GroupByDay(msgs, now)
	require.Len(t, groups, 5)

	assert.Equal(t, "20th February 2026", groups[0].Label)
	assert.Equal(t, "Earlier this month", groups[1].Label)
	assert.Equal(t, "16th March 2026", groups[2].Label)
	assert.Equal(t, "Yesterday", groups[3].Label)
	assert.Equal(t, "Today", groups[4].Label)

	// Concatenating the groups must reproduce the input in order, and every
	// group's messages must share one calendar day.
	var flat []models.Message
	for _, g := range groups {
		require.NotEmpty(t, g.Messages)
		first := FromMillis(g.Messages[0].CreatedAt)
		for _, m := range g.Messages {
			d := FromMillis(m.CreatedAt)
			assert.Equal(t, first.Day(), d.Day())
			assert.Equal(t, first.Month(), d.Month())
		}
		flat = append(flat, g.Messages...)
	}
	assert.Equal(t, msgs, flat)
}

func TestGroupByDayEmpty(t *testing.T) {
	assert.Empty(t, GroupByDay(nil, now))
}

func TestClockTime(t *testing.T) {
	assert.Equal(t, "09:05", ClockTime(at(2026, time.March, 18, 9, 5)))
	assert.Equal(t, "23:59", ClockTime(at(2026, time.March, 18, 23, 59)))
}

func TestSmartTimestamp(t *testing.T) {
	// Same calendar day.
	assert.Equal(t, "08:15", SmartTimestamp(at(2026, time.March, 18, 8, 15), now))

	// 24h01m before now but still calendar-yesterday.
	assert.Equal(t, "Yesterday 15:29", SmartTimestamp(at(2026, time.March, 17, 15, 29), now))

	// Within 7 elapsed days: weekday abbreviation.
	assert.Equal(t, "Sun 15:30", SmartTimestamp(at(2026, time.March, 15, 15, 30), now))

	// 10 days ago, same year: month/day without year.
	assert.Equal(t, "Mar 8, 15:30", SmartTimestamp(at(2026, time.March, 8, 15, 30), now))

	// Previous year: full form.
	assert.Equal(t, "Nov 2, 2025 10:00", SmartTimestamp(at(2025, time.November, 2, 10, 0), now))
}

func TestMillisRoundTrip(t *testing.T) {
	ts := at(2026, time.March, 18, 12, 0)
	assert.True(t, ts.Equal(FromMillis(ToMillis(ts))))
}
