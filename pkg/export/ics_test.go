package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestICSCalendarBytes(t *testing.T) {
	cal := NewICSCalendar("CampusBuddy Events")
	cal.AddEvent(ICSEvent{
		UID:         "interview-APP001@campusbuddy",
		Start:       time.Date(2026, 5, 10, 9, 30, 0, 0, time.FixedZone("IST", 19800)),
		Summary:     "Interview - Backend Intern",
		Description: "Interview at Acme, Inc.\nOnline Interview",
		Location:    "Online",
		URL:         "https://meet.example.com/abc",
	})
	cal.AddEvent(ICSEvent{UID: "deadline-INT001@campusbuddy", Start: time.Date(2026, 5, 20, 0, 0, 0, 0, time.UTC), Summary: "Deadline"})
	require.Equal(t, 2, cal.Len())

	out := string(cal.Bytes())
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	assert.Equal(t, "BEGIN:VCALENDAR", lines[0])
	assert.Equal(t, "PRODID:-//CampusBuddy//Calendar//EN", lines[2])
	assert.Equal(t, "END:VCALENDAR", lines[len(lines)-1])
	assert.Contains(t, out, "DTSTART:20260510T040000Z\r\n")
	assert.Contains(t, out, `DESCRIPTION:Interview at Acme\, Inc.\nOnline Interview`)
	assert.Contains(t, out, "URL:https://meet.example.com/abc\r\n")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.NotContains(t, out, "LOCATION:\r\n")
}

func TestFoldICSLine(t *testing.T) {
	long := "SUMMARY:" + strings.Repeat("é", 60)
	folded := foldICSLine(long)
	for _, part := range strings.Split(folded, "\r\n") {
		assert.LessOrEqual(t, len(part), 75)
	}
	assert.Equal(t, long, strings.ReplaceAll(folded, "\r\n ", ""))
	assert.Equal(t, "SHORT", foldICSLine("SHORT"))
}
