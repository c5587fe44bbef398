package export

import (
	"bytes"
	"strings"
	"time"
)

// ICSContentType is the MIME type of rendered calendars.
const ICSContentType = "text/calendar"

const icsTimestamp = "20060102T150405Z"

// ICSEvent is one VEVENT. Empty optional fields are omitted.
type ICSEvent struct {
	UID         string
	Start       time.Time
	Summary     string
	Description string
	Location    string
	URL         string
}

// ICSCalendar accumulates events into an RFC 5545 document.
type ICSCalendar struct {
	name   string
	events []ICSEvent
}

// NewICSCalendar starts a calendar published under name.
func NewICSCalendar(name string) *ICSCalendar {
	return &ICSCalendar{name: name}
}

// AddEvent appends an event.
func (c *ICSCalendar) AddEvent(event ICSEvent) {
	c.events = append(c.events, event)
}

// Len returns the number of events added so far.
func (c *ICSCalendar) Len() int { return len(c.events) }

// Bytes renders the calendar with CRLF line endings.
func (c *ICSCalendar) Bytes() []byte {
	buf := &bytes.Buffer{}
	write := func(line string) {
		buf.WriteString(foldICSLine(line))
		buf.WriteString("\r\n")
	}
	write("BEGIN:VCALENDAR")
	write("VERSION:2.0")
	write("PRODID:-//CampusBuddy//Calendar//EN")
	write("CALSCALE:GREGORIAN")
	write("METHOD:PUBLISH")
	write("X-WR-CALNAME:" + escapeICSText(c.name))
	for _, e := range c.events {
		stamp := e.Start.UTC().Format(icsTimestamp)
		write("BEGIN:VEVENT")
		write("UID:" + e.UID)
		write("DTSTAMP:" + stamp)
		write("DTSTART:" + stamp)
		write("SUMMARY:" + escapeICSText(e.Summary))
		if e.Description != "" {
			write("DESCRIPTION:" + escapeICSText(e.Description))
		}
		if e.URL != "" {
			write("URL:" + e.URL)
		}
		if e.Location != "" {
			write("LOCATION:" + escapeICSText(e.Location))
		}
		write("END:VEVENT")
	}
	write("END:VCALENDAR")
	return buf.Bytes()
}

var icsEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func escapeICSText(value string) string {
	return icsEscaper.Replace(value)
}

// foldICSLine splits content lines longer than 75 octets with a CRLF and a
// leading space, never inside a UTF-8 sequence.
func foldICSLine(line string) string {
	const limit = 75
	if len(line) <= limit {
		return line
	}
	var b strings.Builder
	width := limit
	for len(line) > width {
		cut := width
		for cut > 0 && !utf8Start(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		width = limit - 1
	}
	b.WriteString(line)
	return b.String()
}

func utf8Start(c byte) bool {
	return c&0xC0 != 0x80
}
