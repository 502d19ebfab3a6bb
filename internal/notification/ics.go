package notification

import (
	"fmt"
	"strings"
	"time"
)

const (
	icsProdID        = "-//GLEC//Meeting Booking//KO"
	icsMaxLineLength = 75
	icsUTCFormat     = "20060102T150405Z"
)

type ICSParams struct {
	UID            string
	Title          string
	Description    string
	Location       string
	URL            string
	Start          time.Time
	End            time.Time
	OrganizerName  string
	OrganizerEmail string
	AttendeeName   string
	AttendeeEmail  string
	Stamp          time.Time
}

// GenerateICS builds a single-event METHOD:REQUEST calendar. Times are
// written in UTC so no VTIMEZONE block is needed.
func GenerateICS(p ICSParams) (string, error) {
	if p.UID == "" {
		return "", fmt.Errorf("ics uid is required")
	}
	if !p.End.After(p.Start) {
		return "", fmt.Errorf("ics end must be after start")
	}
	if p.Stamp.IsZero() {
		p.Stamp = time.Now()
	}

	var b strings.Builder
	line := func(s string) {
		b.WriteString(foldICSLine(s, icsMaxLineLength))
		b.WriteString("\r\n")
	}

	line("BEGIN:VCALENDAR")
	line("VERSION:2.0")
	line("PRODID:" + icsProdID)
	line("CALSCALE:GREGORIAN")
	line("METHOD:REQUEST")
	line("BEGIN:VEVENT")
	line("UID:" + p.UID)
	line("DTSTAMP:" + p.Stamp.UTC().Format(icsUTCFormat))
	line("DTSTART:" + p.Start.UTC().Format(icsUTCFormat))
	line("DTEND:" + p.End.UTC().Format(icsUTCFormat))
	line("SUMMARY:" + escapeICSText(p.Title))
	if p.Description != "" {
		line("DESCRIPTION:" + escapeICSText(p.Description))
	}
	if p.Location != "" {
		line("LOCATION:" + escapeICSText(p.Location))
	}
	if p.URL != "" {
		line("URL:" + p.URL)
	}
	if p.OrganizerEmail != "" {
		line(fmt.Sprintf("ORGANIZER;CN=%s:mailto:%s", escapeICSParam(p.OrganizerName), p.OrganizerEmail))
	}
	if p.AttendeeEmail != "" {
		line(fmt.Sprintf("ATTENDEE;CN=%s;ROLE=REQ-PARTICIPANT;PARTSTAT=ACCEPTED:mailto:%s", escapeICSParam(p.AttendeeName), p.AttendeeEmail))
	}
	line("STATUS:CONFIRMED")
	line("SEQUENCE:0")
	line("BEGIN:VALARM")
	line("TRIGGER:-PT15M")
	line("ACTION:DISPLAY")
	line("DESCRIPTION:" + escapeICSText(p.Title))
	line("END:VALARM")
	line("END:VEVENT")
	line("END:VCALENDAR")

	return b.String(), nil
}

// escapeICSText escapes TEXT values per RFC 5545 section 3.3.11.
func escapeICSText(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\n", "\\n")
	text = strings.ReplaceAll(text, ",", "\\,")
	text = strings.ReplaceAll(text, ";", "\\;")
	return text
}

func escapeICSParam(s string) string {
	if strings.ContainsAny(s, ":;,") {
		return `"` + strings.ReplaceAll(s, `"`, "") + `"`
	}
	return s
}

// foldICSLine splits lines longer than maxLength octets. Continuation lines
// start with a space and never split a UTF-8 sequence.
func foldICSLine(line string, maxLength int) string {
	if len(line) <= maxLength {
		return line
	}

	var folded strings.Builder
	remaining := line
	limit := maxLength

	for len(remaining) > limit {
		cut := limit
		for cut > 0 && remaining[cut]&0xC0 == 0x80 {
			cut--
		}
		folded.WriteString(remaining[:cut])
		folded.WriteString("\r\n ")
		remaining = remaining[cut:]
		limit = maxLength - 1
	}
	folded.WriteString(remaining)

	return folded.String()
}
