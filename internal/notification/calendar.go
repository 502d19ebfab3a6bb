package notification

import (
	"net/url"
	"time"
)

const googleCalendarBase = "https://calendar.google.com/calendar/render"

// GoogleCalendarURL builds an "add event" link for Google Calendar.
func GoogleCalendarURL(title, details, location string, start, end time.Time) string {
	q := url.Values{}
	q.Set("action", "TEMPLATE")
	q.Set("text", title)
	q.Set("dates", start.UTC().Format(icsUTCFormat)+"/"+end.UTC().Format(icsUTCFormat))
	if details != "" {
		q.Set("details", details)
	}
	if location != "" {
		q.Set("location", location)
	}
	return googleCalendarBase + "?" + q.Encode()
}
