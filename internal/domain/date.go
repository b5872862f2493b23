package domain

import "time"

// DateFormat is the canonical string representation of a value date.
const DateFormat = "2006-01-02"

// Day truncates a timestamp to its calendar date at midnight UTC.
// All dates flowing through the pipeline are normalized with it so that
// (security, date) keys compare reliably regardless of source timezone.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date at midnight UTC.
func Today() time.Time {
	return Day(time.Now().UTC())
}
