package period

import "time"

// Location is the fixed operating timezone used for all calendar-day
// calculations. Attendance uniqueness, the "today" interval, and the stored
// day key are all derived in this zone.
func Location() *time.Location {
	return time.FixedZone("JST", 9*60*60)
}

// Normalize truncates t to the start of its calendar day in the service
// timezone. This is the single canonical normalization routine: the
// uniqueness check and the stored day value must both go through it,
// otherwise a record could be rejected against a boundary it would not
// itself match.
func Normalize(t time.Time) time.Time {
	local := t.In(Location())
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, Location())
}

// Bounds returns the half-open interval [start, start+24h) of the calendar
// day containing t.
func Bounds(t time.Time) (time.Time, time.Time) {
	start := Normalize(t)
	return start, start.AddDate(0, 0, 1)
}

// Key renders the calendar day containing t as a YYYY-MM-DD string. The key
// is what persistence stores and indexes, so two instants on the same JST
// day always collapse to the same value.
func Key(t time.Time) string {
	return Normalize(t).Format("2006-01-02")
}

// ParseKey converts a stored day key back into the normalized day start.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", key, Location())
}

// SameDay reports whether a and b fall on the same calendar day.
func SameDay(a, b time.Time) bool {
	return Normalize(a).Equal(Normalize(b))
}
