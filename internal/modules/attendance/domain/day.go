package domain

import "time"

const DayKeyLayout = "2006-01-02"

// MinSegment is the shortest interval worth recording; anything shorter is a
// connect/disconnect blip.
const MinSegment = time.Second

// DayKey buckets t by its calendar day in t's own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyLayout)
}

func ParseDayKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DayKeyLayout, key, loc)
}

func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// EndOfDay is the last millisecond of t's calendar day (23:59:59.999 on
// regular days, DST transitions included).
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, t.Location()).Add(-time.Millisecond)
}

// Segment is a closed interval attributed to a single day key.
type Segment struct {
	Day   string
	Start time.Time
	End   time.Time
}

func (s Segment) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// SplitByDay cuts [start, end] at every local midnight. The first segment ends
// at EndOfDay(start); each following segment starts 1ms later, at midnight.
// An end before start yields a single zero-length segment on start's day.
func SplitByDay(start, end time.Time) []Segment {
	end = end.In(start.Location())
	if end.Before(start) {
		end = start
	}
	segments := []Segment{}
	cursor := start
	for DayKey(cursor) != DayKey(end) {
		eod := EndOfDay(cursor)
		segments = append(segments, Segment{Day: DayKey(cursor), Start: cursor, End: eod})
		cursor = eod.Add(time.Millisecond)
	}
	return append(segments, Segment{Day: DayKey(cursor), Start: cursor, End: end})
}
