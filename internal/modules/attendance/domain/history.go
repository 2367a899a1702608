package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// History maps a day key to the total attended time of that day.
type History map[string]time.Duration

func (h History) MarshalJSON() ([]byte, error) {
	raw := make(map[string]int64, len(h))
	for day, d := range h {
		raw[day] = d.Milliseconds()
	}
	return json.Marshal(raw)
}

func (h *History) UnmarshalJSON(b []byte) error {
	raw := map[string]int64{}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(History, len(raw))
	for day, ms := range raw {
		out[day] = time.Duration(ms) * time.Millisecond
	}
	*h = out
	return nil
}

// Days returns the recorded day keys in ascending order.
func (h History) Days() []string {
	days := make([]string, 0, len(h))
	for day := range h {
		days = append(days, day)
	}
	sort.Strings(days)
	return days
}

// SessionDetail is one closed interval on the per-day timeline.
type SessionDetail struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

type detailRecord struct {
	Start    int64 `json:"start"`
	End      int64 `json:"end"`
	Duration int64 `json:"duration"`
}

func NewSessionDetail(start, end time.Time) SessionDetail {
	return SessionDetail{Start: start, End: end, Duration: end.Sub(start)}
}

func (d SessionDetail) MarshalJSON() ([]byte, error) {
	return json.Marshal(detailRecord{
		Start:    d.Start.UnixMilli(),
		End:      d.End.UnixMilli(),
		Duration: d.Duration.Milliseconds(),
	})
}

func (d *SessionDetail) UnmarshalJSON(b []byte) error {
	rec := detailRecord{}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	d.Start = time.UnixMilli(rec.Start)
	d.End = time.UnixMilli(rec.End)
	d.Duration = time.Duration(rec.Duration) * time.Millisecond
	return nil
}

// Details maps a day key to its intervals in insertion order.
type Details map[string][]SessionDetail

// DaySummary aggregates one day of attendance.
type DaySummary struct {
	Day           string
	Total         time.Duration
	Sessions      []SessionDetail
	FirstArrival  time.Time
	LastDeparture time.Time
	Break         time.Duration
	Goal          time.Duration
	GoalProgress  float64
	GoalRemaining time.Duration
	GoalMet       bool
}

// Summarize builds a DaySummary. Break is the part of the span between the
// first arrival and the last departure not covered by recorded sessions.
func Summarize(day string, total time.Duration, sessions []SessionDetail, goalHours float64) DaySummary {
	summary := DaySummary{Day: day, Total: total, Sessions: sessions}
	if summary.Sessions == nil {
		summary.Sessions = []SessionDetail{}
	}
	for _, s := range sessions {
		if summary.FirstArrival.IsZero() || s.Start.Before(summary.FirstArrival) {
			summary.FirstArrival = s.Start
		}
		if s.End.After(summary.LastDeparture) {
			summary.LastDeparture = s.End
		}
	}
	if len(sessions) > 0 {
		var covered time.Duration
		for _, s := range sessions {
			covered += s.Duration
		}
		if gap := summary.LastDeparture.Sub(summary.FirstArrival) - covered; gap > 0 {
			summary.Break = gap
		}
	}
	summary.Goal = GoalDuration(goalHours)
	if summary.Goal > 0 {
		summary.GoalProgress = float64(total) / float64(summary.Goal)
		if remaining := summary.Goal - total; remaining > 0 {
			summary.GoalRemaining = remaining
		}
		summary.GoalMet = total >= summary.Goal
	}
	return summary
}

// DayTotal is one row of a history listing.
type DayTotal struct {
	Day   string
	Total time.Duration
}
