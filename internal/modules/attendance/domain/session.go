package domain

import (
	"encoding/json"
	"time"
)

// Session is the single live attendance interval. Start never changes after
// creation; LastActive moves forward on every heartbeat.
type Session struct {
	Start      time.Time
	LastActive time.Time
}

type sessionRecord struct {
	Start      int64 `json:"start"`
	LastActive int64 `json:"lastActive"`
}

func NewSession(now time.Time) Session {
	return Session{Start: now, LastActive: now}
}

func (s Session) MarshalJSON() ([]byte, error) {
	return json.Marshal(sessionRecord{Start: s.Start.UnixMilli(), LastActive: s.LastActive.UnixMilli()})
}

func (s *Session) UnmarshalJSON(b []byte) error {
	rec := sessionRecord{}
	if err := json.Unmarshal(b, &rec); err != nil {
		return err
	}
	s.Start = time.UnixMilli(rec.Start)
	s.LastActive = time.UnixMilli(rec.LastActive)
	return nil
}

// In returns the session with both timestamps expressed in loc.
func (s Session) In(loc *time.Location) Session {
	return Session{Start: s.Start.In(loc), LastActive: s.LastActive.In(loc)}
}

func (s Session) Elapsed(now time.Time) time.Duration {
	if now.Before(s.Start) {
		return 0
	}
	return now.Sub(s.Start)
}

// Stale reports whether no heartbeat has landed within threshold.
func (s Session) Stale(now time.Time, threshold time.Duration) bool {
	return now.Sub(s.LastActive) > threshold
}
