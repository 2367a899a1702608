package dto

import "time"

type SessionOutput struct {
	Start      time.Time
	LastActive time.Time
	Elapsed    time.Duration
}

type DetailOutput struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

type DayTotalOutput struct {
	Day   string
	Total time.Duration
}

type DaySummaryOutput struct {
	Day           string
	Total         time.Duration
	Sessions      []DetailOutput
	FirstArrival  time.Time
	LastDeparture time.Time
	Break         time.Duration
	Goal          time.Duration
	GoalProgress  float64
	GoalRemaining time.Duration
	GoalMet       bool
}

type TargetNetworkOutput struct {
	Name       string
	RawID      string
	Configured bool
}

type SetTargetInput struct {
	Name  string
	RawID string
}

type TickInput struct {
	Foreground bool
}

type StatusOutput struct {
	At          time.Time
	Action      string
	OnWifi      bool
	Identifier  string
	Matched     bool
	Tracking    bool
	Paused      bool
	Target      TargetNetworkOutput
	Session     *SessionOutput
	Elapsed     time.Duration
	Today       time.Duration
	GoalHours   float64
	StatusLabel string
}
