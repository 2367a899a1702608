package domain

import (
	"fmt"
	"time"
)

// Trigger says why the evaluator ran.
type Trigger string

const (
	TriggerInterval   Trigger = "interval"
	TriggerForeground Trigger = "foreground"
)

// Action is the ledger transition chosen for one tick.
type Action string

const (
	ActionNone      Action = "none"
	ActionStart     Action = "start"
	ActionStop      Action = "stop"
	ActionHeartbeat Action = "heartbeat"
	ActionRollover  Action = "rollover"
	ActionZombieEnd Action = "zombie_end"
)

// DecisionInput is everything the decision table looks at.
type DecisionInput struct {
	Now            time.Time
	Session        *Session
	ShouldTrack    bool
	HeartbeatEvery time.Duration
	ZombieAfter    time.Duration
}

// Decide applies the zombie check and then the decision table.
func Decide(in DecisionInput) Action {
	if in.Session != nil && in.Session.Stale(in.Now, in.ZombieAfter) {
		return ActionZombieEnd
	}
	switch {
	case in.Session != nil && !in.ShouldTrack:
		return ActionStop
	case in.Session == nil && in.ShouldTrack:
		return ActionStart
	case in.Session != nil && DayKey(in.Session.Start.In(in.Now.Location())) != DayKey(in.Now):
		return ActionRollover
	case in.Session != nil && in.Now.Sub(in.Session.LastActive) > in.HeartbeatEvery:
		return ActionHeartbeat
	default:
		return ActionNone
	}
}

// ShouldTrack combines network match, target configuration and manual pause.
func ShouldTrack(matched bool, settings Settings) bool {
	return matched && settings.TargetConfigured() && !settings.ManualPause
}

// Snapshot is the read-only projection exposed after every tick.
type Snapshot struct {
	At          time.Time
	Trigger     Trigger
	Action      Action
	OnWifi      bool
	Identifier  string
	Matched     bool
	Tracking    bool
	Session     *Session
	Elapsed     time.Duration
	Today       time.Duration
	Settings    Settings
	StatusLabel string
}

// StatusLabel renders the connection status line shown to users.
func StatusLabel(onWifi, matched bool, identifier string, settings Settings, tracking bool) string {
	name := settings.TargetName
	if name == "" {
		name = settings.TargetRawID
	}
	switch {
	case !settings.TargetConfigured():
		return "No office network configured"
	case !onWifi:
		return "Not connected to Wi-Fi"
	case !matched && identifier != "":
		return fmt.Sprintf("Connected to %s, not the office network", identifier)
	case !matched:
		return "Connected to another network"
	case settings.ManualPause:
		return fmt.Sprintf("Paused on %s", name)
	case tracking:
		return fmt.Sprintf("Tracking on %s", name)
	default:
		return fmt.Sprintf("Connected to %s", name)
	}
}
