package domain

import (
	"strconv"
	"strings"
	"time"
)

// Key names a persisted value. The strings are the on-disk keys.
type Key string

const (
	KeyTargetName     Key = "officeSSID"
	KeyTargetRawID    Key = "officeSSIDRaw"
	KeyCurrentSession Key = "currentSession"
	KeyHistory        Key = "attendanceHistory"
	KeyDetails        Key = "sessionDetails"
	KeyGoalHours      Key = "goalHours"
	KeyManualPause    Key = "manualPause"
)

// CachedKeys are memoized by the attendance cache; history and details are not.
var CachedKeys = []Key{KeyTargetName, KeyTargetRawID, KeyGoalHours, KeyManualPause, KeyCurrentSession}

const DefaultGoalHours = 8.5

// Settings is the user configuration that drives tracking.
type Settings struct {
	TargetName  string
	TargetRawID string
	HasName     bool
	HasRawID    bool
	GoalHours   float64
	ManualPause bool
}

// TargetConfigured reports whether any office network has been chosen.
func (s Settings) TargetConfigured() bool {
	return s.HasName || s.HasRawID
}

func ValidGoalHours(h float64) bool {
	return h > 0 && h <= 24
}

// ParseGoalHours decodes the stored string, falling back to the default for
// absent or unusable values.
func ParseGoalHours(raw string, ok bool) float64 {
	if !ok {
		return DefaultGoalHours
	}
	h, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || !ValidGoalHours(h) {
		return DefaultGoalHours
	}
	return h
}

func FormatGoalHours(h float64) string {
	return strconv.FormatFloat(h, 'f', -1, 64)
}

func GoalDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}

func ParsePause(raw string, ok bool) bool {
	return ok && raw == "true"
}

func FormatPause(paused bool) string {
	return strconv.FormatBool(paused)
}

// StripQuotes removes the surrounding double quotes some platforms put around
// network identifiers.
func StripQuotes(id string) string {
	id = strings.TrimSpace(id)
	if len(id) >= 2 && strings.HasPrefix(id, `"`) && strings.HasSuffix(id, `"`) {
		return id[1 : len(id)-1]
	}
	return id
}

// MatchesTarget decides whether the current network counts as the office.
// Off Wi-Fi never matches. With a stored raw identifier the match is exact and
// case-sensitive, and an unresolvable current identifier does not match.
// Without a stored raw identifier any Wi-Fi counts.
func MatchesTarget(onWifi bool, resolved string, resolvedOK bool, rawTarget string, hasRawTarget bool) bool {
	if !onWifi {
		return false
	}
	if !hasRawTarget {
		return true
	}
	return resolvedOK && StripQuotes(resolved) == rawTarget
}
