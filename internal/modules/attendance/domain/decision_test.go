package domain_test

import (
	"testing"
	"time"

	"officetime/internal/modules/attendance/domain"
)

func TestDecideTable(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, berlin)
	fresh := &domain.Session{Start: now.Add(-time.Hour), LastActive: now.Add(-2 * time.Second)}
	due := &domain.Session{Start: now.Add(-time.Hour), LastActive: now.Add(-6 * time.Second)}
	yesterday := &domain.Session{Start: now.Add(-11 * time.Hour), LastActive: now.Add(-time.Second)}
	zombie := &domain.Session{Start: now.Add(-time.Hour), LastActive: now.Add(-21 * time.Minute)}

	cases := []struct {
		name    string
		session *domain.Session
		track   bool
		want    domain.Action
	}{
		{"idle and not tracking", nil, false, domain.ActionNone},
		{"idle and should track", nil, true, domain.ActionStart},
		{"active and should stop", fresh, false, domain.ActionStop},
		{"active within throttle", fresh, true, domain.ActionNone},
		{"active heartbeat due", due, true, domain.ActionHeartbeat},
		{"active across midnight", yesterday, true, domain.ActionRollover},
		{"zombie while tracking", zombie, true, domain.ActionZombieEnd},
		{"zombie while not tracking", zombie, false, domain.ActionZombieEnd},
	}
	for _, tc := range cases {
		got := domain.Decide(domain.DecisionInput{
			Now:            now,
			Session:        tc.session,
			ShouldTrack:    tc.track,
			HeartbeatEvery: 5 * time.Second,
			ZombieAfter:    20 * time.Minute,
		})
		if got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestShouldTrack(t *testing.T) {
	t.Parallel()
	configured := domain.Settings{TargetName: "Work", HasName: true}
	if !domain.ShouldTrack(true, configured) {
		t.Fatalf("matched + configured should track")
	}
	if domain.ShouldTrack(true, domain.Settings{}) {
		t.Fatalf("unconfigured target must not track")
	}
	paused := configured
	paused.ManualPause = true
	if domain.ShouldTrack(true, paused) {
		t.Fatalf("manual pause must not track")
	}
	if domain.ShouldTrack(false, configured) {
		t.Fatalf("unmatched network must not track")
	}
}

func TestStatusLabel(t *testing.T) {
	t.Parallel()
	s := domain.Settings{TargetName: "Work", HasName: true, TargetRawID: "Work-WiFi", HasRawID: true}
	cases := []struct {
		onWifi, matched, tracking bool
		id                        string
		settings                  domain.Settings
		want                      string
	}{
		{true, true, false, "", domain.Settings{}, "No office network configured"},
		{false, false, false, "", s, "Not connected to Wi-Fi"},
		{true, false, false, "Cafe", s, "Connected to Cafe, not the office network"},
		{true, true, true, "Work-WiFi", s, "Tracking on Work"},
		{true, true, false, "Work-WiFi", domain.Settings{TargetName: "Work", HasName: true, ManualPause: true}, "Paused on Work"},
	}
	for _, tc := range cases {
		if got := domain.StatusLabel(tc.onWifi, tc.matched, tc.id, tc.settings, tc.tracking); got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}
