package service_test

import (
	"context"
	"errors"
	"testing"

	"officetime/internal/modules/attendance/domain"
	"officetime/internal/modules/attendance/service"
	apperrors "officetime/internal/platform/errors"
)

func TestSetTargetSSIDServesReadsFromCache(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	settings := service.NewSettings(service.NewCache(store))
	ctx := context.Background()

	if err := settings.SetTargetSSID(ctx, "Work", `"Work-WiFi"`); err != nil {
		t.Fatalf("set target: %v", err)
	}
	raw, ok, err := settings.GetRawSSID(ctx)
	if err != nil || !ok || raw != "Work-WiFi" {
		t.Fatalf("expected stripped raw id, got %q %v %v", raw, ok, err)
	}
	name, ok, err := settings.GetTargetSSID(ctx)
	if err != nil || !ok || name != "Work" {
		t.Fatalf("expected display name, got %q %v %v", name, ok, err)
	}
	if n := store.getCount(string(domain.KeyTargetRawID)); n != 0 {
		t.Fatalf("reads after a write must not hit the store, got %d", n)
	}
	if v, _ := store.raw(string(domain.KeyTargetRawID)); v != "Work-WiFi" {
		t.Fatalf("store should hold the stripped id, got %q", v)
	}
}

func TestSetTargetSSIDFallbacks(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	settings := service.NewSettings(service.NewCache(store))
	ctx := context.Background()

	if err := settings.SetTargetSSID(ctx, "", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if err := settings.SetTargetSSID(ctx, "", `"HQ"`); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if name, _, _ := settings.GetTargetSSID(ctx); name != "HQ" {
		t.Fatalf("name should fall back to the raw id, got %q", name)
	}

	if err := settings.SetTargetSSID(ctx, "Anywhere", ""); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if _, ok, _ := settings.GetRawSSID(ctx); ok {
		t.Fatalf("empty raw id should remove the stored one")
	}

	if err := settings.ClearTargetSSID(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	loaded, err := settings.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.TargetConfigured() {
		t.Fatalf("target should be cleared, got %+v", loaded)
	}
}

func TestGoalHoursValidation(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	settings := service.NewSettings(service.NewCache(store))
	ctx := context.Background()

	if h, err := settings.GetGoalHours(ctx); err != nil || h != domain.DefaultGoalHours {
		t.Fatalf("expected default goal, got %v %v", h, err)
	}
	for _, bad := range []float64{0, -1, 24.5} {
		if err := settings.SetGoalHours(ctx, bad); !errors.Is(err, apperrors.ErrInvalidGoalHours) {
			t.Fatalf("%v: expected invalid goal error, got %v", bad, err)
		}
	}
	if err := settings.SetGoalHours(ctx, 7.5); err != nil {
		t.Fatalf("set goal: %v", err)
	}
	if v, _ := store.raw(string(domain.KeyGoalHours)); v != "7.5" {
		t.Fatalf("unexpected stored goal %q", v)
	}
	if h, _ := settings.GetGoalHours(ctx); h != 7.5 {
		t.Fatalf("expected 7.5, got %v", h)
	}
}

func TestGoalHoursIgnoresGarbageInStore(t *testing.T) {
	t.Parallel()
	store := newMemStore()
	store.data[string(domain.KeyGoalHours)] = "lots"
	settings := service.NewSettings(service.NewCache(store))

	if h, err := settings.GetGoalHours(context.Background()); err != nil || h != domain.DefaultGoalHours {
		t.Fatalf("expected default goal, got %v %v", h, err)
	}
}

func TestManualPauseRoundTrip(t *testing.T) {
	t.Parallel()
	settings := service.NewSettings(service.NewCache(newMemStore()))
	ctx := context.Background()

	if p, _ := settings.GetManualPause(ctx); p {
		t.Fatalf("pause should default to off")
	}
	if err := settings.SetManualPause(ctx, true); err != nil {
		t.Fatalf("set pause: %v", err)
	}
	if p, _ := settings.GetManualPause(ctx); !p {
		t.Fatalf("pause should be on")
	}
}
