package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"officetime/internal/modules/attendance/dto"
	attendancein "officetime/internal/modules/attendance/port/in"
	"officetime/internal/modules/attendance/service"
	"officetime/internal/modules/attendance/usecase"
	apperrors "officetime/internal/platform/errors"
)

type memStore struct {
	mu   sync.Mutex
	data map[string]string
}

func (s *memStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *memStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

type fakeOracle struct {
	onWifi bool
	id     string
}

func (o *fakeOracle) IsOnWifi(context.Context) (bool, error) { return o.onWifi, nil }
func (o *fakeOracle) ResolvedIdentifier(context.Context) (string, bool, error) {
	return o.id, o.id != "", nil
}

func newInteractor(clk *fakeClock, oracle *fakeOracle) (attendancein.Usecase, *memStore) {
	store := &memStore{data: map[string]string{}}
	cache := service.NewCache(store)
	settings := service.NewSettings(cache)
	ledger := service.NewLedger(clk, store, cache, nil)
	evaluator := service.NewEvaluator(clk, oracle, settings, ledger, service.DefaultEvaluatorOptions())
	return usecase.NewInteractor(clk, evaluator, ledger, settings), store
}

func TestWorkdayThroughInteractor(t *testing.T) {
	t.Parallel()
	zone := time.FixedZone("CET", 60*60)
	clk := &fakeClock{now: time.Date(2026, 3, 2, 8, 30, 0, 0, zone)}
	oracle := &fakeOracle{onWifi: true, id: `"Work-WiFi"`}
	uc, _ := newInteractor(clk, oracle)
	ctx := context.Background()

	if err := uc.SetTargetNetwork(ctx, dto.SetTargetInput{Name: "Work", RawID: "Work-WiFi"}); err != nil {
		t.Fatalf("set target: %v", err)
	}
	if err := uc.SetGoalHours(ctx, 8); err != nil {
		t.Fatalf("set goal: %v", err)
	}

	status, err := uc.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if status.Tracking || status.Action != "start" {
		t.Fatalf("status must not start a session, got %+v", status)
	}

	status, err = uc.Tick(ctx, dto.TickInput{Foreground: true})
	if err != nil {
		t.Fatalf("tick: %v", err)
	}
	if !status.Tracking || status.Session == nil || status.Identifier != "Work-WiFi" {
		t.Fatalf("expected tracking, got %+v", status)
	}

	clk.now = clk.now.Add(4 * time.Hour)
	oracle.onWifi = false
	if _, err := uc.Tick(ctx, dto.TickInput{}); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if cur, _ := uc.GetCurrentSession(ctx); cur != nil {
		t.Fatalf("session should be closed, got %+v", cur)
	}

	summary, err := uc.GetDaySummary(ctx, "")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Day != "2026-03-02" || summary.Total != 4*time.Hour || summary.GoalProgress != 0.5 || summary.GoalMet {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if len(summary.Sessions) != 1 || summary.GoalRemaining != 4*time.Hour {
		t.Fatalf("unexpected summary sessions %+v", summary)
	}

	history, err := uc.GetHistory(ctx)
	if err != nil || len(history) != 1 || history[0].Total != 4*time.Hour {
		t.Fatalf("unexpected history %+v %v", history, err)
	}

	target, err := uc.GetTargetNetwork(ctx)
	if err != nil || !target.Configured || target.Name != "Work" || target.RawID != "Work-WiFi" {
		t.Fatalf("unexpected target %+v %v", target, err)
	}
}

func TestInteractorRejectsMalformedDays(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)}
	uc, _ := newInteractor(clk, &fakeOracle{})
	ctx := context.Background()

	for _, day := range []string{"", "02.03.2026", "2026-13-01"} {
		if _, err := uc.GetDurationForDate(ctx, day); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", day, err)
		}
		if _, err := uc.GetSessionsForDate(ctx, day); !errors.Is(err, apperrors.ErrInvalidInput) {
			t.Fatalf("%q: expected invalid input, got %v", day, err)
		}
	}
	if d, err := uc.GetDurationForDate(ctx, "2020-01-01"); err != nil || d != 0 {
		t.Fatalf("unknown day should be zero, got %s %v", d, err)
	}
	if err := uc.SetGoalHours(ctx, 30); !errors.Is(err, apperrors.ErrInvalidGoalHours) {
		t.Fatalf("expected invalid goal, got %v", err)
	}
}

func TestClearHistoryThroughInteractor(t *testing.T) {
	t.Parallel()
	clk := &fakeClock{now: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)}
	uc, store := newInteractor(clk, &fakeOracle{})
	store.data["attendanceHistory"] = `{"2026-03-01":3600000}`
	store.data["sessionDetails"] = `{"2026-03-01":[{"start":1,"end":3600001,"duration":3600000}]}`
	ctx := context.Background()

	if err := uc.ClearHistory(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if history, _ := uc.GetHistory(ctx); len(history) != 0 {
		t.Fatalf("history should be empty, got %+v", history)
	}
	if rows, _ := uc.GetRangeTotals(ctx, "2026-03-01", "2026-03-02"); len(rows) != 2 || rows[0].Total != 0 {
		t.Fatalf("unexpected range %+v", rows)
	}
}
