package in_test

import (
	"context"
	"errors"
	"testing"

	attendancecli "officetime/internal/modules/attendance/adapter/in"
	"officetime/internal/modules/attendance/dto"
	attendancein "officetime/internal/modules/attendance/port/in"
	apperrors "officetime/internal/platform/errors"
)

type fakeUsecase struct {
	attendancein.Usecase
	paused    bool
	goal      float64
	rangeFrom string
	history   bool
}

func (f *fakeUsecase) GetManualPause(context.Context) (bool, error) { return f.paused, nil }
func (f *fakeUsecase) SetManualPause(_ context.Context, paused bool) error {
	f.paused = paused
	return nil
}
func (f *fakeUsecase) SetGoalHours(_ context.Context, hours float64) error {
	f.goal = hours
	return nil
}
func (f *fakeUsecase) GetHistory(context.Context) ([]dto.DayTotalOutput, error) {
	f.history = true
	return nil, nil
}
func (f *fakeUsecase) GetRangeTotals(_ context.Context, from, _ string) ([]dto.DayTotalOutput, error) {
	f.rangeFrom = from
	return nil, nil
}

func TestTogglePause(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := attendancecli.NewCLIHandler(uc)

	paused, err := h.TogglePause(context.Background())
	if err != nil || !paused || !uc.paused {
		t.Fatalf("expected paused, got %v %v", paused, err)
	}
	paused, _ = h.TogglePause(context.Background())
	if paused || uc.paused {
		t.Fatalf("expected resumed")
	}
}

func TestSetGoalHoursParsesInput(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := attendancecli.NewCLIHandler(uc)

	if err := h.SetGoalHours(context.Background(), "7.25"); err != nil || uc.goal != 7.25 {
		t.Fatalf("expected 7.25, got %v %v", uc.goal, err)
	}
	if err := h.SetGoalHours(context.Background(), "eight"); !errors.Is(err, apperrors.ErrInvalidGoalHours) {
		t.Fatalf("expected invalid goal, got %v", err)
	}
}

func TestHistoryChoosesRange(t *testing.T) {
	t.Parallel()
	uc := &fakeUsecase{}
	h := attendancecli.NewCLIHandler(uc)
	ctx := context.Background()

	if _, err := h.History(ctx, "", ""); err != nil || !uc.history {
		t.Fatalf("expected full history, got %v", err)
	}
	if _, err := h.History(ctx, "2026-03-01", "2026-03-07"); err != nil || uc.rangeFrom != "2026-03-01" {
		t.Fatalf("expected range lookup, got %v", err)
	}
	if _, err := h.History(ctx, "2026-03-01", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
