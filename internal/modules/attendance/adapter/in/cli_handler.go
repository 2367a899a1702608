package in

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"officetime/internal/modules/attendance/dto"
	attendancein "officetime/internal/modules/attendance/port/in"
	apperrors "officetime/internal/platform/errors"
)

type CLIHandler struct {
	usecase attendancein.Usecase
}

func NewCLIHandler(usecase attendancein.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Tick(ctx context.Context, foreground bool) (dto.StatusOutput, error) {
	return h.usecase.Tick(ctx, dto.TickInput{Foreground: foreground})
}

func (h CLIHandler) Status(ctx context.Context) (dto.StatusOutput, error) {
	return h.usecase.Status(ctx)
}

// Day summarizes one day; an empty day means today.
func (h CLIHandler) Day(ctx context.Context, day string) (dto.DaySummaryOutput, error) {
	return h.usecase.GetDaySummary(ctx, day)
}

// History lists every recorded day, or the zero-filled [from, to] range when
// both bounds are given.
func (h CLIHandler) History(ctx context.Context, from, to string) ([]dto.DayTotalOutput, error) {
	if from == "" && to == "" {
		return h.usecase.GetHistory(ctx)
	}
	if from == "" || to == "" {
		return nil, fmt.Errorf("%w: --from and --to go together", apperrors.ErrInvalidInput)
	}
	return h.usecase.GetRangeTotals(ctx, from, to)
}

func (h CLIHandler) ClearHistory(ctx context.Context) error {
	return h.usecase.ClearHistory(ctx)
}

func (h CLIHandler) GoalHours(ctx context.Context) (float64, error) {
	return h.usecase.GetGoalHours(ctx)
}

func (h CLIHandler) SetGoalHours(ctx context.Context, raw string) error {
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fmt.Errorf("%w: %q is not a number", apperrors.ErrInvalidGoalHours, raw)
	}
	return h.usecase.SetGoalHours(ctx, hours)
}

func (h CLIHandler) Paused(ctx context.Context) (bool, error) {
	return h.usecase.GetManualPause(ctx)
}

func (h CLIHandler) SetPaused(ctx context.Context, paused bool) error {
	return h.usecase.SetManualPause(ctx, paused)
}

// TogglePause flips the manual pause and returns the new value.
func (h CLIHandler) TogglePause(ctx context.Context) (bool, error) {
	paused, err := h.usecase.GetManualPause(ctx)
	if err != nil {
		return false, err
	}
	if err := h.usecase.SetManualPause(ctx, !paused); err != nil {
		return paused, err
	}
	return !paused, nil
}

func (h CLIHandler) Target(ctx context.Context) (dto.TargetNetworkOutput, error) {
	return h.usecase.GetTargetNetwork(ctx)
}

func (h CLIHandler) SetTarget(ctx context.Context, name, rawID string) error {
	return h.usecase.SetTargetNetwork(ctx, dto.SetTargetInput{Name: name, RawID: rawID})
}

func (h CLIHandler) ClearTarget(ctx context.Context) error {
	return h.usecase.ClearTargetNetwork(ctx)
}

func (h CLIHandler) TodaySessions(ctx context.Context) ([]dto.DetailOutput, error) {
	return h.usecase.GetTodaySessions(ctx)
}

func (h CLIHandler) Today(ctx context.Context) (time.Duration, error) {
	return h.usecase.GetTodayDuration(ctx)
}
