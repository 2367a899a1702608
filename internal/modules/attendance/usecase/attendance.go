package usecase

import (
	"context"
	"fmt"
	"time"

	"officetime/internal/modules/attendance/domain"
	"officetime/internal/modules/attendance/dto"
	attendancein "officetime/internal/modules/attendance/port/in"
	"officetime/internal/modules/attendance/service"
	"officetime/internal/platform/clock"
	apperrors "officetime/internal/platform/errors"
)

type Interactor struct {
	clock     clock.Clock
	evaluator *service.Evaluator
	ledger    *service.Ledger
	settings  *service.Settings
}

func NewInteractor(clk clock.Clock, evaluator *service.Evaluator, ledger *service.Ledger, settings *service.Settings) attendancein.Usecase {
	return &Interactor{clock: clk, evaluator: evaluator, ledger: ledger, settings: settings}
}

func (i *Interactor) Tick(ctx context.Context, input dto.TickInput) (dto.StatusOutput, error) {
	trigger := domain.TriggerInterval
	if input.Foreground {
		trigger = domain.TriggerForeground
	}
	snap, err := i.evaluator.Tick(ctx, trigger)
	return toStatus(snap), err
}

// Status reports the current state without starting, stopping or
// heartbeating anything.
func (i *Interactor) Status(ctx context.Context) (dto.StatusOutput, error) {
	snap, err := i.evaluator.Observe(ctx)
	return toStatus(snap), err
}

func (i *Interactor) GetCurrentSession(ctx context.Context) (*dto.SessionOutput, error) {
	session, err := i.ledger.GetCurrentSession(ctx)
	if err != nil || session == nil {
		return nil, err
	}
	return toSession(session, i.clock.Now()), nil
}

func (i *Interactor) GetTodayDuration(ctx context.Context) (time.Duration, error) {
	return i.ledger.GetTodayDuration(ctx)
}

func (i *Interactor) GetDurationForDate(ctx context.Context, day string) (time.Duration, error) {
	if err := i.validateDay(day); err != nil {
		return 0, err
	}
	return i.ledger.GetDurationForDate(ctx, day)
}

// GetHistory lists every recorded day in ascending order.
func (i *Interactor) GetHistory(ctx context.Context) ([]dto.DayTotalOutput, error) {
	history, err := i.ledger.GetHistory(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DayTotalOutput, 0, len(history))
	for _, day := range history.Days() {
		out = append(out, dto.DayTotalOutput{Day: day, Total: history[day]})
	}
	return out, nil
}

func (i *Interactor) GetTodaySessions(ctx context.Context) ([]dto.DetailOutput, error) {
	details, err := i.ledger.GetTodaySessions(ctx)
	if err != nil {
		return nil, err
	}
	return toDetails(details), nil
}

func (i *Interactor) GetSessionsForDate(ctx context.Context, day string) ([]dto.DetailOutput, error) {
	if err := i.validateDay(day); err != nil {
		return nil, err
	}
	details, err := i.ledger.GetSessionsForDate(ctx, day)
	if err != nil {
		return nil, err
	}
	return toDetails(details), nil
}

func (i *Interactor) GetDaySummary(ctx context.Context, day string) (dto.DaySummaryOutput, error) {
	if day == "" {
		day = domain.DayKey(i.clock.Now())
	}
	if err := i.validateDay(day); err != nil {
		return dto.DaySummaryOutput{}, err
	}
	goal, err := i.settings.GetGoalHours(ctx)
	if err != nil {
		return dto.DaySummaryOutput{}, err
	}
	summary, err := i.ledger.GetDaySummary(ctx, day, goal)
	if err != nil {
		return dto.DaySummaryOutput{}, err
	}
	return dto.DaySummaryOutput{
		Day:           summary.Day,
		Total:         summary.Total,
		Sessions:      toDetails(summary.Sessions),
		FirstArrival:  summary.FirstArrival,
		LastDeparture: summary.LastDeparture,
		Break:         summary.Break,
		Goal:          summary.Goal,
		GoalProgress:  summary.GoalProgress,
		GoalRemaining: summary.GoalRemaining,
		GoalMet:       summary.GoalMet,
	}, nil
}

func (i *Interactor) GetRangeTotals(ctx context.Context, from, to string) ([]dto.DayTotalOutput, error) {
	rows, err := i.ledger.GetRangeTotals(ctx, from, to)
	if err != nil {
		return nil, err
	}
	out := make([]dto.DayTotalOutput, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.DayTotalOutput{Day: row.Day, Total: row.Total})
	}
	return out, nil
}

func (i *Interactor) ClearHistory(ctx context.Context) error {
	return i.ledger.ClearHistory(ctx)
}

func (i *Interactor) GetGoalHours(ctx context.Context) (float64, error) {
	return i.settings.GetGoalHours(ctx)
}

func (i *Interactor) SetGoalHours(ctx context.Context, hours float64) error {
	return i.settings.SetGoalHours(ctx, hours)
}

func (i *Interactor) GetManualPause(ctx context.Context) (bool, error) {
	return i.settings.GetManualPause(ctx)
}

func (i *Interactor) SetManualPause(ctx context.Context, paused bool) error {
	return i.settings.SetManualPause(ctx, paused)
}

func (i *Interactor) GetTargetNetwork(ctx context.Context) (dto.TargetNetworkOutput, error) {
	settings, err := i.settings.Load(ctx)
	if err != nil {
		return dto.TargetNetworkOutput{}, err
	}
	return toTarget(settings), nil
}

func (i *Interactor) SetTargetNetwork(ctx context.Context, input dto.SetTargetInput) error {
	return i.settings.SetTargetSSID(ctx, input.Name, input.RawID)
}

func (i *Interactor) ClearTargetNetwork(ctx context.Context) error {
	return i.settings.ClearTargetSSID(ctx)
}

func (i *Interactor) validateDay(day string) error {
	if _, err := domain.ParseDayKey(day, i.clock.Now().Location()); err != nil {
		return fmt.Errorf("%w: day %q must look like %s", apperrors.ErrInvalidInput, day, domain.DayKeyLayout)
	}
	return nil
}

func toStatus(snap domain.Snapshot) dto.StatusOutput {
	out := dto.StatusOutput{
		At:          snap.At,
		Action:      string(snap.Action),
		OnWifi:      snap.OnWifi,
		Identifier:  snap.Identifier,
		Matched:     snap.Matched,
		Tracking:    snap.Tracking,
		Paused:      snap.Settings.ManualPause,
		Target:      toTarget(snap.Settings),
		Elapsed:     snap.Elapsed,
		Today:       snap.Today,
		GoalHours:   snap.Settings.GoalHours,
		StatusLabel: snap.StatusLabel,
	}
	if snap.Session != nil {
		out.Session = toSession(snap.Session, snap.At)
	}
	return out
}

func toSession(session *domain.Session, now time.Time) *dto.SessionOutput {
	return &dto.SessionOutput{
		Start:      session.Start,
		LastActive: session.LastActive,
		Elapsed:    session.Elapsed(now),
	}
}

func toTarget(settings domain.Settings) dto.TargetNetworkOutput {
	return dto.TargetNetworkOutput{
		Name:       settings.TargetName,
		RawID:      settings.TargetRawID,
		Configured: settings.TargetConfigured(),
	}
}

func toDetails(details []domain.SessionDetail) []dto.DetailOutput {
	out := make([]dto.DetailOutput, 0, len(details))
	for _, d := range details {
		out = append(out, dto.DetailOutput{Start: d.Start, End: d.End, Duration: d.Duration})
	}
	return out
}
