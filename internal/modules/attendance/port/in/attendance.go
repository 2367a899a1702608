package in

import (
	"context"
	"time"

	"officetime/internal/modules/attendance/dto"
)

// Usecase is the surface the CLI and the dashboard render from.
type Usecase interface {
	Tick(ctx context.Context, input dto.TickInput) (dto.StatusOutput, error)
	Status(ctx context.Context) (dto.StatusOutput, error)

	GetCurrentSession(ctx context.Context) (*dto.SessionOutput, error)
	GetTodayDuration(ctx context.Context) (time.Duration, error)
	GetDurationForDate(ctx context.Context, day string) (time.Duration, error)
	GetHistory(ctx context.Context) ([]dto.DayTotalOutput, error)
	GetTodaySessions(ctx context.Context) ([]dto.DetailOutput, error)
	GetSessionsForDate(ctx context.Context, day string) ([]dto.DetailOutput, error)
	GetDaySummary(ctx context.Context, day string) (dto.DaySummaryOutput, error)
	GetRangeTotals(ctx context.Context, from, to string) ([]dto.DayTotalOutput, error)
	ClearHistory(ctx context.Context) error

	GetGoalHours(ctx context.Context) (float64, error)
	SetGoalHours(ctx context.Context, hours float64) error
	GetManualPause(ctx context.Context) (bool, error)
	SetManualPause(ctx context.Context, paused bool) error
	GetTargetNetwork(ctx context.Context) (dto.TargetNetworkOutput, error)
	SetTargetNetwork(ctx context.Context, input dto.SetTargetInput) error
	ClearTargetNetwork(ctx context.Context) error
}
