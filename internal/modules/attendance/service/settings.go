package service

import (
	"context"
	"fmt"
	"strings"

	"officetime/internal/modules/attendance/domain"
	apperrors "officetime/internal/platform/errors"
	"officetime/internal/platform/logging"
)

// Settings is the configuration boundary: everything written here is
// validated before the ledger or evaluator ever sees it.
type Settings struct {
	cache *Cache
}

func NewSettings(cache *Cache) *Settings {
	return &Settings{cache: cache}
}

func (s *Settings) Load(ctx context.Context) (domain.Settings, error) {
	out := domain.Settings{GoalHours: domain.DefaultGoalHours}
	var err error
	if out.TargetName, out.HasName, err = s.cache.Read(ctx, domain.KeyTargetName); err != nil {
		return out, err
	}
	if out.TargetRawID, out.HasRawID, err = s.cache.Read(ctx, domain.KeyTargetRawID); err != nil {
		return out, err
	}
	if out.GoalHours, err = s.GetGoalHours(ctx); err != nil {
		return out, err
	}
	if out.ManualPause, err = s.GetManualPause(ctx); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Settings) GetGoalHours(ctx context.Context) (float64, error) {
	raw, ok, err := s.cache.Read(ctx, domain.KeyGoalHours)
	if err != nil {
		return domain.DefaultGoalHours, err
	}
	return domain.ParseGoalHours(raw, ok), nil
}

func (s *Settings) SetGoalHours(ctx context.Context, hours float64) error {
	if !domain.ValidGoalHours(hours) {
		return fmt.Errorf("%w: got %v", apperrors.ErrInvalidGoalHours, hours)
	}
	return s.cache.Write(ctx, domain.KeyGoalHours, domain.FormatGoalHours(hours))
}

func (s *Settings) GetManualPause(ctx context.Context) (bool, error) {
	raw, ok, err := s.cache.Read(ctx, domain.KeyManualPause)
	if err != nil {
		return false, err
	}
	return domain.ParsePause(raw, ok), nil
}

func (s *Settings) SetManualPause(ctx context.Context, paused bool) error {
	logging.FromContext(ctx).Info().Bool("paused", paused).Msg("manual pause changed")
	return s.cache.Write(ctx, domain.KeyManualPause, domain.FormatPause(paused))
}

func (s *Settings) GetTargetSSID(ctx context.Context) (string, bool, error) {
	return s.cache.Read(ctx, domain.KeyTargetName)
}

func (s *Settings) GetRawSSID(ctx context.Context) (string, bool, error) {
	return s.cache.Read(ctx, domain.KeyTargetRawID)
}

// SetTargetSSID stores the display name and the quote-stripped raw identifier.
// An empty raw identifier removes it, which makes any Wi-Fi count.
func (s *Settings) SetTargetSSID(ctx context.Context, name, rawID string) error {
	name = strings.TrimSpace(name)
	rawID = domain.StripQuotes(rawID)
	if name == "" {
		name = rawID
	}
	if name == "" {
		return fmt.Errorf("%w: target network name is required", apperrors.ErrInvalidInput)
	}
	if err := s.cache.Write(ctx, domain.KeyTargetName, name); err != nil {
		return err
	}
	if rawID == "" {
		return s.cache.Remove(ctx, domain.KeyTargetRawID)
	}
	return s.cache.Write(ctx, domain.KeyTargetRawID, rawID)
}

func (s *Settings) ClearTargetSSID(ctx context.Context) error {
	if err := s.cache.Remove(ctx, domain.KeyTargetName); err != nil {
		return err
	}
	return s.cache.Remove(ctx, domain.KeyTargetRawID)
}
