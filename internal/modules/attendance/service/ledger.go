package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"officetime/internal/modules/attendance/domain"
	attendanceout "officetime/internal/modules/attendance/port/out"
	"officetime/internal/platform/clock"
	apperrors "officetime/internal/platform/errors"
	"officetime/internal/platform/logging"
	"officetime/internal/platform/tx"
)

const maxRangeDays = 3660

// EndResult describes what EndSession did.
type EndResult struct {
	// Skipped is set when another EndSession was already running.
	Skipped   bool
	Ended     *domain.Session
	Recorded  []domain.Segment
	Discarded []domain.Segment
}

// Ledger owns the live session and the append-only history and detail maps.
type Ledger struct {
	clock clock.Clock
	store attendanceout.Store
	cache *Cache
	tx    tx.Manager

	ending atomic.Bool
}

func NewLedger(clk clock.Clock, store attendanceout.Store, cache *Cache, txm tx.Manager) *Ledger {
	if txm == nil {
		txm = tx.NewMutexManager()
	}
	return &Ledger{clock: clk, store: store, cache: cache, tx: txm}
}

func (l *Ledger) StartSession(ctx context.Context) (domain.Session, error) {
	session := domain.NewSession(l.clock.Now())
	if err := l.saveSession(ctx, session); err != nil {
		return domain.Session{}, err
	}
	logging.FromContext(ctx).Info().Time("start", session.Start).Msg("session started")
	return session, nil
}

// UpdateSessionHeartbeat moves lastActive to now. It returns nil without error
// when there is no live session.
func (l *Ledger) UpdateSessionHeartbeat(ctx context.Context) (*domain.Session, error) {
	now := l.clock.Now()
	session, err := l.loadSession(ctx, now.Location())
	if err != nil || session == nil {
		return nil, err
	}
	session.LastActive = now
	if err := l.saveSession(ctx, *session); err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession finalizes the live session, attributing each day's share to
// history and details. Overlapping calls are dropped: only the first one in
// flight does any work.
func (l *Ledger) EndSession(ctx context.Context) (EndResult, error) {
	log := logging.FromContext(ctx)
	if !l.ending.CompareAndSwap(false, true) {
		log.Debug().Msg("end session already in flight")
		return EndResult{Skipped: true}, nil
	}
	defer l.ending.Store(false)

	now := l.clock.Now()
	session, err := l.loadSession(ctx, now.Location())
	if err != nil || session == nil {
		return EndResult{}, err
	}
	session.LastActive = now

	result := EndResult{Ended: session}
	for _, seg := range domain.SplitByDay(session.Start, session.LastActive) {
		if seg.Duration() < domain.MinSegment {
			result.Discarded = append(result.Discarded, seg)
			continue
		}
		result.Recorded = append(result.Recorded, seg)
	}
	if err := l.record(ctx, result.Recorded); err != nil {
		return EndResult{}, err
	}
	log.Info().
		Time("start", session.Start).
		Time("end", session.LastActive).
		Int("segments", len(result.Recorded)).
		Int("discarded", len(result.Discarded)).
		Msg("session ended")
	return result, nil
}

func (l *Ledger) GetCurrentSession(ctx context.Context) (*domain.Session, error) {
	return l.loadSession(ctx, l.clock.Now().Location())
}

func (l *Ledger) AddToHistory(ctx context.Context, at time.Time, d time.Duration) error {
	return l.tx.Within(ctx, func(ctx context.Context) error {
		history, err := l.loadHistory(ctx)
		if err != nil {
			return err
		}
		history[domain.DayKey(at)] += d
		return l.saveJSON(ctx, domain.KeyHistory, history)
	})
}

func (l *Ledger) AddSessionDetail(ctx context.Context, start, end time.Time) error {
	return l.tx.Within(ctx, func(ctx context.Context) error {
		details, err := l.loadDetails(ctx)
		if err != nil {
			return err
		}
		day := domain.DayKey(start)
		details[day] = append(details[day], domain.NewSessionDetail(start, end))
		return l.saveJSON(ctx, domain.KeyDetails, details)
	})
}

// record appends every segment to both maps and drops the live session in one
// transaction. If the details write or the session delete fails, the previous
// history and details documents are put back so a retry does not count the
// same time twice.
func (l *Ledger) record(ctx context.Context, segments []domain.Segment) error {
	return l.tx.Within(ctx, func(ctx context.Context) error {
		prevHistory, hadHistory, err := l.store.Get(ctx, string(domain.KeyHistory))
		if err != nil {
			return fmt.Errorf("read history: %w", err)
		}
		prevDetails, hadDetails, err := l.store.Get(ctx, string(domain.KeyDetails))
		if err != nil {
			return fmt.Errorf("read session details: %w", err)
		}
		rollback := func() {
			l.restore(ctx, domain.KeyHistory, prevHistory, hadHistory)
			l.restore(ctx, domain.KeyDetails, prevDetails, hadDetails)
		}

		if len(segments) > 0 {
			history := l.decodeHistory(ctx, prevHistory, hadHistory)
			details := l.decodeDetails(ctx, prevDetails, hadDetails)
			for _, seg := range segments {
				history[seg.Day] += seg.Duration()
				details[seg.Day] = append(details[seg.Day], domain.NewSessionDetail(seg.Start, seg.End))
			}
			if err := l.saveJSON(ctx, domain.KeyHistory, history); err != nil {
				return err
			}
			if err := l.saveJSON(ctx, domain.KeyDetails, details); err != nil {
				rollback()
				return err
			}
		}
		if err := l.cache.Remove(ctx, domain.KeyCurrentSession); err != nil {
			if len(segments) > 0 {
				rollback()
			}
			return err
		}
		return nil
	})
}

// restore puts a document back to its state before record touched it.
func (l *Ledger) restore(ctx context.Context, key domain.Key, prev string, had bool) {
	var err error
	if had {
		err = l.store.Set(ctx, string(key), prev)
	} else {
		err = l.store.Remove(ctx, string(key))
	}
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("key", string(key)).Msg("rollback failed")
	}
}

// GetHistory never returns a nil map.
func (l *Ledger) GetHistory(ctx context.Context) (domain.History, error) {
	return l.loadHistory(ctx)
}

func (l *Ledger) GetTodayDuration(ctx context.Context) (time.Duration, error) {
	return l.GetDurationForDate(ctx, domain.DayKey(l.clock.Now()))
}

func (l *Ledger) GetDurationForDate(ctx context.Context, day string) (time.Duration, error) {
	history, err := l.loadHistory(ctx)
	if err != nil {
		return 0, err
	}
	return history[day], nil
}

func (l *Ledger) GetTodaySessions(ctx context.Context) ([]domain.SessionDetail, error) {
	return l.GetSessionsForDate(ctx, domain.DayKey(l.clock.Now()))
}

// GetSessionsForDate never returns a nil slice.
func (l *Ledger) GetSessionsForDate(ctx context.Context, day string) ([]domain.SessionDetail, error) {
	details, err := l.loadDetails(ctx)
	if err != nil {
		return []domain.SessionDetail{}, err
	}
	loc := l.clock.Now().Location()
	out := make([]domain.SessionDetail, 0, len(details[day]))
	for _, d := range details[day] {
		out = append(out, domain.SessionDetail{Start: d.Start.In(loc), End: d.End.In(loc), Duration: d.Duration})
	}
	return out, nil
}

func (l *Ledger) GetDaySummary(ctx context.Context, day string, goalHours float64) (domain.DaySummary, error) {
	total, err := l.GetDurationForDate(ctx, day)
	if err != nil {
		return domain.DaySummary{}, err
	}
	sessions, err := l.GetSessionsForDate(ctx, day)
	if err != nil {
		return domain.DaySummary{}, err
	}
	return domain.Summarize(day, total, sessions, goalHours), nil
}

// GetRangeTotals lists every day in [from, to] with zero-filled totals.
func (l *Ledger) GetRangeTotals(ctx context.Context, from, to string) ([]domain.DayTotal, error) {
	loc := l.clock.Now().Location()
	start, err := domain.ParseDayKey(from, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: from %q", apperrors.ErrInvalidInput, from)
	}
	end, err := domain.ParseDayKey(to, loc)
	if err != nil {
		return nil, fmt.Errorf("%w: to %q", apperrors.ErrInvalidInput, to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: range ends before it starts", apperrors.ErrInvalidInput)
	}
	history, err := l.loadHistory(ctx)
	if err != nil {
		return nil, err
	}
	out := []domain.DayTotal{}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		if len(out) >= maxRangeDays {
			return nil, fmt.Errorf("%w: range longer than %d days", apperrors.ErrInvalidInput, maxRangeDays)
		}
		key := domain.DayKey(day)
		out = append(out, domain.DayTotal{Day: key, Total: history[key]})
	}
	return out, nil
}

// ClearHistory drops both the history and the details maps.
func (l *Ledger) ClearHistory(ctx context.Context) error {
	return l.tx.Within(ctx, func(ctx context.Context) error {
		if err := l.store.Remove(ctx, string(domain.KeyHistory)); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if err := l.store.Remove(ctx, string(domain.KeyDetails)); err != nil {
			return fmt.Errorf("clear session details: %w", err)
		}
		logging.FromContext(ctx).Info().Msg("history cleared")
		return nil
	})
}

func (l *Ledger) saveSession(ctx context.Context, session domain.Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return l.cache.Write(ctx, domain.KeyCurrentSession, string(payload))
}

// loadSession treats an undecodable session as no session at all.
func (l *Ledger) loadSession(ctx context.Context, loc *time.Location) (*domain.Session, error) {
	raw, ok, err := l.cache.Read(ctx, domain.KeyCurrentSession)
	if err != nil || !ok {
		return nil, err
	}
	session := domain.Session{}
	if err := json.Unmarshal([]byte(raw), &session); err != nil || session.Start.UnixMilli() == 0 {
		logging.FromContext(ctx).Warn().Err(err).Msg("discarding malformed current session")
		return nil, nil
	}
	session = session.In(loc)
	if session.LastActive.Before(session.Start) {
		session.LastActive = session.Start
	}
	return &session, nil
}

func (l *Ledger) loadHistory(ctx context.Context) (domain.History, error) {
	raw, ok, err := l.store.Get(ctx, string(domain.KeyHistory))
	if err != nil {
		return domain.History{}, fmt.Errorf("read history: %w", err)
	}
	return l.decodeHistory(ctx, raw, ok), nil
}

func (l *Ledger) decodeHistory(ctx context.Context, raw string, ok bool) domain.History {
	history := domain.History{}
	if !ok || raw == "" {
		return history
	}
	if err := json.Unmarshal([]byte(raw), &history); err != nil || history == nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("discarding malformed history")
		return domain.History{}
	}
	return history
}

func (l *Ledger) loadDetails(ctx context.Context) (domain.Details, error) {
	raw, ok, err := l.store.Get(ctx, string(domain.KeyDetails))
	if err != nil {
		return domain.Details{}, fmt.Errorf("read session details: %w", err)
	}
	return l.decodeDetails(ctx, raw, ok), nil
}

func (l *Ledger) decodeDetails(ctx context.Context, raw string, ok bool) domain.Details {
	details := domain.Details{}
	if !ok || raw == "" {
		return details
	}
	if err := json.Unmarshal([]byte(raw), &details); err != nil || details == nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("discarding malformed session details")
		return domain.Details{}
	}
	return details
}

func (l *Ledger) saveJSON(ctx context.Context, key domain.Key, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := l.store.Set(ctx, string(key), string(payload)); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
