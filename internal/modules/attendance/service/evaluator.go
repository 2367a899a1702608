package service

import (
	"context"
	"fmt"
	"time"

	"officetime/internal/modules/attendance/domain"
	attendanceout "officetime/internal/modules/attendance/port/out"
	"officetime/internal/platform/clock"
	apperrors "officetime/internal/platform/errors"
	"officetime/internal/platform/logging"
)

type EvaluatorOptions struct {
	// HeartbeatEvery throttles lastActive writes while tracking.
	HeartbeatEvery time.Duration
	// ZombieAfter is how long a session may go without a heartbeat before it
	// is force-ended.
	ZombieAfter time.Duration
}

func DefaultEvaluatorOptions() EvaluatorOptions {
	return EvaluatorOptions{HeartbeatEvery: 5 * time.Second, ZombieAfter: 20 * time.Minute}
}

// Evaluator reconciles live network state with the stored settings and the
// live session once per tick. A failed tick leaves state untouched and returns
// the error; the next tick simply tries again.
type Evaluator struct {
	clock    clock.Clock
	oracle   attendanceout.NetworkOracle
	settings *Settings
	ledger   *Ledger
	opts     EvaluatorOptions
}

func NewEvaluator(clk clock.Clock, oracle attendanceout.NetworkOracle, settings *Settings, ledger *Ledger, opts EvaluatorOptions) *Evaluator {
	defaults := DefaultEvaluatorOptions()
	if opts.HeartbeatEvery <= 0 {
		opts.HeartbeatEvery = defaults.HeartbeatEvery
	}
	if opts.ZombieAfter <= 0 {
		opts.ZombieAfter = defaults.ZombieAfter
	}
	return &Evaluator{clock: clk, oracle: oracle, settings: settings, ledger: ledger, opts: opts}
}

func (e *Evaluator) Tick(ctx context.Context, trigger domain.Trigger) (domain.Snapshot, error) {
	return e.evaluate(ctx, trigger, true)
}

// Observe computes the same snapshot as Tick without writing anything. The
// reported Action is what the next tick would do.
func (e *Evaluator) Observe(ctx context.Context) (domain.Snapshot, error) {
	return e.evaluate(ctx, domain.TriggerForeground, false)
}

func (e *Evaluator) evaluate(ctx context.Context, trigger domain.Trigger, mutate bool) (domain.Snapshot, error) {
	log := logging.FromContext(ctx)
	now := e.clock.Now()
	snap := domain.Snapshot{At: now, Trigger: trigger, Action: domain.ActionNone}

	onWifi, err := e.oracle.IsOnWifi(ctx)
	if err != nil {
		return e.skip(ctx, snap, fmt.Errorf("%w: %v", apperrors.ErrOracleUnavailable, err))
	}
	identifier, resolved := "", false
	if onWifi {
		identifier, resolved, err = e.oracle.ResolvedIdentifier(ctx)
		if err != nil {
			return e.skip(ctx, snap, fmt.Errorf("%w: %v", apperrors.ErrOracleUnavailable, err))
		}
		identifier = domain.StripQuotes(identifier)
		resolved = resolved && identifier != ""
	}
	snap.OnWifi, snap.Identifier = onWifi, identifier

	settings, err := e.settings.Load(ctx)
	if err != nil {
		return e.skip(ctx, snap, err)
	}
	if !onWifi && settings.ManualPause && mutate {
		if err := e.settings.SetManualPause(ctx, false); err != nil {
			return e.skip(ctx, snap, err)
		}
		settings.ManualPause = false
		log.Info().Msg("manual pause cleared after disconnect")
	}
	snap.Settings = settings
	snap.Matched = domain.MatchesTarget(onWifi, identifier, resolved, settings.TargetRawID, settings.HasRawID)

	session, err := e.ledger.GetCurrentSession(ctx)
	if err != nil {
		return e.skip(ctx, snap, err)
	}

	action := domain.Decide(domain.DecisionInput{
		Now:            now,
		Session:        session,
		ShouldTrack:    domain.ShouldTrack(snap.Matched, settings),
		HeartbeatEvery: e.opts.HeartbeatEvery,
		ZombieAfter:    e.opts.ZombieAfter,
	})
	snap.Action = action
	if !mutate {
		return e.project(ctx, snap, session)
	}

	session, err = e.apply(ctx, action, session)
	if err != nil {
		snap.Session = session
		return e.skip(ctx, snap, err)
	}
	if action != domain.ActionNone {
		log.Debug().Str("action", string(action)).Str("trigger", string(trigger)).Msg("tick applied")
	}
	return e.project(ctx, snap, session)
}

// apply drives the ledger for one decided action and returns the live session
// afterwards.
func (e *Evaluator) apply(ctx context.Context, action domain.Action, session *domain.Session) (*domain.Session, error) {
	switch action {
	case domain.ActionZombieEnd, domain.ActionStop:
		if action == domain.ActionZombieEnd {
			logging.FromContext(ctx).Warn().Time("last_active", session.LastActive).Msg("ending stale session")
		}
		res, err := e.ledger.EndSession(ctx)
		if err != nil || res.Skipped {
			return session, err
		}
		return nil, nil
	case domain.ActionStart:
		started, err := e.ledger.StartSession(ctx)
		if err != nil {
			return nil, err
		}
		return &started, nil
	case domain.ActionRollover:
		res, err := e.ledger.EndSession(ctx)
		if err != nil || res.Skipped {
			return session, err
		}
		started, err := e.ledger.StartSession(ctx)
		if err != nil {
			return nil, err
		}
		return &started, nil
	case domain.ActionHeartbeat:
		updated, err := e.ledger.UpdateSessionHeartbeat(ctx)
		if err != nil {
			return session, err
		}
		return updated, nil
	default:
		return session, nil
	}
}

func (e *Evaluator) project(ctx context.Context, snap domain.Snapshot, session *domain.Session) (domain.Snapshot, error) {
	snap.Session = session
	snap.Tracking = session != nil
	if session != nil {
		snap.Elapsed = session.Elapsed(snap.At)
	}
	snap.StatusLabel = domain.StatusLabel(snap.OnWifi, snap.Matched, snap.Identifier, snap.Settings, snap.Tracking)
	today, err := e.ledger.GetTodayDuration(ctx)
	if err != nil {
		return e.skip(ctx, snap, err)
	}
	snap.Today = today
	return snap, nil
}

func (e *Evaluator) skip(ctx context.Context, snap domain.Snapshot, err error) (domain.Snapshot, error) {
	logging.FromContext(ctx).Warn().Err(err).Str("trigger", string(snap.Trigger)).Msg("tick skipped")
	if snap.StatusLabel == "" {
		snap.StatusLabel = "Status unavailable, retrying"
	}
	snap.Tracking = snap.Session != nil
	return snap, err
}
