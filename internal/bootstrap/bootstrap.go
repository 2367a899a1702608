package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	attendanceinadapter "officetime/internal/modules/attendance/adapter/in"
	attendanceoutadapter "officetime/internal/modules/attendance/adapter/out"
	"officetime/internal/modules/attendance/domain"
	"officetime/internal/modules/attendance/dto"
	attendanceout "officetime/internal/modules/attendance/port/out"
	"officetime/internal/modules/attendance/service"
	attendanceusecase "officetime/internal/modules/attendance/usecase"
	"officetime/internal/platform/clock"
	"officetime/internal/platform/config"
	apperrors "officetime/internal/platform/errors"
	"officetime/internal/platform/logging"
	"officetime/internal/platform/tx"
	uiapp "officetime/internal/ui/app"
)

type App struct {
	Config        config.Config
	AttendanceCLI attendanceinadapter.CLIHandler

	cache     *service.Cache
	evaluator *service.Evaluator
	daemon    attendanceout.DaemonStore
	close     func() error
}

func New(cfg config.Config) (*App, error) {
	clk := clock.SystemClock{}

	store, closeStore, err := newStore(cfg.Store)
	if err != nil {
		return nil, err
	}
	oracle, err := newOracle(cfg.Network)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	cache := service.NewCache(store)
	settings := service.NewSettings(cache)
	ledger := service.NewLedger(clk, store, cache, tx.NewMutexManager())
	evaluator := service.NewEvaluator(clk, oracle, settings, ledger, service.EvaluatorOptions{
		HeartbeatEvery: cfg.Tracking.HeartbeatEvery,
		ZombieAfter:    cfg.Tracking.ZombieAfter,
	})
	attendanceUC := attendanceusecase.NewInteractor(clk, evaluator, ledger, settings)

	return &App{
		Config:        cfg,
		AttendanceCLI: attendanceinadapter.NewCLIHandler(attendanceUC),
		cache:         cache,
		evaluator:     evaluator,
		daemon:        attendanceoutadapter.NewFileDaemonStore(cfg.PIDPath()),
		close:         closeStore,
	}, nil
}

func (a *App) Close() error {
	if a.close == nil {
		return nil
	}
	return a.close()
}

func newStore(cfg config.StoreConfig) (attendanceout.Store, func() error, error) {
	switch cfg.Driver {
	case config.StoreFile:
		return attendanceoutadapter.NewFileStore(cfg.Path), func() error { return nil }, nil
	case config.StoreSQLite:
		store, err := attendanceoutadapter.NewSQLiteStore(cfg.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("new sqlite store: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("%w: store driver %q", apperrors.ErrInvalidInput, cfg.Driver)
	}
}

func newOracle(cfg config.NetworkConfig) (attendanceout.NetworkOracle, error) {
	runner := attendanceoutadapter.ExecRunner{Timeout: cfg.Timeout}
	switch cfg.Oracle {
	case config.OracleNmcli:
		return attendanceoutadapter.NewNmcliOracle(runner, cfg.Interface), nil
	case config.OracleIwgetid:
		return attendanceoutadapter.NewIwgetidOracle(runner, cfg.Interface), nil
	case config.OracleStatic:
		return attendanceoutadapter.StaticOracle{OnWifi: cfg.StaticOnWifi, SSID: cfg.StaticSSID}, nil
	default:
		return nil, fmt.Errorf("%w: network oracle %q", apperrors.ErrInvalidInput, cfg.Oracle)
	}
}

// RunDaemon ticks the evaluator until ctx is canceled. SIGUSR1 forces a
// foreground tick and SIGHUP drops the cached settings. When configPath is set
// the file is watched and log level changes are applied live.
func RunDaemon(ctx context.Context, app *App, configPath string) error {
	ctx = logging.WithComponent(ctx, "daemon")
	log := logging.FromContext(ctx)

	if err := app.daemon.WritePID(ctx, os.Getpid()); err != nil {
		return err
	}
	defer func() {
		if err := app.daemon.ClearPID(context.Background()); err != nil {
			log.Warn().Err(err).Msg("clear pid file")
		}
	}()

	signals := make(chan os.Signal, 4)
	signal.Notify(signals, syscall.SIGUSR1, syscall.SIGHUP)
	defer signal.Stop(signals)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return tickLoop(gctx, app, signals)
	})
	if configPath != "" {
		g.Go(func() error {
			err := config.Watch(gctx, configPath, app.Config.DataDir, func(cfg config.Config) {
				applyReload(gctx, cfg)
			}, func(err error) {
				log.Warn().Err(err).Msg("config reload failed")
			})
			// Tracking keeps running without live reload.
			if err != nil {
				log.Warn().Err(err).Str("path", configPath).Msg("config watch disabled")
			}
			return nil
		})
	}

	log.Info().Dur("interval", app.Config.Tracking.TickInterval).Int("pid", os.Getpid()).Msg("daemon started")
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	log.Info().Msg("daemon stopped")
	return err
}

// applyReload applies the parts of a reloaded config that can change while the
// daemon runs. Only the log level does so far.
func applyReload(ctx context.Context, cfg config.Config) {
	log := logging.FromContext(ctx)
	if !logging.SetLevel(ctx, logging.ParseLevel(cfg.Logging.Level)) {
		log.Warn().Msg("log level is fixed for this process")
	}
	log.Info().Str("level", cfg.Logging.Level).Msg("config reloaded")
}

// tickLoop is the only goroutine that drives the evaluator in the daemon.
func tickLoop(ctx context.Context, app *App, signals <-chan os.Signal) error {
	log := logging.FromContext(ctx)
	ticker := time.NewTicker(app.Config.Tracking.TickInterval)
	defer ticker.Stop()

	// Catch up with whatever happened while no daemon was running.
	_, _ = app.evaluator.Tick(ctx, domain.TriggerForeground)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			_, _ = app.evaluator.Tick(ctx, domain.TriggerInterval)
		case sig := <-signals:
			switch sig {
			case syscall.SIGHUP:
				app.cache.Reset()
				log.Info().Msg("cache reset")
				_, _ = app.evaluator.Tick(ctx, domain.TriggerForeground)
			case syscall.SIGUSR1:
				_, _ = app.evaluator.Tick(ctx, domain.TriggerForeground)
			}
		}
	}
}

// NotifyDaemon asks a running daemon to reload its cache. It returns
// ErrDaemonNotRunning when there is no live daemon.
func NotifyDaemon(ctx context.Context, app *App) error {
	return signalDaemon(ctx, app, syscall.SIGHUP)
}

// WakeDaemon asks a running daemon for an immediate foreground tick.
func WakeDaemon(ctx context.Context, app *App) error {
	return signalDaemon(ctx, app, syscall.SIGUSR1)
}

func signalDaemon(ctx context.Context, app *App, sig syscall.Signal) error {
	pid, err := app.daemon.ReadPID(ctx)
	if err != nil {
		return err
	}
	if pid == os.Getpid() {
		return nil
	}
	if err := syscall.Kill(pid, sig); err != nil {
		if errors.Is(err, syscall.ESRCH) {
			_ = app.daemon.ClearPID(ctx)
			return apperrors.ErrDaemonNotRunning
		}
		return fmt.Errorf("signal daemon %d: %w", pid, err)
	}
	return nil
}

// DaemonRunning reports whether a live daemon owns the store.
func DaemonRunning(ctx context.Context, app *App) bool {
	return signalDaemon(ctx, app, syscall.Signal(0)) == nil
}

// followerPort serves the dashboard while a daemon is ticking: it only
// observes, rereading the store every time, and forwards pause changes.
type followerPort struct {
	app *App
}

func (f followerPort) Tick(ctx context.Context, foreground bool) (dto.StatusOutput, error) {
	f.app.cache.Reset()
	if foreground {
		_ = WakeDaemon(ctx, f.app)
	}
	return f.app.AttendanceCLI.Status(ctx)
}

func (f followerPort) TogglePause(ctx context.Context) (bool, error) {
	f.app.cache.Reset()
	paused, err := f.app.AttendanceCLI.TogglePause(ctx)
	if err != nil {
		return paused, err
	}
	if err := NotifyDaemon(ctx, f.app); err != nil && !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		return paused, err
	}
	return paused, nil
}

func (f followerPort) TodaySessions(ctx context.Context) ([]dto.DetailOutput, error) {
	return f.app.AttendanceCLI.TodaySessions(ctx)
}

// RunTUI runs the dashboard. Without a daemon the dashboard drives the
// evaluator in-process; with one it follows the daemon's writes.
func RunTUI(ctx context.Context, app *App) error {
	var port uiapp.AttendancePort = app.AttendanceCLI
	if DaemonRunning(ctx, app) {
		port = followerPort{app: app}
	}
	model := uiapp.NewModel(ctx, port, app.Config.Tracking.TickInterval)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
