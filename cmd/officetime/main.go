package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"officetime/internal/bootstrap"
	"officetime/internal/modules/attendance/dto"
	"officetime/internal/platform/config"
	apperrors "officetime/internal/platform/errors"
	"officetime/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	dataDir    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "officetime",
		Short:         "Track time spent on the office Wi-Fi",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath(), "config file (YAML)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", "", "data directory (overrides config)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newTUICmd(opts))
	root.AddCommand(newTickCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newDayCmd(opts))
	root.AddCommand(newHistoryCmd(opts))
	root.AddCommand(newGoalCmd(opts))
	root.AddCommand(newPauseCmd(opts))
	root.AddCommand(newTargetCmd(opts))
	return root
}

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "officetime", "config.yaml")
}

// loadApp builds the app and a context carrying a logger that writes to logOut.
func loadApp(opts *rootOptions, logOut io.Writer) (*bootstrap.App, context.Context, error) {
	cfg, err := config.Load(opts.configPath, opts.dataDir)
	if err != nil {
		return nil, nil, err
	}
	logger, levels := logging.NewFromValues(cfg.Logging.Level, cfg.Logging.Format, logOut)
	ctx := logging.WithLevels(logging.WithContext(context.Background(), logger), levels)
	app, err := bootstrap.New(cfg)
	if err != nil {
		return nil, nil, err
	}
	return app, ctx, nil
}

// withApp runs fn against a freshly built app and closes it afterwards.
func withApp(opts *rootOptions, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, ctx, err := loadApp(opts, os.Stderr)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(ctx, app)
}

// notify tells a running daemon that settings changed underneath it.
func notify(ctx context.Context, cmd *cobra.Command, app *bootstrap.App) {
	err := bootstrap.NotifyDaemon(ctx, app)
	if err != nil && !errors.Is(err, apperrors.ErrDaemonNotRunning) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: could not notify daemon: %v\n", err)
	}
}

func newRunCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the background tracker",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, ctx, err := loadApp(opts, os.Stderr)
			if err != nil {
				return err
			}
			defer app.Close()
			if bootstrap.DaemonRunning(ctx, app) {
				return fmt.Errorf("a tracker is already running for %s", app.Config.DataDir)
			}
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunDaemon(ctx, app, opts.configPath)
		},
	}
}

func newTUICmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Open the live dashboard",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, ctx, err := loadApp(opts, io.Discard)
			if err != nil {
				return err
			}
			defer app.Close()
			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return bootstrap.RunTUI(ctx, app)
		},
	}
}

func newTickCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tick",
		Short: "Evaluate the network once, or wake the running tracker",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := bootstrap.WakeDaemon(ctx, app); err == nil {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "tracker notified")
					return nil
				}
				status, err := app.AttendanceCLI.Tick(ctx, true)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show network and session status without changing anything",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				status, err := app.AttendanceCLI.Status(ctx)
				if err != nil {
					return err
				}
				printStatus(cmd.OutOrStdout(), status)
				return nil
			})
		},
	}
}

func printStatus(w io.Writer, s dto.StatusOutput) {
	_, _ = fmt.Fprintln(w, s.StatusLabel)
	if s.Session != nil {
		_, _ = fmt.Fprintf(w, "session: since %s (%s)\n", s.Session.Start.Format("15:04:05"), formatDuration(s.Session.Elapsed))
	} else {
		_, _ = fmt.Fprintln(w, "session: none")
	}
	_, _ = fmt.Fprintf(w, "today: %s of %sh goal\n", formatDuration(s.Today+s.Elapsed), trimFloat(s.GoalHours))
	if s.Paused {
		_, _ = fmt.Fprintln(w, "manual pause: on")
	}
}

func newDayCmd(opts *rootOptions) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "day",
		Short: "Summarize one day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				summary, err := app.AttendanceCLI.Day(ctx, day)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "%s  total %s\n", summary.Day, formatDuration(summary.Total))
				if len(summary.Sessions) == 0 {
					_, _ = fmt.Fprintln(out, "no sessions")
				}
				for _, s := range summary.Sessions {
					_, _ = fmt.Fprintf(out, "  %s - %s  %s\n", s.Start.Format("15:04:05"), s.End.Format("15:04:05"), formatDuration(s.Duration))
				}
				if len(summary.Sessions) > 0 {
					_, _ = fmt.Fprintf(out, "arrived %s, left %s, breaks %s\n",
						summary.FirstArrival.Format("15:04"), summary.LastDeparture.Format("15:04"), formatDuration(summary.Break))
				}
				_, _ = fmt.Fprintf(out, "goal %s: %.0f%%", formatDuration(summary.Goal), summary.GoalProgress*100)
				if summary.GoalMet {
					_, _ = fmt.Fprintln(out, " (met)")
				} else {
					_, _ = fmt.Fprintf(out, " (%s to go)\n", formatDuration(summary.GoalRemaining))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "day to show as YYYY-MM-DD (default today)")
	return cmd
}

func newHistoryCmd(opts *rootOptions) *cobra.Command {
	var from, to string
	history := &cobra.Command{
		Use:   "history",
		Short: "List recorded time per day",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				rows, err := app.AttendanceCLI.History(ctx, from, to)
				if err != nil {
					return err
				}
				if len(rows) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no history")
					return nil
				}
				var total time.Duration
				for _, row := range rows {
					total += row.Total
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", row.Day, formatDuration(row.Total))
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "total\t%s\n", formatDuration(total))
				return nil
			})
		},
	}
	history.Flags().StringVar(&from, "from", "", "first day YYYY-MM-DD")
	history.Flags().StringVar(&to, "to", "", "last day YYYY-MM-DD")

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded history and session details",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("%w: pass --yes to delete all history", apperrors.ErrInvalidInput)
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.AttendanceCLI.ClearHistory(ctx); err != nil {
					return err
				}
				notify(ctx, cmd, app)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "history cleared")
				return nil
			})
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")
	history.AddCommand(clearCmd)
	return history
}

func newGoalCmd(opts *rootOptions) *cobra.Command {
	goal := &cobra.Command{Use: "goal", Short: "Daily goal in hours"}
	goal.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the daily goal",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				hours, err := app.AttendanceCLI.GoalHours(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%sh\n", trimFloat(hours))
				return nil
			})
		},
	})
	goal.AddCommand(&cobra.Command{
		Use:   "set <hours>",
		Short: "Set the daily goal (0 < hours <= 24)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.AttendanceCLI.SetGoalHours(ctx, args[0]); err != nil {
					return err
				}
				notify(ctx, cmd, app)
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "goal set to %sh\n", args[0])
				return nil
			})
		},
	})
	return goal
}

func newPauseCmd(opts *rootOptions) *cobra.Command {
	pause := &cobra.Command{
		Use:   "pause",
		Short: "Show or change the manual pause",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				paused, err := app.AttendanceCLI.Paused(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "manual pause: %s\n", onOff(paused))
				return nil
			})
		},
	}
	for _, state := range []struct {
		use    string
		paused bool
	}{{"on", true}, {"off", false}} {
		paused := state.paused
		pause.AddCommand(&cobra.Command{
			Use:   state.use,
			Short: "Turn the manual pause " + state.use,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
					if err := app.AttendanceCLI.SetPaused(ctx, paused); err != nil {
						return err
					}
					notify(ctx, cmd, app)
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "manual pause: %s\n", onOff(paused))
					return nil
				})
			},
		})
	}
	return pause
}

func newTargetCmd(opts *rootOptions) *cobra.Command {
	target := &cobra.Command{Use: "target", Short: "Office network settings"}
	target.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the office network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.AttendanceCLI.Target(ctx)
				if err != nil {
					return err
				}
				if !out.Configured {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no office network configured")
					return nil
				}
				raw := out.RawID
				if raw == "" {
					raw = "(any Wi-Fi)"
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "name: %s\nssid: %s\n", out.Name, raw)
				return nil
			})
		},
	})

	var name string
	set := &cobra.Command{
		Use:   "set [ssid]",
		Short: "Set the office network; without an ssid any Wi-Fi counts",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rawID := ""
			if len(args) == 1 {
				rawID = args[0]
			}
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.AttendanceCLI.SetTarget(ctx, name, rawID); err != nil {
					return err
				}
				notify(ctx, cmd, app)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "office network saved")
				return nil
			})
		},
	}
	set.Flags().StringVar(&name, "name", "", "display name (defaults to the ssid)")
	target.AddCommand(set)

	target.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget the office network",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(opts, func(ctx context.Context, app *bootstrap.App) error {
				if err := app.AttendanceCLI.ClearTarget(ctx); err != nil {
					return err
				}
				notify(ctx, cmd, app)
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "office network cleared")
				return nil
			})
		},
	})
	return target
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
}

func trimFloat(f float64) string {
	return fmt.Sprintf("%g", f)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
