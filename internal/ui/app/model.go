package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"officetime/internal/modules/attendance/dto"
	"officetime/internal/ui/theme"
)

// AttendancePort is the slice of the attendance CLI handler the dashboard needs.
type AttendancePort interface {
	Tick(ctx context.Context, foreground bool) (dto.StatusOutput, error)
	TogglePause(ctx context.Context) (bool, error)
	TodaySessions(ctx context.Context) ([]dto.DetailOutput, error)
}

type tickMsg time.Time

type statusMsg struct {
	status   dto.StatusOutput
	sessions []dto.DetailOutput
	err      error
}

type pauseMsg struct {
	paused bool
	err    error
}

type keyMap struct {
	Refresh key.Binding
	Pause   key.Binding
	Help    key.Binding
	Quit    key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Pause:   key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause/resume")),
		Help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:    key.NewBinding(key.WithKeys("ctrl+c", "q"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Refresh, k.Pause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Refresh, k.Pause}, {k.Help, k.Quit}}
}

// Model is the dashboard. It drives the evaluator itself: one interval tick
// per period and a foreground tick on start and on refresh. At most one tick
// runs at a time; a foreground request made meanwhile runs right after it.
type Model struct {
	ctx        context.Context
	attendance AttendancePort
	interval   time.Duration

	keys     keyMap
	help     help.Model
	progress progress.Model

	status   dto.StatusOutput
	sessions []dto.DetailOutput
	loaded   bool
	inFlight bool
	pending  bool
	lastErr  error
	note     string
	width    int
}

// NewModel builds the dashboard. ctx is handed to every call into attendance.
// The model starts with the tick issued by Init in flight.
func NewModel(ctx context.Context, attendance AttendancePort, interval time.Duration) Model {
	if interval <= 0 {
		interval = time.Second
	}
	return Model{
		ctx:        ctx,
		inFlight:   true,
		attendance: attendance,
		interval:   interval,
		keys:       defaultKeys(),
		help:       help.New(),
		progress:   progress.New(progress.WithGradient(theme.ProgressFrom, theme.ProgressTo)),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.evaluateCmd(true), m.scheduleTick())
}

func (m Model) scheduleTick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) evaluateCmd(foreground bool) tea.Cmd {
	ctx, attendance := m.ctx, m.attendance
	return func() tea.Msg {
		status, err := attendance.Tick(ctx, foreground)
		if err != nil {
			return statusMsg{status: status, err: err}
		}
		sessions, err := attendance.TodaySessions(ctx)
		return statusMsg{status: status, sessions: sessions, err: err}
	}
}

func (m Model) togglePauseCmd() tea.Cmd {
	ctx, attendance := m.ctx, m.attendance
	return func() tea.Msg {
		paused, err := attendance.TogglePause(ctx)
		return pauseMsg{paused: paused, err: err}
	}
}

// foreground starts a foreground tick, or queues one behind the tick in flight.
func (m Model) foreground() (Model, tea.Cmd) {
	if m.inFlight {
		m.pending = true
		return m, nil
	}
	m.inFlight = true
	return m, m.evaluateCmd(true)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		m.progress.Width = max(10, min(msg.Width-12, 60))

	case tickMsg:
		// Interval ticks that land while one is still running are dropped.
		if m.inFlight {
			return m, m.scheduleTick()
		}
		m.inFlight = true
		return m, tea.Batch(m.evaluateCmd(false), m.scheduleTick())

	case statusMsg:
		m.inFlight = false
		m.lastErr = msg.err
		if !msg.status.At.IsZero() {
			m.status = msg.status
			m.loaded = true
		}
		if msg.err == nil {
			m.sessions = msg.sessions
		}
		if m.pending {
			m.pending = false
			return m.foreground()
		}

	case pauseMsg:
		if msg.err != nil {
			m.lastErr = msg.err
			return m, nil
		}
		if msg.paused {
			m.note = "tracking paused"
		} else {
			m.note = "tracking resumed"
		}
		return m.foreground()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Refresh):
			m.note = ""
			return m.foreground()
		case key.Matches(msg, m.keys.Pause):
			return m, m.togglePauseCmd()
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m Model) View() string {
	if !m.loaded {
		if m.lastErr != nil {
			return theme.App.Render(theme.Error.Render("error: " + m.lastErr.Error()))
		}
		return theme.App.Render(theme.Muted.Render("checking network..."))
	}
	s := m.status

	var b strings.Builder
	b.WriteString(theme.Title.Render("officetime"))
	b.WriteString("  ")
	b.WriteString(m.renderLabel())
	b.WriteString("\n\n")

	pane := theme.Pane
	if s.Tracking {
		pane = theme.PaneTracking
	}
	b.WriteString(pane.Render(m.renderNumbers()))
	b.WriteString("\n\n")

	b.WriteString(theme.Title.Render("Today's sessions"))
	b.WriteString("\n")
	b.WriteString(m.renderSessions())
	b.WriteString("\n")

	if m.lastErr != nil {
		b.WriteString(theme.Error.Render("last tick failed: " + m.lastErr.Error()))
		b.WriteString("\n")
	} else if m.note != "" {
		b.WriteString(theme.Muted.Render(m.note))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return theme.App.Render(b.String())
}

func (m Model) renderLabel() string {
	switch {
	case m.status.Tracking:
		return theme.Tracking.Render(m.status.StatusLabel)
	case m.status.Paused:
		return theme.Paused.Render(m.status.StatusLabel)
	default:
		return theme.Muted.Render(m.status.StatusLabel)
	}
}

func (m Model) renderNumbers() string {
	s := m.status
	goal := time.Duration(s.GoalHours * float64(time.Hour))
	today := s.Today + s.Elapsed
	pct := 0.0
	if goal > 0 {
		pct = min(1, float64(today)/float64(goal))
	}

	rows := []string{
		fmt.Sprintf("%s %s", theme.Muted.Render("Current session"), FormatClock(s.Elapsed)),
		fmt.Sprintf("%s %s", theme.Muted.Render("Today          "), theme.Hot.Render(FormatClock(today))),
		fmt.Sprintf("%s %s", theme.Muted.Render("Goal           "), FormatHours(s.GoalHours)),
		m.progress.ViewAs(pct),
	}
	if remaining := goal - today; remaining > 0 {
		rows = append(rows, theme.Muted.Render(fmt.Sprintf("%s to go", FormatClock(remaining))))
	} else {
		rows = append(rows, theme.Tracking.Render("goal reached"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderSessions() string {
	if len(m.sessions) == 0 && m.status.Session == nil {
		return theme.Muted.Render("  none yet") + "\n"
	}
	var b strings.Builder
	for _, d := range m.sessions {
		fmt.Fprintf(&b, "  %s - %s  %s\n", d.Start.Format("15:04"), d.End.Format("15:04"), FormatClock(d.Duration))
	}
	if cur := m.status.Session; cur != nil {
		fmt.Fprintf(&b, "  %s - now    %s\n", cur.Start.Format("15:04"), theme.Tracking.Render(FormatClock(cur.Elapsed)))
	}
	return b.String()
}

// FormatClock renders a duration as H:MM:SS.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Truncate(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	mnt := d / time.Minute
	d -= mnt * time.Minute
	return fmt.Sprintf("%d:%02d:%02d", h, mnt, d/time.Second)
}

func FormatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".") + "h"
}
